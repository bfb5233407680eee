package cache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(address string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   db,
	})

	// Redis may come up after us, retry the ping for a short while
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		return struct{}{}, client.Ping(context.Background()).Err()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(30*time.Second))

	if err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

func (r *RedisCache) Get(key string) ([]byte, bool) {
	value, err := r.client.Get(context.Background(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return value, true
}

func (r *RedisCache) Set(key string, value []byte, ttl time.Duration) {
	err := r.client.Set(context.Background(), key, value, ttl).Err()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to write cache key")
	}
}

func (r *RedisCache) Forget(key string) {
	err := r.client.Del(context.Background(), key).Err()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to delete cache key")
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
