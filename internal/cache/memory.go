package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, time.Minute),
	}
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	value, found := m.cache.Get(key)
	if !found {
		return nil, false
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil, false
	}
	return bytes, true
}

func (m *MemoryCache) Set(key string, value []byte, ttl time.Duration) {
	m.cache.Set(key, value, ttl)
}

func (m *MemoryCache) Forget(key string) {
	m.cache.Delete(key)
}

func (m *MemoryCache) Close() error {
	m.cache.Flush()
	return nil
}
