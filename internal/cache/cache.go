package cache

import "time"

// Cache is the TTL key-value store backing the OAuth state store and the
// discovery cache. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Forget(key string)
	Close() error
}
