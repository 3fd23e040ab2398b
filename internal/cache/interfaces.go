package cache

import (
	"context"
	"time"
)

// Cache is the byte store behind the pricing rate cache and the checkout
// handoff outbox. MemoryCache serves single-instance deployments, RedisCache
// shares state between API replicas.
type Cache interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value only if key does not exist. It reports whether it stored.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Take returns the value and deletes key in one step, so at most one
	// caller ever receives it. ErrCacheMiss when absent.
	Take(ctx context.Context, key string) ([]byte, error)

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// GetOrSet returns the cached value or stores the result of fn.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error)

	Ping(ctx context.Context) error

	Close() error
}

// CacheError is a constant cache error.
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
