package cache

import (
	"context"
	"time"
)

// Client is the key-value contract the cache-aside layer needs.
// Keys are logical (e.g. "product:42"); namespacing is up to the implementation.
type Client interface {
	// Get returns ErrMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists keys matching a glob pattern
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
}
