package cache

import (
	"errors"

	"github.com/ammar0144/catalog4go/pkg/redis"
)

var (
	// ErrMiss is returned by a Client when the key is absent or expired
	ErrMiss = redis.ErrKeyNotFound

	// ErrCacheDegraded marks a cache failure that was absorbed; it is logged and never returned to callers
	ErrCacheDegraded = errors.New("cache degraded")
)

// IsMiss checks if an error is ErrMiss
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
