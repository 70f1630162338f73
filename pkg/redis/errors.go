package redis

import "errors"

var (
	// ErrCacheDisabled is returned by every operation on a manager built from a disabled config
	ErrCacheDisabled = errors.New("redis cache is disabled")
	// ErrClientNotInitialized means the manager has no client
	ErrClientNotInitialized = errors.New("redis client not initialized")
	// ErrKeyNotFound signals a miss; callers treat it as a normal outcome
	ErrKeyNotFound = errors.New("cache key not found")
	// ErrConnectionFailed wraps a failed ping
	ErrConnectionFailed = errors.New("redis connection failed")
	// ErrInvalidKey rejects empty keys and patterns
	ErrInvalidKey = errors.New("invalid cache key")
)

func IsCacheDisabled(err error) bool    { return errors.Is(err, ErrCacheDisabled) }
func IsKeyNotFound(err error) bool      { return errors.Is(err, ErrKeyNotFound) }
func IsConnectionFailed(err error) bool { return errors.Is(err, ErrConnectionFailed) }
