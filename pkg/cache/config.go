package cache

import (
	"fmt"
	"time"
)

// Backend selects the cache client implementation
type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
	BackendNone   Backend = "none"
)

// KeyMode selects how collection reads are keyed
type KeyMode string

const (
	// KeyModeFlat caches every listing under one collection key, whatever the filter or page
	KeyModeFlat KeyMode = "flat"

	// KeyModePerView caches each distinct request under its own hashed key
	KeyModePerView KeyMode = "per_view"
)

// Config controls the cache-aside layer
type Config struct {
	Backend       Backend       `mapstructure:"backend" validate:"omitempty,oneof=redis memory none"`
	EntityTTL     time.Duration `mapstructure:"entity_ttl"`
	CollectionTTL time.Duration `mapstructure:"collection_ttl"`
	KeyMode       KeyMode       `mapstructure:"key_mode" validate:"omitempty,oneof=flat per_view"`
	Memory        MemoryConfig  `mapstructure:"memory"`
}

// MemoryConfig sizes the in-process backend
type MemoryConfig struct {
	Capacity           int `mapstructure:"capacity"`
	NumShards          int `mapstructure:"num_shards"`
	EvictionPercentage int `mapstructure:"eviction_percentage"`
}

// DefaultConfig returns the cache defaults: redis backend, one-hour entries, flat collection key
func DefaultConfig() Config {
	return Config{
		Backend:       BackendRedis,
		EntityTTL:     time.Hour,
		CollectionTTL: time.Hour,
		KeyMode:       KeyModeFlat,
		Memory: MemoryConfig{
			Capacity:           10000,
			NumShards:          64,
			EvictionPercentage: 10,
		},
	}
}

// Validate checks if the cache configuration is valid
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis, BackendMemory, BackendNone, "":
	default:
		return fmt.Errorf("unsupported cache backend %q", c.Backend)
	}
	switch c.KeyMode {
	case KeyModeFlat, KeyModePerView, "":
	default:
		return fmt.Errorf("unsupported cache key mode %q", c.KeyMode)
	}
	if c.EntityTTL < 0 || c.CollectionTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}
	if c.Backend == BackendMemory {
		return c.Memory.Validate()
	}
	return nil
}

// Validate checks the in-process cache sizing
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("memory cache capacity must be greater than 0")
	}
	if c.NumShards <= 0 {
		return fmt.Errorf("memory cache num_shards must be greater than 0")
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return fmt.Errorf("memory cache eviction_percentage must be between 1 and 100")
	}
	return nil
}
