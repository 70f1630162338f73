package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeySeparator = ":"

// Manager manages Redis connections and raw cache operations
type Manager struct {
	config        *Config
	client        redis.UniversalClient
	clusterClient *redis.ClusterClient
}

// NewManager validates config and builds a standalone or cluster client.
// A disabled config yields a manager whose operations return ErrCacheDisabled.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	if !config.Enabled {
		return &Manager{config: config}, nil
	}
	return NewManagerWithClient(config, newClient(config)), nil
}

// NewManagerWithClient wraps an existing go-redis client, e.g. one shared with other components
func NewManagerWithClient(config *Config, client redis.UniversalClient) *Manager {
	m := &Manager{config: config, client: client}
	if cc, ok := client.(*redis.ClusterClient); ok {
		m.clusterClient = cc
	}
	return m
}

func newClient(c *Config) redis.UniversalClient {
	if c.IsClusterMode() {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           c.Cluster.Addresses,
			Username:        c.Cluster.Username,
			Password:        c.Cluster.Password,
			PoolSize:        c.PoolSize,
			MinIdleConns:    c.MinIdleConns,
			PoolTimeout:     c.PoolTimeout,
			ConnMaxLifetime: c.MaxConnAge,
			ConnMaxIdleTime: c.IdleTimeout,
			DialTimeout:     c.DialTimeout,
			ReadTimeout:     c.ReadTimeout,
			WriteTimeout:    c.WriteTimeout,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:            c.GetAddr(),
		Username:        c.Username,
		Password:        c.Password,
		DB:              c.Database,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		PoolTimeout:     c.PoolTimeout,
		ConnMaxLifetime: c.MaxConnAge,
		ConnMaxIdleTime: c.IdleTimeout,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
	})
}

// Close closes the client if one was created
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

// Ping reports whether Redis answers. A disabled manager is always healthy.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// checkClient validates that cache is enabled and client is initialized
func (m *Manager) checkClient() error {
	if !m.config.Enabled {
		return ErrCacheDisabled
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	return nil
}

// key prepends the configured namespace
func (m *Manager) key(k string) string {
	if m.config.KeyPrefix == "" {
		return k
	}
	return m.config.KeyPrefix + cacheKeySeparator + k
}

// unkey strips the configured namespace
func (m *Manager) unkey(k string) string {
	if m.config.KeyPrefix == "" {
		return k
	}
	return strings.TrimPrefix(k, m.config.KeyPrefix+cacheKeySeparator)
}

// Get retrieves a value from cache, returning ErrKeyNotFound on a miss
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrInvalidKey
	}

	data, err := m.client.Get(ctx, m.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return data, nil
}

// SetWithTTL stores a value in cache with a custom TTL (0 means no expiry)
func (m *Manager) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.checkClient(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}

	if err := m.client.Set(ctx, m.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete removes keys from cache; missing keys are not an error
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if err := m.checkClient(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = m.key(k)
	}

	// Cluster DEL only accepts keys from one slot, so delete them one by one
	if m.clusterClient != nil {
		for _, k := range full {
			if err := m.client.Del(ctx, k).Err(); err != nil {
				return fmt.Errorf("redis delete error: %w", err)
			}
		}
		return nil
	}

	if err := m.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Keys lists keys matching a glob pattern. It walks the keyspace with SCAN.
func (m *Manager) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}
	if pattern == "" {
		return nil, ErrInvalidKey
	}

	if m.clusterClient == nil {
		return m.scan(ctx, m.client, pattern)
	}

	// Each master holds a disjoint part of the keyspace
	var (
		mu   sync.Mutex
		keys []string
	)
	err := m.clusterClient.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		found, err := m.scan(ctx, node, pattern)
		if err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, found...)
		mu.Unlock()
		return nil
	})
	return keys, err
}

func (m *Manager) scan(ctx context.Context, client redis.Cmdable, pattern string) ([]string, error) {
	batch := m.config.ScanBatchSize
	if batch <= 0 {
		batch = 100
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		found, next, err := client.Scan(ctx, cursor, m.key(pattern), batch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys with pattern %s: %w", pattern, err)
		}
		for _, k := range found {
			keys = append(keys, m.unkey(k))
		}

		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// PoolStats returns connection pool statistics, or nil when disabled
func (m *Manager) PoolStats() *redis.PoolStats {
	if m.client == nil {
		return nil
	}
	return m.client.PoolStats()
}
