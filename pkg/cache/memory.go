package cache

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/viccon/sturdyc"
)

const defaultMemoryTTL = 24 * time.Hour

// memoryEntry carries its own deadline because sturdyc applies one TTL to the whole client
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryClient is an in-process Client backed by sturdyc
type MemoryClient struct {
	store  *sturdyc.Client[memoryEntry]
	maxTTL time.Duration
	now    func() time.Time
}

// NewMemoryClient creates an in-process client; maxTTL bounds every entry (0 uses 24h)
func NewMemoryClient(cfg MemoryConfig, maxTTL time.Duration) (*MemoryClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if maxTTL <= 0 {
		maxTTL = defaultMemoryTTL
	}

	return &MemoryClient{
		store:  sturdyc.New[memoryEntry](cfg.Capacity, cfg.NumShards, maxTTL, cfg.EvictionPercentage),
		maxTTL: maxTTL,
		now:    time.Now,
	}, nil
}

// Get implements Client
func (m *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := m.store.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.store.Delete(key)
		return nil, ErrMiss
	}
	return e.value, nil
}

// SetWithTTL implements Client; ttl is capped at the client's maxTTL
func (m *MemoryClient) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}
	if ttl <= 0 || ttl > m.maxTTL {
		ttl = m.maxTTL
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	m.store.Set(key, memoryEntry{value: buf, expiresAt: m.now().Add(ttl)})
	return nil
}

// Delete implements Client
func (m *MemoryClient) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.store.Delete(k)
	}
	return nil
}

// Keys implements Client using path.Match glob semantics
func (m *MemoryClient) Keys(_ context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
	}

	var keys []string
	for _, k := range m.store.ScanKeys() {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Ping implements Client
func (m *MemoryClient) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, including expired ones not yet evicted
func (m *MemoryClient) Len() int {
	return m.store.Size()
}
