package cache

import (
	"sync/atomic"
	"time"
)

// Metrics counts cache outcomes for one or more decorators. It is safe for concurrent use.
type Metrics struct {
	hits     atomic.Uint64
	misses   atomic.Uint64
	degraded atomic.Uint64

	gets timedOps
	sets timedOps

	// one invalidation pass per successful write
	invalidations   atomic.Uint64
	invalidatedKeys atomic.Uint64
}

// timedOps accumulates an operation count and its total latency in nanoseconds
type timedOps struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *timedOps) record(d time.Duration) {
	t.count.Add(1)
	if d > 0 {
		t.nanos.Add(uint64(d))
	}
}

func (t *timedOps) load() (uint64, time.Duration) {
	n := t.count.Load()
	if n == 0 {
		return 0, 0
	}
	return n, time.Duration(t.nanos.Load() / n)
}

// NewMetrics creates an empty metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCacheHit counts a read served from cache
func (m *Metrics) RecordCacheHit() { m.hits.Add(1) }

// RecordCacheMiss counts a read that fell through to the repository
func (m *Metrics) RecordCacheMiss() { m.misses.Add(1) }

// RecordDegraded counts a cache failure absorbed by the decorator
func (m *Metrics) RecordDegraded() { m.degraded.Add(1) }

// RecordGet records the latency of one cache read
func (m *Metrics) RecordGet(d time.Duration) { m.gets.record(d) }

// RecordSet records the latency of one cache write
func (m *Metrics) RecordSet(d time.Duration) { m.sets.record(d) }

// RecordInvalidation records one invalidation pass and the keys it removed
func (m *Metrics) RecordInvalidation(keys int) {
	m.invalidations.Add(1)
	m.invalidatedKeys.Add(uint64(keys))
}

// GetSnapshot returns a point-in-time copy of the counters
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		CacheHits:         m.hits.Load(),
		CacheMisses:       m.misses.Load(),
		Degraded:          m.degraded.Load(),
		InvalidationCount: m.invalidations.Load(),
		InvalidatedKeys:   m.invalidatedKeys.Load(),
	}
	if reads := s.CacheHits + s.CacheMisses; reads > 0 {
		s.CacheHitRate = float64(s.CacheHits) / float64(reads) * 100
	}
	s.GetOperations, s.AvgGetLatency = m.gets.load()
	s.SetOperations, s.AvgSetLatency = m.sets.load()
	return s
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	CacheHits    uint64  `json:"cacheHits"`
	CacheMisses  uint64  `json:"cacheMisses"`
	Degraded     uint64  `json:"degraded"`
	CacheHitRate float64 `json:"cacheHitRate"` // percent

	GetOperations uint64        `json:"getOperations"`
	SetOperations uint64        `json:"setOperations"`
	AvgGetLatency time.Duration `json:"avgGetLatency"`
	AvgSetLatency time.Duration `json:"avgSetLatency"`

	InvalidationCount uint64 `json:"invalidationCount"`
	InvalidatedKeys   uint64 `json:"invalidatedKeys"`
}
