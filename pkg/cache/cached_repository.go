package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/repository"

	"github.com/cespare/xxhash/v2"
)

const (
	keySeparator = ":"
	viewSegment  = "view"
)

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[repository.Entity] = (*CachedRepository[repository.Entity])(nil)

// ParamsValidator is implemented by repositories that can reject a list request
// without querying; the decorator uses it so an invalid request never hits a cached listing.
type ParamsValidator interface {
	ValidateParams(params map[string]string) error
}

// CachedRepository decorates a repository with cache-aside reads and
// invalidate-after-write semantics. Cache failures never reach the caller.
type CachedRepository[T repository.Entity] struct {
	base       repository.Repository[T]
	client     Client
	config     Config
	entity     string
	collection string
	dependents []string
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures a CachedRepository
type Option func(*options)

type options struct {
	entity     string
	collection string
	dependents []string
	logger     *slog.Logger
	metrics    *Metrics
}

// WithKeyNames overrides the entity key prefix and the collection key, e.g. "product" and "products"
func WithKeyNames(entity, collection string) Option {
	return func(o *options) {
		o.entity = entity
		o.collection = collection
	}
}

// WithDependents adds keys or glob patterns invalidated after every write,
// for caches holding populated copies of this entity
func WithDependents(patterns ...string) Option {
	return func(o *options) { o.dependents = append(o.dependents, patterns...) }
}

// WithLogger sets the logger used for degradations and invalidations
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics shares a metrics instance between decorators
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New wraps base with caching through client
func New[T repository.Entity](base repository.Repository[T], client Client, config Config, opts ...Option) *CachedRepository[T] {
	var zero T
	o := options{collection: zero.TableName()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.entity == "" {
		o.entity = singular(o.collection)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if config.KeyMode == "" {
		config.KeyMode = KeyModeFlat
	}

	return &CachedRepository[T]{
		base:       base,
		client:     client,
		config:     config,
		entity:     o.entity,
		collection: o.collection,
		dependents: o.dependents,
		logger:     o.logger.With("component", "cache", "collection", o.collection),
		metrics:    o.metrics,
	}
}

// Metrics returns the decorator's metrics
func (c *CachedRepository[T]) Metrics() *Metrics {
	return c.metrics
}

// ============================================================================
// KEYS
// ============================================================================

// EntityKey returns the key caching the entity with the given id
func (c *CachedRepository[T]) EntityKey(id string) string {
	return c.entity + keySeparator + id
}

// CollectionKey returns the key caching listings for the given request
func (c *CachedRepository[T]) CollectionKey(params map[string]string) string {
	if c.config.KeyMode != KeyModePerView {
		return c.collection
	}
	hash := xxhash.Sum64String(query.CanonicalParams(params))
	return fmt.Sprintf("%s%s%s%s%016x", c.collection, keySeparator, viewSegment, keySeparator, hash)
}

func (c *CachedRepository[T]) viewPattern() string {
	return c.collection + keySeparator + viewSegment + keySeparator + "*"
}

// ============================================================================
// READS
// ============================================================================

// FindAll serves the listing from cache, reading through on a miss
func (c *CachedRepository[T]) FindAll(ctx context.Context, params map[string]string) (*repository.Page[T], error) {
	if v, ok := c.base.(ParamsValidator); ok {
		if err := v.ValidateParams(params); err != nil {
			return nil, err
		}
	}

	key := c.CollectionKey(params)
	var page repository.Page[T]
	if c.get(ctx, key, &page) {
		if page.Items == nil {
			page.Items = []T{}
		}
		return &page, nil
	}

	result, err := c.base.FindAll(ctx, params)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, result, c.config.CollectionTTL)
	return result, nil
}

// FindByID serves the populated entity from cache, reading through on a miss
func (c *CachedRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return c.base.FindByID(ctx, id)
	}

	key := c.EntityKey(id)
	var entity T
	if c.get(ctx, key, &entity) {
		return &entity, nil
	}

	result, err := c.base.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, result, c.config.EntityTTL)
	return result, nil
}

// ============================================================================
// WRITES
// ============================================================================

// Create inserts through the base repository and invalidates listings
func (c *CachedRepository[T]) Create(ctx context.Context, entity *T) (*T, error) {
	result, err := c.base.Create(ctx, entity)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, fmt.Sprint((*result).GetPrimaryKeyValue()))
	return result, nil
}

// UpdateByID updates through the base repository and invalidates the entity and listings
func (c *CachedRepository[T]) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*T, error) {
	result, err := c.base.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return result, nil
}

// DeleteByID tombstones through the base repository and invalidates the entity and listings
func (c *CachedRepository[T]) DeleteByID(ctx context.Context, id string) (*T, error) {
	result, err := c.base.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return result, nil
}

// ============================================================================
// HELPER METHODS
// ============================================================================

// get decodes key into target and reports a hit; every failure is a miss
func (c *CachedRepository[T]) get(ctx context.Context, key string, target interface{}) bool {
	start := time.Now()
	data, err := c.client.Get(ctx, key)
	c.metrics.RecordGet(time.Since(start))

	switch {
	case err == nil:
	case IsMiss(err):
		c.metrics.RecordCacheMiss()
		return false
	default:
		c.degraded(ctx, "get", key, err)
		c.metrics.RecordCacheMiss()
		return false
	}

	if err := decode(data, target); err != nil {
		c.degraded(ctx, "decode", key, err)
		c.metrics.RecordCacheMiss()
		if err := c.client.Delete(ctx, key); err != nil {
			c.degraded(ctx, "delete", key, err)
		}
		return false
	}

	c.metrics.RecordCacheHit()
	return true
}

func (c *CachedRepository[T]) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := encode(value)
	if err != nil {
		c.degraded(ctx, "encode", key, err)
		return
	}

	start := time.Now()
	err = c.client.SetWithTTL(ctx, key, data, ttl)
	c.metrics.RecordSet(time.Since(start))
	if err != nil {
		c.degraded(ctx, "set", key, err)
	}
}

// invalidate removes the entity key, every collection key and the dependent patterns
func (c *CachedRepository[T]) invalidate(ctx context.Context, id string) {
	// the write already committed, so invalidation outlives a cancelled request
	ctx = context.WithoutCancel(ctx)

	keys := []string{c.collection}
	if id != "" {
		keys = append(keys, c.EntityKey(id))
	}

	patterns := c.dependents
	if c.config.KeyMode == KeyModePerView {
		patterns = append([]string{c.viewPattern()}, patterns...)
	}
	for _, p := range patterns {
		if !isPattern(p) {
			keys = append(keys, p)
			continue
		}
		found, err := c.client.Keys(ctx, p)
		if err != nil {
			c.degraded(ctx, "keys", p, err)
			continue
		}
		keys = append(keys, found...)
	}

	if err := c.client.Delete(ctx, keys...); err != nil {
		c.degraded(ctx, "delete", strings.Join(keys, ","), err)
		return
	}
	c.metrics.RecordInvalidation(len(keys))
	c.logger.DebugContext(ctx, "cache invalidated", "keys", len(keys), "id", id)
}

func (c *CachedRepository[T]) degraded(ctx context.Context, op, key string, err error) {
	c.metrics.RecordDegraded()
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.WarnContext(ctx, "cache operation failed",
		"op", op,
		"key", key,
		"error", fmt.Errorf("%w: %w", ErrCacheDegraded, err),
	)
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// singular derives the entity key prefix from a table name
func singular(table string) string {
	switch {
	case strings.HasSuffix(table, "ies"):
		return strings.TrimSuffix(table, "ies") + "y"
	case strings.HasSuffix(table, "s"):
		return strings.TrimSuffix(table, "s")
	default:
		return table
	}
}
