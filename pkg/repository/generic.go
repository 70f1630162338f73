package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/store"

	"github.com/go-playground/validator/v10"
)

// Options configures a GenericRepository
type Options struct {
	// Populate is the relation populated on every read, e.g. "category"
	Populate string

	// QueryTimeout bounds each repository call (0 disables it)
	QueryTimeout time.Duration

	// Query carries the translator limits and operator allow-list
	Query query.Options

	// Resolvers check belongs-to references, keyed by target table name
	Resolvers map[string]Resolver

	Validator *validator.Validate
	Now       func() time.Time
}

// Option configures a GenericRepository
type Option func(*Options)

// WithPopulate sets the relation populated on reads
func WithPopulate(relation string) Option {
	return func(o *Options) { o.Populate = relation }
}

// WithQueryTimeout bounds each call with a timeout
func WithQueryTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.QueryTimeout = timeout }
}

// WithQueryOptions overrides the translator options
func WithQueryOptions(opts query.Options) Option {
	return func(o *Options) { o.Query = opts }
}

// WithResolver registers the resolver for references to table
func WithResolver(table string, resolver Resolver) Option {
	return func(o *Options) {
		if o.Resolvers == nil {
			o.Resolvers = make(map[string]Resolver)
		}
		o.Resolvers[table] = resolver
	}
}

// WithValidator replaces the default struct validator
func WithValidator(v *validator.Validate) Option {
	return func(o *Options) { o.Validator = v }
}

// WithClock replaces time.Now for tombstone timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// GenericRepository implements Repository on top of a soft-delete store
type GenericRepository[T Entity] struct {
	store  store.Store[T]
	schema query.Schema
	opts   Options
}

// NewGenericRepository creates a repository backed by s
func NewGenericRepository[T Entity](s store.Store[T], opts ...Option) *GenericRepository[T] {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Validator == nil {
		o.Validator = validator.New(validator.WithRequiredStructEnabled())
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	o.Query.Populate = o.Populate

	return &GenericRepository[T]{
		store:  s,
		schema: s.Schema(),
		opts:   o,
	}
}

// AddResolver registers a resolver after construction, for entity types that reference each other
func (r *GenericRepository[T]) AddResolver(table string, resolver Resolver) {
	WithResolver(table, resolver)(&r.opts)
}

// withQueryTimeout wraps a context with the configured query timeout
func (r *GenericRepository[T]) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.QueryTimeout > 0 {
		return context.WithTimeout(ctx, r.opts.QueryTimeout)
	}
	return ctx, func() {}
}

// ============================================================================
// READ OPERATIONS
// ============================================================================

// FindAll translates params and returns the requested page
func (r *GenericRepository[T]) FindAll(ctx context.Context, params map[string]string) (*Page[T], error) {
	d, err := query.Translate(params, r.schema, r.opts.Query)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	total, err := r.store.Count(ctx, d)
	if err != nil {
		return nil, err
	}

	window := query.Paginate(total, d.Page, d.Limit)
	items := []T{}
	if int64(window.StartIndex) < total {
		found, err := r.store.Find(ctx, d)
		if err != nil {
			return nil, err
		}
		if found != nil {
			items = found
		}
	}

	return &Page[T]{
		Total:      total,
		Count:      len(items),
		Pagination: window.Pagination,
		Items:      items,
	}, nil
}

// ValidateParams reports whether params form a valid list request
func (r *GenericRepository[T]) ValidateParams(params map[string]string) error {
	_, err := query.Translate(params, r.schema, r.opts.Query)
	return err
}

// FindByID returns the live entity with the given id
func (r *GenericRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	return r.findLive(ctx, id)
}

func (r *GenericRepository[T]) findLive(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	entity, err := r.store.FindOne(ctx, r.byID(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, r.schema.Table, id)
		}
		return nil, err
	}
	return entity, nil
}

func (r *GenericRepository[T]) byID(id string) query.Descriptor {
	return query.ByField(r.schema.PrimaryKey, id).WithPopulate(r.opts.Populate)
}

// ============================================================================
// WRITE OPERATIONS
// ============================================================================

// Create validates and inserts a new live entity
func (r *GenericRepository[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: entity cannot be nil", ErrInvalidEntity)
	}

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	if r, ok := any(entity).(systemFieldsResetter); ok {
		r.ResetSystemFields()
	}
	if err := r.validate(ctx, entity); err != nil {
		return nil, err
	}
	if err := r.checkRelations(ctx, *entity); err != nil {
		return nil, err
	}

	if err := r.store.Insert(ctx, entity); err != nil {
		return nil, err
	}

	return r.findLive(ctx, fmt.Sprint((*entity).GetPrimaryKeyValue()))
}

// UpdateByID applies a partial update to the live entity with the given id
func (r *GenericRepository[T]) UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*T, error) {
	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	current, err := r.findLive(ctx, id)
	if err != nil {
		return nil, err
	}

	columns, err := r.columnsFor(ctx, patch)
	if err != nil {
		return nil, err
	}

	merged, err := mergePatch(current, patch)
	if err != nil {
		return nil, err
	}
	if err := r.validate(ctx, merged); err != nil {
		return nil, err
	}

	if err := r.store.UpdateOne(ctx, id, columns); err != nil {
		return nil, err
	}
	return r.findLive(ctx, id)
}

// DeleteByID tombstones the live entity with the given id and returns the tombstoned copy
func (r *GenericRepository[T]) DeleteByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	ctx, cancel := r.withQueryTimeout(ctx)
	defer cancel()

	if err := r.store.Tombstone(ctx, id, r.opts.Now()); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, r.schema.Table, id)
		}
		return nil, err
	}

	return r.store.IncludeDeleted().FindOne(ctx, r.byID(id))
}

// ============================================================================
// HELPER METHODS
// ============================================================================

func (r *GenericRepository[T]) validate(ctx context.Context, entity *T) error {
	if err := r.opts.Validator.StructCtx(ctx, entity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	if v, ok := any(entity).(selfValidator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEntity, err)
		}
	}
	return nil
}

// checkRelations resolves every belongs-to reference the entity declares
func (r *GenericRepository[T]) checkRelations(ctx context.Context, entity T) error {
	aware, ok := any(entity).(RelationshipAware)
	if !ok {
		return nil
	}
	for _, related := range aware.GetRelationships()[RelationBelongsTo] {
		if related.EntityID == nil {
			continue
		}
		if err := r.resolve(ctx, related.EntityType, fmt.Sprint(related.EntityID)); err != nil {
			return err
		}
	}
	return nil
}

func (r *GenericRepository[T]) resolve(ctx context.Context, table, id string) error {
	resolver, ok := r.opts.Resolvers[table]
	if !ok || id == "" {
		return nil
	}
	if err := resolver.Resolve(ctx, id); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: no %s with id of %s", ErrRelatedEntityNotFound, table, id)
		}
		return err
	}
	return nil
}

// columnsFor maps a JSON patch onto writable columns, resolving changed references
func (r *GenericRepository[T]) columnsFor(ctx context.Context, patch map[string]interface{}) (map[string]interface{}, error) {
	columns := make(map[string]interface{}, len(patch))
	for name, value := range patch {
		field, ok := r.schema.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidEntity, name)
		}
		if !field.Writable {
			continue
		}

		if rel, ok := r.schema.RelationByLocalField(name); ok && value != nil {
			ref, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string id", ErrInvalidEntity, name)
			}
			if ref == "" {
				value = nil
			} else if err := r.resolve(ctx, rel.TargetTable, ref); err != nil {
				return nil, err
			}
		}
		columns[field.Column] = value
	}
	return columns, nil
}

// mergePatch overlays patch on the JSON form of current so the result can be validated
func mergePatch[T any](current *T, patch map[string]interface{}) (*T, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	for k, v := range patch {
		fields[k] = v
	}

	raw, err = json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	var merged T
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntity, err)
	}
	return &merged, nil
}
