// Package store provides the soft-delete aware persistence layer.
//
// Reads only accept a query.Descriptor and the underlying *gorm.DB is never exposed,
// so every find and count goes through the tombstone filter.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/query"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a persistent collection of T whose reads exclude tombstoned rows
type Store[T any] interface {
	// Schema returns the allow-list requests against this store are validated with
	Schema() query.Schema

	Find(ctx context.Context, d query.Descriptor) ([]T, error)
	Count(ctx context.Context, d query.Descriptor) (int64, error)
	FindOne(ctx context.Context, d query.Descriptor) (*T, error)

	Insert(ctx context.Context, entity *T) error
	UpdateOne(ctx context.Context, id interface{}, columns map[string]interface{}) error
	Tombstone(ctx context.Context, id interface{}, at time.Time) error

	// IncludeDeleted returns a view of the store that does not hide tombstoned rows
	IncludeDeleted() Store[T]
}

// SoftDeleteStore implements Store on top of GORM
type SoftDeleteStore[T any] struct {
	db             *gorm.DB
	schema         query.Schema
	includeDeleted bool
}

// New creates a store for T, deriving its schema from the GORM model
func New[T any](gormDB *gorm.DB, opts ...db.SchemaOption) (*SoftDeleteStore[T], error) {
	if gormDB == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}

	schema, err := db.SchemaOf(gormDB, new(T), opts...)
	if err != nil {
		return nil, err
	}

	return &SoftDeleteStore[T]{db: gormDB, schema: schema}, nil
}

// Schema returns the store's query schema
func (s *SoftDeleteStore[T]) Schema() query.Schema {
	return s.schema
}

// IncludeDeleted returns a copy of the store without the implicit tombstone predicate
func (s *SoftDeleteStore[T]) IncludeDeleted() Store[T] {
	view := *s
	view.includeDeleted = true
	return &view
}

// ============================================================================
// READS
// ============================================================================

// Find returns the page of rows described by d
func (s *SoftDeleteStore[T]) Find(ctx context.Context, d query.Descriptor) ([]T, error) {
	tx, err := s.filtered(ctx, d)
	if err != nil {
		return nil, err
	}

	f := db.NewFilter(s.schema.Table)
	if cols := s.projection(d); len(cols) > 0 {
		f.Select(cols...)
	}
	sortedByKey := false
	for _, sf := range d.Sort {
		f.OrderBy(s.schema.Column(sf.Field), sf.Desc)
		sortedByKey = sortedByKey || sf.Field == s.schema.PrimaryKey
	}
	if !sortedByKey {
		f.OrderBy(s.schema.Column(s.schema.PrimaryKey), false)
	}
	tx = f.Apply(tx)

	if tx, err = s.preload(tx, d.Populate); err != nil {
		return nil, err
	}
	if d.Limit > 0 {
		tx = tx.Offset(d.Offset()).Limit(d.Limit)
	}

	var items []T
	if err := tx.Find(&items).Error; err != nil {
		return nil, mapError(err)
	}
	return items, nil
}

// Count returns the number of rows matching d, ignoring pagination
func (s *SoftDeleteStore[T]) Count(ctx context.Context, d query.Descriptor) (int64, error) {
	tx, err := s.filtered(ctx, d)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// FindOne returns the first row matching d or ErrNotFound
func (s *SoftDeleteStore[T]) FindOne(ctx context.Context, d query.Descriptor) (*T, error) {
	d.Page = 1
	d.Limit = 1

	items, err := s.Find(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// filtered builds the WHERE clause shared by Find and Count
func (s *SoftDeleteStore[T]) filtered(ctx context.Context, d query.Descriptor) (*gorm.DB, error) {
	tx := s.db.WithContext(ctx)
	f := db.NewFilter(s.schema.Table)

	for _, p := range d.Predicates {
		col := s.schema.Column(p.Field)
		if col == "" {
			return nil, fmt.Errorf("%w: unknown field %q", query.ErrInvalidFilterKind, p.Field)
		}
		if err := f.Predicate(col, p); err != nil {
			return nil, err
		}
	}

	if !s.includeDeleted && !d.Constrains(s.schema.Tombstone) {
		f.Where(s.schema.Column(s.schema.Tombstone), db.OpEqual, false)
	}

	if d.Populate != nil && d.Populate.Required {
		rel, ok := s.schema.Relation(d.Populate.Relation)
		if !ok {
			return nil, fmt.Errorf("%w: unknown relation %q", query.ErrInvalidFilterKind, d.Populate.Relation)
		}
		requireRelation(tx, f, rel, d.Populate.Match)
	}

	return f.Scope(tx.Model(new(T))), nil
}

// requireRelation keeps only rows whose relation resolves to a live target,
// optionally one whose match column equals match. The subquery shares tx's context.
func requireRelation(tx *gorm.DB, f *db.Filter, rel query.Relation, match string) {
	targets := tx.Session(&gorm.Session{NewDB: true}).
		Table(rel.TargetTable).
		Select(rel.TargetColumn).
		Where(db.TombstoneColumn+" = ?", false)
	if match != "" {
		targets = targets.Where(rel.MatchColumn+" = ?", match)
	}

	local := f.Column(rel.LocalColumn)
	if rel.Kind == query.BelongsTo {
		f.Where(local, db.OpNotNull, nil)
	}
	f.Where(local, db.OpIn, targets)
}

// preload populates the relation with live targets only
func (s *SoftDeleteStore[T]) preload(tx *gorm.DB, p *query.Populate) (*gorm.DB, error) {
	if p == nil {
		return tx, nil
	}
	rel, ok := s.schema.Relation(p.Relation)
	if !ok {
		return nil, fmt.Errorf("%w: unknown relation %q", query.ErrInvalidFilterKind, p.Relation)
	}

	return tx.Preload(rel.Preload, func(q *gorm.DB) *gorm.DB {
		q = q.Where(rel.TargetTable+"."+db.TombstoneColumn+" = ?", false)
		if p.Match != "" {
			q = q.Where(rel.TargetTable+"."+rel.MatchColumn+" = ?", p.Match)
		}
		return q
	}), nil
}

// projection returns the selected columns plus the keys population depends on
func (s *SoftDeleteStore[T]) projection(d query.Descriptor) []string {
	if len(d.Fields) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var cols []string
	add := func(col string) {
		if col != "" && !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}

	add(s.schema.Column(s.schema.PrimaryKey))
	for _, f := range d.Fields {
		add(s.schema.Column(f))
	}
	if d.Populate != nil {
		if rel, ok := s.schema.Relation(d.Populate.Relation); ok {
			add(s.schema.Table + "." + rel.LocalColumn)
		}
	}
	return cols
}

// ============================================================================
// WRITES
// ============================================================================

// Insert persists a new entity without touching its associations
func (s *SoftDeleteStore[T]) Insert(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

// UpdateOne applies column changes to the live entity with the given id
func (s *SoftDeleteStore[T]) UpdateOne(ctx context.Context, id interface{}, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return mapError(s.byID(ctx, id).Updates(columns).Error)
}

// Tombstone marks the live entity with the given id as deleted at the given time
func (s *SoftDeleteStore[T]) Tombstone(ctx context.Context, id interface{}, at time.Time) error {
	flagCol := s.schema.Fields[s.schema.Tombstone].Column
	atCol := s.schema.Fields[s.schema.TombstoneAt].Column

	result := s.byID(ctx, id).Updates(map[string]interface{}{
		flagCol: true,
		atCol:   at,
	})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SoftDeleteStore[T]) byID(ctx context.Context, id interface{}) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(T)).
		Where(s.schema.Column(s.schema.PrimaryKey)+" = ?", id)
	if !s.includeDeleted {
		tx = tx.Where(s.schema.Column(s.schema.Tombstone)+" = ?", false)
	}
	return tx
}
