package repository

import (
	"context"

	"github.com/ammar0144/catalog4go/pkg/query"
)

// Page is one page of a list request
type Page[T any] struct {
	Total      int64            `json:"total"`
	Count      int              `json:"count"`
	Pagination query.Pagination `json:"pagination"`
	Items      []T              `json:"data"`
}

// Repository defines the generic repository interface
type Repository[T Entity] interface {
	// Queries
	FindAll(ctx context.Context, params map[string]string) (*Page[T], error)
	FindByID(ctx context.Context, id string) (*T, error)

	// Commands (logical: deletes only set the tombstone)
	Create(ctx context.Context, entity *T) (*T, error)
	UpdateByID(ctx context.Context, id string, patch map[string]interface{}) (*T, error)
	DeleteByID(ctx context.Context, id string) (*T, error)
}

// Resolver checks that a referenced entity exists and is live
type Resolver interface {
	Resolve(ctx context.Context, id string) error
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, id string) error

// Resolve implements Resolver
func (f ResolverFunc) Resolve(ctx context.Context, id string) error {
	return f(ctx, id)
}

// ResolverFor resolves references through another repository's FindByID
func ResolverFor[T Entity](repo Repository[T]) Resolver {
	return ResolverFunc(func(ctx context.Context, id string) error {
		_, err := repo.FindByID(ctx, id)
		return err
	})
}
