// Package catalog4go provides a GORM-backed catalog of products and categories
// with soft deletes, request-driven listing queries and cache-aside reads.
package catalog4go

import (
	"time"

	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/catalog"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/redis"
	"github.com/ammar0144/catalog4go/pkg/repository"
	"github.com/ammar0144/catalog4go/pkg/store"
)

// Config represents database configuration
type Config = db.Config

// RedisConfig represents Redis configuration
type RedisConfig = redis.Config

// CacheConfig controls the cache-aside layer
type CacheConfig = cache.Config

// Entity interface that all repository entities must implement
type Entity = repository.Entity

// Repository provides the generic repository interface
type Repository[T Entity] interface {
	repository.Repository[T]
}

// Page is one page of a listing
type Page[T any] = repository.Page[T]

// Product and Category are the catalog models
type (
	Product  = catalog.Product
	Category = catalog.Category
)

// NewManager creates a new database manager
func NewManager(config *Config) (*db.Manager, error) {
	return db.NewManager(config)
}

// NewSQLiteManager creates a database manager over a SQLite file
func NewSQLiteManager(path string) (*db.Manager, error) {
	return db.NewSQLiteManager(path)
}

// NewStore creates a soft-delete store for the model T
func NewStore[T Entity](dbManager *db.Manager, opts ...db.SchemaOption) (*store.SoftDeleteStore[T], error) {
	return store.New[T](dbManager.DB(), opts...)
}

// NewRepository creates a repository over a soft-delete store for T
func NewRepository[T Entity](dbManager *db.Manager, opts ...repository.Option) (Repository[T], error) {
	s, err := store.New[T](dbManager.DB())
	if err != nil {
		return nil, err
	}
	return repository.NewGenericRepository[T](s, opts...), nil
}

// NewCachedRepository wraps base with cache-aside reads through client.
// If client is nil, base is returned unchanged.
func NewCachedRepository[T Entity](base repository.Repository[T], client cache.Client, config CacheConfig, opts ...cache.Option) Repository[T] {
	if client == nil {
		return base
	}
	return cache.New[T](base, client, config, opts...)
}

// NewRedisManager creates a new Redis manager
func NewRedisManager(config *RedisConfig) (*redis.Manager, error) {
	return redis.NewManager(config)
}

// NewMemoryClient creates an in-process cache client
func NewMemoryClient(config cache.MemoryConfig, maxTTL time.Duration) (*cache.MemoryClient, error) {
	return cache.NewMemoryClient(config, maxTTL)
}
