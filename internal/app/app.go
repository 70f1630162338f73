// Package app wires configuration into a running catalog service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ammar0144/catalog4go/internal/config"
	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/catalog"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/httpapi"
	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/redis"
	"github.com/ammar0144/catalog4go/pkg/repository"
	"github.com/ammar0144/catalog4go/pkg/store"
)

// Price range keys accepted by product listings
const (
	MinPriceKey = "minPrice"
	MaxPriceKey = "maxPrice"
)

// App holds the service's long-lived dependencies
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *db.Manager
	Redis      *redis.Manager
	Cache      cache.Client
	Metrics    *cache.Metrics
	Products   repository.Repository[catalog.Product]
	Categories repository.Repository[catalog.Category]
	Handler    http.Handler
}

// New connects to the database and cache and builds the repositories and router.
// The schema is not migrated; call Migrate when needed.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dbm, err := db.NewManager(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, DB: dbm, Metrics: cache.NewMetrics()}

	if err := a.buildCache(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := a.buildRepositories(); err != nil {
		_ = a.Close()
		return nil, err
	}

	checks := map[string]httpapi.Pinger{"database": a.DB}
	if a.Cache != nil {
		checks["cache"] = a.Cache
	}
	stats := map[string]httpapi.StatsFunc{
		"database": func() interface{} { return a.DB.Stats() },
	}
	if a.Cache != nil {
		stats["cache"] = func() interface{} { return a.Metrics.GetSnapshot() }
	}
	if a.Redis != nil {
		stats["redis"] = func() interface{} { return a.Redis.PoolStats() }
	}

	a.Handler = httpapi.NewRouter(httpapi.Deps{
		Products:   a.Products,
		Categories: a.Categories,
		Checks:     checks,
		Stats:      stats,
		Logger:     logger,
	})
	return a, nil
}

// buildCache selects the cache client for the configured backend; BackendNone leaves it nil
func (a *App) buildCache() error {
	switch a.Config.Cache.Backend {
	case cache.BackendRedis:
		rm, err := redis.NewManager(&a.Config.Redis)
		if err != nil {
			return fmt.Errorf("failed to create redis manager: %w", err)
		}
		a.Redis = rm
		a.Cache = rm
	case cache.BackendMemory:
		mc, err := cache.NewMemoryClient(a.Config.Cache.Memory, maxTTL(a.Config.Cache))
		if err != nil {
			return fmt.Errorf("failed to create memory cache: %w", err)
		}
		a.Cache = mc
	case cache.BackendNone, "":
	default:
		return fmt.Errorf("unsupported cache backend %q", a.Config.Cache.Backend)
	}
	a.Logger.Info("cache configured", "backend", a.Config.Cache.Backend, "key_mode", a.Config.Cache.KeyMode)
	return nil
}

func (a *App) buildRepositories() error {
	queryOpts, err := a.Config.Query.Options()
	if err != nil {
		return err
	}
	timeout := a.Config.Database.QueryTimeout

	categoryStore, err := store.New[catalog.Category](a.DB.DB())
	if err != nil {
		return fmt.Errorf("failed to build category store: %w", err)
	}
	productStore, err := store.New[catalog.Product](a.DB.DB(),
		db.WithRange("price", MinPriceKey, MaxPriceKey),
		db.WithDefaultSort(query.SortField{Field: "createdAt", Desc: true}),
	)
	if err != nil {
		return fmt.Errorf("failed to build product store: %w", err)
	}

	var categories repository.Repository[catalog.Category] = repository.NewGenericRepository[catalog.Category](categoryStore,
		repository.WithQueryTimeout(timeout),
		repository.WithQueryOptions(queryOpts),
	)
	if a.Cache != nil {
		// products embed their category, so a category write must drop product entries too
		categories = cache.New[catalog.Category](categories, a.Cache, a.Config.Cache,
			cache.WithLogger(a.Logger),
			cache.WithMetrics(a.Metrics),
			cache.WithDependents(catalog.ProductsTable, catalog.ProductsTable+":*", "product:*"),
		)
	}

	var products repository.Repository[catalog.Product] = repository.NewGenericRepository[catalog.Product](productStore,
		repository.WithPopulate("category"),
		repository.WithQueryTimeout(timeout),
		repository.WithQueryOptions(queryOpts),
		repository.WithResolver(catalog.CategoriesTable, repository.ResolverFor(categories)),
	)
	if a.Cache != nil {
		// category listings can embed products through the has-many relation
		products = cache.New[catalog.Product](products, a.Cache, a.Config.Cache,
			cache.WithLogger(a.Logger),
			cache.WithMetrics(a.Metrics),
			cache.WithDependents(catalog.CategoriesTable, catalog.CategoriesTable+":*"),
		)
	}

	a.Categories = categories
	a.Products = products
	return nil
}

// maxTTL bounds in-process entries by the longest configured TTL
func maxTTL(c cache.Config) time.Duration {
	if c.CollectionTTL > c.EntityTTL {
		return c.CollectionTTL
	}
	return c.EntityTTL
}

// Migrate applies pending schema migrations
func (a *App) Migrate(ctx context.Context) error {
	return a.DB.Migrate(ctx)
}

// Close releases the database and cache connections
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
