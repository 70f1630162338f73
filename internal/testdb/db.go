// Package testdb provides migrated SQLite databases and seed helpers for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ammar0144/catalog4go/pkg/catalog"
	"github.com/ammar0144/catalog4go/pkg/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Open creates a migrated SQLite database under the test's temp dir
func Open(t *testing.T) *db.Manager {
	t.Helper()

	manager, err := db.NewSQLiteManager(filepath.Join(t.TempDir(), "catalog_test.db"))
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = manager.Close() })

	require.NoError(t, manager.Migrate(context.Background()), "run migrations")
	return manager
}

// SeedCategory inserts a live category directly through GORM
func SeedCategory(t *testing.T, manager *db.Manager, name string) catalog.Category {
	t.Helper()

	c := catalog.Category{Name: name, Description: name + " description"}
	require.NoError(t, manager.DB().Create(&c).Error, "seed category %s", name)
	return c
}

// SeedProduct inserts a live product directly through GORM
func SeedProduct(t *testing.T, manager *db.Manager, name, price string, categoryID *string) catalog.Product {
	t.Helper()

	p := catalog.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      10,
		CategoryID: categoryID,
	}
	require.NoError(t, manager.DB().Omit("Category").Create(&p).Error, "seed product %s", name)
	return p
}

// Tombstone marks a row deleted directly through GORM
func Tombstone(t *testing.T, manager *db.Manager, table, id string) {
	t.Helper()

	err := manager.DB().Table(table).Where("id = ?", id).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": time.Now().UTC()}).Error
	require.NoError(t, err, "tombstone %s %s", table, id)
}
