package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ammar0144/catalog4go/internal/config"
	"github.com/ammar0144/catalog4go/pkg/cache"
	"github.com/ammar0144/catalog4go/pkg/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, backend cache.Backend) *App {
	t.Helper()

	t.Setenv("CATALOG_DATABASE_PATH", filepath.Join(t.TempDir(), "catalog.db"))
	t.Setenv("CATALOG_CACHE_BACKEND", string(backend))
	cfg, err := config.Load("")
	require.NoError(t, err)

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Migrate(context.Background()))
	return a
}

func TestNewWiresCachedRepositories(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, cache.BackendMemory)

	_, ok := a.Products.(*cache.CachedRepository[catalog.Product])
	assert.True(t, ok, "products are cached")
	_, ok = a.Categories.(*cache.CachedRepository[catalog.Category])
	assert.True(t, ok, "categories are cached")

	phones, err := a.Categories.Create(ctx, &catalog.Category{Name: "Phones"})
	require.NoError(t, err)
	p, err := a.Products.Create(ctx, &catalog.Product{Name: "Pixel", Price: decimal.NewFromInt(499), CategoryID: &phones.ID})
	require.NoError(t, err)

	_, err = a.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = a.Categories.UpdateByID(ctx, phones.ID, map[string]interface{}{"name": "Smartphones"})
	require.NoError(t, err)

	found, err := a.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Category)
	assert.Equal(t, "Smartphones", found.Category.Name)

	snap := a.Metrics.GetSnapshot()
	assert.Positive(t, snap.InvalidationCount)
}

func TestNewWithoutCache(t *testing.T) {
	a := newTestApp(t, cache.BackendNone)

	assert.Nil(t, a.Cache)
	_, ok := a.Products.(*cache.CachedRepository[catalog.Product])
	assert.False(t, ok)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"cache"`)
}

func TestHandlerServesPriceRange(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, cache.BackendMemory)

	for name, price := range map[string]int64{"Cable": 5, "Mouse": 25, "Monitor": 250} {
		_, err := a.Products.Create(ctx, &catalog.Product{Name: name, Price: decimal.NewFromInt(price)})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?minPrice=10&maxPrice=100", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool              `json:"success"`
		Total   int64             `json:"total"`
		Data    []catalog.Product `json:"data"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 1, body.Total)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Mouse", body.Data[0].Name)
}

func TestStatsEndpoint(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, cache.BackendMemory)

	p, err := a.Products.Create(ctx, &catalog.Product{Name: "Cable", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	_, err = a.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = a.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Cache    cache.MetricsSnapshot  `json:"cache"`
			Database map[string]interface{} `json:"database"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 1, body.Data.Cache.CacheHits)
	assert.EqualValues(t, 1, body.Data.Database["MaxOpenConnections"])
	assert.NotContains(t, rec.Body.String(), `"redis"`)
}
