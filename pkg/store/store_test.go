package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/ammar0144/catalog4go/internal/testdb"
	"github.com/ammar0144/catalog4go/pkg/catalog"
	"github.com/ammar0144/catalog4go/pkg/db"
	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductStore(t *testing.T, manager *db.Manager) *store.SoftDeleteStore[catalog.Product] {
	t.Helper()

	s, err := store.New[catalog.Product](manager.DB(), db.WithRange("price", "minPrice", "maxPrice"))
	require.NoError(t, err)
	return s
}

func translate(t *testing.T, s store.Store[catalog.Product], params map[string]string) query.Descriptor {
	t.Helper()

	d, err := query.Translate(params, s.Schema(), query.Options{})
	require.NoError(t, err)
	return d
}

func names(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestFindExcludesTombstoned(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	live := testdb.SeedProduct(t, manager, "Pixel", "499.00", nil)
	gone := testdb.SeedProduct(t, manager, "Nokia", "49.00", nil)
	testdb.Tombstone(t, manager, catalog.ProductsTable, gone.ID)

	d := translate(t, s, nil)
	items, err := s.Find(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []string{live.Name}, names(items))

	total, err := s.Count(ctx, d)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	all, err := s.IncludeDeleted().Find(ctx, d)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pixel", "Nokia"}, names(all))

	// the original view is unchanged
	items, err = s.Find(ctx, d)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFindHonoursExplicitTombstoneFilter(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	testdb.SeedProduct(t, manager, "Pixel", "499.00", nil)
	gone := testdb.SeedProduct(t, manager, "Nokia", "49.00", nil)
	testdb.Tombstone(t, manager, catalog.ProductsTable, gone.ID)

	items, err := s.Find(ctx, translate(t, s, map[string]string{"deleted": "true"}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Nokia", items[0].Name)
	assert.True(t, items[0].IsDeleted())
	assert.NotNil(t, items[0].DeletedAt)
}

func TestFindRangeSkipsTombstonedRows(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	testdb.SeedProduct(t, manager, "Cable", "5.00", nil)
	testdb.SeedProduct(t, manager, "Mouse", "25.00", nil)
	testdb.SeedProduct(t, manager, "Keyboard", "80.00", nil)
	gone := testdb.SeedProduct(t, manager, "Headset", "60.00", nil)
	testdb.Tombstone(t, manager, catalog.ProductsTable, gone.ID)

	d := translate(t, s, map[string]string{
		"minPrice": "10",
		"maxPrice": "100",
		"name":     "Cable",
		"sort":     "price",
	})

	items, err := s.Find(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mouse", "Keyboard"}, names(items))

	total, err := s.Count(ctx, d)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestFindRequiredPopulate(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	phones := testdb.SeedCategory(t, manager, "Phones")
	laptops := testdb.SeedCategory(t, manager, "Laptops")
	retired := testdb.SeedCategory(t, manager, "Retired")
	testdb.Tombstone(t, manager, catalog.CategoriesTable, retired.ID)

	testdb.SeedProduct(t, manager, "Pixel", "499.00", &phones.ID)
	testdb.SeedProduct(t, manager, "ThinkPad", "1299.00", &laptops.ID)
	testdb.SeedProduct(t, manager, "Pager", "19.00", &retired.ID)
	testdb.SeedProduct(t, manager, "Loose", "1.00", nil)
	dangling := "00000000-0000-0000-0000-000000000000"
	testdb.SeedProduct(t, manager, "Orphan", "2.00", &dangling)

	t.Run("match", func(t *testing.T) {
		d := translate(t, s, map[string]string{"category": "Phones"})
		items, err := s.Find(ctx, d)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Pixel", items[0].Name)
		require.NotNil(t, items[0].Category)
		assert.Equal(t, "Phones", items[0].Category.Name)

		total, err := s.Count(ctx, d)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("tombstoned target never matches", func(t *testing.T) {
		items, err := s.Find(ctx, translate(t, s, map[string]string{"category": "Retired"}))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("optional populate keeps every row", func(t *testing.T) {
		d, err := query.Translate(nil, s.Schema(), query.Options{Populate: "category"})
		require.NoError(t, err)

		items, err := s.Find(ctx, d)
		require.NoError(t, err)
		assert.Len(t, items, 5)
		for _, p := range items {
			switch p.Name {
			case "Pixel", "ThinkPad":
				assert.NotNil(t, p.Category, p.Name)
			default:
				assert.Nil(t, p.Category, p.Name)
			}
		}
	})
}

func TestFindRequiredPopulateUsesCallerContext(t *testing.T) {
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	phones := testdb.SeedCategory(t, manager, "Phones")
	testdb.SeedProduct(t, manager, "Pixel", "499.00", &phones.ID)
	testdb.SeedProduct(t, manager, "Nokia", "99.00", nil)
	d := translate(t, s, map[string]string{"category": "Phones"})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Count(cancelled, d)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, store.IsStoreUnavailable(err))

	// the shared handle carries no state between calls
	for i := 0; i < 2; i++ {
		total, err := s.Count(context.Background(), d)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	}
}

func TestFindProjectionKeepsKeys(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	phones := testdb.SeedCategory(t, manager, "Phones")
	seeded := testdb.SeedProduct(t, manager, "Pixel", "499.00", &phones.ID)

	d, err := query.Translate(map[string]string{"select": "name"}, s.Schema(), query.Options{Populate: "category"})
	require.NoError(t, err)

	items, err := s.Find(ctx, d)
	require.NoError(t, err)
	require.Len(t, items, 1)

	p := items[0]
	assert.Equal(t, seeded.ID, p.ID)
	assert.Equal(t, "Pixel", p.Name)
	assert.True(t, p.Price.IsZero())
	require.NotNil(t, p.CategoryID)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Phones", p.Category.Name)
}

func TestFindPagesAreDisjoint(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		testdb.SeedProduct(t, manager, name, "1.00", nil)
	}

	seen := make(map[string]bool)
	for page := 1; page <= 3; page++ {
		d := translate(t, s, map[string]string{"limit": "2", "sort": "name"})
		d.Page = page

		items, err := s.Find(ctx, d)
		require.NoError(t, err)
		for _, p := range items {
			assert.False(t, seen[p.Name], "duplicate %s", p.Name)
			seen[p.Name] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestFindOneNotFound(t *testing.T) {
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	_, err := s.FindOne(context.Background(), query.ByField("id", "missing"))
	assert.True(t, store.IsNotFound(err))
}

func TestInsertAndDuplicate(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	p := &catalog.Product{Name: "Pixel", Price: decimal.RequireFromString("499.00"), Stock: 3}
	require.NoError(t, s.Insert(ctx, p))
	assert.NotEmpty(t, p.ID)

	err := s.Insert(ctx, &catalog.Product{Name: "Pixel", Price: decimal.NewFromInt(1)})
	assert.True(t, store.IsDuplicate(err), "got %v", err)
}

func TestTombstoneAndUpdate(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)
	s := newProductStore(t, manager)

	p := testdb.SeedProduct(t, manager, "Pixel", "499.00", nil)

	require.NoError(t, s.UpdateOne(ctx, p.ID, map[string]interface{}{"stock": 42}))
	got, err := s.FindOne(ctx, query.ByField("id", p.ID))
	require.NoError(t, err)
	assert.Equal(t, 42, got.Stock)

	at := time.Now().UTC()
	require.NoError(t, s.Tombstone(ctx, p.ID, at))

	_, err = s.FindOne(ctx, query.ByField("id", p.ID))
	assert.True(t, store.IsNotFound(err))

	err = s.Tombstone(ctx, p.ID, at)
	assert.True(t, store.IsNotFound(err), "second tombstone must not find a live row")

	deleted, err := s.IncludeDeleted().FindOne(ctx, query.ByField("id", p.ID))
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	require.NotNil(t, deleted.DeletedAt)
}

func TestCategoryPopulatesLiveProducts(t *testing.T) {
	ctx := context.Background()
	manager := testdb.Open(t)

	s, err := store.New[catalog.Category](manager.DB())
	require.NoError(t, err)

	phones := testdb.SeedCategory(t, manager, "Phones")
	testdb.SeedCategory(t, manager, "Empty")
	testdb.SeedProduct(t, manager, "Pixel", "499.00", &phones.ID)
	gone := testdb.SeedProduct(t, manager, "Nokia", "49.00", &phones.ID)
	testdb.Tombstone(t, manager, catalog.ProductsTable, gone.ID)

	d, err := query.Translate(map[string]string{"products": "Pixel"}, s.Schema(), query.Options{})
	require.NoError(t, err)

	items, err := s.Find(ctx, d)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Phones", items[0].Name)
	require.Len(t, items[0].Products, 1)
	assert.Equal(t, "Pixel", items[0].Products[0].Name)
}
