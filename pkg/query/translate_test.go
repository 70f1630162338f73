package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productSchema() Schema {
	return Schema{
		Table:      "products",
		PrimaryKey: "id",
		Tombstone:  "deleted",
		Fields: map[string]Field{
			"id":         {Name: "id", Column: "id", Kind: KindString},
			"name":       {Name: "name", Column: "name", Kind: KindString, Writable: true},
			"price":      {Name: "price", Column: "price", Kind: KindNumber, Writable: true},
			"stock":      {Name: "stock", Column: "stock", Kind: KindNumber, Writable: true},
			"categoryId": {Name: "categoryId", Column: "category_id", Kind: KindString, Writable: true},
			"deleted":    {Name: "deleted", Column: "deleted", Kind: KindBool},
			"createdAt":  {Name: "createdAt", Column: "created_at", Kind: KindTime},
		},
		Relations: map[string]Relation{
			"category": {
				Name:         "category",
				Kind:         BelongsTo,
				Preload:      "Category",
				LocalField:   "categoryId",
				LocalColumn:  "category_id",
				TargetTable:  "categories",
				TargetColumn: "id",
				MatchColumn:  "name",
			},
		},
		Range:       &Range{Field: "price", MinKey: "minPrice", MaxKey: "maxPrice"},
		DefaultSort: []SortField{{Field: "createdAt", Desc: true}},
	}
}

func TestTranslateDefaults(t *testing.T) {
	d, err := Translate(map[string]string{}, productSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, d.Page)
	assert.Equal(t, 25, d.Limit)
	assert.Empty(t, d.Predicates)
	assert.Nil(t, d.Populate)
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, d.Sort)
}

func TestTranslateOperators(t *testing.T) {
	params := map[string]string{
		"price[gte]": "10",
		"price[lt]":  "50.5",
		"name":       "Phone",
		"stock[in]":  "1, 2,3",
		"name[ne]":   "Tablet",
		"page":       "2",
		"limit":      "10",
	}

	d, err := Translate(params, productSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []Predicate{
		{Field: "name", Op: Eq, Value: "Phone"},
		{Field: "name", Op: Ne, Value: "Tablet"},
		{Field: "price", Op: Gte, Value: 10.0},
		{Field: "price", Op: Lt, Value: 50.5},
		{Field: "stock", Op: In, Value: []interface{}{1.0, 2.0, 3.0}},
	}, d.Predicates)
	assert.Equal(t, 2, d.Page)
	assert.Equal(t, 10, d.Limit)
	assert.Equal(t, 10, d.Offset())
}

func TestTranslatePredicateCountMatchesNonReservedKeys(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]string
		want   int
	}{
		{"plain", map[string]string{"name": "a", "stock[gt]": "1"}, 2},
		{"with reserved", map[string]string{"name": "a", "select": "name", "sort": "-price", "page": "1", "limit": "5"}, 1},
		{"relation replaces a predicate", map[string]string{"name": "a", "category": "Phones"}, 1},
		{"all operators", map[string]string{
			"name": "a", "price[gt]": "1", "price[gte]": "1", "price[lt]": "9",
			"price[lte]": "9", "stock[in]": "1,2", "stock[ne]": "3",
		}, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Translate(tc.params, productSchema(), Options{})
			require.NoError(t, err)
			assert.Len(t, d.Predicates, tc.want)
		})
	}
}

func TestTranslateRejectsUnknownOperator(t *testing.T) {
	_, err := Translate(map[string]string{"price[regex]": "1"}, productSchema(), Options{})
	require.ErrorIs(t, err, ErrInvalidFilterKind)
	assert.Contains(t, err.Error(), "regex")
}

func TestTranslateRejectsDisallowedOperator(t *testing.T) {
	opts := Options{AllowedOps: NewOperatorSet(Eq)}

	_, err := Translate(map[string]string{"price[gt]": "1"}, productSchema(), opts)
	require.ErrorIs(t, err, ErrInvalidFilterKind)

	_, err = Translate(map[string]string{"price": "1"}, productSchema(), opts)
	require.NoError(t, err)
}

func TestTranslateRejectsUnknownFields(t *testing.T) {
	for _, params := range []map[string]string{
		{"color": "red"},
		{"sort": "color"},
		{"select": "name,color"},
	} {
		_, err := Translate(params, productSchema(), Options{})
		assert.ErrorIs(t, err, ErrInvalidFilterKind, "params %v", params)
	}
}

func TestTranslateRejectsBadValues(t *testing.T) {
	_, err := Translate(map[string]string{"price[gt]": "cheap"}, productSchema(), Options{})
	assert.ErrorIs(t, err, ErrInvalidFilterValue)

	_, err = Translate(map[string]string{"deleted": "maybe"}, productSchema(), Options{})
	assert.ErrorIs(t, err, ErrInvalidFilterValue)

	_, err = Translate(map[string]string{"maxPrice": "lots"}, productSchema(), Options{})
	assert.ErrorIs(t, err, ErrInvalidFilterValue)
}

func TestTranslatePaginationValues(t *testing.T) {
	for _, params := range []map[string]string{
		{"page": "0"},
		{"page": "-1"},
		{"limit": "0"},
		{"limit": "ten"},
	} {
		_, err := Translate(params, productSchema(), Options{})
		assert.ErrorIs(t, err, ErrInvalidPaginationValue, "params %v", params)
	}

	d, err := Translate(map[string]string{"limit": "1000"}, productSchema(), Options{MaxLimit: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, d.Limit)
}

func TestTranslateRelationFilter(t *testing.T) {
	d, err := Translate(map[string]string{"category": "Phones"}, productSchema(), Options{Populate: "category"})
	require.NoError(t, err)

	require.NotNil(t, d.Populate)
	assert.Equal(t, Populate{Relation: "category", Match: "Phones", Required: true}, *d.Populate)
	assert.Empty(t, d.Predicates)
}

func TestTranslateDefaultPopulate(t *testing.T) {
	d, err := Translate(map[string]string{}, productSchema(), Options{Populate: "category"})
	require.NoError(t, err)

	require.NotNil(t, d.Populate)
	assert.Equal(t, Populate{Relation: "category"}, *d.Populate)

	d, err = Translate(map[string]string{}, productSchema(), Options{Populate: "missing"})
	require.NoError(t, err)
	assert.Nil(t, d.Populate)
}

func TestTranslateRangeReplacesPredicates(t *testing.T) {
	params := map[string]string{
		"stock":    "3",
		"name":     "Phone",
		"minPrice": "10",
		"maxPrice": "50",
		"category": "Phones",
		"sort":     "price",
	}

	d, err := Translate(params, productSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []Predicate{
		{Field: "price", Op: Gte, Value: 10.0},
		{Field: "price", Op: Lte, Value: 50.0},
	}, d.Predicates)
	require.NotNil(t, d.Populate)
	assert.Equal(t, "Phones", d.Populate.Match)
	assert.Equal(t, []SortField{{Field: "price"}}, d.Sort)
}

func TestTranslateSortAndSelect(t *testing.T) {
	d, err := Translate(map[string]string{"sort": "name,-price", "select": "name, price,name"}, productSchema(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []SortField{{Field: "name"}, {Field: "price", Desc: true}}, d.Sort)
	assert.Equal(t, []string{"name", "price"}, d.Fields)
}

func TestCanonicalParamsIsOrderIndependent(t *testing.T) {
	a := CanonicalParams(map[string]string{"b": "2", "a": "1"})
	b := CanonicalParams(map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, "a=1&b=2", a)
	assert.Equal(t, a, b)
}
