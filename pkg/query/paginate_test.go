package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name         string
		total        int64
		page, limit  int
		start, end   int
		next, prev   *PageRef
	}{
		{name: "first of many", total: 60, page: 1, limit: 25, start: 0, end: 25, next: &PageRef{2, 25}},
		{name: "middle", total: 60, page: 2, limit: 25, start: 25, end: 50, next: &PageRef{3, 25}, prev: &PageRef{1, 25}},
		{name: "exact last", total: 50, page: 2, limit: 25, start: 25, end: 50, prev: &PageRef{1, 25}},
		{name: "single page", total: 3, page: 1, limit: 25, start: 0, end: 25},
		{name: "empty", total: 0, page: 1, limit: 10, start: 0, end: 10},
		{name: "beyond range", total: 25, page: 3, limit: 10, start: 20, end: 30, prev: &PageRef{2, 10}},
		{name: "defaults", total: 30, page: 0, limit: -4, start: 0, end: 25, next: &PageRef{2, 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Paginate(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.start, w.StartIndex)
			assert.Equal(t, tt.end, w.EndIndex)
			assert.Equal(t, tt.next, w.Pagination.Next)
			assert.Equal(t, tt.prev, w.Pagination.Previous)
		})
	}
}

func TestPaginateCursorLaws(t *testing.T) {
	for total := int64(0); total <= 40; total++ {
		for limit := 1; limit <= 12; limit++ {
			for page := 1; page <= 6; page++ {
				w := Paginate(total, page, limit)
				assert.Equal(t, int64(page*limit) < total, w.Pagination.Next != nil,
					"next for total=%d page=%d limit=%d", total, page, limit)
				assert.Equal(t, (page-1)*limit > 0, w.Pagination.Previous != nil,
					"previous for total=%d page=%d limit=%d", total, page, limit)
			}
		}
	}
}

func TestPaginationJSON(t *testing.T) {
	raw, err := json.Marshal(Paginate(25, 3, 10).Pagination)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"previous":{"page":2,"limit":10}}`, string(raw))

	raw, err = json.Marshal(Paginate(25, 1, 10).Pagination)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"next":{"page":2,"limit":10}}`, string(raw))
}
