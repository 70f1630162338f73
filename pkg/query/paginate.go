package query

const (
	DefaultPage  = 1
	DefaultLimit = 25
	MaxLimit     = 100
)

// PageRef points at a neighbouring page
type PageRef struct {
	Page  int `json:"page" msgpack:"page"`
	Limit int `json:"limit" msgpack:"limit"`
}

// Pagination carries the cursors around the current page
type Pagination struct {
	Next     *PageRef `json:"next,omitempty" msgpack:"next,omitempty"`
	Previous *PageRef `json:"previous,omitempty" msgpack:"previous,omitempty"`
}

// Window is the slice of a result set covered by one page
type Window struct {
	StartIndex int
	EndIndex   int
	Pagination Pagination
}

// Paginate computes the window and cursors for a page of a result set with total rows.
// Non-positive page and limit fall back to the defaults; it never fails.
func Paginate(total int64, page, limit int) Window {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	w := Window{
		StartIndex: (page - 1) * limit,
		EndIndex:   page * limit,
	}
	if int64(w.EndIndex) < total {
		w.Pagination.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if w.StartIndex > 0 {
		w.Pagination.Previous = &PageRef{Page: page - 1, Limit: limit}
	}
	return w
}
