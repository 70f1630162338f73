package query

import "errors"

// Sentinel errors for request translation
var (
	// ErrInvalidFilterKind is returned for operator tokens outside the allowed set and for unknown fields
	ErrInvalidFilterKind = errors.New("invalid filter kind")

	// ErrInvalidFilterValue is returned when a filter value cannot be coerced to the field's kind
	ErrInvalidFilterValue = errors.New("invalid filter value")

	// ErrInvalidPaginationValue is returned when page or limit is not a positive integer
	ErrInvalidPaginationValue = errors.New("invalid pagination value")
)

// IsInvalidQuery reports whether err was caused by malformed request parameters
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidFilterKind) ||
		errors.Is(err, ErrInvalidFilterValue) ||
		errors.Is(err, ErrInvalidPaginationValue)
}
