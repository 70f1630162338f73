package httpapi

import (
	"errors"
	"net/http"

	"github.com/ammar0144/catalog4go/pkg/query"
	"github.com/ammar0144/catalog4go/pkg/repository"
	"github.com/ammar0144/catalog4go/pkg/store"
)

// ErrInvalidBody is returned when a request body is not a JSON object of the expected shape
var ErrInvalidBody = errors.New("invalid request body")

// StatusFor maps domain errors to HTTP status codes so internal error types never leak to clients
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Not found errors
	case repository.IsNotFound(err):
		return http.StatusNotFound

	// Bad request errors
	case query.IsInvalidQuery(err),
		repository.IsInvalidEntity(err),
		repository.IsRelatedEntityNotFound(err),
		store.IsDuplicate(err),
		errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// SafeMessage returns the message shown to clients for err. Client errors describe the
// rejected input; server errors are replaced by a generic message.
func SafeMessage(err error, resource, id string) string {
	switch {
	case err == nil:
		return ""
	case repository.IsNotFound(err):
		if id == "" {
			return "Resource not found"
		}
		return "No " + resource + " found with id of " + id
	case store.IsDuplicate(err):
		return "Name is already used. Please try other Name"
	case StatusFor(err) == http.StatusBadRequest:
		return err.Error()
	default:
		return "Server Error"
	}
}
