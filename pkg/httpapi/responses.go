package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ammar0144/catalog4go/pkg/repository"

	"github.com/go-chi/chi/v5/middleware"
)

// DataResponse is the envelope for single-entity responses
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ListResponse is the envelope for paginated listings
type ListResponse[T any] struct {
	Success bool `json:"success"`
	*repository.Page[T]
}

// ErrorResponse is the envelope for failures
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode JSON response", "error", err)
	}
}

// respondError logs err and writes its client-safe form.
// 5xx errors are logged at Error, client errors at Debug.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, resource, id string) {
	status := StatusFor(err)

	attrs := []any{
		"status_code", status,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.DebugContext(r.Context(), "request rejected", attrs...)
	}

	respondJSON(w, r, status, ErrorResponse{Success: false, Error: SafeMessage(err, resource, id)})
}
