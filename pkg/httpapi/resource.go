package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ammar0144/catalog4go/pkg/repository"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Resource exposes a repository as a REST collection
type Resource[T repository.Entity] struct {
	repo   repository.Repository[T]
	name   string
	logger *slog.Logger
}

// NewResource creates handlers for repo; name is the singular noun used in messages, e.g. "product"
func NewResource[T repository.Entity](repo repository.Repository[T], name string, logger *slog.Logger) *Resource[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource[T]{
		repo:   repo,
		name:   name,
		logger: logger.With("component", "http", "resource", name),
	}
}

// Routes mounts the collection handlers on a fresh router
func (h *Resource[T]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET / with the query string as filter, sort, select and pagination parameters
func (h *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.repo.FindAll(r.Context(), queryParams(r))
	if err != nil {
		respondError(w, r, h.logger, err, h.name, "")
		return
	}
	respondJSON(w, r, http.StatusOK, ListResponse[T]{Success: true, Page: page})
}

// Get handles GET /{id}
func (h *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entity, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err, h.name, id)
		return
	}
	respondJSON(w, r, http.StatusOK, DataResponse{Success: true, Data: entity})
}

// Create handles POST /
func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := decodeBody(w, r, &entity); err != nil {
		respondError(w, r, h.logger, err, h.name, "")
		return
	}

	created, err := h.repo.Create(r.Context(), &entity)
	if err != nil {
		respondError(w, r, h.logger, err, h.name, "")
		return
	}
	respondJSON(w, r, http.StatusCreated, DataResponse{Success: true, Data: created})
}

// Update handles PUT and PATCH /{id}; both apply the body as a partial update
func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch map[string]interface{}
	if err := decodeBody(w, r, &patch); err != nil {
		respondError(w, r, h.logger, err, h.name, id)
		return
	}

	updated, err := h.repo.UpdateByID(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, h.logger, err, h.name, id)
		return
	}
	respondJSON(w, r, http.StatusOK, DataResponse{Success: true, Data: updated})
}

// Delete handles DELETE /{id}
func (h *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.repo.DeleteByID(r.Context(), id)
	if err != nil {
		respondError(w, r, h.logger, err, h.name, id)
		return
	}
	respondJSON(w, r, http.StatusOK, DataResponse{Success: true, Data: deleted})
}

// queryParams flattens the query string; a repeated key keeps its first value
func queryParams(r *http.Request) map[string]string {
	values := r.URL.Query()
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}
