// Package httpapi exposes catalog repositories over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ammar0144/catalog4go/pkg/catalog"
	"github.com/ammar0144/catalog4go/pkg/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger is a dependency checked by the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc returns a JSON-encodable snapshot of some runtime counters
type StatsFunc func() interface{}

// Deps are the collaborators the router serves
type Deps struct {
	Products   repository.Repository[catalog.Product]
	Categories repository.Repository[catalog.Category]

	// Checks are pinged by GET /healthz, keyed by name
	Checks map[string]Pinger
	// Stats are sampled by GET /stats, keyed by name
	Stats map[string]StatsFunc

	Logger *slog.Logger
}

// NewRouter creates the application router with all routes and middleware
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/products", NewResource(deps.Products, "product", logger).Routes())
		r.Mount("/category", NewResource(deps.Categories, "category", logger).Routes())
	})

	r.Get("/healthz", healthHandler(deps.Checks, logger))
	r.Get("/stats", statsHandler(deps.Stats))

	return r
}

// requestLogger logs each completed request with its status and duration
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type healthResponse struct {
	Success bool              `json:"success"`
	Checks  map[string]string `json:"checks"`
}

func healthHandler(checks map[string]Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Success: true, Checks: make(map[string]string, len(checks))}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Success = false
				continue
			}
			resp.Checks[name] = "ok"
		}

		status := http.StatusOK
		if !resp.Success {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, r, status, resp)
	}
}

func statsHandler(stats map[string]StatsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := make(map[string]interface{}, len(stats))
		for name, sample := range stats {
			data[name] = sample()
		}
		respondJSON(w, r, http.StatusOK, DataResponse{Success: true, Data: data})
	}
}
