package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rl1809/checkout-choreography/internal/metrics"
)

// Routable is implemented by the per-service HTTP handlers.
type Routable interface {
	Mount(r chi.Router)
}

// NewRouter builds the HTTP surface shared by all three services: health,
// Prometheus scrape endpoint and the service's own routes.
func NewRouter(m *metrics.HTTPMetrics, h Routable) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", metrics.Handler())
	h.Mount(r)
	return r
}
