/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. Logger:     zap request logging (see middleware.go)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a separate frontend

ROUTES:
  /                         HTML dashboard
  /api/report*              Live reconciliation
  /api/roster*              Roster and photos
  /api/runs*                Snapshot history
  /metrics                  Prometheus exposition

SECURITY NOTE:
  No authentication middleware. All endpoints are public and read-only
  except POST /api/runs, which only appends a snapshot.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/attendance/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured. allowOrigins
// feeds the CORS middleware.
func NewRouter(h *Handler, allowOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger()))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Get("/", h.Dashboard)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/report", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Get("/summary", h.GetSummary)
			r.Get("/export", h.ExportReport)
		})

		r.Route("/roster", func(r chi.Router) {
			r.Get("/", h.ListRoster)
			r.Get("/{id}/photo", h.GetPhoto)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Post("/", h.CreateRun)
			r.Get("/{id}", h.GetRun)
			r.Get("/{id}/export", h.ExportRun)
		})
	})

	return r
}
