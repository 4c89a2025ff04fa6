/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/datasets/*   Dataset storage, ratios, audit, runs
  /api/runs/*       Run retrieval
  /api/scenarios    Preset scenario definitions
  /api/curves       Adoption-curve generation
  /api/admin/*      Seed demo data
  /api/reset        Database reset (dev only)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Dataset routes
		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", h.ListDatasets)
			r.Post("/", h.CreateDataset)
			r.Get("/{id}", h.GetDataset)
			r.Delete("/{id}", h.DeleteDataset)
			r.Get("/{id}/ratios", h.GetRatios)
			r.Get("/{id}/audit", h.GetAudit)
			r.Get("/{id}/runs", h.ListRuns)
			r.Post("/{id}/runs", h.CreateRun)
		})

		// Run routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/{id}", h.GetRun)
		})

		// Scenario routes
		r.Get("/scenarios", h.ListScenarios)

		// Curve routes
		r.Get("/curves", h.GetCurve)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemo)
		})
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
