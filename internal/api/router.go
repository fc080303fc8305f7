package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Put("/preferred", s.handleSetPreferredDevice)
		})

		r.Route("/maps", func(r chi.Router) {
			r.Get("/", s.handleListMaps)
			r.Route("/{map}/actions", func(r chi.Router) {
				r.Get("/", s.handleListActions)
				r.Route("/{action}", func(r chi.Router) {
					r.Get("/", s.handleGetAction)
					r.Put("/bindings/{index}", s.handleRebind)
					r.Delete("/bindings/{index}", s.handleResetBinding)
				})
			})
		})

		r.Route("/overrides", func(r chi.Router) {
			r.Get("/", s.handleListOverrides)
			r.Post("/reload", s.handleReloadOverrides)
			r.Get("/history", s.handleOverrideHistory)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"state":   s.input.State(),
	})
}
