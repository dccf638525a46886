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
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Plugin inventory and lifecycle
		r.Route("/plugins", func(r chi.Router) {
			r.Get("/", s.handleListPlugins)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPlugin)
				r.Post("/start", s.handleStartPlugin)
				r.Post("/stop", s.handleStopPlugin)
				r.Post("/disable", s.handleDisablePlugin)
				r.Post("/analysis", s.handleRunAnalysis)
				r.Get("/metadata", s.handleProviderMetadata)
				r.Post("/test-connection", s.handleTestConnection)
			})
		})

		// Analysis runs
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
			r.Post("/{id}/cancel", s.handleCancelRun)
		})

		// Layers and feature queries
		r.Route("/layers", func(r chi.Router) {
			r.Get("/", s.handleListLayers)
			r.Get("/{name}", s.handleGetLayer)
			r.Get("/{name}/features", s.handleQueryFeatures)
		})

		// WebSocket event stream
		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath returns the configured WebSocket route, relative to /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path != "" {
		return s.wsCfg.Path
	}
	return "/ws"
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"plugins": len(s.manager.List()),
		"layers":  s.layers.Len(),
	})
}
