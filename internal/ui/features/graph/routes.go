package graph

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/engine"
)

// SetupRoutes registers the graph feature routes. Builds started over HTTP
// run under base so they outlive the request that started them.
func SetupRoutes(base context.Context, router chi.Router, eng *engine.Engine, logger *slog.Logger) error {
	handlers := NewHandlers(base, eng, logger)

	router.Post("/api/builds", handlers.HandleBuild)
	router.Route("/api/graph", func(r chi.Router) {
		r.Get("/", handlers.HandleGraph)
		r.Get("/dot", handlers.HandleDOT)
	})
	router.Get("/api/breakdown", handlers.HandleBreakdown)

	return nil
}
