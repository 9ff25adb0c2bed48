package modules

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/engine"
)

// SetupRoutes registers the modules feature routes.
func SetupRoutes(router chi.Router, eng *engine.Engine, logger *slog.Logger) error {
	handlers := NewHandlers(eng, logger)

	router.Route("/api/modules", func(r chi.Router) {
		r.Get("/", handlers.HandleList)
		r.Get("/{id}/types", handlers.HandleTypes)
	})
	router.Post("/api/reload", handlers.HandleReload)

	return nil
}
