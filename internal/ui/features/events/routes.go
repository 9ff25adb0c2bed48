package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/engine"
)

// SetupRoutes registers the status and event stream routes.
func SetupRoutes(router chi.Router, eng *engine.Engine) error {
	handlers := NewHandlers(eng)

	router.Get("/api/status", handlers.HandleStatus)
	router.Get("/api/events", handlers.HandleEvents)

	return nil
}
