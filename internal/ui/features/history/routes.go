package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/state"
)

// SetupRoutes registers the history feature routes. Nothing is registered
// when history is disabled.
func SetupRoutes(router chi.Router, store state.Store) error {
	if store == nil {
		return nil
	}
	handlers := NewHandlers(store)

	router.Route("/api/history", func(r chi.Router) {
		r.Get("/", handlers.HandleList)
		r.Get("/{id}", handlers.HandleShow)
	})

	return nil
}
