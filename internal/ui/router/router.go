// Package router sets up HTTP routes for the UI server.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/engine"
	eventsFeature "github.com/leapstack-labs/typegraph/internal/ui/features/events"
	graphFeature "github.com/leapstack-labs/typegraph/internal/ui/features/graph"
	historyFeature "github.com/leapstack-labs/typegraph/internal/ui/features/history"
	modulesFeature "github.com/leapstack-labs/typegraph/internal/ui/features/modules"
	"github.com/leapstack-labs/typegraph/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server. Builds started over
// HTTP run under base.
func SetupRoutes(base context.Context, router chi.Router, eng *engine.Engine, logger *slog.Logger) error {
	// Static assets
	router.Handle("/static/*", resources.Handler())
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, resources.StaticPath(""), http.StatusFound)
	})

	// Feature routes
	if err := modulesFeature.SetupRoutes(router, eng, logger); err != nil {
		return err
	}

	if err := graphFeature.SetupRoutes(base, router, eng, logger); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, eng.Store()); err != nil {
		return err
	}

	if err := eventsFeature.SetupRoutes(router, eng); err != nil {
		return err
	}

	return nil
}
