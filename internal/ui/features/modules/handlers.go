// Package modules serves the loaded modules and their selectable types.
package modules

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/ui/features/common"
)

// Handlers provides HTTP handlers for the modules feature.
type Handlers struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(eng *engine.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{engine: eng, logger: logger}
}

// HandleList returns every loaded module.
func (h *Handlers) HandleList(w http.ResponseWriter, _ *http.Request) {
	mods := h.engine.Modules()
	out := make([]output.ModuleInfo, 0, len(mods))
	for _, m := range mods {
		out = append(out, output.ModuleInfo{ID: m.ID, Path: m.Path, Types: len(m.Types)})
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// HandleTypes returns the selectable types of one module.
func (h *Handlers) HandleTypes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	types, err := h.engine.Types(id)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	infos := make([]output.TypeInfo, 0, len(types))
	for _, t := range types {
		infos = append(infos, output.TypeInfo{Name: t.Name(), FullName: t.FullName(), Namespace: t.Namespace()})
	}
	common.WriteJSON(w, http.StatusOK, output.TypesOutput{Module: id, Types: infos})
}

// HandleReload rediscovers the modules directory.
func (h *Handlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Discover(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.logger.Info("modules reloaded", slog.String("summary", result.Summary()))

	out := output.DiscoverySummary{
		Files:    result.FilesTotal,
		Loaded:   result.ModulesLoaded,
		Skipped:  result.ModulesSkipped,
		Types:    result.TypesTotal,
		Duration: result.Duration.Milliseconds(),
	}
	common.WriteJSON(w, http.StatusOK, out)
}
