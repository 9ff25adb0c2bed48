// Package history serves saved builds.
package history

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/state"
	"github.com/leapstack-labs/typegraph/internal/ui/features/common"
)

// DefaultLimit is the number of builds listed when no limit is given.
const DefaultLimit = 20

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	store state.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.Store) *Handlers {
	return &Handlers{store: store}
}

// HandleList returns recent builds, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			common.WriteError(w, errors.Join(common.ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	builds, err := h.store.ListSnapshots(r.Context(), limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	out := output.HistoryOutput{Builds: make([]output.HistoryEntry, 0, len(builds))}
	for _, b := range builds {
		out.Builds = append(out.Builds, output.HistoryEntry{
			ID:       b.ID,
			Root:     b.Root,
			Provider: b.Provider,
			BuiltAt:  b.BuiltAt,
			Duration: b.Duration.Milliseconds(),
			Nodes:    b.NodeCount,
			Edges:    b.EdgeCount,
			Warnings: b.WarningCount,
		})
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// HandleShow returns the graph of one saved build.
func (h *Handlers) HandleShow(w http.ResponseWriter, r *http.Request) {
	detail, err := h.store.LoadSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	g, legend, err := engine.Restore(detail)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	out := output.NewGraphOutput(g, legend)
	out.ID = detail.ID
	out.Root = detail.Root
	out.BuiltAt = &detail.BuiltAt
	out.Warnings = detail.Warnings
	common.WriteJSON(w, http.StatusOK, out)
}
