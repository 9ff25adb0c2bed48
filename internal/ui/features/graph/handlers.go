// Package graph starts builds and serves the current graph.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/ui/features/common"
)

// Handlers provides HTTP handlers for the graph feature.
type Handlers struct {
	base   context.Context
	engine *engine.Engine
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(base context.Context, eng *engine.Engine, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{base: base, engine: eng, logger: logger}
}

// BuildRequest selects the root of a build.
type BuildRequest struct {
	Module string `json:"module"`
	Type   string `json:"type"`
	Member string `json:"member,omitempty"`
}

// BuildAccepted is returned when a build has been started.
type BuildAccepted struct {
	Root string `json:"root"`
}

// HandleBuild starts a build in the background. Progress and the outcome
// are published on the event stream.
func (h *Handlers) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Module == "" || req.Type == "" {
		common.WriteError(w, errors.Join(common.ErrBadRequest, errors.New("module and type are required")))
		return
	}

	root := engine.Root{Module: req.Module, Type: req.Type, Member: req.Member}
	// Unknown roots fail the request.
	if err := h.resolve(root); err != nil {
		common.WriteError(w, err)
		return
	}

	outcome, err := h.engine.BuildAsync(h.base, root)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	go h.drain(root, outcome)

	common.WriteJSON(w, http.StatusAccepted, BuildAccepted{Root: root.String()})
}

func (h *Handlers) resolve(root engine.Root) error {
	var err error
	if root.Member != "" {
		_, err = h.engine.ResolveMember(root.Module, root.Type, root.Member)
	} else {
		_, err = h.engine.ResolveType(root.Module, root.Type)
	}
	return err
}

func (h *Handlers) drain(root engine.Root, outcome <-chan engine.BuildOutcome) {
	res := <-outcome
	if res.Err != nil {
		h.logger.Warn("build failed", slog.String("root", root.String()), slog.String("error", res.Err.Error()))
		return
	}
	h.logger.Info("build finished",
		slog.String("root", root.String()),
		slog.String("id", res.Snapshot.ID),
		slog.Int("nodes", res.Snapshot.Graph.NodeCount()),
		slog.Int("warnings", len(res.Snapshot.Warnings)))
}

// HandleGraph returns the current graph, filtered by the query.
func (h *Handlers) HandleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CurrentView(viewOptions(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}

	out := output.NewGraphOutput(snap.Graph, snap.Legend)
	out.ID = snap.ID
	out.Root = snap.Root.String()
	out.BuiltAt = &snap.BuiltAt
	for _, warn := range snap.Warnings {
		out.Warnings = append(out.Warnings, warn.String())
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// HandleDOT returns the current graph, filtered by the query, as Graphviz.
func (h *Handlers) HandleDOT(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.CurrentView(viewOptions(r))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	if err := output.WriteDOT(w, snap.Root.String(), snap.Graph); err != nil {
		h.logger.Debug("failed to write dot", slog.String("error", err.Error()))
	}
}

// HandleBreakdown returns the per-module drill-down of the current graph.
func (h *Handlers) HandleBreakdown(w http.ResponseWriter, _ *http.Request) {
	breakdown, err := h.engine.Breakdown()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, breakdown)
}

// viewOptions reads ?path=&modules=a,b&touching= from the query.
func viewOptions(r *http.Request) engine.ViewOptions {
	q := r.URL.Query()
	opts := engine.ViewOptions{
		Path:     q.Get("path"),
		Touching: q.Get("touching"),
	}
	for _, m := range strings.Split(q.Get("modules"), ",") {
		if m = strings.TrimSpace(m); m != "" {
			opts.Modules = append(opts.Modules, m)
		}
	}
	return opts
}
