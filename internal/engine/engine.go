// Package engine turns loaded module metadata into type dependency graphs.
// It handles module discovery, root resolution, builds and the current
// graph shared with presentation layers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/palette"
	"github.com/leapstack-labs/typegraph/internal/state"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

var (
	// ErrModuleNotFound is returned when a module id is unknown.
	ErrModuleNotFound = errors.New("module not found")
	// ErrBuildInProgress is returned when a build is requested while another runs.
	ErrBuildInProgress = errors.New("build already in progress")
	// ErrNoCurrentGraph is returned before the first successful build.
	ErrNoCurrentGraph = errors.New("no graph has been built")
)

// Engine owns the loaded modules and the current graph.
type Engine struct {
	provider     core.Provider
	builder      *Builder
	modulesDir   string
	domainPrefix string
	workers      int
	store        state.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger

	mu      sync.RWMutex
	modules map[string]*core.Module
	current *Snapshot

	building atomic.Bool
}

// Config holds engine configuration.
type Config struct {
	// Provider loads module metadata. Required.
	Provider core.Provider
	// ModulesDir is the directory scanned by Discover.
	ModulesDir string
	// DomainPrefix keeps only modules and types in this namespace prefix.
	// It also selects member attributes during builds. Empty keeps everything.
	DomainPrefix string
	// PaletteSeed drives colour sampling beyond the fixed palette.
	PaletteSeed uint64
	// Workers bounds parallel module loading. Zero uses GOMAXPROCS.
	Workers int
	// Store persists finished builds (optional).
	Store state.Store
	// Notifier receives progress events (optional).
	Notifier *notifier.Notifier
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates an engine. Modules are loaded by Discover.
func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("engine: metadata provider is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		slog.String("provider", cfg.Provider.Name()),
		slog.String("modules_dir", cfg.ModulesDir),
		slog.String("domain_prefix", cfg.DomainPrefix))

	return &Engine{
		provider:     cfg.Provider,
		modulesDir:   cfg.ModulesDir,
		domainPrefix: cfg.DomainPrefix,
		workers:      cfg.Workers,
		store:        cfg.Store,
		notifier:     cfg.Notifier,
		logger:       logger,
		modules:      make(map[string]*core.Module),
		builder: NewBuilder(BuilderConfig{
			IsStandard:   cfg.Provider.IsStandard,
			DomainPrefix: cfg.DomainPrefix,
			PaletteSeed:  cfg.PaletteSeed,
			Logger:       logger,
		}),
	}, nil
}

// Close releases the history store, if any.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Provider returns the metadata provider.
func (e *Engine) Provider() core.Provider { return e.provider }

// Store returns the history store, nil when history is disabled.
func (e *Engine) Store() state.Store { return e.store }

// Notifier returns the progress notifier, nil when none is configured.
func (e *Engine) Notifier() *notifier.Notifier { return e.notifier }

// ModulesDir returns the directory scanned by Discover.
func (e *Engine) ModulesDir() string { return e.modulesDir }

func (e *Engine) publish(kind notifier.Kind, message string) {
	if e.notifier != nil {
		e.notifier.Publish(kind, message)
	}
}

// --- Modules ---

// Modules returns the loaded modules sorted by id.
func (e *Engine) Modules() []*core.Module {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*core.Module, 0, len(e.modules))
	for _, m := range e.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Module returns one loaded module.
func (e *Engine) Module(id string) (*core.Module, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	m, ok := e.modules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return m, nil
}

// Types returns the selectable types of a module, sorted by name.
func (e *Engine) Types(moduleID string) ([]core.Type, error) {
	m, err := e.Module(moduleID)
	if err != nil {
		return nil, err
	}
	return m.Types, nil
}

// Root identifies what a build starts from: a type, or a member of a type
// when Member is set.
type Root struct {
	Module string `json:"module"`
	Type   string `json:"type"`
	Member string `json:"member,omitempty"`
}

func (r Root) String() string {
	s := r.Module + ":" + r.Type
	if r.Member != "" {
		s += "." + r.Member
	}
	return s
}

// ParseRoot parses "Module:Type". Type names may contain dots, so members
// are never split off here; set Root.Member explicitly.
func ParseRoot(s string) (Root, error) {
	module, typ, ok := strings.Cut(s, ":")
	if !ok || module == "" || typ == "" {
		return Root{}, fmt.Errorf("invalid root %q: expected Module:Type", s)
	}
	return Root{Module: module, Type: typ}, nil
}

// ResolveType finds a type by name or full name within a module.
func (e *Engine) ResolveType(moduleID, typeName string) (core.Type, error) {
	m, err := e.Module(moduleID)
	if err != nil {
		return nil, err
	}
	t, ok := m.FindType(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", core.ErrTypeNotFound, typeName, moduleID)
	}
	return t, nil
}

// ResolveMember finds a member of a type within a module.
func (e *Engine) ResolveMember(moduleID, typeName, member string) (core.Member, error) {
	t, err := e.ResolveType(moduleID, typeName)
	if err != nil {
		return nil, err
	}
	m, err := core.FindMember(t, member)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", typeName, member, err)
	}
	return m, nil
}

// --- Builds ---

// Snapshot is one finished build. It is never mutated after publication.
type Snapshot struct {
	ID       string          `json:"id"`
	Root     Root            `json:"root"`
	Graph    *dag.Graph      `json:"-"`
	Legend   []palette.Entry `json:"legend"`
	Warnings []Warning       `json:"warnings"`
	BuiltAt  time.Time       `json:"built_at"`
	Duration time.Duration   `json:"duration"`
}

// BuildOutcome is published once per asynchronous build.
type BuildOutcome struct {
	Snapshot *Snapshot
	Err      error
}

// Busy reports whether a build is running.
func (e *Engine) Busy() bool {
	return e.building.Load()
}

// Current returns the snapshot of the last successful build.
func (e *Engine) Current() (*Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.current == nil {
		return nil, ErrNoCurrentGraph
	}
	return e.current, nil
}

// Build runs a build synchronously and makes it current on success.
func (e *Engine) Build(ctx context.Context, root Root) (*Snapshot, error) {
	if !e.building.CompareAndSwap(false, true) {
		return nil, ErrBuildInProgress
	}
	return e.run(ctx, root)
}

// BuildAsync starts a build on a new goroutine. The returned channel
// receives exactly one outcome and is then closed.
func (e *Engine) BuildAsync(ctx context.Context, root Root) (<-chan BuildOutcome, error) {
	if !e.building.CompareAndSwap(false, true) {
		return nil, ErrBuildInProgress
	}
	out := make(chan BuildOutcome, 1)
	go func() {
		defer close(out)
		snap, err := e.run(ctx, root)
		out <- BuildOutcome{Snapshot: snap, Err: err}
	}()
	return out, nil
}

// run performs one build. The caller must hold the building flag.
func (e *Engine) run(ctx context.Context, root Root) (*Snapshot, error) {
	defer e.building.Store(false)

	e.publish(notifier.BuildStarted, root.String())
	start := time.Now()

	res, err := e.buildRoot(ctx, root)
	if err != nil {
		e.logger.Warn("build failed", slog.String("root", root.String()), slog.String("error", err.Error()))
		e.publish(notifier.BuildFailed, err.Error())
		return nil, err
	}

	snap := &Snapshot{
		ID:       uuid.NewString(),
		Root:     root,
		Graph:    res.Graph,
		Legend:   res.Legend,
		Warnings: res.Warnings,
		BuiltAt:  time.Now().UTC(),
		Duration: time.Since(start),
	}

	e.mu.Lock()
	e.current = snap
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveSnapshot(ctx, e.record(snap)); err != nil {
			e.logger.Warn("failed to save build history", slog.String("error", err.Error()))
		}
	}

	e.logger.Info("build finished",
		slog.String("root", root.String()),
		slog.Int("nodes", snap.Graph.NodeCount()),
		slog.Int("edges", snap.Graph.EdgeCount()),
		slog.Int("warnings", len(snap.Warnings)),
		slog.Duration("duration", snap.Duration))
	e.publish(notifier.BuildFinished, root.String())
	return snap, nil
}

func (e *Engine) buildRoot(ctx context.Context, root Root) (*Result, error) {
	if root.Member != "" {
		m, err := e.ResolveMember(root.Module, root.Type, root.Member)
		if err != nil {
			return nil, err
		}
		return e.builder.BuildMember(ctx, m)
	}
	t, err := e.ResolveType(root.Module, root.Type)
	if err != nil {
		return nil, err
	}
	return e.builder.BuildType(ctx, t)
}

// record converts a snapshot to its persisted form.
func (e *Engine) record(snap *Snapshot) *state.SnapshotDetail {
	detail := &state.SnapshotDetail{
		Snapshot: state.Snapshot{
			ID:       snap.ID,
			Root:     snap.Root.String(),
			Provider: e.provider.Name(),
			BuiltAt:  snap.BuiltAt,
			Duration: snap.Duration,
		},
	}
	for _, n := range snap.Graph.Nodes() {
		detail.Nodes = append(detail.Nodes, state.Node{
			Name:         n.Name,
			Module:       n.Module,
			ParentName:   n.Parent.Name,
			ParentModule: n.Parent.Module,
			DeepExpand:   n.DeepExpand,
			Color:        n.Color,
		})
	}
	for _, edge := range snap.Graph.Edges() {
		detail.Edges = append(detail.Edges, state.Edge{
			SourceName:   edge.Source.Name,
			SourceModule: edge.Source.Module,
			TargetName:   edge.Target.Name,
			TargetModule: edge.Target.Module,
		})
	}
	for _, l := range snap.Legend {
		detail.Legend = append(detail.Legend, state.LegendEntry{Module: l.Module, Color: l.Color.String()})
	}
	for _, w := range snap.Warnings {
		detail.Warnings = append(detail.Warnings, w.String())
	}
	return detail
}

// Restore rebuilds a graph from a persisted snapshot. Restored vertices
// carry no type handles.
func Restore(detail *state.SnapshotDetail) (*dag.Graph, []palette.Entry, error) {
	g := dag.NewGraph()
	for _, n := range detail.Nodes {
		g.AddVertex(dag.TypeNode{
			Name:       n.Name,
			Module:     n.Module,
			Parent:     dag.Key{Name: n.ParentName, Module: n.ParentModule},
			DeepExpand: n.DeepExpand,
			Color:      n.Color,
		})
	}
	for _, edge := range detail.Edges {
		if err := g.AddEdge(
			dag.Key{Name: edge.SourceName, Module: edge.SourceModule},
			dag.Key{Name: edge.TargetName, Module: edge.TargetModule},
		); err != nil {
			return nil, nil, fmt.Errorf("restore snapshot %s: %w", detail.ID, err)
		}
	}
	legend := make([]palette.Entry, 0, len(detail.Legend))
	for _, l := range detail.Legend {
		legend = append(legend, palette.Entry{Module: l.Module, Color: palette.Color(l.Color)})
	}
	return g, legend, nil
}
