package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

// DiscoveryResult contains statistics about the discovery run.
type DiscoveryResult struct {
	FilesTotal     int
	ModulesLoaded  int
	ModulesSkipped int // loaded but outside the domain prefix
	TypesTotal     int

	// Errors (non-fatal)
	Errors []DiscoveryError

	Duration time.Duration
}

// DiscoveryError represents a non-fatal error during discovery.
type DiscoveryError struct {
	Path    string
	Type    string // "load", "partial", "duplicate", "link"
	Message string
}

// HasErrors returns true if any errors occurred.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *DiscoveryResult) Summary() string {
	return fmt.Sprintf(
		"Modules: %d loaded, %d skipped of %d files | Types: %d | Errors: %d | Duration: %s",
		r.ModulesLoaded, r.ModulesSkipped, r.FilesTotal, r.TypesTotal, len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}

type loadSlot struct {
	module *core.Module
	err    error
}

// Discover loads every module under the modules directory in parallel and
// replaces the loaded module set. Files that fail to load are reported in
// the result and left out; only scanning failures and cancellation are
// returned as errors.
func (e *Engine) Discover(ctx context.Context) (*DiscoveryResult, error) {
	start := time.Now()
	result := &DiscoveryResult{}

	files, err := e.provider.Discover(ctx, e.modulesDir)
	if err != nil {
		return nil, err
	}
	result.FilesTotal = len(files)

	workers := e.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Each worker owns one slot; results are merged after Wait.
	slots := make([]loadSlot, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			m, err := e.loadModule(gctx, path)
			slots[i] = loadSlot{module: m, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loaded := make([]*core.Module, 0, len(files))
	seen := make(map[string]string)
	for i, slot := range slots {
		path := files[i]
		if slot.err != nil {
			typ := "load"
			if errors.Is(slot.err, core.ErrPartialLoad) && slot.module != nil {
				typ = "partial"
			}
			result.Errors = append(result.Errors, DiscoveryError{Path: path, Type: typ, Message: slot.err.Error()})
			e.logger.Warn("module load failed", slog.String("path", path), slog.String("error", slot.err.Error()))
		}
		if slot.module == nil {
			continue
		}
		if first, dup := seen[slot.module.ID]; dup {
			result.Errors = append(result.Errors, DiscoveryError{
				Path:    path,
				Type:    "duplicate",
				Message: fmt.Sprintf("module %s already loaded from %s", slot.module.ID, first),
			})
			continue
		}
		seen[slot.module.ID] = path
		loaded = append(loaded, slot.module)
	}

	if linker, ok := e.provider.(core.Linker); ok {
		if err := linker.Link(loaded); err != nil {
			result.Errors = append(result.Errors, DiscoveryError{Type: "link", Message: err.Error()})
			e.logger.Warn("module link failed", slog.String("error", err.Error()))
		}
	}

	modules := make(map[string]*core.Module, len(loaded))
	for _, m := range loaded {
		kept := e.domainFilter(m)
		if kept == nil {
			result.ModulesSkipped++
			continue
		}
		modules[kept.ID] = kept
		result.ModulesLoaded++
		result.TypesTotal += len(kept.Types)
	}

	e.mu.Lock()
	e.modules = modules
	e.mu.Unlock()

	result.Duration = time.Since(start)
	e.logger.Info("discovery complete",
		slog.Int("modules", result.ModulesLoaded),
		slog.Int("skipped", result.ModulesSkipped),
		slog.Int("types", result.TypesTotal),
		slog.Int("errors", len(result.Errors)),
		slog.Duration("duration", result.Duration))
	e.publish(notifier.ModulesReloaded, result.Summary())
	return result, nil
}

// loadModule recovers provider panics so one bad file cannot stop discovery.
func (e *Engine) loadModule(ctx context.Context, path string) (m *core.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("load %s: panic: %v", path, r)
		}
	}()
	return e.provider.LoadModule(ctx, path)
}

// domainFilter keeps the types inside the domain prefix, sorted by name.
// It returns nil when the module has none.
func (e *Engine) domainFilter(m *core.Module) *core.Module {
	var types []core.Type
	for _, t := range m.Types {
		if e.domainPrefix == "" || strings.HasPrefix(t.Namespace(), e.domainPrefix) {
			types = append(types, t)
		}
	}
	if e.domainPrefix != "" && len(types) == 0 {
		return nil
	}
	sort.SliceStable(types, func(i, j int) bool { return types[i].Name() < types[j].Name() })
	return &core.Module{ID: m.ID, Path: m.Path, Types: types}
}
