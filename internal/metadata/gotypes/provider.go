// Package gotypes provides a metadata provider over Go modules.
//
// A module is a go.mod root. Its packages are loaded with go/packages and
// reflected through go/types: struct fields, methods, constructors named
// New<Type>, embedded interfaces and package-local interfaces a type
// satisfies. Go has no attributes or nested types, so those steps of a build
// see nothing.
package gotypes

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

// Builtin is the namespace of predeclared types such as error and int.
const Builtin = "builtin"

// StdModule is the module id of standard library packages.
const StdModule = "std"

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedSyntax |
	packages.NeedModule

const defaultCacheSize = 8192

// Config holds configuration for the Go provider.
type Config struct {
	// StandardPrefixes are extra package path prefixes treated as standard
	// library, e.g. "golang.org/x".
	StandardPrefixes []string
	// Tests includes test packages.
	Tests bool
	// Env overrides the environment of the go command (optional).
	Env []string
	// CacheSize bounds the member and interface caches.
	CacheSize int
	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Provider loads Go modules.
type Provider struct {
	prefixes []string
	tests    bool
	env      []string
	logger   *slog.Logger

	members    *lru.Cache[*types.Named, []core.Member]
	interfaces *lru.Cache[*types.Named, []core.Type]

	// modules are the known module paths, for mapping package paths to
	// module ids.
	mu      sync.RWMutex
	modules map[string]bool
}

var (
	_ core.Provider = (*Provider)(nil)
	_ core.Linker   = (*Provider)(nil)
)

// New creates a Go provider.
func New(cfg Config) (*Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}

	members, err := lru.New[*types.Named, []core.Member](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create member cache: %w", err)
	}
	interfaces, err := lru.New[*types.Named, []core.Type](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create interface cache: %w", err)
	}

	return &Provider{
		prefixes:   cfg.StandardPrefixes,
		tests:      cfg.Tests,
		env:        cfg.Env,
		logger:     logger,
		members:    members,
		interfaces: interfaces,
		modules:    make(map[string]bool),
	}, nil
}

// Name implements core.Provider.
func (p *Provider) Name() string { return "go" }

// IsStandard reports the builtin namespace, standard library package paths
// (no dot in the first element) and the configured prefixes.
func (p *Provider) IsStandard(namespace string) bool {
	if namespace == "" {
		return false
	}
	if namespace == Builtin {
		return true
	}
	first, _, _ := strings.Cut(namespace, "/")
	if !strings.Contains(first, ".") {
		return true
	}
	for _, prefix := range p.prefixes {
		if namespace == prefix || strings.HasPrefix(namespace, prefix+"/") {
			return true
		}
	}
	return false
}

// Discover lists go.mod files under dir, skipping hidden, vendor and
// testdata directories below dir.
func (p *Provider) Discover(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (strings.HasPrefix(name, ".") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "go.mod" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadModule loads every package of the module rooted at the go.mod file
// path. Packages with errors keep the types that type-checked and are
// reported with core.ErrPartialLoad.
func (p *Provider) LoadModule(ctx context.Context, path string) (*core.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	modPath := modfile.ModulePath(data)
	if modPath == "" {
		return nil, fmt.Errorf("%s: missing module directive", path)
	}
	p.register(modPath)

	cfg := &packages.Config{
		Mode:    loadMode,
		Context: ctx,
		Dir:     filepath.Dir(path),
		Tests:   p.tests,
		Env:     p.env,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("failed to load packages of %s: %w", modPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found in %s", modPath)
	}

	var errs []error
	seen := make(map[*types.TypeName]bool)
	var out []core.Type
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Errorf("%s: %s", pkg.PkgPath, e.Error()))
		}
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || obj.IsAlias() || seen[obj] {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			seen[obj] = true
			out = append(out, p.wrap(named))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].Namespace() < out[j].Namespace()
	})

	p.logger.Debug("loaded go module",
		slog.String("module", modPath),
		slog.Int("packages", len(pkgs)),
		slog.Int("types", len(out)),
		slog.Int("errors", len(errs)))

	m := &core.Module{ID: modPath, Path: path, Types: out}
	if len(errs) > 0 {
		return m, fmt.Errorf("%w: %w", core.ErrPartialLoad, errors.Join(errs...))
	}
	return m, nil
}

// Link replaces the known module set with modules. Packages of unknown
// modules report their own path as module id.
func (p *Provider) Link(modules []*core.Module) error {
	known := make(map[string]bool, len(modules))
	for _, m := range modules {
		if m != nil {
			known[m.ID] = true
		}
	}
	p.mu.Lock()
	p.modules = known
	p.mu.Unlock()
	return nil
}

func (p *Provider) register(modPath string) {
	p.mu.Lock()
	p.modules[modPath] = true
	p.mu.Unlock()
}

// moduleOf maps a package path to the longest known module path containing it.
func (p *Provider) moduleOf(pkgPath string) string {
	if p.IsStandard(pkgPath) {
		return StdModule
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for candidate := pkgPath; candidate != "" && candidate != "."; candidate = parentPath(candidate) {
		if p.modules[candidate] {
			return candidate
		}
	}
	return pkgPath
}

func parentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}
