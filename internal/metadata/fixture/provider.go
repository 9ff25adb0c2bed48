// Package fixture provides a metadata provider over YAML module files.
//
// Each file describes one compiled module: its id and the types it declares,
// with base types, interfaces, attributes, members and nested types written
// as type references. A standard library module is embedded and always
// visible to references.
package fixture

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

//go:embed std.yaml
var stdYAML []byte

// StdModule is the id of the embedded standard library module.
const StdModule = "mscorlib"

// DefaultStandardPrefixes are the namespaces treated as standard library.
var DefaultStandardPrefixes = []string{"System", "Microsoft"}

const defaultCacheSize = 4096

// Config holds configuration for the fixture provider.
type Config struct {
	// StandardPrefixes are namespace prefixes of the standard library.
	StandardPrefixes []string
	// CacheSize bounds the type reference cache per link pass.
	CacheSize int
	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Provider loads YAML module files.
type Provider struct {
	prefixes  []string
	cacheSize int
	logger    *slog.Logger

	std *core.Module

	// mu serialises link passes.
	mu sync.Mutex
}

var (
	_ core.Provider = (*Provider)(nil)
	_ core.Linker   = (*Provider)(nil)
)

// New creates a fixture provider with the embedded standard module linked.
func New(cfg Config) (*Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prefixes := cfg.StandardPrefixes
	if len(prefixes) == 0 {
		prefixes = DefaultStandardPrefixes
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	p := &Provider{prefixes: prefixes, cacheSize: cacheSize, logger: logger}

	std, err := p.parse("std.yaml", stdYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded standard module: %w", err)
	}
	p.std = std
	if err := p.Link(nil); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements core.Provider.
func (p *Provider) Name() string { return "fixture" }

// Standard returns the embedded standard library module.
func (p *Provider) Standard() *core.Module { return p.std }

// IsStandard implements core.Provider.
func (p *Provider) IsStandard(namespace string) bool {
	for _, prefix := range p.prefixes {
		if namespace == prefix || strings.HasPrefix(namespace, prefix+".") {
			return true
		}
	}
	return false
}

// Discover lists *.yaml and *.yml files under dir, skipping hidden
// directories and the typegraph config file.
func (p *Provider) Discover(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(name)
		if (ext == ".yaml" || ext == ".yml") && !strings.HasPrefix(name, "typegraph.") {
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

// LoadModule parses one module file. Malformed type entries are skipped and
// reported with core.ErrPartialLoad alongside the usable module.
func (p *Provider) LoadModule(ctx context.Context, path string) (*core.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", path, err)
	}
	return p.parse(path, data)
}

func (p *Provider) parse(path string, data []byte) (*core.Module, error) {
	var file moduleFileYAML
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if strings.TrimSpace(file.Module) == "" {
		return nil, &ParseError{Path: path, Message: "module id is required"}
	}

	var errs []error
	defs := make([]*typeDef, 0, len(file.Types))
	for i := range file.Types {
		node := &file.Types[i]
		var raw typeYAML
		if err := node.Decode(&raw); err != nil {
			errs = append(errs, &ParseError{Path: path, Line: node.Line, Message: err.Error()})
			continue
		}
		if err := raw.validate(); err != nil {
			errs = append(errs, &ParseError{Path: path, Line: node.Line, Message: err.Error()})
			continue
		}
		defs = append(defs, newTypeDef(raw, file.Module, nil))
	}

	sort.SliceStable(defs, func(i, j int) bool { return defs[i].raw.Name < defs[j].raw.Name })

	types := make([]core.Type, 0, len(defs))
	for _, d := range defs {
		types = append(types, d)
	}
	m := &core.Module{ID: file.Module, Path: path, Types: types}

	if len(errs) > 0 {
		return m, fmt.Errorf("%w: %w", core.ErrPartialLoad, errors.Join(errs...))
	}
	return m, nil
}

// Link makes every type of modules, plus the standard module, visible to the
// references of the others. Each call replaces the previous link set.
func (p *Provider) Link(modules []*core.Module) error {
	defs := rootDefs(p.std)
	for _, m := range modules {
		if m == nil || m == p.std {
			continue
		}
		defs = append(defs, rootDefs(m)...)
	}

	u, err := newUniverse(defs, p.cacheSize)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, root := range defs {
		root.walk(func(d *typeDef) { d.linked.Store(u) })
	}
	p.logger.Debug("linked modules",
		slog.Int("modules", len(modules)),
		slog.Int("types", len(u.byFullName)))
	return nil
}

func rootDefs(m *core.Module) []*typeDef {
	out := make([]*typeDef, 0, len(m.Types))
	for _, t := range m.Types {
		if d, ok := t.(*typeDef); ok {
			out = append(out, d)
		}
	}
	return out
}
