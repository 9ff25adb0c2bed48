package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/metadata/fixture"
	"github.com/leapstack-labs/typegraph/internal/testutil"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

const testModulesDir = "testdata/modules"

func newTestProvider(t *testing.T) *fixture.Provider {
	t.Helper()
	p, err := fixture.New(fixture.Config{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return p
}

// loadTestdata loads and links the modules under testdata that parse cleanly.
func loadTestdata(t *testing.T) (*fixture.Provider, map[string]*core.Module) {
	t.Helper()
	p := newTestProvider(t)
	ctx := context.Background()

	modules := make(map[string]*core.Module)
	var linked []*core.Module
	for _, name := range []string{"shop.yaml", "common.yaml", "billing.yaml"} {
		m, err := p.LoadModule(ctx, filepath.Join(testModulesDir, name))
		require.NoError(t, err)
		modules[m.ID] = m
		linked = append(linked, m)
	}
	require.NoError(t, p.Link(linked))
	return p, modules
}

// loadInline writes each YAML document to a temp dir, loads and links them.
func loadInline(t *testing.T, docs ...string) (*fixture.Provider, map[string]*core.Module) {
	t.Helper()
	p := newTestProvider(t)
	dir := t.TempDir()
	ctx := context.Background()

	modules := make(map[string]*core.Module)
	var linked []*core.Module
	for i, doc := range docs {
		path := filepath.Join(dir, "module"+string(rune('a'+i))+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		m, err := p.LoadModule(ctx, path)
		require.NoError(t, err)
		modules[m.ID] = m
		linked = append(linked, m)
	}
	require.NoError(t, p.Link(linked))
	return p, modules
}

func mustType(t *testing.T, m *core.Module, name string) core.Type {
	t.Helper()
	require.NotNil(t, m)
	typ, ok := m.FindType(name)
	require.True(t, ok, "type %s not found in %s", name, m.ID)
	return typ
}

func newTestBuilder(t *testing.T, p core.Provider, prefix string) *Builder {
	t.Helper()
	return NewBuilder(BuilderConfig{
		IsStandard:   p.IsStandard,
		DomainPrefix: prefix,
		Logger:       testutil.NewTestLogger(t),
	})
}

func nodeNames(g *dag.Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.Name)
	}
	return out
}

func edgeNames(g *dag.Graph) []string {
	var out []string
	for _, e := range g.Edges() {
		out = append(out, e.Source.Name+" -> "+e.Target.Name)
	}
	return out
}

func childNames(g *dag.Graph, k dag.Key) []string {
	var out []string
	for _, c := range g.Children(k) {
		out = append(out, c.Name)
	}
	return out
}

// newTestEngine creates an engine over testdata/modules with the Acme domain.
func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := Config{
		Provider:     newTestProvider(t),
		ModulesDir:   testModulesDir,
		DomainPrefix: "Acme",
		Workers:      2,
		Logger:       testutil.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}
