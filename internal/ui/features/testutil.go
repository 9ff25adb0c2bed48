// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/metadata/fixture"
	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/state"
	"github.com/leapstack-labs/typegraph/internal/testutil"
)

// OrderRoot is a root in the test modules with a multi-module graph.
var OrderRoot = engine.Root{Module: "Acme.Shop", Type: "Order"}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Engine   *engine.Engine
	Notifier *notifier.Notifier
	Store    state.Store
}

// TestModulesDir returns the engine's fixture modules directory.
func TestModulesDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(filename), "..", "..", "engine", "testdata", "modules")
}

// SetupTestFixture creates an engine over the fixture modules with an
// in-memory history store and a notifier, and runs discovery.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	provider, err := fixture.New(fixture.Config{Logger: logger})
	require.NoError(t, err)

	store := state.NewSQLiteStore(logger)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())

	n := notifier.New()
	eng, err := engine.New(engine.Config{
		Provider:     provider,
		ModulesDir:   TestModulesDir(t),
		DomainPrefix: "Acme",
		Workers:      2,
		Store:        store,
		Notifier:     n,
		Logger:       logger,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = eng.Close()
	})

	_, err = eng.Discover(context.Background())
	require.NoError(t, err)

	return &TestFixture{
		Engine:   eng,
		Notifier: n,
		Store:    store,
	}
}

// Build builds root synchronously and fails the test on error.
func (f *TestFixture) Build(t *testing.T, root engine.Root) *engine.Snapshot {
	t.Helper()
	snap, err := f.Engine.Build(context.Background(), root)
	require.NoError(t, err)
	return snap
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
