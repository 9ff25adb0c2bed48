package graph

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/ui/features"
)

func newHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	f := features.SetupTestFixture(t)
	return NewHandlers(context.Background(), f.Engine, nil), f
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/builds", strings.NewReader(body)))
	return rec
}

func waitFor(t *testing.T, ch chan notifier.Event, kind notifier.Kind) notifier.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestHandleBuild(t *testing.T) {
	h, f := newHandlers(t)

	ch := f.Notifier.Subscribe()
	defer f.Notifier.Unsubscribe(ch)

	rec := post(h.HandleBuild, `{"module":"Acme.Shop","type":"Order"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted BuildAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "Acme.Shop:Order", accepted.Root)

	waitFor(t, ch, notifier.BuildFinished)

	snap, err := f.Engine.Current()
	require.NoError(t, err)
	assert.Equal(t, features.OrderRoot, snap.Root)
	assert.Equal(t, 16, snap.Graph.NodeCount())
}

func TestHandleBuild_Member(t *testing.T) {
	h, f := newHandlers(t)

	ch := f.Notifier.Subscribe()
	defer f.Notifier.Unsubscribe(ch)

	rec := post(h.HandleBuild, `{"module":"Acme.Shop","type":"Order","member":"Total"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitFor(t, ch, notifier.BuildFinished)

	snap, err := f.Engine.Current()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Graph.NodeCount())
}

func TestHandleBuild_Errors(t *testing.T) {
	h, _ := newHandlers(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed body", body: `{`, want: http.StatusBadRequest},
		{name: "unknown field", body: `{"module":"Acme.Shop","type":"Order","depth":3}`, want: http.StatusBadRequest},
		{name: "missing type", body: `{"module":"Acme.Shop"}`, want: http.StatusBadRequest},
		{name: "unknown module", body: `{"module":"Nope","type":"Order"}`, want: http.StatusNotFound},
		{name: "unknown type", body: `{"module":"Acme.Shop","type":"Refund"}`, want: http.StatusNotFound},
		{name: "unknown member", body: `{"module":"Acme.Shop","type":"Order","member":"Refund"}`, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.HandleBuild, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandleGraph(t *testing.T) {
	h, f := newHandlers(t)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.HandleGraph(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	t.Run("before any build", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/api/graph").Code)
	})

	snap := f.Build(t, features.OrderRoot)

	t.Run("full graph", func(t *testing.T) {
		rec := get("/api/graph")
		require.Equal(t, http.StatusOK, rec.Code)

		var out output.GraphOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, snap.ID, out.ID)
		assert.Equal(t, "Acme.Shop:Order", out.Root)
		assert.Equal(t, 16, out.TotalNodes)
		assert.Equal(t, 20, out.TotalEdges)
		assert.Len(t, out.Legend, 3)
		assert.Equal(t, "Order", out.Nodes[0].Name)
	})

	t.Run("path filter", func(t *testing.T) {
		rec := get("/api/graph?path=Money")
		require.Equal(t, http.StatusOK, rec.Code)

		var out output.GraphOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		var names []string
		for _, n := range out.Nodes {
			names = append(names, n.Name)
		}
		assert.Equal(t, []string{"Order", "Invoice", "Money"}, names)
		assert.Equal(t, []output.EdgeInfo{
			{Source: "Acme.Shop:Order", Target: "Acme.Billing:Invoice"},
			{Source: "Acme.Billing:Invoice", Target: "Acme.Common:Money"},
		}, out.Edges)
	})

	t.Run("unknown path", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get("/api/graph?path=Nope").Code)
	})

	t.Run("modules filter", func(t *testing.T) {
		rec := get("/api/graph?modules=Acme.Shop,%20")
		require.Equal(t, http.StatusOK, rec.Code)

		var out output.GraphOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		for _, n := range out.Nodes {
			assert.Equal(t, "Acme.Shop", n.Module)
		}
		require.Len(t, out.Legend, 1)
	})
}

func TestHandleDOT(t *testing.T) {
	h, f := newHandlers(t)
	f.Build(t, features.OrderRoot)

	rec := httptest.NewRecorder()
	h.HandleDOT(rec, httptest.NewRequest(http.MethodGet, "/api/graph/dot?touching=Acme.Billing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "graphviz")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `digraph "Acme.Shop:Order" {`), body)
	assert.Contains(t, body, `"Acme.Billing:Invoice"`)
}

func TestHandleBreakdown(t *testing.T) {
	h, f := newHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleBreakdown(rec, httptest.NewRequest(http.MethodGet, "/api/breakdown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.Build(t, features.OrderRoot)

	rec = httptest.NewRecorder()
	h.HandleBreakdown(rec, httptest.NewRequest(http.MethodGet, "/api/breakdown", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []engine.ModuleBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "Acme.Shop", out[0].Module)
	assert.Equal(t, []string{"Invoice"}, out[1].Types)
}

func TestViewOptions(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/graph?path=Money&modules=A,,B&touching=C", nil)
	assert.Equal(t, engine.ViewOptions{Path: "Money", Modules: []string{"A", "B"}, Touching: "C"}, viewOptions(r))

	r = httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	assert.True(t, viewOptions(r).IsZero())
}
