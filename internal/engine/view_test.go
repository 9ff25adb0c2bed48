package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/dag"
)

func TestView_Zero(t *testing.T) {
	g := dag.NewGraph()
	got, legend, err := View(g, nil, ViewOptions{})
	require.NoError(t, err)
	assert.Same(t, g, got)
	assert.Nil(t, legend)
}

func TestCurrentView(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.Discover(context.Background())
	require.NoError(t, err)
	full, err := e.Build(context.Background(), Root{Module: "Acme.Shop", Type: "Order"})
	require.NoError(t, err)

	t.Run("path", func(t *testing.T) {
		view, err := e.CurrentView(ViewOptions{Path: "Money"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Order", "Invoice", "Money"}, nodeNames(view.Graph))
		assert.Equal(t, []string{"Order -> Invoice", "Invoice -> Money"}, edgeNames(view.Graph))
		require.Len(t, view.Legend, 3)
		assert.Equal(t, full.ID, view.ID)
	})

	t.Run("modules", func(t *testing.T) {
		view, err := e.CurrentView(ViewOptions{Modules: []string{"Acme.Shop"}})
		require.NoError(t, err)
		for _, n := range view.Graph.Nodes() {
			assert.Equal(t, "Acme.Shop", n.Module)
		}
		require.Len(t, view.Legend, 1)
		assert.Equal(t, "Acme.Shop", view.Legend[0].Module)
	})

	t.Run("touching", func(t *testing.T) {
		view, err := e.CurrentView(ViewOptions{Touching: "Acme.Billing"})
		require.NoError(t, err)
		for _, edge := range view.Graph.Edges() {
			assert.True(t, edge.Source.Module == "Acme.Billing" || edge.Target.Module == "Acme.Billing", edgeNames(view.Graph))
		}
		assert.NotEmpty(t, view.Graph.Edges())
	})

	t.Run("unknown path", func(t *testing.T) {
		_, err := e.CurrentView(ViewOptions{Path: "Nope"})
		assert.ErrorIs(t, err, dag.ErrNodeNotFound)
	})

	// Filtered views never replace the current graph.
	current, err := e.Current()
	require.NoError(t, err)
	assert.Same(t, full, current)
	assert.Equal(t, 16, current.Graph.NodeCount())
}
