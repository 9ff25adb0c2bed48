package engine

import (
	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
)

// ModuleBreakdown is the legend drill-down for one module of a graph.
type ModuleBreakdown struct {
	Module string        `json:"module"`
	Color  palette.Color `json:"color"`
	// Types are the module's vertices, each after the same-module vertices
	// it depends on.
	Types []string `json:"types"`
	// References are the modules this module's vertices point at directly,
	// each after the referenced modules it depends on in turn.
	References []string `json:"references"`
}

// Breakdown groups the graph by module in legend order. Cycles are
// tolerated and yield a partial order.
func Breakdown(g *dag.Graph, legend []palette.Entry) []ModuleBreakdown {
	byModule := make(map[string][]*dag.TypeNode)
	for _, n := range g.Nodes() {
		byModule[n.Module] = append(byModule[n.Module], n)
	}

	// Direct module references, in edge order.
	refs := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, e := range g.Edges() {
		from, to := e.Source.Module, e.Target.Module
		if from == to || seen[[2]string{from, to}] {
			continue
		}
		seen[[2]string{from, to}] = true
		refs[from] = append(refs[from], to)
	}

	out := make([]ModuleBreakdown, 0, len(legend))
	for _, entry := range legend {
		nodes, ok := byModule[entry.Module]
		if !ok {
			continue
		}

		// Lenient sorts never fail.
		sortedTypes, _ := dag.Sort(nodes, func(n *dag.TypeNode) []*dag.TypeNode {
			var deps []*dag.TypeNode
			for _, c := range g.Children(n.Key()) {
				if c.Module == entry.Module {
					deps = append(deps, c)
				}
			}
			return deps
		}, false)

		candidates := refs[entry.Module]
		inCandidates := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			inCandidates[c] = true
		}
		sortedRefs, _ := dag.Sort(candidates, func(m string) []string {
			var deps []string
			for _, r := range refs[m] {
				if inCandidates[r] {
					deps = append(deps, r)
				}
			}
			return deps
		}, false)

		b := ModuleBreakdown{Module: entry.Module, Color: entry.Color, References: sortedRefs}
		for _, n := range sortedTypes {
			b.Types = append(b.Types, n.Name)
		}
		out = append(out, b)
	}
	return out
}

// Breakdown returns the module breakdown of the current graph.
func (e *Engine) Breakdown() ([]ModuleBreakdown, error) {
	snap, err := e.Current()
	if err != nil {
		return nil, err
	}
	return Breakdown(snap.Graph, snap.Legend), nil
}
