package engine

import (
	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
)

// ViewOptions narrow a graph for display. Filters apply in field order and
// compose; the zero value is the full graph.
type ViewOptions struct {
	// Path keeps the ancestry path from the root to the named type.
	Path string `json:"path,omitempty"`
	// Modules keeps edges whose endpoints both belong to these modules.
	Modules []string `json:"modules,omitempty"`
	// Touching keeps edges with at least one endpoint in this module.
	Touching string `json:"touching,omitempty"`
}

// IsZero reports whether no filter is set.
func (o ViewOptions) IsZero() bool {
	return o.Path == "" && len(o.Modules) == 0 && o.Touching == ""
}

// View returns a filtered copy of g and the legend entries for the modules
// still present. g is never modified.
func View(g *dag.Graph, legend []palette.Entry, opts ViewOptions) (*dag.Graph, []palette.Entry, error) {
	if opts.IsZero() {
		return g, legend, nil
	}

	out := g
	if opts.Path != "" {
		filtered, err := dag.FilterByType(out, opts.Path)
		if err != nil {
			return nil, nil, err
		}
		out = filtered
	}
	if len(opts.Modules) > 0 {
		out = dag.FilterByModules(out, opts.Modules)
	}
	if opts.Touching != "" {
		out = dag.FilterByModuleIncidence(out, opts.Touching)
	}
	return out, restrictLegend(out, legend), nil
}

func restrictLegend(g *dag.Graph, legend []palette.Entry) []palette.Entry {
	present := make(map[string]bool)
	for _, m := range g.Modules() {
		present[m] = true
	}
	out := make([]palette.Entry, 0, len(present))
	for _, l := range legend {
		if present[l.Module] {
			out = append(out, l)
		}
	}
	return out
}

// CurrentView filters the current graph. The current snapshot is unchanged.
func (e *Engine) CurrentView(opts ViewOptions) (*Snapshot, error) {
	snap, err := e.Current()
	if err != nil {
		return nil, err
	}
	g, legend, err := View(snap.Graph, snap.Legend, opts)
	if err != nil {
		return nil, err
	}
	view := *snap
	view.Graph = g
	view.Legend = legend
	return &view, nil
}
