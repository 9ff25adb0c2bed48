package dag

import "fmt"

// FilterByType returns the ancestry path from the root to the first node
// named targetName. The target is located by edge source name first, then by
// edge target name. A graph without edges only matches its root. An unknown
// name yields ErrNodeNotFound.
func FilterByType(g *Graph, targetName string) (*Graph, error) {
	target, ok := locate(g, targetName)
	if !ok {
		return nil, fmt.Errorf("type %q: %w", targetName, ErrNodeNotFound)
	}
	return FilterByKey(g, target.Key())
}

func locate(g *Graph, name string) (*TypeNode, bool) {
	edges := g.Edges()
	for _, e := range edges {
		if e.Source.Name == name {
			return e.Source, true
		}
	}
	for _, e := range edges {
		if e.Target.Name == name {
			return e.Target, true
		}
	}
	if root, ok := g.Root(); ok && root.Name == name {
		return root, true
	}
	return nil, false
}

// FilterByKey returns the ancestry path from the root to the node with the
// given key, following the Parent links recorded at discovery time.
func FilterByKey(g *Graph, target Key) (*Graph, error) {
	current, ok := g.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", target, ErrNodeNotFound)
	}
	root, _ := g.Root()

	chain := []*TypeNode{current}
	seen := map[Key]bool{current.Key(): true}
	for !current.Equal(root) && current.HasParent() {
		parent, ok := g.Lookup(current.Parent)
		if !ok || seen[parent.Key()] {
			break
		}
		seen[parent.Key()] = true
		chain = append(chain, parent)
		current = parent
	}

	out := NewGraph()
	for i := len(chain) - 1; i >= 0; i-- {
		out.AddVertex(*chain[i])
	}
	for i := len(chain) - 1; i > 0; i-- {
		from, to := chain[i].Key(), chain[i-1].Key()
		if !g.HasEdge(from, to) {
			continue
		}
		if err := out.AddEdge(from, to); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FilterByModules returns the edges whose endpoints both belong to an
// enabled module, plus those endpoints.
func FilterByModules(g *Graph, enabled []string) *Graph {
	set := make(map[string]bool, len(enabled))
	for _, m := range enabled {
		set[m] = true
	}
	return induced(g, func(e Edge) bool {
		return set[e.Source.Module] && set[e.Target.Module]
	})
}

// FilterByModuleIncidence returns the edges with at least one endpoint in
// module, plus their endpoints.
func FilterByModuleIncidence(g *Graph, module string) *Graph {
	return induced(g, func(e Edge) bool {
		return e.Source.Module == module || e.Target.Module == module
	})
}

func induced(g *Graph, keep func(Edge) bool) *Graph {
	out := NewGraph()
	for _, e := range g.Edges() {
		if !keep(e) {
			continue
		}
		out.AddVertex(*e.Source)
		out.AddVertex(*e.Target)
		// Endpoints were just added and the source graph has no self-loops.
		_ = out.AddEdge(e.Source.Key(), e.Target.Key())
	}
	return out
}
