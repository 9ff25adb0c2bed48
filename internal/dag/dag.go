// Package dag provides the dependency graph of type definitions.
// It supports deduplicated vertices and edges, cycle detection,
// topological sorting and derived subgraph views.
package dag

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

var (
	// ErrNodeNotFound is returned when a vertex lookup fails.
	ErrNodeNotFound = errors.New("node not found")
	// ErrCycleDetected is returned by strict sorts over cyclic input.
	ErrCycleDetected = errors.New("cycle detected")
)

// Key is the identity of a TypeNode: two nodes are equal iff their names and
// modules are equal.
type Key struct {
	Name   string
	Module string
}

// IsZero reports whether k is the empty key.
func (k Key) IsZero() bool {
	return k.Name == "" && k.Module == ""
}

func (k Key) String() string {
	if k.Module == "" {
		return k.Name
	}
	return k.Module + ":" + k.Name
}

// TypeNode is one vertex of the graph.
type TypeNode struct {
	// Name is the display name of the type or generated pseudo-type.
	Name string
	// Module is the id of the module the type belongs to.
	Module string
	// Type is the metadata handle used to re-query members.
	Type core.Type
	// ParentType is the type whose expansion discovered this node.
	ParentType core.Type
	// Parent is the key of the node that caused discovery. Zero for the root.
	Parent Key
	// DeepExpand is false for synthetic placeholder nodes.
	DeepExpand bool
	// Color is the display colour assigned to Module.
	Color string
}

// Key returns the node's identity.
func (n *TypeNode) Key() Key {
	return Key{Name: n.Name, Module: n.Module}
}

// Equal reports structural equality; Parent is not part of identity.
func (n *TypeNode) Equal(other *TypeNode) bool {
	if other == nil {
		return false
	}
	return n.Name == other.Name && n.Module == other.Module
}

// HasParent reports whether the node was discovered from another node.
func (n *TypeNode) HasParent() bool {
	return !n.Parent.IsZero()
}

// Edge is a directed dependency: Source depends on Target.
type Edge struct {
	Source *TypeNode
	Target *TypeNode
}

// Graph is a directed graph of type nodes. Vertices are unique by Key and
// edges are unique by (source, target). The first vertex added is the root.
type Graph struct {
	nodes    []*TypeNode
	index    map[Key]int
	edges    [][2]int
	edgeSet  map[[2]int]struct{}
	children map[int][]int // source -> targets (dependencies)
	parents  map[int][]int // target -> sources (dependents)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		index:    make(map[Key]int),
		edgeSet:  make(map[[2]int]struct{}),
		children: make(map[int][]int),
		parents:  make(map[int][]int),
	}
}

// AddVertex adds a copy of node to the graph. When a vertex with the same key
// already exists, the existing vertex is returned and added is false.
func (g *Graph) AddVertex(node TypeNode) (vertex *TypeNode, added bool) {
	key := node.Key()
	if idx, exists := g.index[key]; exists {
		return g.nodes[idx], false
	}
	n := node
	g.nodes = append(g.nodes, &n)
	g.index[key] = len(g.nodes) - 1
	return &n, true
}

// AddEdge adds a directed edge from source to target. Both endpoints must
// already be vertices. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(source, target Key) error {
	from, exists := g.index[source]
	if !exists {
		return fmt.Errorf("source %s: %w", source, ErrNodeNotFound)
	}
	to, exists := g.index[target]
	if !exists {
		return fmt.Errorf("target %s: %w", target, ErrNodeNotFound)
	}

	if from == to {
		return fmt.Errorf("self-loop detected: %s", source)
	}

	pair := [2]int{from, to}
	if _, dup := g.edgeSet[pair]; dup {
		return nil
	}
	g.edgeSet[pair] = struct{}{}
	g.edges = append(g.edges, pair)
	g.children[from] = append(g.children[from], to)
	g.parents[to] = append(g.parents[to], from)
	return nil
}

// HasEdge reports whether the edge source -> target exists.
func (g *Graph) HasEdge(source, target Key) bool {
	from, ok := g.index[source]
	if !ok {
		return false
	}
	to, ok := g.index[target]
	if !ok {
		return false
	}
	_, exists := g.edgeSet[[2]int{from, to}]
	return exists
}

// Lookup returns the vertex with the given key.
func (g *Graph) Lookup(key Key) (*TypeNode, bool) {
	idx, exists := g.index[key]
	if !exists {
		return nil, false
	}
	return g.nodes[idx], true
}

// Root returns the first vertex added to the graph.
func (g *Graph) Root() (*TypeNode, bool) {
	if len(g.nodes) == 0 {
		return nil, false
	}
	return g.nodes[0], true
}

// Nodes returns all vertices in insertion order.
func (g *Graph) Nodes() []*TypeNode {
	out := make([]*TypeNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, Edge{Source: g.nodes[e[0]], Target: g.nodes[e[1]]})
	}
	return out
}

// Children returns the dependencies of a vertex.
func (g *Graph) Children(key Key) []*TypeNode {
	return g.resolve(g.children, key)
}

// Parents returns the dependents of a vertex.
func (g *Graph) Parents(key Key) []*TypeNode {
	return g.resolve(g.parents, key)
}

func (g *Graph) resolve(adj map[int][]int, key Key) []*TypeNode {
	idx, exists := g.index[key]
	if !exists {
		return nil
	}
	out := make([]*TypeNode, 0, len(adj[idx]))
	for _, i := range adj[idx] {
		out = append(out, g.nodes[i])
	}
	return out
}

// Modules returns the distinct vertex modules in first-seen order.
func (g *Graph) Modules() []string {
	seen := make(map[string]bool)
	var modules []string
	for _, n := range g.nodes {
		if !seen[n.Module] {
			seen[n.Module] = true
			modules = append(modules, n.Module)
		}
	}
	return modules
}

// NodeCount returns the number of vertices in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []Key) {
	visited := make(map[int]bool)
	recStack := make(map[int]bool)
	path := make(map[int]int)

	var cyclePath []Key

	var dfs func(id int) bool
	dfs = func(id int) bool {
		visited[id] = true
		recStack[id] = true

		for _, child := range g.children[id] {
			if !visited[child] {
				path[child] = id
				if dfs(child) {
					return true
				}
			} else if recStack[child] {
				cyclePath = []Key{g.nodes[child].Key()}
				for curr := id; curr != child; curr = path[curr] {
					cyclePath = append([]Key{g.nodes[curr].Key()}, cyclePath...)
				}
				cyclePath = append([]Key{g.nodes[child].Key()}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}

	return false, nil
}

// TopologicalSort returns vertices with every dependency before its
// dependents. Cycles are tolerated unless strict is set.
func (g *Graph) TopologicalSort(strict bool) ([]*TypeNode, error) {
	return Sort(g.Nodes(), func(n *TypeNode) []*TypeNode {
		return g.Children(n.Key())
	}, strict)
}
