package dag

import (
	"errors"
	"testing"
)

func node(name, module string) TypeNode {
	return TypeNode{Name: name, Module: module, DeepExpand: true}
}

func child(name, module string, parent Key) TypeNode {
	n := node(name, module)
	n.Parent = parent
	return n
}

func key(name, module string) Key {
	return Key{Name: name, Module: module}
}

func TestGraph_AddVertexAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddVertex(node("C", "m"))

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	if err := g.AddEdge(key("A", "m"), key("B", "m")); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge(key("B", "m"), key("C", "m")); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddVertex_Duplicate(t *testing.T) {
	g := NewGraph()

	first, added := g.AddVertex(node("A", "m"))
	if !added {
		t.Fatal("expected first insert to add")
	}

	again, added := g.AddVertex(TypeNode{Name: "A", Module: "m", Parent: key("X", "m")})
	if added {
		t.Error("expected duplicate insert to be rejected")
	}
	if again != first {
		t.Error("expected duplicate insert to return the existing vertex")
	}
	if again.HasParent() {
		t.Error("existing vertex must not be overwritten")
	}

	// Same name in another module is a distinct vertex.
	if _, added := g.AddVertex(node("A", "other")); !added {
		t.Error("expected vertex in another module to be added")
	}
	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))

	err := g.AddEdge(key("A", "m"), key("nonexistent", "m"))
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for missing target, got %v", err)
	}

	err = g.AddEdge(key("nonexistent", "m"), key("A", "m"))
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound for missing source, got %v", err)
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))

	if err := g.AddEdge(key("A", "m"), key("A", "m")); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))

	for i := 0; i < 3; i++ {
		if err := g.AddEdge(key("A", "m"), key("B", "m")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}
	if len(g.Children(key("A", "m"))) != 1 {
		t.Errorf("expected A to have 1 child, got %d", len(g.Children(key("A", "m"))))
	}
}

func TestGraph_ParentsAndChildren(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddVertex(node("C", "m"))

	g.AddEdge(key("A", "m"), key("B", "m"))
	g.AddEdge(key("A", "m"), key("C", "m"))
	g.AddEdge(key("B", "m"), key("C", "m"))

	if parents := g.Parents(key("C", "m")); len(parents) != 2 {
		t.Errorf("expected C to have 2 parents, got %d", len(parents))
	}
	if children := g.Children(key("A", "m")); len(children) != 2 {
		t.Errorf("expected A to have 2 children, got %d", len(children))
	}
	if g.Children(key("missing", "m")) != nil {
		t.Error("expected nil children for missing vertex")
	}
}

func TestGraph_RootAndModules(t *testing.T) {
	g := NewGraph()
	if _, ok := g.Root(); ok {
		t.Error("empty graph must not have a root")
	}

	g.AddVertex(node("Order", "Shop"))
	g.AddVertex(node("Money", "Common"))
	g.AddVertex(node("Line", "Shop"))

	root, ok := g.Root()
	if !ok || root.Name != "Order" {
		t.Errorf("expected root Order, got %v", root)
	}

	modules := g.Modules()
	if len(modules) != 2 || modules[0] != "Shop" || modules[1] != "Common" {
		t.Errorf("expected [Shop Common], got %v", modules)
	}
}

func TestGraph_HasCycle_NoCycle(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddVertex(node("C", "m"))
	g.AddEdge(key("A", "m"), key("B", "m"))
	g.AddEdge(key("B", "m"), key("C", "m"))

	if hasCycle, _ := g.HasCycle(); hasCycle {
		t.Error("expected no cycle")
	}
}

func TestGraph_HasCycle_WithCycle(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddVertex(node("C", "m"))
	g.AddEdge(key("A", "m"), key("B", "m"))
	g.AddEdge(key("B", "m"), key("C", "m"))
	g.AddEdge(key("C", "m"), key("A", "m"))

	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Error("expected cycle")
	}
	if len(path) < 2 {
		t.Errorf("expected cycle path, got %v", path)
	}
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("C", "m"))
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddEdge(key("C", "m"), key("A", "m"))
	g.AddEdge(key("A", "m"), key("B", "m"))

	sorted, err := g.TopologicalSort(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make([]string, len(sorted))
	for i, n := range sorted {
		got[i] = n.Name
	}
	want := []string{"B", "A", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := NewGraph()
	g.AddVertex(node("A", "m"))
	g.AddVertex(node("B", "m"))
	g.AddEdge(key("A", "m"), key("B", "m"))
	g.AddEdge(key("B", "m"), key("A", "m"))

	if _, err := g.TopologicalSort(true); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}

	sorted, err := g.TopologicalSort(false)
	if err != nil {
		t.Fatalf("lenient sort must not fail: %v", err)
	}
	if len(sorted) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(sorted))
	}
}

func TestKey_String(t *testing.T) {
	if got := key("Order", "Shop").String(); got != "Shop:Order" {
		t.Errorf("unexpected key string %q", got)
	}
	if got := (Key{Name: "Order"}).String(); got != "Order" {
		t.Errorf("unexpected key string %q", got)
	}
	if !(Key{}).IsZero() {
		t.Error("expected zero key")
	}
}
