package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

func buildOrder(t *testing.T, prefix string) *Result {
	t.Helper()
	p, modules := loadTestdata(t)
	order := mustType(t, modules["Acme.Shop"], "Order")

	res, err := newTestBuilder(t, p, prefix).BuildType(context.Background(), order)
	require.NoError(t, err)
	return res
}

func TestBuildType_Order(t *testing.T) {
	res := buildOrder(t, "Acme")
	g := res.Graph

	assert.Equal(t, []string{
		"Order",
		"EntityBase",
		"IAggregate",
		"RushOrder",
		"Customer",
		"Order-(generated collection)",
		"OrderLine-(generated collection)",
		"OrderLine",
		"Product",
		"Receipt",
		"PaymentMethod",
		"Invoice",
		"Money",
		"OrderChangedHandler",
		"Status",
		"AuditedAttribute",
	}, nodeNames(g))

	assert.Equal(t, []string{
		"Order -> EntityBase",
		"Order -> IAggregate",
		"Order -> RushOrder",
		"RushOrder -> Order",
		"Order -> Customer",
		"Customer -> Order-(generated collection)",
		"Order-(generated collection) -> Order",
		"Order -> OrderLine-(generated collection)",
		"OrderLine-(generated collection) -> OrderLine",
		"OrderLine -> Product",
		"OrderLine -> Order",
		"Order -> Receipt",
		"Order -> PaymentMethod",
		"Order -> Invoice",
		"Invoice -> Money",
		"Invoice -> Order",
		"Order -> OrderChangedHandler",
		"Order -> Status",
		"Order -> Money",
		"Order -> AuditedAttribute",
	}, edgeNames(g))

	assert.Empty(t, res.Warnings)

	assert.Equal(t, []palette.Entry{
		{Module: "Acme.Shop", Color: palette.Fixed[0]},
		{Module: "Acme.Billing", Color: palette.Fixed[1]},
		{Module: "Acme.Common", Color: palette.Fixed[2]},
	}, res.Legend)
}

func TestBuildType_ExpansionOrder(t *testing.T) {
	res := buildOrder(t, "Acme")

	// base, interfaces, known types, constructors, fields, methods, events,
	// nested types, properties, member attributes
	assert.Equal(t, []string{
		"EntityBase",
		"IAggregate",
		"RushOrder",
		"Customer",
		"OrderLine-(generated collection)",
		"Receipt",
		"PaymentMethod",
		"Invoice",
		"OrderChangedHandler",
		"Status",
		"Money",
		"AuditedAttribute",
	}, childNames(res.Graph, dag.Key{Name: "Order", Module: "Acme.Shop"}))
}

func TestBuildType_MemberAttributesNeedDomainPrefix(t *testing.T) {
	res := buildOrder(t, "")

	assert.NotContains(t, nodeNames(res.Graph), "AuditedAttribute")
	assert.Equal(t, 15, res.Graph.NodeCount())
	assert.Equal(t, 19, res.Graph.EdgeCount())
}

func TestBuildType_Deterministic(t *testing.T) {
	first := buildOrder(t, "Acme")
	second := buildOrder(t, "Acme")

	assert.Equal(t, nodeNames(first.Graph), nodeNames(second.Graph))
	assert.Equal(t, edgeNames(first.Graph), edgeNames(second.Graph))
	assert.Equal(t, first.Legend, second.Legend)
}

func TestBuildType_UniqueVerticesAndEdges(t *testing.T) {
	g := buildOrder(t, "Acme").Graph

	keys := make(map[dag.Key]bool)
	for _, n := range g.Nodes() {
		assert.False(t, keys[n.Key()], "duplicate vertex %s", n.Key())
		keys[n.Key()] = true
	}

	edges := make(map[[2]dag.Key]bool)
	for _, e := range g.Edges() {
		k := [2]dag.Key{e.Source.Key(), e.Target.Key()}
		assert.False(t, edges[k], "duplicate edge %v", k)
		assert.NotEqual(t, k[0], k[1], "self loop on %s", k[0])
		edges[k] = true
	}
}

func TestBuildType_ParentsAndColors(t *testing.T) {
	res := buildOrder(t, "Acme")
	g := res.Graph

	root, ok := g.Root()
	require.True(t, ok)
	assert.Equal(t, "Order", root.Name)
	assert.False(t, root.HasParent())
	assert.True(t, root.DeepExpand)

	colors := make(map[string]string)
	for _, l := range res.Legend {
		colors[l.Module] = l.Color.String()
	}
	for _, n := range g.Nodes() {
		assert.Equal(t, colors[n.Module], n.Color, "color of %s", n.Name)
		if n != root {
			_, ok := g.Lookup(n.Parent)
			assert.True(t, ok, "parent of %s is a vertex", n.Name)
			assert.True(t, g.HasEdge(n.Parent, n.Key()), "edge from parent of %s", n.Name)
		}
	}

	invoice, ok := g.Lookup(dag.Key{Name: "Invoice", Module: "Acme.Billing"})
	require.True(t, ok)
	assert.Equal(t, dag.Key{Name: "Order", Module: "Acme.Shop"}, invoice.Parent)
	assert.Equal(t, "Order", invoice.ParentType.Name())
}

func TestBuildType_CollectionNodes(t *testing.T) {
	g := buildOrder(t, "Acme").Graph

	tests := []struct {
		name    string
		parent  string
		element string
	}{
		{"Order-(generated collection)", "Customer", "Order"},
		{"OrderLine-(generated collection)", "Order", "OrderLine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := dag.Key{Name: tt.name, Module: "Acme.Shop"}
			n, ok := g.Lookup(k)
			require.True(t, ok)

			assert.False(t, n.DeepExpand)
			assert.Equal(t, tt.parent, n.Parent.Name)
			assert.Equal(t, []string{tt.element}, childNames(g, k))
			require.NotNil(t, n.Type)
			require.Len(t, n.Type.GenericArguments(), 1)
			assert.Equal(t, tt.element, n.Type.GenericArguments()[0].Name())
		})
	}

	// The wrapped standard collection never becomes a vertex.
	for _, name := range nodeNames(g) {
		assert.NotContains(t, name, "List`1")
	}
}

func TestBuildType_BackEdgeAddedOnce(t *testing.T) {
	p, modules := loadInline(t, `
module: Loop
types:
  - {name: A, namespace: Loop, members: [{name: B, kind: property, type: B}]}
  - {name: B, namespace: Loop, members: [{name: A, kind: property, type: A}]}
`)
	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), mustType(t, modules["Loop"], "A"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, nodeNames(res.Graph))
	assert.Equal(t, []string{"A -> B", "B -> A"}, edgeNames(res.Graph))
}

func TestBuildType_Exclusions(t *testing.T) {
	p, modules := loadInline(t, `
module: Ex
types:
  - name: Holder
    namespace: Ex
    members:
      - {name: Label, kind: property, type: String}
      - {name: Count, kind: property, type: Int32}
      - {name: Link, kind: property, type: System.Uri}
      - {name: Links, kind: property, type: "List<System.Uri>"}
      - {name: ByName, kind: property, type: "Dictionary<String, Value>"}
      - {name: Maybe, kind: property, type: "Nullable<Value>"}
      - {name: Closure, kind: field, type: "<>c__DisplayClass0"}
      - {name: Swap, kind: method, parameters: ["Value&"]}
  - {name: Value, namespace: Ex, kind: struct}
  - {name: "<>c__DisplayClass0", namespace: Ex}
  - {name: Args, namespace: Ex, base: System.EventArgs}
`)
	b := newTestBuilder(t, p, "")

	res, err := b.BuildType(context.Background(), mustType(t, modules["Ex"], "Holder"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Holder"}, nodeNames(res.Graph))
	assert.Zero(t, res.Graph.EdgeCount())

	// A standard base type is not followed.
	res, err = b.BuildType(context.Background(), mustType(t, modules["Ex"], "Args"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Args"}, nodeNames(res.Graph))
}

func TestBuildType_CollectionsOfExcludedElements(t *testing.T) {
	p, modules := loadInline(t, `
module: Ex
types:
  - name: Holder
    namespace: Ex
    members:
      - {name: Closures, kind: field, type: "<>c__DisplayClass0[]"}
      - {name: Counts, kind: field, type: "Int32[]"}
      - {name: Grid, kind: field, type: "Value[][]"}
  - {name: Value, namespace: Ex, kind: struct}
  - {name: "<>c__DisplayClass0", namespace: Ex}
`)
	b := newTestBuilder(t, p, "")

	res, err := b.BuildType(context.Background(), mustType(t, modules["Ex"], "Holder"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Holder",
		"Value[]-(generated collection)",
		"Value-(generated collection)",
		"Value",
	}, nodeNames(res.Graph))
	require.Len(t, res.Legend, 1)
	assert.Equal(t, "Ex", res.Legend[0].Module)
}

func TestBuildType_StandardRootProducesEmptyGraph(t *testing.T) {
	p := newTestProvider(t)
	uri, ok := p.Standard().FindType("Uri")
	require.True(t, ok)

	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), uri)
	require.NoError(t, err)
	assert.Zero(t, res.Graph.NodeCount())
	assert.Empty(t, res.Legend)
}

func TestBuildType_InheritedCollection(t *testing.T) {
	p, modules := loadInline(t, `
module: Inv
types:
  - {name: Item, namespace: Inv}
  - {name: ItemList, namespace: Inv, base: "List<Item>"}
  - {name: Warehouse, namespace: Inv, members: [{name: Stock, kind: property, type: ItemList}]}
`)
	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), mustType(t, modules["Inv"], "Warehouse"))
	require.NoError(t, err)

	// A domain collection keeps its own vertex and links to its element.
	assert.Equal(t, []string{"Warehouse", "ItemList", "Item"}, nodeNames(res.Graph))
	assert.Equal(t, []string{"Warehouse -> ItemList", "ItemList -> Item"}, edgeNames(res.Graph))

	list, ok := res.Graph.Lookup(dag.Key{Name: "ItemList", Module: "Inv"})
	require.True(t, ok)
	assert.True(t, list.DeepExpand)
}

func TestBuildMember(t *testing.T) {
	p, modules := loadTestdata(t)
	order := mustType(t, modules["Acme.Shop"], "Order")
	b := newTestBuilder(t, p, "Acme")

	tests := []struct {
		member   string
		children []string
	}{
		{"Total", []string{"Money"}},
		{"Changed", []string{"OrderChangedHandler"}},
		{"_lines", []string{"OrderLine-(generated collection)"}},
		{"Submit", []string{"Receipt", "PaymentMethod", "Invoice"}},
		{".ctor", nil},
		{"Notes", nil},
	}
	for _, tt := range tests {
		t.Run(tt.member, func(t *testing.T) {
			m, err := core.FindMember(order, tt.member)
			require.NoError(t, err)

			res, err := b.BuildMember(context.Background(), m)
			require.NoError(t, err)

			root, ok := res.Graph.Root()
			require.True(t, ok)
			assert.Equal(t, "Order."+tt.member, root.Name)
			assert.Equal(t, "Acme.Shop", root.Module)
			assert.False(t, root.DeepExpand)
			assert.Equal(t, tt.children, childNames(res.Graph, root.Key()))
			assert.Equal(t, palette.Fixed[0].String(), root.Color)
		})
	}
}

func TestBuildMember_MethodReachesDeclaringType(t *testing.T) {
	p, modules := loadTestdata(t)
	order := mustType(t, modules["Acme.Shop"], "Order")
	submit, err := core.FindMember(order, "Submit")
	require.NoError(t, err)

	res, err := newTestBuilder(t, p, "").BuildMember(context.Background(), submit)
	require.NoError(t, err)

	// Invoice refers back to Order, which is then expanded as a type.
	n, ok := res.Graph.Lookup(dag.Key{Name: "Order", Module: "Acme.Shop"})
	require.True(t, ok)
	assert.True(t, n.DeepExpand)
	assert.Equal(t, "Invoice", n.Parent.Name)
	assert.Contains(t, childNames(res.Graph, n.Key()), "EntityBase")
}

func TestBuildType_UnresolvedReferenceWarns(t *testing.T) {
	p, modules := loadInline(t, `
module: Partial
types:
  - name: Account
    namespace: Partial
    interfaces: [Missing.IThing]
    members:
      - {name: Owner, kind: property, type: Owner}
  - {name: Owner, namespace: Partial}
`)
	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), mustType(t, modules["Partial"], "Account"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Account", "Owner"}, nodeNames(res.Graph))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "Partial:Account", res.Warnings[0].Node)
	assert.Equal(t, "interfaces", res.Warnings[0].Step)
	assert.Contains(t, res.Warnings[0].Message, "Missing.IThing")
	assert.Contains(t, res.Warnings[0].String(), "[interfaces]")
}

type panickyType struct{ core.Type }

func (panickyType) Interfaces() ([]core.Type, error) { panic("boom") }

func TestBuildType_PanicInStepWarns(t *testing.T) {
	p, modules := loadTestdata(t)
	order := mustType(t, modules["Acme.Shop"], "Order")

	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), panickyType{order})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "interfaces", res.Warnings[0].Step)
	assert.Equal(t, "panic: boom", res.Warnings[0].Message)

	names := nodeNames(res.Graph)
	assert.Contains(t, names, "EntityBase")
	assert.Contains(t, names, "Customer")
	assert.NotContains(t, names, "IAggregate")
}

type panickyResults struct{ core.Member }

func (panickyResults) Results() []core.Type { panic("boom") }

func TestBuildMember_PanicInResultsWarns(t *testing.T) {
	p, modules := loadTestdata(t)
	submit, err := core.FindMember(mustType(t, modules["Acme.Shop"], "Order"), "Submit")
	require.NoError(t, err)

	res, err := newTestBuilder(t, p, "").BuildMember(context.Background(), panickyResults{submit})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "results of Submit", res.Warnings[0].Step)
	assert.Equal(t, "panic: boom", res.Warnings[0].Message)

	names := nodeNames(res.Graph)
	assert.NotContains(t, names, "Receipt")
	assert.Contains(t, names, "PaymentMethod")
	assert.Contains(t, names, "Invoice")
}

func TestBuildType_CyclicInterfaces(t *testing.T) {
	p, modules := loadInline(t, `
module: Cycle
types:
  - {name: A, namespace: Cycle, kind: interface, interfaces: [B, C]}
  - {name: B, namespace: Cycle, kind: interface, interfaces: [A, C]}
  - {name: C, namespace: Cycle, kind: interface, interfaces: [A, B]}
`)
	res, err := newTestBuilder(t, p, "").BuildType(context.Background(), mustType(t, modules["Cycle"], "A"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, nodeNames(res.Graph))
	assert.Empty(t, res.Warnings)
}

func TestBuildType_Cancelled(t *testing.T) {
	p, modules := loadTestdata(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBuilder(t, p, "").BuildType(ctx, mustType(t, modules["Acme.Shop"], "Order"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_NilRoots(t *testing.T) {
	b := NewBuilder(BuilderConfig{})

	_, err := b.BuildType(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrTypeNotFound)

	_, err = b.BuildMember(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrMemberNotFound)
}
