package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
	"github.com/leapstack-labs/typegraph/pkg/core"
)

// CollectionSuffix is appended to the element name of synthetic collection
// nodes.
const CollectionSuffix = "-(generated collection)"

const maxBaseDepth = 32

// maxElementDepth bounds nested collection elements, as in [][]T.
const maxElementDepth = 8

// Warning is a failure suppressed while expanding one node.
type Warning struct {
	Node    string `json:"node"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.Node, w.Step, w.Message)
}

// Result is the outcome of one build.
type Result struct {
	Graph    *dag.Graph
	Legend   []palette.Entry
	Warnings []Warning
}

// BuilderConfig holds graph builder configuration.
type BuilderConfig struct {
	// IsStandard reports standard library namespaces. Required.
	IsStandard func(namespace string) bool
	// DomainPrefix selects member attributes whose namespace starts with it.
	// Empty disables the member attribute step.
	DomainPrefix string
	// PaletteSeed drives colour sampling beyond the fixed palette.
	PaletteSeed uint64
	// Logger for structured logging. If nil, logging is disabled.
	Logger *slog.Logger
}

// Builder walks type metadata into a dependency graph. A Builder holds no
// per-build state and may be reused.
type Builder struct {
	isStandard   func(string) bool
	domainPrefix string
	seed         uint64
	logger       *slog.Logger
}

// NewBuilder creates a graph builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	isStandard := cfg.IsStandard
	if isStandard == nil {
		isStandard = func(string) bool { return false }
	}
	return &Builder{
		isStandard:   isStandard,
		domainPrefix: cfg.DomainPrefix,
		seed:         cfg.PaletteSeed,
		logger:       logger,
	}
}

// BuildType builds the graph of everything root transitively depends on.
func (b *Builder) BuildType(ctx context.Context, root core.Type) (res *Result, err error) {
	if root == nil {
		return nil, fmt.Errorf("build: %w", core.ErrTypeNotFound)
	}
	w := b.newWalk(ctx)
	defer w.recoverRoot(&err)

	start := time.Now()
	b.logger.Debug("building type graph", slog.String("root", root.FullName()), slog.String("module", root.Module()))

	w.visit(root, nil)
	return w.finish(start)
}

// BuildMember builds the graph rooted at a single member. The root vertex is
// named "<DeclaringType>.<Member>" and is not expanded as a type.
func (b *Builder) BuildMember(ctx context.Context, root core.Member) (res *Result, err error) {
	if root == nil || root.DeclaringType() == nil {
		return nil, fmt.Errorf("build: %w", core.ErrMemberNotFound)
	}
	w := b.newWalk(ctx)
	defer w.recoverRoot(&err)

	start := time.Now()
	decl := root.DeclaringType()
	b.logger.Debug("building member graph", slog.String("type", decl.FullName()), slog.String("member", root.Name()))

	vertex, _ := w.graph.AddVertex(dag.TypeNode{
		Name:   decl.Name() + "." + root.Name(),
		Module: decl.Module(),
		Type:   decl,
		Color:  w.colors.ColorFor(decl.Module()).String(),
	})

	switch root.Kind() {
	case core.MemberProperty, core.MemberField, core.MemberEvent:
		w.visit(root.Type(), vertex)
	case core.MemberMethod:
		w.expandMethod(root, vertex)
	default:
		// Constructors and other kinds contribute nothing.
	}
	return w.finish(start)
}

func (b *Builder) newWalk(ctx context.Context) *walk {
	return &walk{
		ctx:     ctx,
		builder: b,
		graph:   dag.NewGraph(),
		colors:  palette.NewAssigner(b.seed),
	}
}

// walk is the state of a single build.
type walk struct {
	ctx      context.Context
	builder  *Builder
	graph    *dag.Graph
	colors   *palette.Assigner
	warnings []Warning
	err      error
}

func (w *walk) finish(start time.Time) (*Result, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.builder.logger.Debug("graph built",
		slog.Int("nodes", w.graph.NodeCount()),
		slog.Int("edges", w.graph.EdgeCount()),
		slog.Int("warnings", len(w.warnings)),
		slog.Duration("duration", time.Since(start)))
	return &Result{
		Graph:    w.graph,
		Legend:   w.colors.Legend(),
		Warnings: w.warnings,
	}, nil
}

// recoverRoot turns a panic outside any expansion step into a build error.
func (w *walk) recoverRoot(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("build failed: %v", r)
	}
}

// aborted latches context cancellation.
func (w *walk) aborted() bool {
	if w.err == nil {
		w.err = w.ctx.Err()
	}
	return w.err != nil
}

func (w *walk) warn(node *dag.TypeNode, step string, err error) {
	warning := Warning{Node: node.Key().String(), Step: step, Message: err.Error()}
	w.warnings = append(w.warnings, warning)
	w.builder.logger.Debug("expansion step failed",
		slog.String("node", warning.Node),
		slog.String("step", step),
		slog.String("error", warning.Message))
}

// step runs one expansion step of node. Errors and panics are recorded as
// warnings and the walk continues with the next step.
func (w *walk) step(node *dag.TypeNode, name string, fn func() error) {
	if w.aborted() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.warn(node, name, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		w.warn(node, name, err)
	}
}

func (w *walk) isStandard(namespace string) bool {
	return w.builder.isStandard(namespace)
}

// visit adds t below parent and expands it when it is new.
func (w *walk) visit(t core.Type, parent *dag.TypeNode) {
	if t == nil || w.aborted() {
		return
	}

	var elem core.Type
	if enumerableLike(t) {
		elem = elementType(t)
	}
	if !w.shouldProcess(t, elem) {
		return
	}

	node := w.newNode(t, parent, elem)

	if existing, ok := w.graph.Lookup(node.Key()); ok {
		if parent != nil && !existing.Equal(parent) {
			_ = w.graph.AddEdge(parent.Key(), existing.Key())
		}
		return
	}

	vertex, _ := w.graph.AddVertex(node)
	if parent != nil {
		_ = w.graph.AddEdge(parent.Key(), vertex.Key())
	}

	if vertex.DeepExpand {
		w.expand(t, vertex)
	}
	if elem != nil {
		w.visit(elem, vertex)
	}
}

// shouldProcess excludes primitives, strings, by-ref markers and generated
// types. Standard library types only pass as wrappers of a domain element,
// and a collection placeholder needs an element that qualifies on its own.
func (w *walk) shouldProcess(t, elem core.Type) bool {
	return w.qualifies(t, elem, 0)
}

func (w *walk) qualifies(t, elem core.Type, depth int) bool {
	if t.IsPrimitive() || t.IsString() || t.IsByRef() || t.IsGenerated() {
		return false
	}
	standard := w.isStandard(t.Namespace())
	if elem != nil && (t.IsArray() || standard) {
		if depth >= maxElementDepth {
			return false
		}
		var inner core.Type
		if enumerableLike(elem) {
			inner = elementType(elem)
		}
		if !w.qualifies(elem, inner, depth+1) {
			return false
		}
	}
	if !standard {
		return true
	}
	return elem != nil && elem.Namespace() != "" && !w.isStandard(elem.Namespace())
}

func (w *walk) newNode(t core.Type, parent *dag.TypeNode, elem core.Type) dag.TypeNode {
	if elem == nil && t.IsArray() {
		elem = t.ElementType()
	}

	var node dag.TypeNode
	if elem != nil && (t.IsArray() || w.isStandard(t.Namespace())) {
		node = dag.TypeNode{
			Name:   elem.Name() + CollectionSuffix,
			Module: elem.Module(),
			Type:   core.CollectionOf(elem),
		}
	} else {
		node = dag.TypeNode{
			Name:       t.Name(),
			Module:     t.Module(),
			Type:       t,
			DeepExpand: true,
		}
	}
	if parent != nil {
		node.ParentType = parent.Type
		node.Parent = parent.Key()
	}
	node.Color = w.colors.ColorFor(node.Module).String()
	return node
}

// expand walks the dependencies of t in a fixed order.
func (w *walk) expand(t core.Type, node *dag.TypeNode) {
	members := sync.OnceValues(t.Members)
	membersOf := func(kind core.MemberKind) ([]core.Member, error) {
		all, err := members()
		if err != nil {
			return nil, err
		}
		var out []core.Member
		for _, m := range all {
			if m.Kind() == kind {
				out = append(out, m)
			}
		}
		return out, nil
	}

	w.step(node, "base type", func() error {
		base := t.BaseType()
		if base != nil && base.Namespace() != "" && !w.isStandard(base.Namespace()) {
			w.visit(base, node)
		}
		return nil
	})

	w.step(node, "interfaces", func() error {
		ifaces, err := t.Interfaces()
		if err != nil {
			return err
		}
		w.visitAll(ifaces, node)
		return nil
	})

	w.step(node, "known types", func() error {
		attrs, err := t.Attributes()
		if err != nil {
			return err
		}
		for _, a := range attrs {
			w.visit(a.KnownType, node)
		}
		return nil
	})

	w.step(node, "attributes", func() error {
		attrs, err := t.Attributes()
		if err != nil {
			return err
		}
		for _, a := range attrs {
			w.visit(a.Type, node)
		}
		return nil
	})

	w.step(node, "constructors", func() error {
		ctors, err := membersOf(core.MemberConstructor)
		if err != nil {
			return err
		}
		for _, c := range ctors {
			params, err := c.Parameters()
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			w.visitAll(params, node)
		}
		return nil
	})

	w.step(node, "fields", func() error {
		fields, err := membersOf(core.MemberField)
		if err != nil {
			return err
		}
		for _, f := range fields {
			w.visit(f.Type(), node)
		}
		return nil
	})

	w.step(node, "methods", func() error {
		methods, err := membersOf(core.MemberMethod)
		if err != nil {
			return err
		}
		for _, m := range methods {
			w.expandMethod(m, node)
		}
		return nil
	})

	w.step(node, "events", func() error {
		events, err := membersOf(core.MemberEvent)
		if err != nil {
			return err
		}
		for _, e := range events {
			w.visit(e.Type(), node)
		}
		return nil
	})

	w.step(node, "generic arguments", func() error {
		w.visitAll(t.GenericArguments(), node)
		return nil
	})

	w.step(node, "nested types", func() error {
		nested, err := t.NestedTypes()
		if err != nil {
			return err
		}
		w.visitAll(nested, node)
		return nil
	})

	w.step(node, "properties", func() error {
		props, err := membersOf(core.MemberProperty)
		if err != nil {
			return err
		}
		for _, p := range props {
			w.visit(p.Type(), node)
		}
		return nil
	})

	prefix := w.builder.domainPrefix
	if prefix == "" {
		return
	}
	w.step(node, "member attributes", func() error {
		all, err := members()
		if err != nil {
			return err
		}
		for _, m := range all {
			attrs, err := m.Attributes()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			for _, a := range attrs {
				if a.Type != nil && strings.HasPrefix(a.Type.Namespace(), prefix) {
					w.visit(a.Type, node)
				}
			}
		}
		return nil
	})
}

// expandMethod visits return, parameter and local variable types. Each part
// fails independently.
func (w *walk) expandMethod(m core.Member, node *dag.TypeNode) {
	w.step(node, "results of "+m.Name(), func() error {
		w.visitAll(m.Results(), node)
		return nil
	})
	w.step(node, "parameters of "+m.Name(), func() error {
		params, err := m.Parameters()
		if err != nil {
			return err
		}
		w.visitAll(params, node)
		return nil
	})
	w.step(node, "locals of "+m.Name(), func() error {
		locals, err := m.Locals()
		if err != nil {
			return err
		}
		w.visitAll(locals, node)
		return nil
	})
}

func (w *walk) visitAll(types []core.Type, parent *dag.TypeNode) {
	for _, t := range types {
		w.visit(t, parent)
	}
}

// enumerableLike reports iteration capability, excluding strings.
func enumerableLike(t core.Type) bool {
	return t.IsEnumerable() && !t.IsString()
}

// elementType is the array element, else the first generic argument, else
// the same taken from the nearest base type that has one.
func elementType(t core.Type) core.Type {
	for depth := 0; t != nil && depth < maxBaseDepth; depth++ {
		if e := t.ElementType(); e != nil {
			return e
		}
		if args := t.GenericArguments(); len(args) > 0 {
			return args[0]
		}
		t = t.BaseType()
	}
	return nil
}
