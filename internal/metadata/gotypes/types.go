package gotypes

import (
	"go/types"
	"strings"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

// wrap returns the handle for t. Aliases are resolved and pointers are
// followed to their element, so *T and T share one handle.
func (p *Provider) wrap(t types.Type) core.Type {
	switch t := t.(type) {
	case *types.Alias:
		return p.wrap(types.Unalias(t))
	case *types.Pointer:
		return p.wrap(t.Elem())
	case *types.Named:
		return &named{p: p, t: t}
	case *types.Basic:
		return &basic{t: t}
	case *types.TypeParam:
		return &typeParam{p: p, t: t}
	case *types.Slice:
		return &container{p: p, t: t, elem: t.Elem()}
	case *types.Array:
		return &container{p: p, t: t, elem: t.Elem()}
	case *types.Chan:
		return &container{p: p, t: t, elem: t.Elem()}
	case *types.Map:
		// Maps enumerate to their values.
		return &container{p: p, t: t, elem: t.Elem()}
	default:
		return &anonymous{t: t}
	}
}

func (p *Provider) wrapAll(list []types.Type) []core.Type {
	out := make([]core.Type, 0, len(list))
	for _, t := range list {
		out = append(out, p.wrap(t))
	}
	return out
}

func tupleTypes(tuple *types.Tuple) []types.Type {
	if tuple == nil {
		return nil
	}
	out := make([]types.Type, tuple.Len())
	for i := range out {
		out[i] = tuple.At(i).Type()
	}
	return out
}

func qualifier(pkg *types.Package) string { return pkg.Name() }

// elementOf returns the element of slice, array, chan and map types.
func elementOf(t types.Type) types.Type {
	switch u := t.Underlying().(type) {
	case *types.Slice:
		return u.Elem()
	case *types.Array:
		return u.Elem()
	case *types.Chan:
		return u.Elem()
	case *types.Map:
		return u.Elem()
	}
	return nil
}

// named is a defined type or an instance of a generic one.
type named struct {
	p *Provider
	t *types.Named
}

func (n *named) Name() string { return n.t.Obj().Name() }

func (n *named) FullName() string {
	if ns := n.Namespace(); ns != Builtin {
		return ns + "." + n.Name()
	}
	return n.Name()
}

func (n *named) Namespace() string {
	if pkg := n.t.Obj().Pkg(); pkg != nil {
		return pkg.Path()
	}
	return Builtin
}

func (n *named) Module() string {
	if pkg := n.t.Obj().Pkg(); pkg != nil {
		return n.p.moduleOf(pkg.Path())
	}
	return StdModule
}

func (n *named) IsPrimitive() bool  { return false }
func (n *named) IsString() bool     { return false }
func (n *named) IsByRef() bool      { return false }
func (n *named) IsGenerated() bool  { return false }
func (n *named) IsArray() bool      { return false }
func (n *named) IsEnumerable() bool { return elementOf(n.t) != nil }

func (n *named) ElementType() core.Type {
	if elem := elementOf(n.t); elem != nil {
		return n.p.wrap(elem)
	}
	return nil
}

// GenericArguments are the type arguments of an instance, or the type
// parameters of a generic definition.
func (n *named) GenericArguments() []core.Type {
	if args := n.t.TypeArgs(); args.Len() > 0 {
		out := make([]core.Type, args.Len())
		for i := range out {
			out[i] = n.p.wrap(args.At(i))
		}
		return out
	}
	params := n.t.TypeParams()
	out := make([]core.Type, params.Len())
	for i := range out {
		out[i] = n.p.wrap(params.At(i))
	}
	return out
}

func (n *named) BaseType() core.Type { return nil }

// Interfaces of an interface type are its embedded interfaces. Other types
// report the non-empty interfaces of their own package that T or *T
// satisfies.
func (n *named) Interfaces() ([]core.Type, error) {
	origin := n.t.Origin()
	if cached, ok := n.p.interfaces.Get(origin); ok {
		return cached, nil
	}

	var out []core.Type
	if iface, ok := origin.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumEmbeddeds(); i++ {
			out = append(out, n.p.wrap(iface.EmbeddedType(i)))
		}
	} else if pkg := origin.Obj().Pkg(); pkg != nil && origin.TypeParams().Len() == 0 {
		ptr := types.NewPointer(origin)
		scope := pkg.Scope()
		for _, name := range scope.Names() {
			obj, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || obj.IsAlias() {
				continue
			}
			candidate, ok := obj.Type().(*types.Named)
			if !ok || candidate == origin || candidate.TypeParams().Len() > 0 {
				continue
			}
			iface, ok := candidate.Underlying().(*types.Interface)
			if !ok || iface.NumMethods() == 0 {
				continue
			}
			if types.Implements(origin, iface) || types.Implements(ptr, iface) {
				out = append(out, n.p.wrap(candidate))
			}
		}
	}

	n.p.interfaces.Add(origin, out)
	return out, nil
}

func (n *named) Attributes() ([]core.Attribute, error) { return nil, nil }

// Members lists exported struct fields as properties, unexported ones as
// fields, then methods and New<Type> constructors of the same package.
func (n *named) Members() ([]core.Member, error) {
	if cached, ok := n.p.members.Get(n.t); ok {
		return cached, nil
	}

	var out []core.Member
	if st, ok := n.t.Underlying().(*types.Struct); ok {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			kind := core.MemberField
			if f.Exported() {
				kind = core.MemberProperty
			}
			out = append(out, &member{p: n.p, decl: n, name: f.Name(), kind: kind, value: f.Type()})
		}
	}

	if iface, ok := n.t.Underlying().(*types.Interface); ok {
		for i := 0; i < iface.NumExplicitMethods(); i++ {
			m := iface.ExplicitMethod(i)
			out = append(out, &member{p: n.p, decl: n, name: m.Name(), kind: core.MemberMethod, fn: m})
		}
	} else {
		for i := 0; i < n.t.NumMethods(); i++ {
			m := n.t.Method(i)
			out = append(out, &member{p: n.p, decl: n, name: m.Name(), kind: core.MemberMethod, fn: m})
		}
	}

	for _, ctor := range n.constructors() {
		out = append(out, &member{p: n.p, decl: n, name: ctor.Name(), kind: core.MemberConstructor, fn: ctor})
	}

	n.p.members.Add(n.t, out)
	return out, nil
}

// constructors are package-level funcs named New<Type> whose first result is
// the type or a pointer to it.
func (n *named) constructors() []*types.Func {
	origin := n.t.Origin()
	pkg := origin.Obj().Pkg()
	if pkg == nil {
		return nil
	}
	prefix := "New" + origin.Obj().Name()

	var out []*types.Func
	scope := pkg.Scope()
	for _, name := range scope.Names() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok {
			continue
		}
		results := fn.Type().(*types.Signature).Results()
		if results.Len() == 0 {
			continue
		}
		first := types.Unalias(results.At(0).Type())
		if ptr, ok := first.(*types.Pointer); ok {
			first = ptr.Elem()
		}
		if res, ok := first.(*types.Named); ok && res.Origin() == origin {
			out = append(out, fn)
		}
	}
	return out
}

func (n *named) NestedTypes() ([]core.Type, error) { return nil, nil }

// basic is a predeclared basic type.
type basic struct {
	t *types.Basic
}

func (b *basic) Name() string      { return b.t.Name() }
func (b *basic) FullName() string  { return b.t.Name() }
func (b *basic) Namespace() string { return Builtin }
func (b *basic) Module() string    { return StdModule }

func (b *basic) IsPrimitive() bool  { return !b.IsString() }
func (b *basic) IsString() bool     { return b.t.Info()&types.IsString != 0 }
func (b *basic) IsByRef() bool      { return false }
func (b *basic) IsGenerated() bool  { return false }
func (b *basic) IsArray() bool      { return false }
func (b *basic) IsEnumerable() bool { return false }

func (b *basic) ElementType() core.Type        { return nil }
func (b *basic) GenericArguments() []core.Type { return nil }
func (b *basic) BaseType() core.Type           { return nil }

func (b *basic) Interfaces() ([]core.Type, error)      { return nil, nil }
func (b *basic) Attributes() ([]core.Attribute, error) { return nil, nil }
func (b *basic) Members() ([]core.Member, error)       { return nil, nil }
func (b *basic) NestedTypes() ([]core.Type, error)     { return nil, nil }

// typeParam is a type parameter; it lives in its declaring package.
type typeParam struct {
	p *Provider
	t *types.TypeParam
}

func (tp *typeParam) Name() string     { return tp.t.Obj().Name() }
func (tp *typeParam) FullName() string { return tp.t.Obj().Name() }

func (tp *typeParam) Namespace() string {
	if pkg := tp.t.Obj().Pkg(); pkg != nil {
		return pkg.Path()
	}
	return ""
}

func (tp *typeParam) Module() string { return tp.p.moduleOf(tp.Namespace()) }

func (tp *typeParam) IsPrimitive() bool  { return false }
func (tp *typeParam) IsString() bool     { return false }
func (tp *typeParam) IsByRef() bool      { return false }
func (tp *typeParam) IsGenerated() bool  { return false }
func (tp *typeParam) IsArray() bool      { return false }
func (tp *typeParam) IsEnumerable() bool { return false }

func (tp *typeParam) ElementType() core.Type        { return nil }
func (tp *typeParam) GenericArguments() []core.Type { return nil }
func (tp *typeParam) BaseType() core.Type           { return nil }

func (tp *typeParam) Interfaces() ([]core.Type, error)      { return nil, nil }
func (tp *typeParam) Attributes() ([]core.Attribute, error) { return nil, nil }
func (tp *typeParam) Members() ([]core.Member, error)       { return nil, nil }
func (tp *typeParam) NestedTypes() ([]core.Type, error)     { return nil, nil }

// container is an unnamed slice, array, map or channel. It lives in its
// element's namespace and module.
type container struct {
	p    *Provider
	t    types.Type
	elem types.Type
}

func (c *container) element() core.Type { return c.p.wrap(c.elem) }

func (c *container) Name() string      { return types.TypeString(c.t, qualifier) }
func (c *container) FullName() string  { return types.TypeString(c.t, nil) }
func (c *container) Namespace() string { return c.element().Namespace() }
func (c *container) Module() string    { return c.element().Module() }

func (c *container) IsPrimitive() bool  { return false }
func (c *container) IsString() bool     { return false }
func (c *container) IsByRef() bool      { return false }
func (c *container) IsGenerated() bool  { return false }
func (c *container) IsArray() bool      { return true }
func (c *container) IsEnumerable() bool { return true }

func (c *container) ElementType() core.Type        { return c.element() }
func (c *container) GenericArguments() []core.Type { return nil }
func (c *container) BaseType() core.Type           { return nil }

func (c *container) Interfaces() ([]core.Type, error)      { return nil, nil }
func (c *container) Attributes() ([]core.Attribute, error) { return nil, nil }
func (c *container) Members() ([]core.Member, error)       { return nil, nil }
func (c *container) NestedTypes() ([]core.Type, error)     { return nil, nil }

// anonymous is a struct, interface or func literal type. Like generated
// types elsewhere it never becomes a vertex.
type anonymous struct {
	t types.Type
}

func (a *anonymous) Name() string      { return types.TypeString(a.t, qualifier) }
func (a *anonymous) FullName() string  { return types.TypeString(a.t, nil) }
func (a *anonymous) Namespace() string { return "" }
func (a *anonymous) Module() string    { return "" }

func (a *anonymous) IsPrimitive() bool  { return false }
func (a *anonymous) IsString() bool     { return false }
func (a *anonymous) IsByRef() bool      { return false }
func (a *anonymous) IsGenerated() bool  { return true }
func (a *anonymous) IsArray() bool      { return false }
func (a *anonymous) IsEnumerable() bool { return false }

func (a *anonymous) ElementType() core.Type        { return nil }
func (a *anonymous) GenericArguments() []core.Type { return nil }
func (a *anonymous) BaseType() core.Type           { return nil }

func (a *anonymous) Interfaces() ([]core.Type, error)      { return nil, nil }
func (a *anonymous) Attributes() ([]core.Attribute, error) { return nil, nil }
func (a *anonymous) Members() ([]core.Member, error)       { return nil, nil }
func (a *anonymous) NestedTypes() ([]core.Type, error)     { return nil, nil }

// member is a struct field, method or constructor.
type member struct {
	p     *Provider
	decl  core.Type
	name  string
	kind  core.MemberKind
	value types.Type  // fields
	fn    *types.Func // methods and constructors
}

func (m *member) Name() string             { return m.name }
func (m *member) Kind() core.MemberKind    { return m.kind }
func (m *member) DeclaringType() core.Type { return m.decl }

func (m *member) Type() core.Type {
	if m.value == nil {
		return nil
	}
	return m.p.wrap(m.value)
}

func (m *member) signature() *types.Signature {
	if m.fn == nil {
		return nil
	}
	return m.fn.Type().(*types.Signature)
}

func (m *member) Results() []core.Type {
	sig := m.signature()
	if sig == nil {
		return nil
	}
	return m.p.wrapAll(tupleTypes(sig.Results()))
}

func (m *member) Parameters() ([]core.Type, error) {
	sig := m.signature()
	if sig == nil {
		return nil, nil
	}
	return m.p.wrapAll(tupleTypes(sig.Params())), nil
}

// Locals are the variables declared in the function body, in scope order.
// Bodies are only available for packages loaded from source.
func (m *member) Locals() ([]core.Type, error) {
	if m.fn == nil {
		return nil, nil
	}
	origin := m.fn.Origin()
	scope := origin.Scope()
	if scope == nil {
		return nil, nil
	}

	sig := origin.Type().(*types.Signature)
	skip := make(map[*types.Var]bool)
	if recv := sig.Recv(); recv != nil {
		skip[recv] = true
	}
	for _, tuple := range []*types.Tuple{sig.Params(), sig.Results()} {
		for i := 0; i < tuple.Len(); i++ {
			skip[tuple.At(i)] = true
		}
	}

	var out []types.Type
	var walk func(s *types.Scope)
	walk = func(s *types.Scope) {
		for _, name := range s.Names() {
			if v, ok := s.Lookup(name).(*types.Var); ok && !skip[v] {
				out = append(out, v.Type())
			}
		}
		for i := 0; i < s.NumChildren(); i++ {
			walk(s.Child(i))
		}
	}
	walk(scope)
	return m.p.wrapAll(out), nil
}

func (m *member) Attributes() ([]core.Attribute, error) { return nil, nil }
