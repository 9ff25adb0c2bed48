package fixture

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

// typeDef is a type declared in a module file.
type typeDef struct {
	raw      typeYAML
	module   string
	fullName string
	outer    *typeDef
	nested   []*typeDef
	params   []core.Type

	// linked is set by Provider.Link and swapped wholesale on relink.
	linked atomic.Pointer[universe]
}

func newTypeDef(raw typeYAML, module string, outer *typeDef) *typeDef {
	d := &typeDef{raw: raw, module: module, outer: outer}
	switch {
	case outer != nil:
		d.fullName = outer.fullName + "+" + raw.Name
		d.raw.Namespace = outer.raw.Namespace
	case raw.Namespace != "":
		d.fullName = raw.Namespace + "." + raw.Name
	default:
		d.fullName = raw.Name
	}
	for _, p := range raw.TypeParams {
		d.params = append(d.params, &typeParam{name: p, owner: d})
	}
	for _, n := range raw.Nested {
		d.nested = append(d.nested, newTypeDef(n, module, d))
	}
	return d
}

// walk visits d and every nested definition.
func (d *typeDef) walk(fn func(*typeDef)) {
	fn(d)
	for _, n := range d.nested {
		n.walk(fn)
	}
}

func (d *typeDef) universe() (*universe, error) {
	u := d.linked.Load()
	if u == nil {
		return nil, fmt.Errorf("type %s: module %s is not linked", d.fullName, d.module)
	}
	return u, nil
}

func (d *typeDef) resolve(ref string) (core.Type, error) {
	u, err := d.universe()
	if err != nil {
		return nil, err
	}
	return u.resolve(ref, d)
}

func (d *typeDef) resolveAll(refs []string) ([]core.Type, error) {
	out := make([]core.Type, 0, len(refs))
	for _, ref := range refs {
		t, err := d.resolve(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *typeDef) Name() string      { return d.raw.Name }
func (d *typeDef) FullName() string  { return d.fullName }
func (d *typeDef) Namespace() string { return d.raw.Namespace }
func (d *typeDef) Module() string    { return d.module }

func (d *typeDef) IsPrimitive() bool { return d.raw.Kind == "primitive" }
func (d *typeDef) IsString() bool    { return d.raw.Kind == "string" }
func (d *typeDef) IsByRef() bool     { return false }
func (d *typeDef) IsArray() bool     { return false }

func (d *typeDef) IsGenerated() bool {
	return d.raw.Generated || strings.Contains(d.raw.Name, "<")
}

// IsEnumerable is true when declared, or inherited from the base type or an
// implemented interface. Each definition in the hierarchy is checked once, so
// cyclic declarations terminate.
func (d *typeDef) IsEnumerable() bool {
	return d.enumerable(make(map[*typeDef]bool))
}

func (d *typeDef) enumerable(seen map[*typeDef]bool) bool {
	if d.raw.Enumerable {
		return true
	}
	if d.IsString() || seen[d] {
		return false
	}
	seen[d] = true

	inherited := func(t core.Type) bool {
		switch v := t.(type) {
		case *typeDef:
			return v.enumerable(seen)
		case *instance:
			return v.def.enumerable(seen)
		case nil:
			return false
		default:
			return t.IsEnumerable()
		}
	}
	if inherited(d.BaseType()) {
		return true
	}
	ifaces, err := d.Interfaces()
	if err != nil {
		return false
	}
	for _, i := range ifaces {
		if inherited(i) {
			return true
		}
	}
	return false
}

func (d *typeDef) ElementType() core.Type { return nil }

// GenericArguments of a definition are its own type parameters.
func (d *typeDef) GenericArguments() []core.Type { return d.params }

// BaseType returns nil when the base reference cannot be resolved; the
// failure surfaces through Interfaces or Members of the same type instead.
func (d *typeDef) BaseType() core.Type {
	if d.raw.Base == "" {
		return nil
	}
	t, err := d.resolve(d.raw.Base)
	if err != nil {
		return nil
	}
	return t
}

func (d *typeDef) Interfaces() ([]core.Type, error) {
	return d.resolveAll(d.raw.Interfaces)
}

func (d *typeDef) Attributes() ([]core.Attribute, error) {
	return d.attributes(d.raw.Attributes)
}

func (d *typeDef) attributes(specs []attrYAML) ([]core.Attribute, error) {
	out := make([]core.Attribute, 0, len(specs))
	for _, a := range specs {
		t, err := d.resolve(a.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute: %w", err)
		}
		attr := core.Attribute{Type: t}
		if a.KnownType != "" {
			if attr.KnownType, err = d.resolve(a.KnownType); err != nil {
				return nil, fmt.Errorf("known type: %w", err)
			}
		}
		out = append(out, attr)
	}
	return out, nil
}

func (d *typeDef) Members() ([]core.Member, error) {
	out := make([]core.Member, 0, len(d.raw.Members))
	for i := range d.raw.Members {
		raw := &d.raw.Members[i]
		m := &member{raw: raw, owner: d, kind: core.ParseMemberKind(raw.Kind)}
		if raw.Type != "" {
			t, err := d.resolve(raw.Type)
			if err != nil {
				return nil, fmt.Errorf("member %s.%s: %w", d.raw.Name, raw.Name, err)
			}
			m.valueType = t
		}
		results, err := d.resolveAll(raw.Returns)
		if err != nil {
			return nil, fmt.Errorf("member %s.%s: %w", d.raw.Name, raw.Name, err)
		}
		m.results = results
		out = append(out, m)
	}
	return out, nil
}

func (d *typeDef) NestedTypes() ([]core.Type, error) {
	out := make([]core.Type, 0, len(d.nested))
	for _, n := range d.nested {
		out = append(out, n)
	}
	return out, nil
}

// member is a declared member of a typeDef.
type member struct {
	raw       *memberYAML
	owner     *typeDef
	kind      core.MemberKind
	valueType core.Type
	results   []core.Type
}

func (m *member) Name() string             { return m.raw.Name }
func (m *member) Kind() core.MemberKind    { return m.kind }
func (m *member) DeclaringType() core.Type { return m.owner }
func (m *member) Type() core.Type          { return m.valueType }
func (m *member) Results() []core.Type     { return m.results }

func (m *member) Parameters() ([]core.Type, error) {
	return m.owner.resolveAll(m.raw.Parameters)
}

func (m *member) Locals() ([]core.Type, error) {
	return m.owner.resolveAll(m.raw.Locals)
}

func (m *member) Attributes() ([]core.Attribute, error) {
	return m.owner.attributes(m.raw.Attributes)
}

// typeParam is a generic parameter of a definition, e.g. T in Repository<T>.
type typeParam struct {
	name  string
	owner *typeDef
}

func (p *typeParam) Name() string      { return p.name }
func (p *typeParam) FullName() string  { return p.name }
func (p *typeParam) Namespace() string { return p.owner.Namespace() }
func (p *typeParam) Module() string    { return p.owner.Module() }

func (p *typeParam) IsPrimitive() bool  { return false }
func (p *typeParam) IsString() bool     { return false }
func (p *typeParam) IsByRef() bool      { return false }
func (p *typeParam) IsGenerated() bool  { return false }
func (p *typeParam) IsArray() bool      { return false }
func (p *typeParam) IsEnumerable() bool { return false }

func (p *typeParam) ElementType() core.Type        { return nil }
func (p *typeParam) GenericArguments() []core.Type { return nil }
func (p *typeParam) BaseType() core.Type           { return nil }

func (p *typeParam) Interfaces() ([]core.Type, error)      { return nil, nil }
func (p *typeParam) Attributes() ([]core.Attribute, error) { return nil, nil }
func (p *typeParam) Members() ([]core.Member, error)       { return nil, nil }
func (p *typeParam) NestedTypes() ([]core.Type, error)     { return nil, nil }

// instance is a constructed generic type such as List<Order>. Members are
// those of the definition, unsubstituted.
type instance struct {
	def  *typeDef
	args []core.Type
}

func (i *instance) Name() string { return i.def.Name() }

func (i *instance) FullName() string {
	names := make([]string, len(i.args))
	for n, a := range i.args {
		names[n] = a.FullName()
	}
	return i.def.FullName() + "[" + strings.Join(names, ",") + "]"
}

func (i *instance) Namespace() string { return i.def.Namespace() }
func (i *instance) Module() string    { return i.def.Module() }

func (i *instance) IsPrimitive() bool  { return false }
func (i *instance) IsString() bool     { return false }
func (i *instance) IsByRef() bool      { return false }
func (i *instance) IsGenerated() bool  { return i.def.IsGenerated() }
func (i *instance) IsArray() bool      { return false }
func (i *instance) IsEnumerable() bool { return i.def.IsEnumerable() }

func (i *instance) ElementType() core.Type        { return nil }
func (i *instance) GenericArguments() []core.Type { return i.args }
func (i *instance) BaseType() core.Type           { return i.def.BaseType() }

func (i *instance) Interfaces() ([]core.Type, error)      { return i.def.Interfaces() }
func (i *instance) Attributes() ([]core.Attribute, error) { return i.def.Attributes() }
func (i *instance) Members() ([]core.Member, error)       { return i.def.Members() }
func (i *instance) NestedTypes() ([]core.Type, error)     { return i.def.NestedTypes() }

// array is T[]; it lives in the element's namespace and module.
type array struct {
	elem core.Type
}

func (a *array) Name() string      { return a.elem.Name() + "[]" }
func (a *array) FullName() string  { return a.elem.FullName() + "[]" }
func (a *array) Namespace() string { return a.elem.Namespace() }
func (a *array) Module() string    { return a.elem.Module() }

func (a *array) IsPrimitive() bool  { return false }
func (a *array) IsString() bool     { return false }
func (a *array) IsByRef() bool      { return false }
func (a *array) IsGenerated() bool  { return false }
func (a *array) IsArray() bool      { return true }
func (a *array) IsEnumerable() bool { return true }

func (a *array) ElementType() core.Type        { return a.elem }
func (a *array) GenericArguments() []core.Type { return nil }
func (a *array) BaseType() core.Type           { return nil }

func (a *array) Interfaces() ([]core.Type, error)      { return nil, nil }
func (a *array) Attributes() ([]core.Attribute, error) { return nil, nil }
func (a *array) Members() ([]core.Member, error)       { return nil, nil }
func (a *array) NestedTypes() ([]core.Type, error)     { return nil, nil }

// byRef is T&, a reference marker never shown in graphs.
type byRef struct {
	elem core.Type
}

func (r *byRef) Name() string      { return r.elem.Name() + "&" }
func (r *byRef) FullName() string  { return r.elem.FullName() + "&" }
func (r *byRef) Namespace() string { return r.elem.Namespace() }
func (r *byRef) Module() string    { return r.elem.Module() }

func (r *byRef) IsPrimitive() bool  { return false }
func (r *byRef) IsString() bool     { return false }
func (r *byRef) IsByRef() bool      { return true }
func (r *byRef) IsGenerated() bool  { return false }
func (r *byRef) IsArray() bool      { return false }
func (r *byRef) IsEnumerable() bool { return false }

func (r *byRef) ElementType() core.Type        { return nil }
func (r *byRef) GenericArguments() []core.Type { return nil }
func (r *byRef) BaseType() core.Type           { return nil }

func (r *byRef) Interfaces() ([]core.Type, error)      { return nil, nil }
func (r *byRef) Attributes() ([]core.Attribute, error) { return nil, nil }
func (r *byRef) Members() ([]core.Member, error)       { return nil, nil }
func (r *byRef) NestedTypes() ([]core.Type, error)     { return nil, nil }
