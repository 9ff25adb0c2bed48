package core

// CollectionOf returns a synthetic enumerable type over elem. It stands in
// for standard library wrappers so that callers can refer to "a collection
// of elem" without modelling the wrapper itself.
func CollectionOf(elem Type) Type {
	return collection{elem: elem}
}

type collection struct {
	elem Type
}

func (c collection) Name() string      { return "Collection[" + c.elem.Name() + "]" }
func (c collection) FullName() string  { return "Collection[" + c.elem.FullName() + "]" }
func (c collection) Namespace() string { return "" }
func (c collection) Module() string    { return c.elem.Module() }

func (c collection) IsPrimitive() bool  { return false }
func (c collection) IsString() bool     { return false }
func (c collection) IsByRef() bool      { return false }
func (c collection) IsGenerated() bool  { return false }
func (c collection) IsArray() bool      { return false }
func (c collection) IsEnumerable() bool { return true }

func (c collection) ElementType() Type        { return nil }
func (c collection) GenericArguments() []Type { return []Type{c.elem} }
func (c collection) BaseType() Type           { return nil }

func (c collection) Interfaces() ([]Type, error)      { return nil, nil }
func (c collection) Attributes() ([]Attribute, error) { return nil, nil }
func (c collection) Members() ([]Member, error)       { return nil, nil }
func (c collection) NestedTypes() ([]Type, error)     { return nil, nil }
