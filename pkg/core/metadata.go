package core

import "context"

// MemberKind tags the kind of a declared member.
type MemberKind string

// Member kind constants.
const (
	MemberProperty    MemberKind = "property"
	MemberField       MemberKind = "field"
	MemberEvent       MemberKind = "event"
	MemberMethod      MemberKind = "method"
	MemberConstructor MemberKind = "constructor"
	MemberOther       MemberKind = "other"
)

// ParseMemberKind maps a textual kind to a MemberKind.
// Unknown values map to MemberOther.
func ParseMemberKind(s string) MemberKind {
	switch MemberKind(s) {
	case MemberProperty, MemberField, MemberEvent, MemberMethod, MemberConstructor:
		return MemberKind(s)
	default:
		return MemberOther
	}
}

// Type is an opaque handle onto one type definition exposed by a metadata
// provider. Handles are used to re-query metadata; identity comparisons are
// done on (Name, Module), never on the handle itself.
//
// Cheap accessors never fail. Accessors that enumerate declared metadata
// return an error so a single unreadable type can be skipped by callers.
type Type interface {
	// Name is the short display name (e.g. "Order", "List`1", "Order[]").
	Name() string
	// FullName is the namespace-qualified name.
	FullName() string
	// Namespace is empty for types without one.
	Namespace() string
	// Module is the id of the compiled module that defines the type.
	Module() string

	IsPrimitive() bool
	IsString() bool
	// IsByRef reports a reference/by-ref marker type.
	IsByRef() bool
	// IsGenerated reports compiler-generated or anonymous types.
	IsGenerated() bool
	// IsArray reports built-in array-like types (arrays, slices, maps, channels).
	IsArray() bool
	// IsEnumerable reports iteration/collection capability.
	IsEnumerable() bool

	// ElementType is the element of an array-like type, nil otherwise.
	ElementType() Type
	// GenericArguments are the type arguments of a constructed generic type.
	GenericArguments() []Type
	// BaseType is the direct base, nil when there is none.
	BaseType() Type

	Interfaces() ([]Type, error)
	Attributes() ([]Attribute, error)
	Members() ([]Member, error)
	NestedTypes() ([]Type, error)
}

// Member is a declared member of a type.
type Member interface {
	Name() string
	Kind() MemberKind
	DeclaringType() Type
	// Type is the value type of a property or field, or the handler type of
	// an event. Nil for other kinds.
	Type() Type
	// Results are the return types of a method.
	Results() []Type
	Parameters() ([]Type, error)
	// Locals are the local variable types of a method body. Best effort:
	// providers without body metadata return nil.
	Locals() ([]Type, error)
	Attributes() ([]Attribute, error)
}

// Attribute is an attribute (annotation) attached to a type or member.
type Attribute struct {
	// Type is the attribute's own type.
	Type Type
	// KnownType is the type referenced by a "known type" attribute, nil for
	// every other attribute kind.
	KnownType Type
}

// Module is one loaded compiled module.
type Module struct {
	// ID is the module identifier used for colouring and filtering.
	ID string
	// Path is the file the module was loaded from.
	Path string
	// Types are the loaded type definitions, sorted by name.
	Types []Type
}

// FindType returns the type whose Name or FullName equals name.
func (m *Module) FindType(name string) (Type, bool) {
	for _, t := range m.Types {
		if t.Name() == name || t.FullName() == name {
			return t, true
		}
	}
	return nil, false
}

// Provider loads modules and answers namespace policy questions.
type Provider interface {
	// Name identifies the provider ("fixture", "go").
	Name() string
	// Discover lists candidate module files under dir.
	Discover(ctx context.Context, dir string) ([]string, error)
	// LoadModule loads one module file. Implementations must be safe for
	// concurrent use across different paths.
	LoadModule(ctx context.Context, path string) (*Module, error)
	// IsStandard reports whether namespace belongs to the standard library.
	IsStandard(namespace string) bool
}

// Linker is implemented by providers that resolve cross-module references
// once every module of a discovery pass has been loaded.
type Linker interface {
	Link(modules []*Module) error
}

// FindMember returns the first member of t named name.
func FindMember(t Type, name string) (Member, error) {
	members, err := t.Members()
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, ErrMemberNotFound
}
