package fixture

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leapstack-labs/typegraph/pkg/core"
)

// universe is the set of definitions visible to type references after a
// link pass. It is immutable once built.
type universe struct {
	byFullName map[string]*typeDef
	byName     map[string][]*typeDef
	cache      *lru.Cache[string, core.Type]
}

func newUniverse(defs []*typeDef, cacheSize int) (*universe, error) {
	cache, err := lru.New[string, core.Type](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference cache: %w", err)
	}
	u := &universe{
		byFullName: make(map[string]*typeDef),
		byName:     make(map[string][]*typeDef),
		cache:      cache,
	}
	for _, root := range defs {
		root.walk(func(d *typeDef) {
			if _, exists := u.byFullName[d.fullName]; !exists {
				u.byFullName[d.fullName] = d
			}
			u.byName[d.raw.Name] = append(u.byName[d.raw.Name], d)
		})
	}
	return u, nil
}

// resolve turns a reference into a type handle. Supported forms are a full
// or short name, "T[]", "T&" and "Name<A, B>".
func (u *universe) resolve(ref string, from *typeDef) (core.Type, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty type reference")
	}

	cacheKey := ref
	if from != nil {
		cacheKey = from.module + "|" + from.fullName + "|" + ref
	}
	if t, ok := u.cache.Get(cacheKey); ok {
		return t, nil
	}

	t, err := u.parse(ref, from)
	if err != nil {
		return nil, err
	}
	u.cache.Add(cacheKey, t)
	return t, nil
}

func (u *universe) parse(ref string, from *typeDef) (core.Type, error) {
	switch {
	case strings.HasSuffix(ref, "&"):
		elem, err := u.resolve(strings.TrimSuffix(ref, "&"), from)
		if err != nil {
			return nil, err
		}
		return &byRef{elem: elem}, nil

	case strings.HasSuffix(ref, "[]"):
		elem, err := u.resolve(strings.TrimSuffix(ref, "[]"), from)
		if err != nil {
			return nil, err
		}
		return &array{elem: elem}, nil

	case strings.HasSuffix(ref, ">"):
		open := strings.IndexByte(ref, '<')
		if open <= 0 {
			return nil, fmt.Errorf("malformed generic reference %q", ref)
		}
		argRefs, err := splitArgs(ref[open+1 : len(ref)-1])
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref, err)
		}
		def, err := u.lookup(ref[:open]+"`"+strconv.Itoa(len(argRefs)), from)
		if err != nil {
			return nil, err
		}
		args := make([]core.Type, 0, len(argRefs))
		for _, a := range argRefs {
			t, err := u.resolve(a, from)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		return &instance{def: def, args: args}, nil
	}

	if p := typeParamOf(from, ref); p != nil {
		return p, nil
	}
	return u.lookup(ref, from)
}

// lookup prefers an exact full name, then a short name declared in the
// referencing module, then the first short-name match anywhere.
func (u *universe) lookup(name string, from *typeDef) (*typeDef, error) {
	if d, ok := u.byFullName[name]; ok {
		return d, nil
	}
	candidates := u.byName[name]
	if from != nil {
		for _, d := range candidates {
			if d.module == from.module {
				return d, nil
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return nil, fmt.Errorf("unresolved type reference %q: %w", name, core.ErrTypeNotFound)
}

// typeParamOf finds a generic parameter named name on from or an enclosing
// definition.
func typeParamOf(from *typeDef, name string) core.Type {
	for d := from; d != nil; d = d.outer {
		for _, p := range d.params {
			if p.Name() == name {
				return p
			}
		}
	}
	return nil
}

// splitArgs splits a generic argument list at top-level commas.
func splitArgs(s string) ([]string, error) {
	var args []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced '>'")
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '<'")
	}
	last := strings.TrimSpace(s[start:])
	args = append(args, last)
	for _, a := range args {
		if a == "" {
			return nil, fmt.Errorf("empty generic argument")
		}
	}
	return args, nil
}
