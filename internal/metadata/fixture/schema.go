package fixture

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// moduleFileYAML is one module file. Types stay as raw nodes so a single
// malformed entry can be skipped without losing the rest of the module.
type moduleFileYAML struct {
	Module string      `yaml:"module"`
	Types  []yaml.Node `yaml:"types"`
}

// typeYAML describes one type definition.
type typeYAML struct {
	Name       string       `yaml:"name"`
	Namespace  string       `yaml:"namespace"`
	Kind       string       `yaml:"kind"` // class, struct, interface, enum, delegate, primitive, string
	Generated  bool         `yaml:"generated"`
	Enumerable bool         `yaml:"enumerable"`
	TypeParams []string     `yaml:"type_params"`
	Base       string       `yaml:"base"`
	Interfaces []string     `yaml:"interfaces"`
	Attributes []attrYAML   `yaml:"attributes"`
	Members    []memberYAML `yaml:"members"`
	Nested     []typeYAML   `yaml:"nested"`
}

type attrYAML struct {
	Type      string `yaml:"type"`
	KnownType string `yaml:"known_type"`
}

type memberYAML struct {
	Name       string     `yaml:"name"`
	Kind       string     `yaml:"kind"`
	Type       string     `yaml:"type"`
	Returns    []string   `yaml:"returns"`
	Parameters []string   `yaml:"parameters"`
	Locals     []string   `yaml:"locals"`
	Attributes []attrYAML `yaml:"attributes"`
}

var validKinds = map[string]bool{
	"":          true,
	"class":     true,
	"struct":    true,
	"interface": true,
	"enum":      true,
	"delegate":  true,
	"primitive": true,
	"string":    true,
}

// ParseError reports a malformed module file or type entry.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (t *typeYAML) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("type name is required")
	}
	if !validKinds[t.Kind] {
		return fmt.Errorf("type %s: invalid kind %q", t.Name, t.Kind)
	}
	for _, m := range t.Members {
		if m.Name == "" {
			return fmt.Errorf("type %s: member name is required", t.Name)
		}
	}
	for i := range t.Nested {
		if err := t.Nested[i].validate(); err != nil {
			return fmt.Errorf("type %s: %w", t.Name, err)
		}
	}
	return nil
}
