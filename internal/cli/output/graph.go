package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/palette"
)

// Graph renders g in the effective mode. title heads text and markdown output.
func (r *Renderer) Graph(title string, g *dag.Graph, legend []palette.Entry, warnings []string) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		out := NewGraphOutput(g, legend)
		out.Root = title
		out.Warnings = warnings
		return r.JSON(out)
	case ModeMarkdown:
		r.graphMarkdown(title, g, legend, warnings)
	default:
		r.graphText(title, g, legend, warnings)
	}
	return nil
}

func (r *Renderer) graphText(title string, g *dag.Graph, legend []palette.Entry, warnings []string) {
	styles := r.styles
	r.Header(1, title)

	if len(legend) > 0 {
		r.Println(styles.Header2.Render("Legend"))
		for _, l := range legend {
			r.Printf("  %s %s\n", styles.Swatch(l.Color, l.Color.String()), styles.Module.Render(l.Module))
		}
		r.Println("")
	}

	r.Println(styles.Header2.Render("Dependencies"))
	for _, n := range g.Nodes() {
		children := g.Children(n.Key())
		name := styles.Swatch(palette.Color(n.Color), n.Name)
		if !n.DeepExpand {
			name += " " + styles.Muted.Render("(not expanded)")
		}
		r.Printf("  %s\n", name)
		if len(children) > 0 {
			r.Printf("    %s %s\n", styles.Muted.Render("depends on:"), joinNames(children))
		}
	}
	r.Println("")

	for _, w := range warnings {
		r.Warning(w)
	}
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d types, %d dependencies", g.NodeCount(), g.EdgeCount())))
}

func (r *Renderer) graphMarkdown(title string, g *dag.Graph, legend []palette.Entry, warnings []string) {
	r.Println(FormatHeader(1, title))
	r.Println("")

	if len(legend) > 0 {
		r.Println(FormatHeader(2, "Legend"))
		for _, l := range legend {
			r.Printf("- `%s` %s\n", l.Color, l.Module)
		}
		r.Println("")
	}

	r.Println(FormatHeader(2, "Dependencies"))
	for _, n := range g.Nodes() {
		r.Printf("- %s (%s)\n", n.Name, n.Module)
		if children := g.Children(n.Key()); len(children) > 0 {
			r.Printf("  - depends on: %s\n", joinNames(children))
		}
	}
	r.Println("")

	if len(warnings) > 0 {
		r.Println(FormatHeader(2, "Warnings"))
		r.Print(FormatList(warnings))
		r.Println("")
	}

	r.Println(FormatHeader(2, "Summary"))
	r.Println(FormatKeyValue("Total Types", strconv.Itoa(g.NodeCount())))
	r.Println(FormatKeyValue("Total Dependencies", strconv.Itoa(g.EdgeCount())))
}

// Print writes s without a trailing newline.
func (r *Renderer) Print(s string) {
	_, _ = io.WriteString(r.out, s)
}

func joinNames(nodes []*dag.TypeNode) string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return strings.Join(names, ", ")
}

// WriteDOT writes g as a Graphviz digraph. Vertices are filled with their
// module colour and clustered by module.
func WriteDOT(w io.Writer, name string, g *dag.Graph) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", strconv.Quote(name))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\"];\n")

	byModule := make(map[string][]*dag.TypeNode)
	for _, n := range g.Nodes() {
		byModule[n.Module] = append(byModule[n.Module], n)
	}
	for i, module := range g.Modules() {
		fmt.Fprintf(&sb, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&sb, "    label=%s;\n", strconv.Quote(module))
		for _, n := range byModule[module] {
			c := palette.Color(n.Color)
			attrs := fmt.Sprintf("label=%s, fillcolor=%s, fontcolor=%s",
				strconv.Quote(n.Name), strconv.Quote(c.String()), strconv.Quote(c.Foreground().String()))
			if !n.DeepExpand {
				attrs += ", style=\"rounded,filled,dashed\""
			}
			fmt.Fprintf(&sb, "    %s [%s];\n", strconv.Quote(n.Key().String()), attrs)
		}
		sb.WriteString("  }\n")
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "  %s -> %s;\n", strconv.Quote(e.Source.Key().String()), strconv.Quote(e.Target.Key().String()))
	}
	sb.WriteString("}\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
