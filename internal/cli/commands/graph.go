package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/dag"
	"github.com/leapstack-labs/typegraph/internal/engine"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Member string
	View   engine.ViewOptions
	DOT    bool
	Order  bool
	Strict bool
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph <Module:Type>",
		Short: "Build the dependency graph of a type",
		Long: `Build the graph of every type reachable from a root type, or from one
member of it, and print it.

Filters narrow the printed view without changing the build:
  --path      ancestry path from the root to a type
  --modules   only edges between the listed modules
  --touching  only edges with an endpoint in one module

Output adapts to environment:
  - Terminal: Styled output with module colours
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Graph of a type
  typegraph graph Acme.Shop:Order

  # Graph of one member
  typegraph graph Acme.Shop:Order --member Submit

  # How Order reaches Money
  typegraph graph Acme.Shop:Order --path Money

  # Graphviz
  typegraph graph Acme.Shop:Order --dot | dot -Tsvg > order.svg

  # Dependency order, failing on cycles
  typegraph graph Acme.Shop:Order --order --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Member, "member", "", "Start from a member of the type")
	cmd.Flags().StringVar(&opts.View.Path, "path", "", "Show only the ancestry path to this type")
	cmd.Flags().StringSliceVar(&opts.View.Modules, "modules", nil, "Show only edges between these modules")
	cmd.Flags().StringVar(&opts.View.Touching, "touching", "", "Show only edges touching this module")
	cmd.Flags().BoolVar(&opts.DOT, "dot", false, "Print Graphviz DOT")
	cmd.Flags().BoolVar(&opts.Order, "order", false, "Print types in dependency order")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "With --order, fail when the graph has a cycle")

	return cmd
}

func runGraph(cmd *cobra.Command, arg string, opts *GraphOptions) error {
	root, err := rootFromArgs(arg, opts.Member)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := cmdCtx.Discover(cmd.Context()); err != nil {
		return err
	}
	if _, err := cmdCtx.Engine.Build(cmd.Context(), root); err != nil {
		return fmt.Errorf("build %s: %w", root, err)
	}
	view, err := cmdCtx.Engine.CurrentView(opts.View)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch {
	case opts.DOT:
		return output.WriteDOT(r.Writer(), root.String(), view.Graph)
	case opts.Order:
		return printOrder(r, view.Graph, opts.Strict)
	}
	return r.Graph(root.String(), view.Graph, view.Legend, warningStrings(view.Warnings))
}

func printOrder(r *output.Renderer, g *dag.Graph, strict bool) error {
	sorted, err := g.TopologicalSort(strict)
	if err != nil {
		if cyclic, path := g.HasCycle(); cyclic {
			return fmt.Errorf("%w: %s", err, joinKeys(path))
		}
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		names := make([]string, len(sorted))
		for i, n := range sorted {
			names[i] = n.Key().String()
		}
		return r.JSON(map[string][]string{"order": names})
	}
	for i, n := range sorted {
		r.Printf("%d. %s (%s)\n", i+1, n.Name, n.Module)
	}
	return nil
}

func joinKeys(keys []dag.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, " -> ")
}

func warningStrings(warnings []engine.Warning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
