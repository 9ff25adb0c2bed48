package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
)

// NewRefsCommand creates the refs command.
func NewRefsCommand() *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "refs <Module:Type>",
		Short: "Break a type's graph down by module",
		Long: `Build the graph of a type and group it by module in legend order.

For each module the types are listed after the same-module types they
depend on, followed by the modules it references directly, each after
the referenced modules it depends on in turn.`,
		Example: `  # Module breakdown
  typegraph refs Acme.Shop:Order

  # As JSON
  typegraph refs Acme.Shop:Order -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(cmd, args[0], member)
		},
	}

	cmd.Flags().StringVar(&member, "member", "", "Start from a member of the type")
	return cmd
}

func runRefs(cmd *cobra.Command, arg, member string) error {
	root, err := rootFromArgs(arg, member)
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
	breakdown, err := cmdCtx.Engine.Breakdown()
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(breakdown)
	case output.ModeMarkdown:
		refsMarkdown(r, root, breakdown)
	default:
		refsText(r, root, breakdown)
	}
	return nil
}

func refsText(r *output.Renderer, root engine.Root, breakdown []engine.ModuleBreakdown) {
	styles := r.Styles()
	r.Header(1, "Modules of "+root.String())

	for _, b := range breakdown {
		r.Printf("%s %s\n", styles.Swatch(b.Color, b.Color.String()), styles.Header2.Render(b.Module))
		r.Printf("  %s %s\n", styles.Muted.Render("types:"), strings.Join(b.Types, ", "))
		if len(b.References) > 0 {
			r.Printf("  %s %s\n", styles.Muted.Render("references:"), strings.Join(b.References, ", "))
		}
		r.Println("")
	}
}

func refsMarkdown(r *output.Renderer, root engine.Root, breakdown []engine.ModuleBreakdown) {
	r.Println(output.FormatHeader(1, "Modules of "+root.String()))
	r.Println("")

	for _, b := range breakdown {
		r.Println(output.FormatHeader(2, b.Module))
		r.Println(output.FormatKeyValue("Color", "`"+b.Color.String()+"`"))
		r.Println(output.FormatKeyValue("Types", strings.Join(b.Types, ", ")))
		if len(b.References) > 0 {
			r.Println(output.FormatKeyValue("References", strings.Join(b.References, ", ")))
		}
		r.Println("")
	}
}
