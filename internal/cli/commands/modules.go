package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
)

// NewModulesCommand creates the modules command.
func NewModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "Discover and list modules",
		Long: `Load every module under the modules directory and list the ones kept
by the domain prefix.

Files that fail to load are reported and skipped. A module that loads
partially keeps the types that did load.`,
		Example: `  # List modules
  typegraph modules

  # Keep only modules with types under a namespace prefix
  typegraph modules --domain-prefix Acme

  # Load Go modules instead of fixture files
  typegraph modules --provider go --modules-dir ./src`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModules(cmd)
		},
	}
}

func runModules(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := cmdCtx.Discover(cmd.Context())
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	modules := cmdCtx.Engine.Modules()

	if r.EffectiveMode() == output.ModeJSON {
		out := output.ModulesOutput{
			Modules: make([]output.ModuleInfo, 0, len(modules)),
			Summary: output.DiscoverySummary{
				Files:    result.FilesTotal,
				Loaded:   result.ModulesLoaded,
				Skipped:  result.ModulesSkipped,
				Types:    result.TypesTotal,
				Duration: result.Duration.Milliseconds(),
			},
		}
		for _, m := range modules {
			out.Modules = append(out.Modules, output.ModuleInfo{ID: m.ID, Path: m.Path, Types: len(m.Types)})
		}
		for _, e := range result.Errors {
			out.Errors = append(out.Errors, output.DiscoveryIssue{Path: e.Path, Type: e.Type, Message: e.Message})
		}
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Modules (%d loaded)", len(modules)))
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []string{m.ID, strconv.Itoa(len(m.Types)), m.Path})
	}
	r.Table([]string{"Module", "Types", "Path"}, rows)

	if len(result.Errors) > 0 {
		r.Println("")
		r.Header(2, "Issues")
		titleCaser := cases.Title(language.English)
		issues := make([][]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			file := "-"
			if e.Path != "" {
				file = filepath.Base(e.Path)
			}
			issues = append(issues, []string{titleCaser.String(e.Type), file, e.Message})
		}
		r.Table([]string{"Kind", "File", "Message"}, issues)
	}

	r.Println("")
	r.Muted(result.Summary())
	return nil
}

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types <module>",
		Short: "List the selectable types of a module",
		Long: `List the types of one module, sorted by name. With a domain prefix only
types in that namespace prefix are listed.`,
		Example: `  # List types of a module
  typegraph types Acme.Shop

  # As JSON
  typegraph types Acme.Shop -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd, args[0])
		},
	}
}

func runTypes(cmd *cobra.Command, moduleID string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := cmdCtx.Discover(cmd.Context()); err != nil {
		return err
	}
	types, err := cmdCtx.Engine.Types(moduleID)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	infos := make([]output.TypeInfo, 0, len(types))
	for _, t := range types {
		infos = append(infos, output.TypeInfo{Name: t.Name(), FullName: t.FullName(), Namespace: t.Namespace()})
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.TypesOutput{Module: moduleID, Types: infos})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Types in %s (%d)", moduleID, len(infos))))
		r.Println("")
		for _, t := range infos {
			r.Printf("- %s (`%s`)\n", t.Name, t.FullName)
		}
	default:
		styles := r.Styles()
		r.Header(1, fmt.Sprintf("Types in %s (%d)", moduleID, len(infos)))
		for _, t := range infos {
			r.Printf("  %s %s\n", styles.TypeName.Render(t.Name), styles.Muted.Render(t.Namespace))
		}
	}
	return nil
}

// rootFromArgs parses "Module:Type" and an optional member.
func rootFromArgs(arg, member string) (engine.Root, error) {
	root, err := engine.ParseRoot(arg)
	if err != nil {
		return engine.Root{}, err
	}
	root.Member = member
	return root, nil
}
