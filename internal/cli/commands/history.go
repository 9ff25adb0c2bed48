package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
)

// DefaultHistoryLimit is the number of builds listed by default.
const DefaultHistoryLimit = 20

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		limit int
		dot   bool
	)

	cmd := &cobra.Command{
		Use:   "history [build-id]",
		Short: "Show past builds",
		Long: `List builds saved in the history database, newest first, or print the
graph of one saved build.

Saved graphs keep names, modules, parents and colours but not the type
metadata, so they can be shown and filtered but not exported.`,
		Example: `  # Recent builds
  typegraph history

  # One build as Graphviz
  typegraph history 6f1c... --dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(cmd, args[0], dot)
			}
			return runHistoryList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultHistoryLimit, "Maximum number of builds to list")
	cmd.Flags().BoolVar(&dot, "dot", false, "Print the build as Graphviz DOT")
	return cmd
}

func historyContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cmdCtx.Engine.Store() == nil {
		cleanup()
		return nil, nil, fmt.Errorf("build history is disabled (state_path is empty)")
	}
	return cmdCtx, cleanup, nil
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := historyContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	builds, err := cmdCtx.Engine.Store().ListSnapshots(cmd.Context(), limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		out := output.HistoryOutput{Builds: make([]output.HistoryEntry, 0, len(builds))}
		for _, b := range builds {
			out.Builds = append(out.Builds, output.HistoryEntry{
				ID:       b.ID,
				Root:     b.Root,
				Provider: b.Provider,
				BuiltAt:  b.BuiltAt,
				Duration: b.Duration.Milliseconds(),
				Nodes:    b.NodeCount,
				Edges:    b.EdgeCount,
				Warnings: b.WarningCount,
			})
		}
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Builds (%d)", len(builds)))
	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{
			b.ID,
			b.Root,
			b.BuiltAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(b.NodeCount),
			strconv.Itoa(b.EdgeCount),
			strconv.Itoa(b.WarningCount),
		})
	}
	r.Table([]string{"ID", "Root", "Built", "Types", "Edges", "Warnings"}, rows)
	return nil
}

func runHistoryShow(cmd *cobra.Command, id string, dot bool) error {
	cmdCtx, cleanup, err := historyContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	detail, err := cmdCtx.Engine.Store().LoadSnapshot(cmd.Context(), id)
	if err != nil {
		return err
	}
	g, legend, err := engine.Restore(detail)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if dot {
		return output.WriteDOT(r.Writer(), detail.Root, g)
	}
	return r.Graph(detail.Root, g, legend, detail.Warnings)
}
