package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/typegraph/internal/cli/config"
	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the graph viewer",
		Long: `Start a local web server for exploring type dependency graphs.

The viewer lists modules and types, starts builds in the background and
shows the current graph with its legend, filters and build history.
Build progress is streamed to the browser as server-sent events.

With --watch, changes to module files trigger a rediscovery.`,
		Example: `  # Start on the default port
  typegraph serve

  # Custom port, without watching files
  typegraph serve --port 3000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	// Values reach the config through the flag provider.
	cmd.Flags().Int("port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultUIPort))
	cmd.Flags().Bool("watch", true, "Rediscover modules when module files change")

	return cmd
}

func runServe(cmd *cobra.Command) error {
	n := notifier.New()
	cmdCtx, cleanup, err := newCommandContext(cmd, n)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	r.Muted("Discovering modules...")
	result, err := cmdCtx.Discover(cmd.Context())
	if err != nil {
		return err
	}
	r.Muted(result.Summary())

	uiCfg := cmdCtx.Cfg.GetUIConfig()
	server := ui.NewServer(ui.Config{
		Engine:     cmdCtx.Engine,
		Port:       uiCfg.Port,
		Watch:      uiCfg.Watch,
		ModulesDir: cmdCtx.Cfg.ModulesDir,
		Logger:     cmdCtx.Logger,
	})

	r.Success(fmt.Sprintf("Serving on http://localhost:%d", uiCfg.Port))
	r.Muted("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}
