package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/typegraph/internal/cli/config"
	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/engine"
	"github.com/leapstack-labs/typegraph/internal/metadata"
	"github.com/leapstack-labs/typegraph/internal/notifier"
	"github.com/leapstack-labs/typegraph/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	return newCommandContext(cmd, nil)
}

func newCommandContext(cmd *cobra.Command, n *notifier.Notifier) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger, n)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// Discover loads the configured modules and reports files that failed to
// load as warnings.
func (c *CommandContext) Discover(ctx context.Context) (*engine.DiscoveryResult, error) {
	if err := c.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}
	result, err := c.Engine.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover modules: %w", err)
	}
	if c.Renderer.EffectiveMode() != output.ModeJSON {
		for _, e := range result.Errors {
			c.Renderer.Warning(fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Type))
		}
	}
	return result, nil
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		ModulesDir:   config.DefaultModulesDir,
		Provider:     config.DefaultProvider,
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
		Export:       config.ExportConfig{FlushEvery: config.DefaultFlushEvery},
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger, n *notifier.Notifier) (*engine.Engine, error) {
	provider, err := metadata.NewProvider(cfg.Provider, metadata.Options{
		StandardPrefixes: cfg.StandardPrefixes,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	var store state.Store
	if cfg.HistoryEnabled() {
		store, err = openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
	}

	eng, err := engine.New(engine.Config{
		Provider:     provider,
		ModulesDir:   cfg.ModulesDir,
		DomainPrefix: cfg.DomainPrefix,
		PaletteSeed:  cfg.Palette.Seed,
		Workers:      cfg.Discovery.Workers,
		Store:        store,
		Notifier:     n,
		Logger:       logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return eng, nil
}

func openStore(path string, logger *slog.Logger) (state.Store, error) {
	// Ensure state directory exists
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
