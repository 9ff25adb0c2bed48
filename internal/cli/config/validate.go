package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/leapstack-labs/typegraph/internal/cli/output"
	"github.com/leapstack-labs/typegraph/internal/metadata"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ModulesDir == "" {
		return fmt.Errorf("modules_dir is required")
	}
	if c.Provider != "" && !slices.Contains(metadata.Kinds, c.Provider) {
		return fmt.Errorf("unknown provider %q (supported: %v)", c.Provider, metadata.Kinds)
	}
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if c.Discovery.Workers < 0 {
		return fmt.Errorf("discovery.workers must not be negative, got %d", c.Discovery.Workers)
	}
	if c.Export.FlushEvery < 0 {
		return fmt.Errorf("export.flush_every must not be negative, got %d", c.Export.FlushEvery)
	}
	if c.UI != nil && (c.UI.Port < 0 || c.UI.Port > 65535) {
		return fmt.Errorf("ui.port out of range: %d", c.UI.Port)
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.ModulesDir); os.IsNotExist(err) {
		return fmt.Errorf("modules directory does not exist: %s\nHint: Create the directory or use --modules-dir to specify a different path", c.ModulesDir)
	}
	return nil
}
