// Package config provides configuration management for the typegraph CLI.
//
// Values are layered from defaults, typegraph.yaml, TYPEGRAPH_* environment
// variables and explicitly set flags, in increasing order of precedence.
package config

// Default configuration values.
const (
	DefaultModulesDir = "modules"
	DefaultProvider   = "fixture"
	DefaultStateFile  = ".typegraph/history.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFlushEvery = 50
	DefaultUIPort     = 8765
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"typegraph.yaml", "typegraph.yml"}

// Config holds all CLI configuration options.
type Config struct {
	ModulesDir       string          `koanf:"modules_dir"`
	Provider         string          `koanf:"provider"`
	DomainPrefix     string          `koanf:"domain_prefix"`
	StandardPrefixes []string        `koanf:"standard_prefixes"`
	StatePath        string          `koanf:"state_path"`
	OutputFormat     string          `koanf:"output"`
	Verbose          bool            `koanf:"verbose"`
	Discovery        DiscoveryConfig `koanf:"discovery"`
	Palette          PaletteConfig   `koanf:"palette"`
	Export           ExportConfig    `koanf:"export"`
	UI               *UIConfig       `koanf:"ui"`

	// ProjectRoot anchors relative paths. It is not read from any source.
	ProjectRoot string `koanf:"-"`
}

// DiscoveryConfig tunes module loading.
type DiscoveryConfig struct {
	// Workers bounds parallel module loads. Zero uses GOMAXPROCS.
	Workers int `koanf:"workers"`
}

// PaletteConfig tunes colour assignment.
type PaletteConfig struct {
	Seed uint64 `koanf:"seed"`
}

// ExportConfig tunes CSV export.
type ExportConfig struct {
	FlushEvery int `koanf:"flush_every"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:  DefaultUIPort,
		Watch: true,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultUIPort
	}
	return ui
}

// HistoryEnabled reports whether builds are persisted.
func (c *Config) HistoryEnabled() bool {
	return c.StatePath != ""
}
