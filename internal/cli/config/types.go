// Package config loads tmdlint configuration from a YAML file,
// environment variables, and CLI flags, with flags taking precedence.
package config

// Default configuration values.
const (
	DefaultOutput = "auto"

	// EnvPrefix is the prefix for configuration environment variables,
	// e.g. TMDLINT_MODEL_DIR.
	EnvPrefix = "TMDLINT_"
)

// configFileNames are searched in order inside the project root.
var configFileNames = []string{"tmdlint.yaml", "tmdlint.yml"}

// Config holds the resolved tmdlint configuration.
type Config struct {
	// ModelDir is the default semantic-model folder used when a command
	// gets no positional folder argument.
	ModelDir string `koanf:"model_dir"`

	// OutputFormat selects the renderer mode: auto, text, markdown, json.
	OutputFormat string `koanf:"output"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// Rules configures rule selection.
	Rules *RulesConfig `koanf:"rules"`

	// ProjectRoot is the directory relative config paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// RulesConfig configures which naming rules run.
type RulesConfig struct {
	// Disabled lists rule IDs to skip during check and fix.
	Disabled []string `koanf:"disabled"`
}

// IsRuleDisabled returns true if the rule is disabled in configuration.
func (c *Config) IsRuleDisabled(id string) bool {
	if c == nil || c.Rules == nil {
		return false
	}
	for _, d := range c.Rules.Disabled {
		if d == id {
			return true
		}
	}
	return false
}
