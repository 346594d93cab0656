// Package commands implements the tmdlint subcommands.
package commands

import (
	"log/slog"
	"os"

	"github.com/modelstack-labs/tmdlint/internal/cli/config"
	"github.com/modelstack-labs/tmdlint/internal/cli/output"
	"github.com/modelstack-labs/tmdlint/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's loaded
// configuration. The renderer placed in the context by the root command
// is reused when present; a command run on its own builds one from the
// configured output mode.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	r, ok := output.FromContext(cmd.Context())
	if !ok {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, falling back to
// environment variables when no config was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		ModelDir:     os.Getenv(config.EnvPrefix + "MODEL_DIR"),
		OutputFormat: getEnvOrDefault(config.EnvPrefix+"OUTPUT", config.DefaultOutput),
		Verbose:      os.Getenv(config.EnvPrefix+"VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// resolveModelDir picks the semantic-model folder for a command:
// positional argument first, then configuration, then the working
// directory.
func resolveModelDir(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg.ModelDir != "" {
		return cfg.ModelDir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// newEngine builds a session engine over the resolved model folder.
func newEngine(cmdCtx *CommandContext, args []string) (*engine.Engine, error) {
	return engine.New(resolveModelDir(args, cmdCtx.Cfg), cmdCtx.Logger)
}
