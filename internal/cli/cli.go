// Package cli implements the liftplan command-line interface.
//
// # Commands
//
//   - analyze: derive support constraints and the disassembly/assembly
//     sequence for a component file and write the result document
//   - validate: load a component file and report rejected records and
//     support diagnostics without sequencing
//   - serve: run the analysis behind an HTTP API with Prometheus metrics
//
// Component files are JSON record arrays or Lisp scene files (.lisp).
// All commands accept --config for a TOML settings file and --verbose (-v)
// for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/chazu/liftplan/pkg/config"
	"github.com/chazu/liftplan/pkg/metrics"
	"github.com/chazu/liftplan/pkg/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// version is set at build time via -ldflags.
var version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	// Logger prints human-facing progress lines.
	Logger *log.Logger

	configPath string
	cfg        config.Config
	zlog       *zap.Logger
}

// New creates a CLI whose progress output goes to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		cfg:  config.Default(),
		zlog: zap.NewNop(),
	}
}

// SetLogLevel updates the progress logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered. Configuration is loaded and metrics hooks are installed
// before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "liftplan",
		Short:        "liftplan plans crane lifts for precast structures",
		Long:         `liftplan derives support constraints between precast components and generates a staged disassembly and assembly sequence, grouping components that can be lifted in parallel.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.serveCommand())
	return root
}

func (c *CLI) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.Logger.GetLevel() <= log.DebugLevel {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	zlog, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.zlog = zlog
	observability.SetAnalysisHooks(metrics.Hooks{})
	c.Logger.Debug("configuration loaded", "path", c.configPath, "kernel", cfg.Kernel.Name, "policy", cfg.Sequence.DeadlockPolicy)
	return nil
}
