// Package cli implements the stagegraph command-line interface.
//
// The commands are:
//   - layout: compute the layout of a pipeline or execution file
//   - render: draw it as SVG or Graphviz DOT
//   - serve: run the HTTP API
//   - cache: manage the local layout cache
//
// Settings come from stagegraph.toml, STAGEGRAPH_* variables and flags, in
// that order of priority; see package config. All commands support
// --verbose (-v) for debug-level logging.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/buildinfo"
	"github.com/matzehuels/stagegraph/pkg/config"
	"github.com/matzehuels/stagegraph/pkg/runner"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Stagegraph lays out pipeline stage graphs",
		Long: `Stagegraph lays out pipeline configurations and executions as layered
diagrams: stages become columns by dependency depth, rows are ordered to
avoid crossing links, and long links get placeholder slots.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: ./"+config.DefaultFile+" if present)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the configuration for cmd, with its flags on top.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags(), c.configPath)
}

// newRunner creates a runner on the configured cache.
func (c *CLI) newRunner(cfg *config.Config) (*runner.Runner, error) {
	store, keyer, err := cfg.OpenCache()
	if err != nil {
		return nil, err
	}
	return runner.NewRunner(store, keyer, c.Logger), nil
}

// runnerOptions returns the layout options of cfg.
func (c *CLI) runnerOptions(cfg *config.Config) runner.Options {
	return runner.Options{
		Layout:     cfg.LayoutOptions(),
		CharWidth:  cfg.Measure.CharWidth,
		LineHeight: cfg.Measure.LineHeight,
		TTL:        cfg.Cache.TTL,
		Logger:     c.Logger,
	}
}
