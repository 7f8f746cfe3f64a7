package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/server"
	"github.com/matzehuels/stagegraph/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var sessionTTL time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout HTTP API",
		Long: `Serve the layout HTTP API.

POST /v1/layout lays out and renders a request, like 'render'. Interactive
clients create a session with POST /v1/sessions and then send selection
changes, hover events and new snapshots to it; a selection change only
refreshes node and link states.

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			r, err := c.newRunner(cfg)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer r.Close()

			srv, err := server.New(server.Config{
				Runner:     r,
				Options:    c.runnerOptions(cfg),
				SessionTTL: sessionTTL,
				Logger:     c.Logger,
			})
			if err != nil {
				return err
			}
			c.Logger.Info("starting server", "addr", cfg.Serve.Addr, "cache", cfg.Cache.Backend)
			return srv.Run(cmd.Context(), cfg.Serve.Addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", session.DefaultTTL, "idle lifetime of interactive sessions")
	addLayoutFlags(cmd.Flags())
	addCacheFlags(cmd.Flags())

	return cmd
}
