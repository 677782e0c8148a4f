package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/server"
)

// createServeCommand creates the 'serve' command.
func (c *CLI) createServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, JSON API, and metrics stream over HTTP",
		Long: `Serve starts an HTTP server with the rendered dashboard at /, the JSON
API under /api/v1, and a websocket stream of tracking results at
/ws/metrics. Metrics are collected on the configured interval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				c.cfg.Server.Port = port
			}
			if err := c.cfg.EnsureDirs(); err != nil {
				return err
			}

			store, err := c.dataStore()
			if err != nil {
				return err
			}
			catalog, err := c.loadCatalog(store, true)
			if err != nil {
				return err
			}
			collector, tracker := c.newPipeline()

			srv := server.New(c.cfg, catalog, collector, tracker, logging.WithComponent("server"))

			// Prime the tracker so the first dashboard render has data.
			srv.CollectOnce()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", c.cfg.Server.Addr())
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port override")

	return cmd
}
