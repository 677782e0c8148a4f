package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelhub-monitor/internal/monitoring"
)

// createReportCommand creates the 'report' command.
func (c *CLI) createReportCommand() *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a performance report from a fresh collection pass",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			for _, m := range catalog.All() {
				tracker.Track(m.Name, collector.Collect(m))
			}

			if markdown {
				fmt.Fprintln(cmd.OutOrStdout(), monitoring.GenerateMarkdownReport(tracker, tracker.Models()))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), monitoring.GenerateReport(tracker, tracker.Models()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the report as markdown")

	return cmd
}
