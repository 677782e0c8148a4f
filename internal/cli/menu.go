package cli

import (
	"github.com/spf13/cobra"

	"modelhub-monitor/internal/console"
	"modelhub-monitor/internal/logging"
)

// createMenuCommand creates the 'menu' command.
func (c *CLI) createMenuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive console",
		Long: `Menu opens the numbered console over the catalog: view and edit
models, run collection passes, print reports, and tune settings.
Catalog edits are saved when the menu exits.`,
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

			ui := console.New(catalog, collector, tracker, c.cfg, logging.WithComponent("console"))
			if err := ui.Run(cmd.Context()); err != nil {
				return err
			}

			return c.saveCatalog(store, catalog)
		},
	}
}
