package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"modelhub-monitor/internal/apperrors"
	"modelhub-monitor/internal/console"
	"modelhub-monitor/internal/registry"
)

// createModelsCommand creates the 'models' command group.
func (c *CLI) createModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the model catalog",
	}

	cmd.AddCommand(
		c.createModelsListCommand(),
		c.createModelsAddCommand(),
		c.createModelsRemoveCommand(),
	)

	return cmd
}

func (c *CLI) createModelsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the saved catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.dataStore()
			if err != nil {
				return err
			}
			catalog, err := c.loadCatalog(store, false)
			if err != nil {
				return err
			}
			return console.RenderModelTable(cmd.OutOrStdout(), catalog.All(), nil)
		},
	}
}

func (c *CLI) createModelsAddCommand() *cobra.Command {
	var (
		taskType  string
		library   string
		sizeMB    float64
		downloads int64
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a model to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.dataStore()
			if err != nil {
				return err
			}
			catalog, err := c.loadCatalog(store, false)
			if err != nil {
				return err
			}

			model := registry.NewModel(args[0], taskType, library)
			if sizeMB > 0 {
				model.SizeMB = &sizeMB
			}
			if downloads > 0 {
				model.Downloads = &downloads
			}

			validator := registry.NewValidator()
			if !validator.Validate(model) {
				return apperrors.New(apperrors.CodeValidation,
					fmt.Sprintf("invalid model: %s", strings.Join(validator.Errors(), "; ")))
			}

			if err := catalog.Add(model); err != nil {
				return err
			}
			if err := c.saveCatalog(store, catalog); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added model: %s\n", model.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&taskType, "task", "t", "", "Task type, like text-classification")
	cmd.Flags().StringVarP(&library, "library", "l", "", "Library, like transformers")
	cmd.Flags().Float64Var(&sizeMB, "size-mb", 0, "Declared model size in MB")
	cmd.Flags().Int64Var(&downloads, "downloads", 0, "Hub download count")

	return cmd
}

func (c *CLI) createModelsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove [name]",
		Aliases: []string{"rm"},
		Short:   "Remove a model from the catalog",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.dataStore()
			if err != nil {
				return err
			}
			catalog, err := c.loadCatalog(store, false)
			if err != nil {
				return err
			}

			name := strings.ToLower(strings.TrimSpace(args[0]))
			if err := catalog.Remove(name); err != nil {
				return err
			}
			if err := c.saveCatalog(store, catalog); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed model: %s\n", name)
			return nil
		},
	}
}
