// Package cli assembles the monitor's command tree: one-shot
// collection runs, the HTTP serve mode, the interactive menu, report
// printing, and catalog management.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modelhub-monitor/internal/config"
	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/randsrc"
	"modelhub-monitor/internal/registry"
	"modelhub-monitor/internal/storage"
	"modelhub-monitor/internal/sysinfo"
)

// catalogFile names the persisted registry snapshot in the data dir.
const catalogFile = "catalog"

// CLI wires the cobra commands over the monitor's components.
type CLI struct {
	RootCmd *cobra.Command

	cfgPath  string
	logLevel string

	cfg    *config.Config
	logger logging.Logger
}

// New builds the command tree.
func New() *CLI {
	c := &CLI{}
	c.setupRootCommand()
	c.setupCommands()
	return c
}

func (c *CLI) setupRootCommand() {
	c.RootCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Track and alert on model hub performance metrics",
		Long: `monitor keeps a catalog of hub models, collects simulated performance
samples for them, raises threshold alerts, and renders text reports and
an HTML dashboard.

All metrics are generated locally; nothing is downloaded and no
inference runs.`,
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.Logging.Level = c.logLevel
			}
			c.cfg = cfg

			logging.SetDefault(logging.New(logging.ParseLevel(cfg.Logging.Level)))
			c.logger = logging.WithComponent("cli")
			return nil
		},
		SilenceUsage: true,
	}

	c.RootCmd.PersistentFlags().StringVar(&c.cfgPath, "config", "",
		"Path to a JSON or YAML config file")
	c.RootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "",
		"Log level override (debug, info, warn, error)")
}

func (c *CLI) setupCommands() {
	c.RootCmd.AddCommand(
		c.createRunCommand(),
		c.createServeCommand(),
		c.createMenuCommand(),
		c.createReportCommand(),
		c.createModelsCommand(),
	)
}

// Execute runs the CLI.
func (c *CLI) Execute() error {
	return c.RootCmd.Execute()
}

// ExecuteContext runs the CLI under a signal-aware context.
func (c *CLI) ExecuteContext(ctx context.Context) error {
	return c.RootCmd.ExecuteContext(ctx)
}

// newPipeline builds the collection pipeline from the loaded config.
func (c *CLI) newPipeline() (*monitoring.Collector, *monitoring.Tracker) {
	collector := monitoring.NewCollector(sysinfo.NewHostProbe(), randsrc.NewCrypto(),
		logging.WithComponent("collector"))
	tracker := monitoring.NewTracker(logging.WithComponent("tracker"))
	tracker.SetThresholds(c.cfg.Monitor.Thresholds)
	return collector, tracker
}

// dataStore opens the file store under the configured data directory.
func (c *CLI) dataStore() (*storage.FileStore, error) {
	return storage.NewFileStore(c.cfg.Paths.Data, logging.WithComponent("storage"))
}

// sampleModels are registered on first run, before any catalog has been
// saved.
func sampleModels() []*registry.Model {
	return []*registry.Model{
		registry.NewModel("bert-base-uncased", "text-classification", "transformers"),
		registry.NewModel("gpt2", "text-generation", "transformers"),
		registry.NewModel("distilbert-base-uncased", "text-classification", "transformers"),
	}
}

// loadCatalog restores the saved catalog. When no snapshot exists and
// seed is set, the sample models are registered instead. Models that
// fail validation are skipped with a warning.
func (c *CLI) loadCatalog(store *storage.FileStore, seed bool) (*registry.Registry, error) {
	catalog := registry.NewRegistry()

	var models []*registry.Model
	if err := store.Load(catalogFile, storage.FormatJSON, &models); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		if seed {
			models = sampleModels()
		}
	}

	validator := registry.NewValidator()
	for _, m := range models {
		if !validator.Validate(m) {
			c.logger.Warn("skipping invalid model", "model", m.Name, "errors", validator.Errors())
			continue
		}
		if err := catalog.Add(m); err != nil {
			c.logger.Warn("skipping duplicate model", "model", m.Name, "error", err)
		}
	}
	return catalog, nil
}

// saveCatalog persists the registry for later invocations.
func (c *CLI) saveCatalog(store *storage.FileStore, catalog *registry.Registry) error {
	if _, err := store.Save(catalogFile, catalog.All(), storage.FormatJSON); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	return nil
}
