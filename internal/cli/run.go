package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"modelhub-monitor/internal/audit"
	"modelhub-monitor/internal/dashboard"
	"modelhub-monitor/internal/hubcache"
	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/registry"
	"modelhub-monitor/internal/storage"
)

// createRunCommand creates the 'run' command.
func (c *CLI) createRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one collection pass and write the dashboard",
		Long: `Run registers the catalog (seeding sample models on first use), checks
the hub cache, collects one metrics sample per model, writes the HTML
dashboard, persists the run, and prints a performance report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOnce(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *CLI) runOnce(ctx context.Context, out io.Writer) error {
	fmt.Fprintln(out, "=== Model Hub Monitor ===")

	if err := c.cfg.EnsureDirs(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config: %s\n", c.cfg.Paths.Models)

	// Audit failures must not block a run.
	trail, err := audit.NewTrail(c.cfg.Paths.Logs, logging.WithComponent("audit"))
	if err != nil {
		c.logger.Warn("audit trail unavailable", "error", err)
		trail = nil
	} else {
		defer trail.Stop()
	}

	store, err := c.dataStore()
	if err != nil {
		return err
	}

	catalog, err := c.loadCatalog(store, true)
	if err != nil {
		return err
	}
	for _, m := range catalog.All() {
		fmt.Fprintf(out, "Added model: %s\n", m.Name)
		if trail != nil {
			trail.Record(ctx, audit.EventTypeModelAdd, "register", m.Name, m.ID(), nil)
		}
	}

	cache, err := hubcache.NewCache(c.cfg.Paths.Cache, logging.WithComponent("hubcache"))
	if err != nil {
		return err
	}
	for _, m := range catalog.All() {
		fmt.Fprintf(out, "Model %s status: %s\n", m.Name, cache.ModelStatus(m.Name))
	}

	collector, tracker := c.newPipeline()

	samples := make([]monitoring.MetricsSample, 0, catalog.Len())
	for _, m := range catalog.All() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sample := collector.Collect(m)
		result := tracker.Track(m.Name, sample)
		samples = append(samples, sample)

		fmt.Fprintf(out, "Collected metrics for %s: %.1f MB memory, %.1f%% cpu, %s\n",
			m.Name, sample.MemoryUsageMB, sample.CPUUsagePercent, sample.Status)

		if trail != nil {
			trail.Record(ctx, audit.EventTypeSampleCollected, "collect", m.Name, "",
				map[string]interface{}{"status": string(sample.Status)})
			for i := range result.Alerts {
				trail.Record(ctx, audit.EventTypeAlertRaised, "alert", m.Name,
					result.Alerts[i].ID, map[string]interface{}{
						"metric":   result.Alerts[i].Metric,
						"severity": result.Alerts[i].Severity,
					})
			}
		}
	}

	builder := dashboard.NewBuilder(nil)
	builder.SetTheme(c.cfg.UI.Theme)
	data := builder.Build(catalog.All(), tracker)
	if tracked := tracker.Models(); len(tracked) > 0 {
		data.ReportMarkdown = monitoring.GenerateMarkdownReport(tracker, tracked)
	}

	html, err := dashboard.NewRenderer().Render(data)
	if err != nil {
		return err
	}
	dashboardPath, err := store.SaveDashboard(html)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Dashboard saved successfully!")

	if err := c.persistRun(ctx, store, catalog, tracker, samples); err != nil {
		return err
	}
	if err := c.saveCatalog(store, catalog); err != nil {
		return err
	}
	if trail != nil {
		trail.Record(ctx, audit.EventTypeReportGenerated, "dashboard", "", dashboardPath, nil)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, monitoring.GenerateReport(tracker, tracker.Models()))

	fmt.Fprintln(out, "\n=== Monitor Summary ===")
	fmt.Fprintf(out, "Total models tracked: %d\n", catalog.Len())
	fmt.Fprintf(out, "Models directory: %s\n", c.cfg.Paths.Models)
	fmt.Fprintf(out, "Dashboard: %s\n", dashboardPath)
	fmt.Fprintln(out, "Monitor completed successfully!")
	return nil
}

// persistRun writes the collected samples and alerts to the configured
// backend: the SQLite archive, or the JSON session snapshot.
func (c *CLI) persistRun(ctx context.Context, store *storage.FileStore, catalog *registry.Registry, tracker *monitoring.Tracker, samples []monitoring.MetricsSample) error {
	if c.cfg.Storage.Backend == "sqlite" {
		archive, err := storage.OpenArchive(filepath.Join(c.cfg.Paths.Data, "metrics.db"),
			logging.WithComponent("archive"))
		if err != nil {
			return err
		}
		defer func() { _ = archive.Close() }()

		if err := archive.SaveSamples(ctx, samples); err != nil {
			return err
		}
		return archive.SaveAlerts(ctx, tracker.Alerts())
	}

	session, err := storage.NewSessionStore(c.cfg.Paths.Data, logging.WithComponent("session"))
	if err != nil {
		return err
	}
	if err := session.SaveModels(catalog.All()); err != nil {
		return err
	}

	overview := tracker.Overview()
	return session.SaveSession(map[string]interface{}{
		"models_tracked":    overview.TotalModelsMonitored,
		"metrics_collected": overview.TotalMetricsCollected,
		"alerts":            overview.TotalAlerts,
	})
}
