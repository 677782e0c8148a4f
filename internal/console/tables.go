package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"modelhub-monitor/internal/config"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/registry"
)

// RenderModelTable writes the catalog as an ASCII table. The status
// column shows the latest tracked status, or "untracked" for models
// without history. A nil tracker leaves every model untracked.
func RenderModelTable(w io.Writer, models []*registry.Model, tracker *monitoring.Tracker) error {
	if len(models) == 0 {
		_, _ = fmt.Fprintln(w, "No models registered.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Name", "Task", "Library", "Size", "Downloads", "Status")

	for i, m := range models {
		size := "-"
		if mb, ok := m.DeclaredSizeMB(); ok {
			size = FormatFileSize(mb * 1024 * 1024)
		}
		downloads := "-"
		if m.Downloads != nil {
			downloads = strconv.FormatInt(*m.Downloads, 10)
		}
		status := "untracked"
		if tracker != nil {
			if history := tracker.History(m.Name); len(history) > 0 {
				status = string(history[len(history)-1].Status)
			}
		}

		_ = table.Append([]string{
			strconv.Itoa(i + 1),
			m.Name,
			m.TaskType,
			m.Library,
			size,
			downloads,
			status,
		})
	}

	if err := table.Render(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\nTotal: %d models\n", len(models))
	return nil
}

// renderSummaryTable writes per-model performance summaries as a table.
func renderSummaryTable(w io.Writer, summaries []*monitoring.Summary) error {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintln(w, "No performance data available.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Model", "Status", "Memory", "CPU", "Inference", "Throughput", "Samples", "Alerts")

	for _, s := range summaries {
		_ = table.Append([]string{
			s.ModelName,
			string(s.Status),
			fmt.Sprintf("%.1f MB", s.LatestMetrics.MemoryUsageMB),
			fmt.Sprintf("%.1f%%", s.LatestMetrics.CPUUsagePercent),
			fmt.Sprintf("%.1f ms", s.LatestMetrics.InferenceTimeMS),
			fmt.Sprintf("%.1f tok/s", s.LatestMetrics.ThroughputTokensPerSec),
			strconv.Itoa(s.MetricsCount),
			strconv.Itoa(s.AlertsCount),
		})
	}

	return table.Render()
}

// renderSettingsTable writes the tunable settings with their current
// values, keyed by the paths the update prompt accepts.
func renderSettingsTable(w io.Writer, cfg *config.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Setting", "Value")

	_ = table.Append([]string{"monitor.interval_seconds", FormatDuration(cfg.Monitor.Interval().Seconds())})
	_ = table.Append([]string{"monitor.thresholds.max_memory_mb", fmt.Sprintf("%.0f", cfg.Monitor.Thresholds.MaxMemoryMB)})
	_ = table.Append([]string{"monitor.thresholds.max_cpu_percent", fmt.Sprintf("%.0f", cfg.Monitor.Thresholds.MaxCPUPercent)})
	_ = table.Append([]string{"catalog.max_models", strconv.Itoa(cfg.Catalog.MaxModels)})
	_ = table.Append([]string{"storage.backend", cfg.Storage.Backend})
	_ = table.Append([]string{"server.host", cfg.Server.Host})
	_ = table.Append([]string{"server.port", strconv.Itoa(cfg.Server.Port)})
	_ = table.Append([]string{"ui.theme", cfg.UI.Theme})
	_ = table.Append([]string{"logging.level", cfg.Logging.Level})

	return table.Render()
}
