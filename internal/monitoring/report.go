package monitoring

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// statusTitle title-cases a status name. The caser is built per call
// since cases.Caser is not goroutine safe.
func statusTitle(s string) string {
	return cases.Title(language.English).String(s)
}

// GenerateReport renders a plain-text performance report for the given
// models. Untracked models are silently skipped.
func GenerateReport(t *Tracker, models []string) string {
	lines := []string{"=== Performance Report ===", ""}

	for _, name := range models {
		summary, err := t.Summary(name)
		if err != nil {
			continue
		}
		latest := summary.LatestMetrics
		lines = append(lines,
			fmt.Sprintf("Model: %s", name),
			fmt.Sprintf("  Status: %s", summary.Status),
			fmt.Sprintf("  Memory Usage: %.1f MB", latest.MemoryUsageMB),
			fmt.Sprintf("  CPU Usage: %.1f%%", latest.CPUUsagePercent),
			fmt.Sprintf("  Inference Time: %.1f ms", latest.InferenceTimeMS),
			fmt.Sprintf("  Throughput: %.1f tokens/sec", latest.ThroughputTokensPerSec),
			fmt.Sprintf("  Alerts: %d", summary.AlertsCount),
			"",
		)
	}

	overview := t.Overview()
	lines = append(lines,
		"=== System Overview ===",
		fmt.Sprintf("Total Models: %d", overview.TotalModelsMonitored),
		fmt.Sprintf("Total Metrics: %d", overview.TotalMetricsCollected),
		fmt.Sprintf("Total Alerts: %d", overview.TotalAlerts),
		fmt.Sprintf("Status Distribution: %v", overview.StatusDistribution),
	)

	return strings.Join(lines, "\n")
}

// GenerateMarkdownReport renders the same report as a markdown document,
// suitable for HTML conversion on the dashboard.
func GenerateMarkdownReport(t *Tracker, models []string) string {
	var b strings.Builder
	b.WriteString("# Performance Report\n\n")

	for _, name := range models {
		summary, err := t.Summary(name)
		if err != nil {
			continue
		}
		latest := summary.LatestMetrics
		fmt.Fprintf(&b, "## %s\n\n", name)
		fmt.Fprintf(&b, "- **Status**: %s\n", summary.Status)
		fmt.Fprintf(&b, "- **Memory Usage**: %.1f MB\n", latest.MemoryUsageMB)
		fmt.Fprintf(&b, "- **CPU Usage**: %.1f%%\n", latest.CPUUsagePercent)
		fmt.Fprintf(&b, "- **Inference Time**: %.1f ms\n", latest.InferenceTimeMS)
		fmt.Fprintf(&b, "- **Throughput**: %.1f tokens/sec\n", latest.ThroughputTokensPerSec)
		fmt.Fprintf(&b, "- **Average Inference**: %.1f ms over %d samples\n", summary.Averages.InferenceTimeMS, summary.MetricsCount)
		fmt.Fprintf(&b, "- **Alerts**: %d\n\n", summary.AlertsCount)
	}

	overview := t.Overview()
	b.WriteString("## System Overview\n\n")
	fmt.Fprintf(&b, "- Total Models: %d\n", overview.TotalModelsMonitored)
	fmt.Fprintf(&b, "- Total Metrics: %d\n", overview.TotalMetricsCollected)
	fmt.Fprintf(&b, "- Total Alerts: %d\n", overview.TotalAlerts)
	for _, status := range []Status{StatusHealthy, StatusWarning, StatusDegraded} {
		if n := overview.StatusDistribution[status]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", statusTitle(string(status)), n)
		}
	}

	return b.String()
}
