// Package dashboard prepares the monitor's web view: a display model
// built from the catalog and tracker state, HTML rendering, and the
// JSON envelope used by the HTTP API.
package dashboard

import (
	"fmt"
	"sort"
	"time"

	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/randsrc"
	"modelhub-monitor/internal/registry"
)

// Data is the fully prepared dashboard view model.
type Data struct {
	GeneratedAt     string  `json:"timestamp"`
	Theme           string  `json:"theme"`
	RefreshInterval int     `json:"refresh_interval"`
	Models          []Row   `json:"models"`
	Summary         Summary `json:"summary"`
	Charts          Charts  `json:"charts"`

	// ReportMarkdown is converted to HTML at render time.
	ReportMarkdown string `json:"-"`
}

// Row is one model line in the dashboard table.
type Row struct {
	Name        string  `json:"name"`
	TaskType    string  `json:"task_type"`
	Library     string  `json:"library"`
	SizeMB      float64 `json:"size_mb"`
	Downloads   int64   `json:"downloads"`
	Status      string  `json:"status"`
	HealthScore int     `json:"health_score"`
	LastUpdated string  `json:"last_updated"`
}

// Summary aggregates the displayed models.
type Summary struct {
	TotalModels      int     `json:"total_models"`
	ActiveModels     int     `json:"active_models"`
	HealthyCount     int     `json:"healthy_count"`
	WarningCount     int     `json:"warning_count"`
	DegradedCount    int     `json:"degraded_count"`
	TotalSizeMB      float64 `json:"total_size_mb"`
	AverageDownloads float64 `json:"average_downloads"`
}

// Bucket is one labeled slice of a distribution chart.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ModelValue pairs a model with a single metric reading.
type ModelValue struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
}

// TrendSeries is the hourly series behind the performance chart.
type TrendSeries struct {
	MemoryUsage  []float64 `json:"memory_usage"`
	CPUUsage     []float64 `json:"cpu_usage"`
	ResponseTime []float64 `json:"response_time"`
	Labels       []string  `json:"labels"`
}

// Charts bundles every chart payload.
type Charts struct {
	TaskDistribution  []Bucket     `json:"task_distribution"`
	SizeDistribution  []Bucket     `json:"size_distribution"`
	Throughput        []ModelValue `json:"throughput"`
	PerformanceTrends TrendSeries  `json:"performance_trends"`
}

const (
	defaultTheme           = "dark"
	defaultRefreshInterval = 30
	defaultMaxDisplayed    = 10
	trendHours             = 24
)

// Builder assembles dashboard data from the catalog and tracker.
type Builder struct {
	theme           string
	refreshInterval int
	maxDisplayed    int
	rand            randsrc.Source
	now             func() time.Time
}

// NewBuilder returns a builder with stock display settings. A nil rand
// falls back to the crypto source.
func NewBuilder(rand randsrc.Source) *Builder {
	if rand == nil {
		rand = randsrc.NewCrypto()
	}
	return &Builder{
		theme:           defaultTheme,
		refreshInterval: defaultRefreshInterval,
		maxDisplayed:    defaultMaxDisplayed,
		rand:            rand,
		now:             time.Now,
	}
}

// SetTheme switches the dashboard theme. Unknown themes are ignored.
func (b *Builder) SetTheme(theme string) {
	switch theme {
	case "light", "dark", "auto":
		b.theme = theme
	}
}

// Theme returns the active theme.
func (b *Builder) Theme() string {
	return b.theme
}

// Build prepares the dashboard view model. The tracker is optional;
// without it models render with default status and no metric charts.
func (b *Builder) Build(models []*registry.Model, tracker *monitoring.Tracker) *Data {
	data := &Data{
		GeneratedAt:     b.now().UTC().Format(time.RFC3339),
		Theme:           b.theme,
		RefreshInterval: b.refreshInterval,
		Models:          []Row{},
		Summary:         Summary{TotalModels: len(models)},
		Charts:          b.buildCharts(models, tracker),
	}

	displayed := models
	if len(displayed) > b.maxDisplayed {
		displayed = displayed[:b.maxDisplayed]
	}

	var totalDownloads int64
	for _, m := range displayed {
		row := b.buildRow(m, tracker)
		data.Models = append(data.Models, row)

		switch row.Status {
		case "active":
			data.Summary.ActiveModels++
			data.Summary.HealthyCount++
		case "warning":
			data.Summary.WarningCount++
		case "error":
			data.Summary.DegradedCount++
		}
		data.Summary.TotalSizeMB += row.SizeMB
		totalDownloads += row.Downloads
	}

	// Downloads are summed over the displayed rows but averaged over
	// the whole catalog.
	if len(models) > 0 {
		data.Summary.AverageDownloads = float64(totalDownloads) / float64(len(models))
	}
	return data
}

func (b *Builder) buildRow(m *registry.Model, tracker *monitoring.Tracker) Row {
	row := Row{
		Name:        m.Name,
		TaskType:    m.TaskType,
		Library:     m.Library,
		Status:      "active",
		HealthScore: 85,
		LastUpdated: b.now().Format("15:04:05"),
	}
	if size, ok := m.DeclaredSizeMB(); ok {
		row.SizeMB = size
	}
	if m.Downloads != nil {
		row.Downloads = *m.Downloads
	}

	if sample, ok := latestSample(tracker, m.Name); ok {
		row.Status, row.HealthScore = healthFor(sample.Status)
		row.LastUpdated = sample.Timestamp.Format("15:04:05")
	}
	return row
}

func (b *Builder) buildCharts(models []*registry.Model, tracker *monitoring.Tracker) Charts {
	taskCounts := make(map[string]int)
	sizeBuckets := []Bucket{
		{Label: "Small (<100MB)"},
		{Label: "Medium (100-500MB)"},
		{Label: "Large (>500MB)"},
	}

	for _, m := range models {
		taskCounts[m.TaskType]++

		var size float64
		if declared, ok := m.DeclaredSizeMB(); ok {
			size = declared
		}
		switch {
		case size < 100:
			sizeBuckets[0].Count++
		case size < 500:
			sizeBuckets[1].Count++
		default:
			sizeBuckets[2].Count++
		}
	}

	tasks := make([]Bucket, 0, len(taskCounts))
	for task, count := range taskCounts {
		tasks = append(tasks, Bucket{Label: task, Count: count})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Label < tasks[j].Label })

	// Kept non-nil so the chart script always receives an array.
	throughput := []ModelValue{}
	for _, m := range models {
		if sample, ok := latestSample(tracker, m.Name); ok {
			throughput = append(throughput, ModelValue{Model: m.Name, Value: sample.ThroughputTokensPerSec})
		}
	}

	return Charts{
		TaskDistribution:  tasks,
		SizeDistribution:  sizeBuckets,
		Throughput:        throughput,
		PerformanceTrends: b.buildTrends(),
	}
}

// buildTrends simulates a day of hourly readings for the trend chart.
func (b *Builder) buildTrends() TrendSeries {
	series := TrendSeries{
		MemoryUsage:  make([]float64, trendHours),
		CPUUsage:     make([]float64, trendHours),
		ResponseTime: make([]float64, trendHours),
		Labels:       make([]string, trendHours),
	}
	for i := 0; i < trendHours; i++ {
		series.MemoryUsage[i] = b.rand.Uniform(200, 800)
	}
	for i := 0; i < trendHours; i++ {
		series.CPUUsage[i] = b.rand.Uniform(10, 60)
	}
	for i := 0; i < trendHours; i++ {
		series.ResponseTime[i] = b.rand.Uniform(50, 200)
	}
	for i := 0; i < trendHours; i++ {
		series.Labels[i] = fmt.Sprintf("%02d:00", i)
	}
	return series
}

func latestSample(tracker *monitoring.Tracker, model string) (monitoring.MetricsSample, bool) {
	if tracker == nil {
		return monitoring.MetricsSample{}, false
	}
	history := tracker.History(model)
	if len(history) == 0 {
		return monitoring.MetricsSample{}, false
	}
	return history[len(history)-1], true
}

func healthFor(status monitoring.Status) (string, int) {
	switch status {
	case monitoring.StatusWarning:
		return "warning", 60
	case monitoring.StatusDegraded:
		return "error", 30
	default:
		return "active", 85
	}
}
