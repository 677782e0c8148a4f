package monitoring

import (
	"sort"
	"sync"

	"modelhub-monitor/internal/apperrors"
	"modelhub-monitor/internal/logging"
)

// ErrNoData is returned when a summary is requested for a model with no
// tracked history. It carries a not-found code for the HTTP surface.
var ErrNoData error = apperrors.New(apperrors.CodeNotFound, "no performance data available")

// Tracker accumulates per-model sample histories and a global alert log.
// Histories and the alert log are append-only; accessors return
// snapshots. Safe for concurrent use.
type Tracker struct {
	mu         sync.RWMutex
	logger     logging.Logger
	thresholds Thresholds
	history    map[string][]MetricsSample
	alerts     []Alert
}

// NewTracker creates a tracker with the default threshold table.
func NewTracker(logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.WithComponent("tracker")
	}
	return &Tracker{
		logger:     logger,
		thresholds: DefaultThresholds(),
		history:    make(map[string][]MetricsSample),
	}
}

// TrackingResult reports the outcome of one Track call. Alerts holds
// only the violations raised by this sample.
type TrackingResult struct {
	ModelName      string        `json:"model_name"`
	CurrentMetrics MetricsSample `json:"current_metrics"`
	Alerts         []Alert       `json:"alerts"`
	Trends         TrendSet      `json:"trends"`
	Status         Status        `json:"status"`
}

// Track appends the sample to the model's history, evaluates thresholds,
// extends the global alert log, and recomputes trends over the updated
// history. Repeated violations alert every time; nothing is deduplicated.
func (t *Tracker) Track(modelName string, sample MetricsSample) TrackingResult {
	t.mu.Lock()
	t.history[modelName] = append(t.history[modelName], sample)
	alerts := t.thresholds.Evaluate(sample)
	t.alerts = append(t.alerts, alerts...)
	trends := AnalyzeTrends(t.history[modelName])
	t.mu.Unlock()

	if len(alerts) > 0 {
		t.logger.Warn("threshold violations detected",
			"model", modelName, "alerts", len(alerts))
	}

	return TrackingResult{
		ModelName:      modelName,
		CurrentMetrics: sample,
		Alerts:         alerts,
		Trends:         trends,
		Status:         sample.Status,
	}
}

// Averages holds mean metric values over a model's full history.
type Averages struct {
	MemoryUsageMB          float64 `json:"memory_usage_mb"`
	CPUUsagePercent        float64 `json:"cpu_usage_percent"`
	InferenceTimeMS        float64 `json:"inference_time_ms"`
	ThroughputTokensPerSec float64 `json:"throughput_tokens_per_sec"`
}

// Summary aggregates a model's tracked history.
type Summary struct {
	ModelName     string        `json:"model_name"`
	LatestMetrics MetricsSample `json:"latest_metrics"`
	Averages      Averages      `json:"averages"`
	MetricsCount  int           `json:"metrics_count"`
	AlertsCount   int           `json:"alerts_count"`
	Status        Status        `json:"status"`
}

// Summary returns the latest sample, history-wide averages, and the
// model's share of the global alert log. ErrNoData when untracked.
func (t *Tracker) Summary(modelName string) (*Summary, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	history := t.history[modelName]
	if len(history) == 0 {
		return nil, ErrNoData
	}

	var avg Averages
	for _, s := range history {
		avg.MemoryUsageMB += s.MemoryUsageMB
		avg.CPUUsagePercent += s.CPUUsagePercent
		avg.InferenceTimeMS += s.InferenceTimeMS
		avg.ThroughputTokensPerSec += s.ThroughputTokensPerSec
	}
	n := float64(len(history))
	avg.MemoryUsageMB /= n
	avg.CPUUsagePercent /= n
	avg.InferenceTimeMS /= n
	avg.ThroughputTokensPerSec /= n

	alertCount := 0
	for _, a := range t.alerts {
		if a.Model == modelName {
			alertCount++
		}
	}

	latest := history[len(history)-1]
	return &Summary{
		ModelName:     modelName,
		LatestMetrics: latest,
		Averages:      avg,
		MetricsCount:  len(history),
		AlertsCount:   alertCount,
		Status:        latest.Status,
	}, nil
}

// SystemOverview summarizes the whole tracker.
type SystemOverview struct {
	TotalModelsMonitored  int            `json:"total_models_monitored"`
	TotalMetricsCollected int            `json:"total_metrics_collected"`
	TotalAlerts           int            `json:"total_alerts"`
	StatusDistribution    map[Status]int `json:"status_distribution"`
	MonitoringThresholds  Thresholds     `json:"monitoring_thresholds"`
}

// Overview reports totals across all tracked models. The status
// distribution counts each model once, by its latest sample.
func (t *Tracker) Overview() SystemOverview {
	t.mu.RLock()
	defer t.mu.RUnlock()

	overview := SystemOverview{
		TotalModelsMonitored: len(t.history),
		TotalAlerts:          len(t.alerts),
		StatusDistribution:   make(map[Status]int),
		MonitoringThresholds: t.thresholds,
	}
	for _, history := range t.history {
		overview.TotalMetricsCollected += len(history)
		if len(history) > 0 {
			overview.StatusDistribution[history[len(history)-1].Status]++
		}
	}
	return overview
}

// History returns a copy of the model's tracked samples.
func (t *Tracker) History(modelName string) []MetricsSample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]MetricsSample(nil), t.history[modelName]...)
}

// Alerts returns a copy of the global alert log.
func (t *Tracker) Alerts() []Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Alert(nil), t.alerts...)
}

// Models returns the tracked model names, sorted.
func (t *Tracker) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.history))
	for name := range t.history {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Thresholds returns the current limit table.
func (t *Tracker) Thresholds() Thresholds {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.thresholds
}

// SetThresholds replaces the limit table wholesale. Zero fields disable
// their checks; no partial validation is applied.
func (t *Tracker) SetThresholds(th Thresholds) {
	t.mu.Lock()
	t.thresholds = th
	t.mu.Unlock()
	t.logger.Info("thresholds replaced",
		"max_memory_mb", th.MaxMemoryMB,
		"max_cpu_percent", th.MaxCPUPercent,
		"max_inference_time_ms", th.MaxInferenceTimeMS,
		"min_throughput", th.MinThroughputTokensPerSec,
		"max_error_rate", th.MaxErrorRate)
}

// UptimeStats reports the healthy share of a history.
type UptimeStats struct {
	UptimePercentage    float64 `json:"uptime_percentage"`
	TotalMeasurements   int     `json:"total_measurements"`
	HealthyMeasurements int     `json:"healthy_measurements"`
}

// CalculateUptime computes uptime over an arbitrary history. An empty
// history yields zero percent.
func CalculateUptime(history []MetricsSample) UptimeStats {
	if len(history) == 0 {
		return UptimeStats{}
	}
	healthy := 0
	for _, s := range history {
		if s.Status == StatusHealthy {
			healthy++
		}
	}
	return UptimeStats{
		UptimePercentage:    float64(healthy) / float64(len(history)) * 100,
		TotalMeasurements:   len(history),
		HealthyMeasurements: healthy,
	}
}

// Uptime computes uptime for a tracked model. ErrNoData when untracked.
func (t *Tracker) Uptime(modelName string) (UptimeStats, error) {
	t.mu.RLock()
	history := t.history[modelName]
	t.mu.RUnlock()

	if len(history) == 0 {
		return UptimeStats{}, ErrNoData
	}
	return CalculateUptime(history), nil
}
