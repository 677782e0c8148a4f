// Package monitoring implements performance tracking for hub models:
// sample collection, threshold evaluation with alerting, trend analysis
// over per-model history, and system-level summaries.
package monitoring

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies a model's health at collection time.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusDegraded Status = "degraded"
)

// MetricsSample is one observation of a model's runtime behavior. Samples
// are immutable once produced; histories hold them by value.
type MetricsSample struct {
	ModelName              string    `json:"model_name"`
	Timestamp              time.Time `json:"timestamp"`
	MemoryUsageMB          float64   `json:"memory_usage_mb"`
	CPUUsagePercent        float64   `json:"cpu_usage_percent"`
	InferenceTimeMS        float64   `json:"inference_time_ms"`
	ThroughputTokensPerSec float64   `json:"throughput_tokens_per_sec"`
	ModelSizeMB            float64   `json:"model_size_mb"`
	GPUUsagePercent        *float64  `json:"gpu_usage_percent"`
	ErrorRate              float64   `json:"error_rate"`
	Status                 Status    `json:"status"`
}

// AlertKind distinguishes ceiling violations from the throughput floor.
type AlertKind string

const (
	AlertThresholdExceeded AlertKind = "threshold_exceeded"
	AlertThroughputLow     AlertKind = "throughput_low"
)

// Severity grades an alert.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert records a single threshold violation. The timestamp is the
// offending sample's, not the evaluation time.
type Alert struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"type"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
}

func newAlert(kind AlertKind, metric string, value, threshold float64, sample MetricsSample, severity Severity) Alert {
	return Alert{
		ID:        uuid.New().String(),
		Kind:      kind,
		Metric:    metric,
		Value:     value,
		Threshold: threshold,
		Model:     sample.ModelName,
		Timestamp: sample.Timestamp,
		Severity:  severity,
	}
}
