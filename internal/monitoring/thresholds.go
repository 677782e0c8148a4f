package monitoring

// Thresholds is the alerting limit table. Ceilings fire on strictly
// greater values, the throughput floor on strictly lower ones. A zero
// limit disables that check, which is how a replacement table mutes an
// individual metric.
type Thresholds struct {
	MaxMemoryMB               float64 `json:"max_memory_mb" yaml:"max_memory_mb" mapstructure:"max_memory_mb"`
	MaxCPUPercent             float64 `json:"max_cpu_percent" yaml:"max_cpu_percent" mapstructure:"max_cpu_percent"`
	MaxInferenceTimeMS        float64 `json:"max_inference_time_ms" yaml:"max_inference_time_ms" mapstructure:"max_inference_time_ms"`
	MinThroughputTokensPerSec float64 `json:"min_throughput_tokens_per_sec" yaml:"min_throughput_tokens_per_sec" mapstructure:"min_throughput_tokens_per_sec"`
	MaxErrorRate              float64 `json:"max_error_rate" yaml:"max_error_rate" mapstructure:"max_error_rate"`
}

// DefaultThresholds returns the stock limit table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxMemoryMB:               2048,
		MaxCPUPercent:             80,
		MaxInferenceTimeMS:        1000,
		MinThroughputTokensPerSec: 50,
		MaxErrorRate:              10,
	}
}

// ceilingSeverity grades a ceiling violation: high past 1.5x the limit.
func ceilingSeverity(value, limit float64) Severity {
	if value > limit*1.5 {
		return SeverityHigh
	}
	return SeverityMedium
}

// Evaluate checks a sample against the table and returns one alert per
// violated limit. Check order is fixed: memory, cpu, inference time,
// error rate, then the throughput floor. Boundary equality never fires.
func (t Thresholds) Evaluate(sample MetricsSample) []Alert {
	var alerts []Alert

	ceilings := []struct {
		metric string
		value  float64
		limit  float64
	}{
		{"memory_usage_mb", sample.MemoryUsageMB, t.MaxMemoryMB},
		{"cpu_usage_percent", sample.CPUUsagePercent, t.MaxCPUPercent},
		{"inference_time_ms", sample.InferenceTimeMS, t.MaxInferenceTimeMS},
		{"error_rate", sample.ErrorRate, t.MaxErrorRate},
	}

	for _, c := range ceilings {
		if c.limit != 0 && c.value > c.limit {
			alerts = append(alerts, newAlert(
				AlertThresholdExceeded, c.metric, c.value, c.limit,
				sample, ceilingSeverity(c.value, c.limit),
			))
		}
	}

	if t.MinThroughputTokensPerSec != 0 && sample.ThroughputTokensPerSec < t.MinThroughputTokensPerSec {
		alerts = append(alerts, newAlert(
			AlertThroughputLow, "throughput_tokens_per_sec",
			sample.ThroughputTokensPerSec, t.MinThroughputTokensPerSec,
			sample, SeverityMedium,
		))
	}

	return alerts
}
