package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func trendSample(memMB, cpuPct, inferenceMS float64) MetricsSample {
	return MetricsSample{
		ModelName:       "m",
		MemoryUsageMB:   memMB,
		CPUUsagePercent: cpuPct,
		InferenceTimeMS: inferenceMS,
		Status:          StatusHealthy,
	}
}

func TestAnalyzeTrendsInsufficientData(t *testing.T) {
	assert.Equal(t, TrendSet{"trend": TrendInsufficientData}, AnalyzeTrends(nil))
	assert.Equal(t, TrendSet{"trend": TrendInsufficientData},
		AnalyzeTrends([]MetricsSample{trendSample(100, 10, 50)}))
}

func TestAnalyzeTrendsDirections(t *testing.T) {
	tests := []struct {
		name     string
		previous MetricsSample
		recent   MetricsSample
		want     TrendSet
	}{
		{
			"all stable",
			trendSample(500, 40, 100),
			trendSample(505, 43, 120),
			TrendSet{"memory": TrendStable, "cpu": TrendStable, "performance": TrendStable},
		},
		{
			"memory and cpu rising, latency degrading",
			trendSample(500, 40, 100),
			trendSample(520, 50, 200),
			TrendSet{"memory": TrendIncreasing, "cpu": TrendIncreasing, "performance": TrendDegrading},
		},
		{
			"everything recovering",
			trendSample(500, 40, 200),
			trendSample(480, 30, 100),
			TrendSet{"memory": TrendDecreasing, "cpu": TrendDecreasing, "performance": TrendImproving},
		},
		{
			"band edges are stable",
			trendSample(500, 40, 100),
			trendSample(510, 45, 150),
			TrendSet{"memory": TrendStable, "cpu": TrendStable, "performance": TrendStable},
		},
		{
			"just past the band",
			trendSample(500, 40, 100),
			trendSample(510.5, 45.5, 150.5),
			TrendSet{"memory": TrendIncreasing, "cpu": TrendIncreasing, "performance": TrendDegrading},
		},
		{
			"negative band edges are stable",
			trendSample(500, 40, 100),
			trendSample(490, 35, 50),
			TrendSet{"memory": TrendStable, "cpu": TrendStable, "performance": TrendStable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeTrends([]MetricsSample{tt.previous, tt.recent})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzeTrendsUsesLastTwoOnly(t *testing.T) {
	history := []MetricsSample{
		trendSample(100, 10, 50),
		trendSample(900, 90, 900),
		trendSample(905, 92, 910),
	}
	got := AnalyzeTrends(history)
	assert.Equal(t, TrendSet{"memory": TrendStable, "cpu": TrendStable, "performance": TrendStable}, got)
}
