package monitoring

// Direction labels how a metric moved between the last two samples.
type Direction string

const (
	TrendIncreasing       Direction = "increasing"
	TrendDecreasing       Direction = "decreasing"
	TrendStable           Direction = "stable"
	TrendDegrading        Direction = "degrading"
	TrendImproving        Direction = "improving"
	TrendInsufficientData Direction = "insufficient_data"
)

// TrendSet maps trend keys to directions. With fewer than two samples it
// holds the single sentinel entry {"trend": "insufficient_data"};
// otherwise the keys are "memory", "cpu", and "performance".
type TrendSet map[string]Direction

// Movement bands: changes within the band count as stable.
const (
	memoryTrendDeltaMB    = 10.0
	cpuTrendDeltaPct      = 5.0
	inferenceTrendDeltaMS = 50.0
)

// AnalyzeTrends compares the last two samples of a history.
func AnalyzeTrends(history []MetricsSample) TrendSet {
	if len(history) < 2 {
		return TrendSet{"trend": TrendInsufficientData}
	}

	recent := history[len(history)-1]
	previous := history[len(history)-2]
	trends := make(TrendSet, 3)

	switch delta := recent.MemoryUsageMB - previous.MemoryUsageMB; {
	case delta > memoryTrendDeltaMB:
		trends["memory"] = TrendIncreasing
	case delta < -memoryTrendDeltaMB:
		trends["memory"] = TrendDecreasing
	default:
		trends["memory"] = TrendStable
	}

	switch delta := recent.CPUUsagePercent - previous.CPUUsagePercent; {
	case delta > cpuTrendDeltaPct:
		trends["cpu"] = TrendIncreasing
	case delta < -cpuTrendDeltaPct:
		trends["cpu"] = TrendDecreasing
	default:
		trends["cpu"] = TrendStable
	}

	switch delta := recent.InferenceTimeMS - previous.InferenceTimeMS; {
	case delta > inferenceTrendDeltaMS:
		trends["performance"] = TrendDegrading
	case delta < -inferenceTrendDeltaMS:
		trends["performance"] = TrendImproving
	default:
		trends["performance"] = TrendStable
	}

	return trends
}
