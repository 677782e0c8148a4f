package monitoring

import (
	"strings"
	"sync"
	"time"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/randsrc"
	"modelhub-monitor/internal/registry"
	"modelhub-monitor/internal/sysinfo"
)

// Fallback readings when the host probe cannot answer.
const (
	fallbackMemoryMB   = 512.0
	fallbackCPUPercent = 25.0
)

const baseInferenceTimeMS = 50.0

// taskLatencyMultipliers scales the simulated inference time by task
// complexity. Unknown tasks use 1.0.
var taskLatencyMultipliers = map[string]float64{
	"text-generation":     2.0,
	"text-classification": 1.0,
	"question-answering":  1.5,
	"summarization":       1.8,
	"translation":         1.6,
}

// taskThroughputs maps task types to simulated tokens/sec. Unknown tasks
// use 100.
var taskThroughputs = map[string]float64{
	"text-generation":     80.0,
	"text-classification": 200.0,
	"question-answering":  120.0,
	"summarization":       60.0,
	"translation":         90.0,
}

// sizeEstimates is matched in declaration order; the first pattern found
// as a substring of the model name wins. Order is part of the contract,
// so "distilbert-base" resolves through "bert-base".
var sizeEstimates = []struct {
	pattern string
	sizeMB  float64
}{
	{"bert-base", 440.0},
	{"bert-large", 1340.0},
	{"gpt2", 548.0},
	{"distilbert", 268.0},
	{"roberta-base", 498.0},
	{"t5-small", 242.0},
	{"t5-base", 892.0},
}

const defaultSizeEstimateMB = 300.0

// complexTasks get a status-weight penalty during simulation.
var complexTasks = map[string]bool{
	"text-generation": true,
	"summarization":   true,
}

// Collector produces metrics samples for models. Collection never fails:
// unavailable host readings fall back to defaults and every simulated
// value has a hardcoded range. Collected samples are retained for
// time-windowed queries.
type Collector struct {
	probe  sysinfo.Probe
	rand   randsrc.Source
	logger logging.Logger

	mu      sync.Mutex
	history []MetricsSample
}

// NewCollector creates a collector. Nil arguments select the host probe,
// the crypto randomness source, and the package default logger.
func NewCollector(probe sysinfo.Probe, src randsrc.Source, logger logging.Logger) *Collector {
	if probe == nil {
		probe = sysinfo.NewHostProbe()
	}
	if src == nil {
		src = randsrc.NewCrypto()
	}
	if logger == nil {
		logger = logging.WithComponent("collector")
	}
	return &Collector{probe: probe, rand: src, logger: logger}
}

// Collect produces a sample for the model. Random draws happen in a
// fixed order (gpu presence, gpu value if present, error rate, status)
// so deterministic sources replay exactly.
func (c *Collector) Collect(model *registry.Model) MetricsSample {
	sample := MetricsSample{
		ModelName:              model.Name,
		Timestamp:              time.Now().UTC(),
		MemoryUsageMB:          c.memoryUsage(),
		CPUUsagePercent:        c.cpuUsage(),
		InferenceTimeMS:        c.simulateInferenceTime(model),
		ThroughputTokensPerSec: simulateThroughput(model),
		ModelSizeMB:            resolveModelSize(model),
		GPUUsagePercent:        c.simulateGPUUsage(),
		ErrorRate:              c.rand.Uniform(0.0, 5.0),
		Status:                 c.determineStatus(model),
	}

	c.mu.Lock()
	c.history = append(c.history, sample)
	c.mu.Unlock()

	c.logger.Debug("collected metrics sample",
		"model", model.Name,
		"status", string(sample.Status),
		"inference_ms", sample.InferenceTimeMS)
	return sample
}

// Recent returns collected samples for a model not older than since.
func (c *Collector) Recent(modelName string, since time.Time) []MetricsSample {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []MetricsSample
	for _, s := range c.history {
		if s.ModelName == modelName && !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out
}

// History returns a snapshot of every sample this collector produced.
func (c *Collector) History() []MetricsSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MetricsSample(nil), c.history...)
}

func (c *Collector) memoryUsage() float64 {
	if mb, ok := c.probe.ProcessMemoryMB(); ok {
		return mb
	}
	c.logger.Debug("memory reading unavailable, using fallback", "fallback_mb", fallbackMemoryMB)
	return fallbackMemoryMB
}

func (c *Collector) cpuUsage() float64 {
	if pct, ok := c.probe.CPUPercent(); ok {
		return pct
	}
	c.logger.Debug("cpu reading unavailable, using fallback", "fallback_pct", fallbackCPUPercent)
	return fallbackCPUPercent
}

// simulateInferenceTime scales the base latency by declared size and
// task complexity. Estimated sizes deliberately do not feed the scaling;
// only a declared size does.
func (c *Collector) simulateInferenceTime(model *registry.Model) float64 {
	base := baseInferenceTimeMS
	if size, ok := model.DeclaredSizeMB(); ok && size > 0 {
		base *= 1 + (size/1000)*0.5
	}
	multiplier := 1.0
	if m, ok := taskLatencyMultipliers[model.TaskType]; ok {
		multiplier = m
	}
	return base * multiplier
}

func simulateThroughput(model *registry.Model) float64 {
	if tps, ok := taskThroughputs[model.TaskType]; ok {
		return tps
	}
	return 100.0
}

// resolveModelSize prefers the declared size and falls back to the
// pattern estimate.
func resolveModelSize(model *registry.Model) float64 {
	if size, ok := model.DeclaredSizeMB(); ok && size > 0 {
		return size
	}
	return estimateModelSize(model.Name)
}

func estimateModelSize(name string) float64 {
	lower := strings.ToLower(name)
	for _, e := range sizeEstimates {
		if strings.Contains(lower, e.pattern) {
			return e.sizeMB
		}
	}
	return defaultSizeEstimateMB
}

// simulateGPUUsage flips a coin for GPU presence, then draws utilization
// in [20, 80). Absent GPUs yield nil.
func (c *Collector) simulateGPUUsage() *float64 {
	if c.rand.Pick(2) != 0 {
		return nil
	}
	v := c.rand.Uniform(20.0, 80.0)
	return &v
}

// determineStatus draws the health status from weighted probabilities.
// Large declared sizes and complex tasks shift weight away from healthy.
// A single unit draw selects via cumulative comparison over the
// renormalized weights, in healthy, warning, degraded order.
func (c *Collector) determineStatus(model *registry.Model) Status {
	statuses := [3]Status{StatusHealthy, StatusWarning, StatusDegraded}
	weights := [3]float64{0.8, 0.15, 0.05}

	if size, ok := model.DeclaredSizeMB(); ok && size > 1000 {
		weights[0] -= 0.10
		weights[1] += 0.08
		weights[2] += 0.02
	}
	if complexTasks[model.TaskType] {
		weights[0] -= 0.05
		weights[1] += 0.04
		weights[2] += 0.01
	}

	total := weights[0] + weights[1] + weights[2]
	draw := c.rand.Uniform(0, 1)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w / total
		if draw <= cumulative {
			return statuses[i]
		}
	}
	return StatusHealthy
}
