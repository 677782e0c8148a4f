package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub-monitor/internal/config"
	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/randsrc"
	"modelhub-monitor/internal/registry"
	"modelhub-monitor/internal/sysinfo"
)

// newTestConsole wires a console over one registered model with scripted
// input. The random sequence keeps collected samples healthy.
func newTestConsole(t *testing.T, input string) (*Console, *bytes.Buffer) {
	t.Helper()

	catalog := registry.NewRegistry()
	model := registry.NewModel("bert-base-uncased", "text-classification", "transformers")
	size := 440.0
	downloads := int64(1200)
	model.SizeMB = &size
	model.Downloads = &downloads
	require.NoError(t, catalog.Add(model))

	probe := &sysinfo.StaticProbe{MemoryMB: 512, MemoryOK: true, CPU: 25, CPUOK: true}
	collector := monitoring.NewCollector(probe, randsrc.NewSequence([]float64{0.5}, []int{1}), logging.NewNoOpLogger())
	tracker := monitoring.NewTracker(logging.NewNoOpLogger())

	c := New(catalog, collector, tracker, config.DefaultConfig(), logging.NewNoOpLogger())

	out := &bytes.Buffer{}
	c.input = strings.NewReader(input)
	c.output = out
	return c, out
}

func TestRunExit(t *testing.T) {
	c, out := newTestConsole(t, "0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "MODEL HUB MONITOR")
	assert.Contains(t, out.String(), "1. View Models")
	assert.Contains(t, out.String(), "0. Exit")
	assert.Contains(t, out.String(), "Select an option (0 to exit):")
	assert.Contains(t, out.String(), "Thank you for using Model Hub Monitor!")
}

func TestRunInvalidOption(t *testing.T) {
	c, out := newTestConsole(t, "9\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Invalid option. Please try again.")
}

func TestRunEndOfInput(t *testing.T) {
	c, _ := newTestConsole(t, "")
	require.NoError(t, c.Run(context.Background()))
}

func TestRunCancelledContext(t *testing.T) {
	c, out := newTestConsole(t, "1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx))
	assert.Empty(t, out.String())
}

func TestViewModels(t *testing.T) {
	c, out := newTestConsole(t, "1\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "--- Model List ---")
	assert.Contains(t, out.String(), "bert-base-uncased")
	assert.Contains(t, out.String(), "440.0 MB")
	assert.Contains(t, out.String(), "1200")
	assert.Contains(t, out.String(), "untracked")
	assert.Contains(t, out.String(), "Total: 1 models")
	assert.Contains(t, out.String(), "Press Enter to continue...")
}

func TestAddModel(t *testing.T) {
	c, out := newTestConsole(t, "2\ngpt2-medium\ntext-generation\ntransformers\n355\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "--- Add New Model ---")
	assert.Contains(t, out.String(), "Added model: gpt2-medium")

	added, err := c.catalog.Get("gpt2-medium")
	require.NoError(t, err)
	assert.Equal(t, "text-generation", added.TaskType)
	size, ok := added.DeclaredSizeMB()
	require.True(t, ok)
	assert.Equal(t, 355.0, size)
}

func TestAddModelRequiresName(t *testing.T) {
	c, out := newTestConsole(t, "2\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Error: model name is required")
	assert.Equal(t, 1, c.catalog.Len())
}

func TestAddModelDuplicate(t *testing.T) {
	c, out := newTestConsole(t, "2\nbert-base-uncased\ntext-classification\ntransformers\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "model already exists")
	assert.Equal(t, 1, c.catalog.Len())
}

func TestRemoveModel(t *testing.T) {
	c, out := newTestConsole(t, "3\nbert-base-uncased\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Removed model: bert-base-uncased")
	assert.Equal(t, 0, c.catalog.Len())
}

func TestRemoveModelNotFound(t *testing.T) {
	c, out := newTestConsole(t, "3\nghost\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "model not found")
	assert.Equal(t, 1, c.catalog.Len())
}

func TestGenerateReportCollectsWhenEmpty(t *testing.T) {
	c, out := newTestConsole(t, "4\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "No samples yet, collecting one round first...")
	assert.Contains(t, out.String(), "=== Performance Report ===")
	assert.Contains(t, out.String(), "Model: bert-base-uncased")
	assert.Contains(t, out.String(), "=== System Overview ===")
	assert.Equal(t, []string{"bert-base-uncased"}, c.tracker.Models())
}

func TestViewPerformance(t *testing.T) {
	c, out := newTestConsole(t, "5\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "--- Performance Metrics ---")
	assert.Contains(t, out.String(), "bert-base-uncased")
	assert.Contains(t, out.String(), "healthy")
	assert.Contains(t, out.String(), "512.0 MB")
	assert.Contains(t, out.String(), "25.0%")
	assert.Len(t, c.tracker.History("bert-base-uncased"), 1)
}

func TestSettingsView(t *testing.T) {
	c, out := newTestConsole(t, "6\n\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "--- Settings ---")
	assert.Contains(t, out.String(), "monitor.interval_seconds")
	assert.Contains(t, out.String(), "5.0m")
	assert.Contains(t, out.String(), "ui.theme")
	assert.Contains(t, out.String(), "dark")
}

func TestSettingsUpdateInterval(t *testing.T) {
	c, out := newTestConsole(t, "6\nmonitor.interval_seconds=60\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "Settings updated")
	assert.Equal(t, 60, c.cfg.Monitor.IntervalSeconds)
}

func TestSettingsUpdateThresholdReachesTracker(t *testing.T) {
	c, _ := newTestConsole(t, "6\nmonitor.thresholds.max_memory_mb=4096\n\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 4096.0, c.cfg.Monitor.Thresholds.MaxMemoryMB)
	assert.Equal(t, 4096.0, c.tracker.Thresholds().MaxMemoryMB)
}

func TestSettingsUpdateBadPath(t *testing.T) {
	c, out := newTestConsole(t, "6\ntheme=light\n0\n")

	require.NoError(t, c.Run(context.Background()))

	assert.Contains(t, out.String(), "setting path must name a section")
}

func TestSettingUpdateParsing(t *testing.T) {
	t.Run("two segments", func(t *testing.T) {
		got, err := settingUpdate("monitor.interval_seconds=60")
		require.NoError(t, err)
		want := map[string]interface{}{
			"monitor": map[string]interface{}{"interval_seconds": "60"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("three segments", func(t *testing.T) {
		got, err := settingUpdate("monitor.thresholds.max_memory_mb=4096")
		require.NoError(t, err)
		want := map[string]interface{}{
			"monitor": map[string]interface{}{
				"thresholds": map[string]interface{}{"max_memory_mb": "4096"},
			},
		}
		assert.Equal(t, want, got)
	})

	t.Run("missing equals", func(t *testing.T) {
		_, err := settingUpdate("monitor.interval_seconds")
		assert.Error(t, err)
	})

	t.Run("single segment", func(t *testing.T) {
		_, err := settingUpdate("theme=dark")
		assert.Error(t, err)
	})

	t.Run("empty segment", func(t *testing.T) {
		_, err := settingUpdate("monitor..interval=60")
		assert.Error(t, err)
	})
}
