package hubcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/registry"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), logging.NewNoOpLogger())
	require.NoError(t, err)
	return c
}

func TestCache_ModelStatus(t *testing.T) {
	c := newTestCache(t)

	tests := []struct {
		name  string
		setup func(t *testing.T)
		model string
		want  string
	}{
		{
			name:  "common model not cached",
			model: "gpt2",
			want:  StatusAvailableOnline,
		},
		{
			name:  "unknown model",
			model: "my-org/private-model",
			want:  StatusNotFound,
		},
		{
			name: "fetched model",
			setup: func(t *testing.T) {
				require.NoError(t, c.Fetch(registry.NewModel("gpt2", "text-generation", "transformers")))
			},
			model: "gpt2",
			want:  StatusDownloaded,
		},
		{
			name: "partial cache entry",
			setup: func(t *testing.T) {
				dir := filepath.Join(c.Dir(), "broken-model")
				require.NoError(t, os.MkdirAll(dir, 0o750))
				require.NoError(t, os.WriteFile(filepath.Join(dir, "model_metadata.json"), []byte("{}"), 0o600))
			},
			model: "broken-model",
			want:  StatusIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(t)
			}
			assert.Equal(t, tt.want, c.ModelStatus(tt.model))
		})
	}
}

func TestCache_FetchWritesEntry(t *testing.T) {
	c := newTestCache(t)
	c.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	size := 548.0
	m := registry.NewModel("gpt2", "text-generation", "transformers")
	m.SizeMB = &size

	require.NoError(t, c.Fetch(m))

	entry := filepath.Join(c.Dir(), "gpt2")
	for _, f := range []string{"model_metadata.json", "config.json", "pytorch_model.bin"} {
		_, err := os.Stat(filepath.Join(entry, f))
		require.NoError(t, err, f)
	}

	metadata, err := c.Metadata("gpt2")
	require.NoError(t, err)
	assert.Equal(t, "gpt2", metadata.Name)
	assert.Equal(t, "text-generation", metadata.TaskType)
	assert.Equal(t, "transformers", metadata.Library)
	assert.Equal(t, "2025-06-01T12:00:00Z", metadata.DownloadTime)
	assert.Equal(t, 548.0, metadata.SizeMB)
	assert.Equal(t, StatusDownloaded, metadata.Status)
}

func TestCache_FetchDefaultsSize(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Fetch(registry.NewModel("xlnet-base-cased", "text-classification", "transformers")))

	metadata, err := c.Metadata("xlnet-base-cased")
	require.NoError(t, err)
	assert.Equal(t, 150.0, metadata.SizeMB)
}

func TestCache_FetchFlattensSlashes(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Fetch(registry.NewModel("my-org/custom-bert", "fill-mask", "transformers")))

	_, err := os.Stat(filepath.Join(c.Dir(), "my-org_custom-bert"))
	require.NoError(t, err)
	assert.Equal(t, StatusDownloaded, c.ModelStatus("my-org/custom-bert"))
}

func TestCache_Progress(t *testing.T) {
	c := newTestCache(t)

	before := c.Progress("gpt2")
	assert.Equal(t, Progress{Model: "gpt2", Status: DownloadNotStarted, Progress: 0}, before)

	require.NoError(t, c.Fetch(registry.NewModel("gpt2", "text-generation", "transformers")))

	after := c.Progress("gpt2")
	assert.Equal(t, Progress{Model: "gpt2", Status: DownloadCompleted, Progress: 100}, after)
}

func TestCache_MetadataMissing(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Metadata("gpt2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading cache metadata")
}
