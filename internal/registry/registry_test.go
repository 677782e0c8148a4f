package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()

	gpt2 := NewModel("gpt2", "text-generation", "transformers")
	gpt2.SizeMB = floatPtr(548)

	bertLarge := NewModel("bert-large-uncased", "text-classification", "transformers")
	bertLarge.SizeMB = floatPtr(1340)

	sd := NewModel("stable-diffusion-v1", "text-to-image", "diffusers")

	for _, m := range []*Model{gpt2, bertLarge, sd} {
		require.NoError(t, r.Add(m))
	}
	return r
}

func TestAddAndGet(t *testing.T) {
	r := seedRegistry(t)

	m, err := r.Get("gpt2")
	require.NoError(t, err)
	assert.Equal(t, "text-generation", m.TaskType)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRejectsDuplicates(t *testing.T) {
	r := seedRegistry(t)

	dup := NewModel("gpt2", "text-generation", "transformers")
	assert.ErrorIs(t, r.Add(dup), ErrAlreadyExists)

	// Same name under a different task is a distinct ID.
	other := NewModel("gpt2", "summarization", "transformers")
	assert.NoError(t, r.Add(other))
	assert.Equal(t, 4, r.Len())
}

func TestRemove(t *testing.T) {
	r := seedRegistry(t)

	require.NoError(t, r.Remove("stable-diffusion-v1"))
	assert.Equal(t, 2, r.Len())
	assert.ErrorIs(t, r.Remove("stable-diffusion-v1"), ErrNotFound)

	// The diffusers group disappears with its only member.
	groups := r.Groups()
	assert.NotContains(t, groups, "library_diffusers")
	assert.Contains(t, groups, "library_transformers")
}

func TestAllSortedByName(t *testing.T) {
	r := seedRegistry(t)

	names := []string{}
	for _, m := range r.All() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"bert-large-uncased", "gpt2", "stable-diffusion-v1"}, names)
}

func TestFilters(t *testing.T) {
	r := seedRegistry(t)

	byTask := r.ByTask("Text-Generation")
	require.Len(t, byTask, 1)
	assert.Equal(t, "gpt2", byTask[0].Name)

	byLib := r.ByLibrary("transformers")
	assert.Len(t, byLib, 2)

	assert.Empty(t, r.ByTask("object-detection"))
}

func TestSearch(t *testing.T) {
	r := seedRegistry(t)

	tests := []struct {
		query string
		want  int
	}{
		{"bert", 1},
		{"generation", 1},
		{"diffusers", 1},
		{"TRANSFORMERS", 2},
		{"zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Len(t, r.Search(tt.query), tt.want)
		})
	}
}

func TestBulkAdd(t *testing.T) {
	r := seedRegistry(t)

	results := r.BulkAdd([]*Model{
		NewModel("t5-small", "translation", "transformers"),
		NewModel("gpt2", "text-generation", "transformers"),
	})

	assert.NoError(t, results["t5-small"])
	assert.ErrorIs(t, results["gpt2"], ErrAlreadyExists)
}

func TestStats(t *testing.T) {
	r := seedRegistry(t)

	stats := r.Stats()
	assert.Equal(t, 3, stats.TotalModels)
	assert.Equal(t, 1, stats.TaskDistribution["text-generation"])
	assert.Equal(t, 2, stats.LibraryDistribution["transformers"])
	assert.Equal(t, 1888.0, stats.TotalSizeMB)
	assert.InDelta(t, 629.33, stats.AverageSizeMB, 0.01)
	assert.Equal(t, 1, stats.LargeModelCount)
}

func TestStatsEmpty(t *testing.T) {
	stats := NewRegistry().Stats()
	assert.Equal(t, 0, stats.TotalModels)
	assert.Nil(t, stats.TaskDistribution)
}
