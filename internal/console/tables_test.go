package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub-monitor/internal/registry"
)

func TestRenderModelTableEmpty(t *testing.T) {
	out := &bytes.Buffer{}

	require.NoError(t, RenderModelTable(out, nil, nil))

	assert.Equal(t, "No models registered.\n", out.String())
}

func TestRenderModelTableNilTracker(t *testing.T) {
	out := &bytes.Buffer{}
	model := registry.NewModel("gpt2", "text-generation", "transformers")

	require.NoError(t, RenderModelTable(out, []*registry.Model{model}, nil))

	assert.Contains(t, out.String(), "gpt2")
	assert.Contains(t, out.String(), "untracked")
	assert.Contains(t, out.String(), "Total: 1 models")
}
