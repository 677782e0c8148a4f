package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/registry"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	ss, err := NewSessionStore(t.TempDir(), logging.NewNoOpLogger())
	require.NoError(t, err)
	return ss
}

func TestSessionStore_ModelsRoundTrip(t *testing.T) {
	ss := newTestSessionStore(t)

	size := 548.0
	m := registry.NewModel("gpt2", "text-generation", "transformers")
	m.SizeMB = &size

	require.NoError(t, ss.SaveModels([]*registry.Model{m}))

	rows, err := ss.LoadModels()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gpt2", rows[0]["name"])
	assert.Equal(t, "548.0 MB", rows[0]["size"])
}

func TestSessionStore_LoadModelsMissingFile(t *testing.T) {
	ss := newTestSessionStore(t)

	rows, err := ss.LoadModels()
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSessionStore_SessionRoundTrip(t *testing.T) {
	ss := newTestSessionStore(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return fixed }

	state := map[string]interface{}{"last_menu": "monitor", "runs": 3.0}
	require.NoError(t, ss.SaveSession(state))

	// The envelope carries the save timestamp.
	raw, err := os.ReadFile(filepath.Join(ss.Files().Dir(), "session.json"))
	require.NoError(t, err)
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, "2025-06-01T12:00:00Z", envelope["timestamp"])

	loaded, err := ss.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestSessionStore_LoadSessionMissingFile(t *testing.T) {
	ss := newTestSessionStore(t)

	state, err := ss.LoadSession()
	require.NoError(t, err)
	assert.NotNil(t, state)
	assert.Empty(t, state)
}

func TestSessionStore_Stats(t *testing.T) {
	ss := newTestSessionStore(t)

	empty, err := ss.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.FileCount)
	assert.Equal(t, int64(0), empty.TotalSizeBytes)

	require.NoError(t, ss.SaveSession(map[string]interface{}{"k": "v"}))
	m := registry.NewModel("bert-base-uncased", "fill-mask", "transformers")
	require.NoError(t, ss.SaveModels([]*registry.Model{m}))

	stats, err := ss.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Equal(t, ss.Files().Dir(), stats.Path)

	// Subdirectories are not counted.
	require.NoError(t, os.Mkdir(filepath.Join(ss.Files().Dir(), "sub"), 0o750))
	again, err := ss.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, again.FileCount)
}
