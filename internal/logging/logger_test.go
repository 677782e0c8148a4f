package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"fatal", LevelFatal},
		{"  info  ", LevelInfo},
		{"nonsense", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLoggerWritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelDebug, &buf)

	logger.WithComponent("tracker").Info("model tracked", "model", "gpt2", "samples", 3)

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "model tracked", entry.Message)
	assert.Equal(t, "tracker", entry.Component)
	assert.Equal(t, "gpt2", entry.Fields["model"])
	assert.Equal(t, float64(3), entry.Fields["samples"])
	assert.NotEmpty(t, entry.Timestamp)
	assert.Contains(t, entry.Caller, "logger_test.go")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelWarn, &buf)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "kept")
	assert.Contains(t, lines[1], "also kept")
}

func TestLoggerTraceIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(LevelDebug, &buf)

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "collecting")

	var entry Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry.TraceID)
}

func TestContextTraceIDGeneration(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "")
	id := TraceIDFromContext(ctx)
	require.NotEmpty(t, id)

	// Generated IDs are UUIDs.
	assert.Len(t, strings.Split(id, "-"), 5)

	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestFieldMapOddArguments(t *testing.T) {
	m := fieldMap([]interface{}{"key", "value", "dangling"})
	assert.Equal(t, "value", m["key"])
	assert.Equal(t, "dangling", m["field_2"])

	assert.Nil(t, fieldMap(nil))
}

func TestWithTraceIDScoping(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(LevelInfo, &buf)

	scoped := base.WithTraceID("abc")
	scoped.Info("scoped entry")
	base.Info("base entry")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"trace_id":"abc"`)
	assert.NotContains(t, lines[1], "trace_id")
}
