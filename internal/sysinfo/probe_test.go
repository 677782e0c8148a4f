package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostProbeMemory(t *testing.T) {
	probe := NewHostProbe()

	mb, ok := probe.ProcessMemoryMB()
	require.True(t, ok)
	// A running Go test binary occupies at least a little memory.
	assert.Greater(t, mb, 0.0)
	assert.Less(t, mb, 100000.0)
}

func TestHostProbeCPU(t *testing.T) {
	probe := NewHostProbe()

	pct, ok := probe.CPUPercent()
	require.True(t, ok)
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 100.0)
}

func TestStaticProbe(t *testing.T) {
	probe := &StaticProbe{MemoryMB: 256.5, CPU: 42.0, MemoryOK: true, CPUOK: true}

	mb, ok := probe.ProcessMemoryMB()
	assert.True(t, ok)
	assert.Equal(t, 256.5, mb)

	pct, ok := probe.CPUPercent()
	assert.True(t, ok)
	assert.Equal(t, 42.0, pct)
}

func TestStaticProbeUnavailable(t *testing.T) {
	probe := &StaticProbe{}

	_, ok := probe.ProcessMemoryMB()
	assert.False(t, ok)
	_, ok = probe.CPUPercent()
	assert.False(t, ok)
}
