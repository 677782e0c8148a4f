// Package sysinfo reads process and host metrics for the collector.
// Probe results carry an availability flag instead of an error so callers
// can substitute defaults without error plumbing.
package sysinfo

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/process"
)

// Probe exposes the host readings the collector samples. The boolean is
// false when the reading is unavailable on this host.
type Probe interface {
	ProcessMemoryMB() (float64, bool)
	CPUPercent() (float64, bool)
}

// HostProbe reads real values from the running process and host.
type HostProbe struct {
	pid      int32
	interval time.Duration
}

// NewHostProbe creates a probe bound to the current process.
func NewHostProbe() *HostProbe {
	return &HostProbe{pid: int32(os.Getpid()), interval: 100 * time.Millisecond}
}

// ProcessMemoryMB returns the resident set size of this process in MB.
func (p *HostProbe) ProcessMemoryMB() (float64, bool) {
	proc, err := process.NewProcess(p.pid)
	if err != nil {
		return 0, false
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0, false
	}
	return float64(info.RSS) / 1024 / 1024, true
}

// CPUPercent returns host CPU utilization sampled over a short interval.
func (p *HostProbe) CPUPercent() (float64, bool) {
	percents, err := cpu.Percent(p.interval, false)
	if err != nil || len(percents) == 0 {
		return 0, false
	}
	return percents[0], true
}

// StaticProbe returns canned readings. Tests use it to pin collector
// output or to simulate an unreadable host.
type StaticProbe struct {
	MemoryMB float64
	CPU      float64
	MemoryOK bool
	CPUOK    bool
}

func (s *StaticProbe) ProcessMemoryMB() (float64, bool) { return s.MemoryMB, s.MemoryOK }
func (s *StaticProbe) CPUPercent() (float64, bool)      { return s.CPU, s.CPUOK }
