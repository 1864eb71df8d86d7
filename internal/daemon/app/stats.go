package app

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// Usage is one accounting sample of a process.
type Usage struct {
	CPUSeconds float64 // user + system processor time since launch
	RSS        uint64
}

// Stats reads per-process accounting from the OS.
type Stats interface {
	Usage(pid int) (Usage, error)
	Title(pid int) (string, error)
	Cores() int
}

// ProcStats implements Stats with gopsutil.
type ProcStats struct {
	cores int
}

// NewProcStats creates a gopsutil-backed Stats.
func NewProcStats() *ProcStats {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return &ProcStats{cores: n}
}

// Usage returns processor time and resident set size of pid.
func (s *ProcStats) Usage(pid int) (Usage, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return Usage{}, err
	}
	times, err := p.Times()
	if err != nil {
		return Usage{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return Usage{}, err
	}
	return Usage{
		CPUSeconds: times.User + times.System,
		RSS:        mem.RSS,
	}, nil
}

// Title returns the display name the OS reports for pid.
func (s *ProcStats) Title(pid int) (string, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return p.Name()
}

// Cores returns the number of logical CPUs.
func (s *ProcStats) Cores() int {
	return s.cores
}
