package supervisor

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/neustart-io/neustart/internal/models"
)

// MachineSampler produces the machine-wide figures of one cycle.
type MachineSampler interface {
	Sample(now time.Time) models.MachineStats
}

// ProcMachine sums privileged processor time over the OS process table.
type ProcMachine struct{}

// NewProcMachine creates a gopsutil-backed MachineSampler.
func NewProcMachine() *ProcMachine {
	return &ProcMachine{}
}

// Sample scans every process. Processes that vanish or deny access are
// skipped; a failed scan yields zero.
func (m *ProcMachine) Sample(now time.Time) models.MachineStats {
	stats := models.MachineStats{SampledAt: now}

	procs, err := process.Processes()
	if err != nil {
		return stats
	}
	stats.Processes = len(procs)

	for _, p := range procs {
		times, err := p.Times()
		if err != nil {
			continue
		}
		stats.PrivilegedCPUMillis += times.System * 1000
	}
	return stats
}
