// Package models contains shared data structures used across the application.
package models

import "time"

// Phase is the lifecycle phase of a supervised app.
type Phase string

// Lifecycle phases.
const (
	PhaseStopped    Phase = "stopped"
	PhaseRunning    Phase = "running"
	PhaseClosed     Phase = "closed"
	PhaseCrashed    Phase = "crashed"
	PhaseRestarting Phase = "restarting"
)

// RestartPolicy controls automatic relaunch of a crashed app.
// Fields are inlined into the app record in Apps.json.
type RestartPolicy struct {
	AutoRestart  bool `json:"AutoRestart"`
	DelaySeconds int  `json:"RestartDelaySeconds"`
	MaxRestarts  int  `json:"MaxRestarts"` // 0 = unlimited
}

// Delay returns the initial restart delay.
func (p RestartPolicy) Delay() time.Duration {
	if p.DelaySeconds <= 0 {
		return 0
	}
	return time.Duration(p.DelaySeconds) * time.Second
}

// AppDefinition is the persisted configuration of one managed app.
// This corresponds to one record of Apps.json.
type AppDefinition struct {
	ID               string   `json:"ID"`
	ExecutablePath   string   `json:"ExecutablePath"`
	Arguments        []string `json:"Arguments"`
	WorkingDirectory string   `json:"WorkingDirectory"`
	Enabled          bool     `json:"Enabled"`
	Hidden           bool     `json:"Hidden"`
	RestartPolicy
}

// Clone returns a deep copy of the definition.
func (d AppDefinition) Clone() AppDefinition {
	c := d
	if d.Arguments != nil {
		c.Arguments = make([]string, len(d.Arguments))
		copy(c.Arguments, d.Arguments)
	}
	return c
}

// Snapshot is a read-only view of an app's definition and runtime state,
// handed to the tray, the control API and the metrics exporter.
type Snapshot struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Phase          Phase         `json:"phase"`
	PID            int           `json:"pid,omitempty"`
	Enabled        bool          `json:"enabled"`
	Hidden         bool          `json:"hidden"`
	StartedAt      *time.Time    `json:"started_at,omitempty"`
	Uptime         time.Duration `json:"uptime"`
	CPUPercent     float64       `json:"cpu_percent"`
	RAMBytes       uint64        `json:"ram_bytes"`
	Restarts       int           `json:"restarts"`
	NextRestartAt  *time.Time    `json:"next_restart_at,omitempty"`
	LastError      string        `json:"last_error,omitempty"`
	ExecutablePath string        `json:"executable_path"`
}

// MachineStats is the machine-wide telemetry sampled once per cycle.
type MachineStats struct {
	PrivilegedCPUMillis float64   `json:"privileged_cpu_ms"`
	Processes           int       `json:"processes"`
	SampledAt           time.Time `json:"sampled_at"`
}
