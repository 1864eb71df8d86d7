// Package app implements the lifecycle of a single supervised process.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/models"
)

// ErrAlreadyRunning is returned by Start when the app has a live process.
var ErrAlreadyRunning = errors.New("app is already running")

// DefaultStopTimeout is how long Stop waits for a graceful exit.
const DefaultStopTimeout = 5 * time.Second

// Options configures an App.
type Options struct {
	Stats       Stats
	StopTimeout time.Duration
	Logger      *zap.Logger
}

// App is one managed entry: its persisted definition plus runtime state.
// All methods are safe for concurrent use.
type App struct {
	mu sync.Mutex

	def         models.AppDefinition
	stats       Stats
	stopTimeout time.Duration
	logger      *zap.Logger

	phase     models.Phase
	proc      *handle
	startedAt time.Time
	title     string
	lastErr   string
	retired   bool

	cpuPercent float64
	ramBytes   uint64
	lastCPU    float64
	lastSample time.Time

	restart *restartTracker
}

// New creates an app in the Stopped phase.
func New(def models.AppDefinition, opts Options) *App {
	if opts.Stats == nil {
		opts.Stats = NewProcStats()
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &App{
		def:         def.Clone(),
		stats:       opts.Stats,
		stopTimeout: opts.StopTimeout,
		logger:      opts.Logger,
		phase:       models.PhaseStopped,
		restart:     newRestartTracker(),
	}
}

// ID returns the app's identifier.
func (a *App) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.def.ID
}

// Definition returns a copy of the persisted configuration.
func (a *App) Definition() models.AppDefinition {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.def.Clone()
}

// Phase returns the current lifecycle phase.
func (a *App) Phase() models.Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

// Enabled reports whether the app should be kept alive.
func (a *App) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.def.Enabled
}

// SetID changes the identifier. Only the registry calls this, while it
// holds its own lock.
func (a *App) SetID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.def.ID = id
}

// SetEnabled changes the Enabled flag without touching the process.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.def.Enabled = enabled
}

// SetHidden changes the Hidden flag. It takes effect at the next launch.
func (a *App) SetHidden(hidden bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.def.Hidden = hidden
}

// Update replaces the launch configuration and restart policy. ID and
// Enabled are kept. A running process is not restarted.
func (a *App) Update(def models.AppDefinition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := def.Clone()
	next.ID = a.def.ID
	next.Enabled = a.def.Enabled
	a.def = next
}

// Start launches the process.
func (a *App) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.phase == models.PhaseRunning {
		return ErrAlreadyRunning
	}
	a.restart.reset()
	return a.startLocked(time.Now(), false)
}

func (a *App) startLocked(now time.Time, auto bool) error {
	h, err := spawn(a.def)
	if err != nil {
		a.lastErr = err.Error()
		if !auto {
			a.phase = models.PhaseStopped
		}
		a.logger.Warn("Failed to start app", zap.String("app", a.def.ID), zap.Error(err))
		return err
	}

	a.proc = h
	a.phase = models.PhaseRunning
	a.startedAt = now
	a.lastErr = ""
	a.cpuPercent = 0
	a.ramBytes = 0
	// A fresh process has consumed no processor time yet.
	a.lastCPU = 0
	a.lastSample = now

	a.logger.Info("Started app",
		zap.String("app", a.def.ID),
		zap.Int("pid", h.pid),
		zap.String("executable", a.def.ExecutablePath))
	return nil
}

// Poll observes the process of an enabled, running app: it classifies an
// exit or samples CPU and memory.
func (a *App) Poll(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.retired || !a.def.Enabled || a.phase != models.PhaseRunning || a.proc == nil {
		return
	}

	if a.proc.exited() {
		a.onExitLocked(now)
		return
	}

	usage, err := a.stats.Usage(a.proc.pid)
	if err != nil {
		a.logger.Debug("Stats query failed", zap.String("app", a.def.ID), zap.Error(err))
		return
	}

	if wall := now.Sub(a.lastSample).Seconds(); wall > 0 {
		cores := a.stats.Cores()
		if cores < 1 {
			cores = 1
		}
		pct := (usage.CPUSeconds - a.lastCPU) / wall / float64(cores) * 100
		if pct < 0 {
			pct = 0
		}
		a.cpuPercent = pct
	}
	a.lastCPU = usage.CPUSeconds
	a.lastSample = now
	a.ramBytes = usage.RSS
}

// onExitLocked classifies an exit seen by Poll. Stop and Close reap the
// process and clear proc under the lock, so any exit seen here is a crash.
func (a *App) onExitLocked(now time.Time) {
	uptime := now.Sub(a.startedAt)
	exitErr := a.proc.exitErr
	a.proc = nil
	a.clearMetricsLocked()

	a.phase = models.PhaseCrashed
	if exitErr != nil {
		a.lastErr = exitErr.Error()
	} else {
		a.lastErr = "exited unexpectedly"
	}
	a.restart.onCrash(now, uptime, a.def.RestartPolicy)
	a.logger.Warn("App crashed",
		zap.String("app", a.def.ID),
		zap.Duration("uptime", uptime),
		zap.String("reason", a.lastErr))
}

// Restart drives the automatic relaunch of a crashed app.
func (a *App) Restart(ctx context.Context, now time.Time) {
	if ctx.Err() != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.retired || !a.def.Enabled {
		return
	}
	if a.phase != models.PhaseCrashed && a.phase != models.PhaseRestarting {
		return
	}
	if !a.def.AutoRestart || a.restart.exhausted {
		a.phase = models.PhaseCrashed
		return
	}

	if a.phase == models.PhaseCrashed {
		a.phase = models.PhaseRestarting
		a.logger.Info("Scheduling restart",
			zap.String("app", a.def.ID),
			zap.Time("at", a.restart.nextAt))
	}
	if !a.restart.due(now) {
		return
	}

	if err := a.startLocked(now, true); err != nil {
		a.restart.onSpawnFailure(now, a.def.RestartPolicy)
		if a.restart.exhausted {
			a.phase = models.PhaseCrashed
			a.logger.Error("Giving up on app",
				zap.String("app", a.def.ID),
				zap.Int("failures", a.restart.failures))
		}
		return
	}
	a.restart.onRestarted()
}

// Stop terminates the process and disables the app.
func (a *App) Stop(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.def.Enabled = false
	if a.proc != nil {
		if a.proc.terminate(ctx, a.stopTimeout) {
			a.logger.Warn("App did not exit in time, killed", zap.String("app", a.def.ID))
		}
		a.proc = nil
		a.logger.Info("Stopped app", zap.String("app", a.def.ID))
	}
	a.phase = models.PhaseStopped
	a.clearMetricsLocked()
	a.restart.reset()
}

// Close terminates any live process without touching Enabled.
func (a *App) Close(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closeLocked(ctx)
}

func (a *App) closeLocked(ctx context.Context) {
	if a.proc == nil {
		return
	}
	a.proc.terminate(ctx, a.stopTimeout)
	a.proc = nil
	a.phase = models.PhaseClosed
	a.clearMetricsLocked()
	a.logger.Info("Closed app", zap.String("app", a.def.ID))
}

// Retire closes the process and marks the app as removed, so a caller
// holding a stale reference can no longer drive it.
func (a *App) Retire(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.def.Enabled = false
	a.closeLocked(ctx)
	a.retired = true
}

// RefreshTitle re-reads the process name from the OS.
func (a *App) RefreshTitle() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.proc == nil || a.proc.exited() {
		return
	}
	title, err := a.stats.Title(a.proc.pid)
	if err != nil {
		return
	}
	a.title = title
}

// Snapshot returns a copy of the app's state at now.
func (a *App) Snapshot(now time.Time) models.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := models.Snapshot{
		ID:             a.def.ID,
		Title:          a.title,
		Phase:          a.phase,
		Enabled:        a.def.Enabled,
		Hidden:         a.def.Hidden,
		CPUPercent:     a.cpuPercent,
		RAMBytes:       a.ramBytes,
		Restarts:       a.restart.restarts,
		LastError:      a.lastErr,
		ExecutablePath: a.def.ExecutablePath,
	}
	if a.proc != nil {
		s.PID = a.proc.pid
	}
	if a.phase == models.PhaseRunning {
		started := a.startedAt
		s.StartedAt = &started
		s.Uptime = now.Sub(a.startedAt)
	}
	if a.phase == models.PhaseRestarting && !a.restart.nextAt.IsZero() {
		next := a.restart.nextAt
		s.NextRestartAt = &next
	}
	return s
}

func (a *App) clearMetricsLocked() {
	a.cpuPercent = 0
	a.ramBytes = 0
	a.lastCPU = 0
	a.lastSample = time.Time{}
}
