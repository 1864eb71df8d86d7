// Package supervisor drives every managed app: it runs the one-second
// monitoring loop and exposes the commands used by the API and the tray.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/daemon/app"
	"github.com/neustart-io/neustart/internal/daemon/registry"
	"github.com/neustart-io/neustart/internal/models"
)

// DefaultInterval is the fixed delay between two monitoring cycles.
const DefaultInterval = time.Second

// Observer receives the state published at the end of every cycle.
type Observer interface {
	Observe(apps []models.Snapshot, machine models.MachineStats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(apps []models.Snapshot, machine models.MachineStats)

// Observe calls f.
func (f ObserverFunc) Observe(apps []models.Snapshot, machine models.MachineStats) {
	f(apps, machine)
}

// Options configures a Supervisor.
type Options struct {
	Store    registry.Store
	Registry *registry.Registry
	Settings *models.Settings
	Stats    app.Stats
	Machine  MachineSampler
	Interval time.Duration
	Logger   *zap.Logger
}

// Supervisor owns the registry and every app's lifecycle.
type Supervisor struct {
	store       registry.Store
	reg         *registry.Registry
	stats       app.Stats
	machine     MachineSampler
	interval    time.Duration
	stopTimeout time.Duration
	defaults    models.RestartPolicy
	logger      *zap.Logger

	// mu guards observers, lastMachine, defaults and stopTimeout.
	mu          sync.RWMutex
	observers   []Observer
	lastMachine models.MachineStats

	saveMu sync.Mutex

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a supervisor. Missing options get working defaults.
func New(opts Options) *Supervisor {
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Settings == nil {
		opts.Settings = models.NewSettings()
	}
	if opts.Stats == nil {
		opts.Stats = app.NewProcStats()
	}
	if opts.Machine == nil {
		opts.Machine = NewProcMachine()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Supervisor{
		store:       opts.Store,
		reg:         opts.Registry,
		stats:       opts.Stats,
		machine:     opts.Machine,
		interval:    opts.Interval,
		stopTimeout: opts.Settings.StopTimeout,
		defaults:    opts.Settings.Restart.Policy(),
		logger:      opts.Logger,
	}
}

// Registry returns the registry the supervisor drives.
func (s *Supervisor) Registry() *registry.Registry {
	return s.reg
}

// AddObserver registers o to receive snapshots after every cycle.
func (s *Supervisor) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// ApplySettings replaces the restart defaults and stop timeout given to
// apps added from now on. Existing apps keep their own values.
func (s *Supervisor) ApplySettings(settings *models.Settings) {
	s.mu.Lock()
	s.defaults = settings.Restart.Policy()
	s.stopTimeout = settings.StopTimeout
	s.mu.Unlock()
	s.logger.Info("Settings applied",
		zap.Bool("auto_restart", settings.Restart.AutoRestart),
		zap.Int("delay_seconds", settings.Restart.DelaySeconds),
		zap.Int("max_restarts", settings.Restart.MaxRestarts),
		zap.Duration("stop_timeout", settings.StopTimeout))
}

// Load fills the registry from the store. Records without an ID get a
// generated one, which is persisted right away. Records without restart
// policy fields get the configured defaults.
func (s *Supervisor) Load() error {
	if s.store == nil {
		return nil
	}
	s.mu.RLock()
	defaults := s.defaults
	s.mu.RUnlock()

	defs, err := s.store.Load(defaults)
	if err != nil {
		return err
	}

	assigned := false
	for _, def := range defs {
		if strings.TrimSpace(def.ID) == "" {
			def.ID = uuid.NewString()
			assigned = true
		}
		if err := s.reg.Add(s.newApp(def)); err != nil {
			return fmt.Errorf("failed to load app %s: %w", def.ID, err)
		}
	}
	s.logger.Info("Loaded apps", zap.Int("count", len(defs)))

	if assigned {
		return s.save()
	}
	return nil
}

func (s *Supervisor) newApp(def models.AppDefinition) *app.App {
	s.mu.RLock()
	stopTimeout := s.stopTimeout
	s.mu.RUnlock()
	return app.New(def, app.Options{
		Stats:       s.stats,
		StopTimeout: stopTimeout,
		Logger:      s.logger.Named("app"),
	})
}

// Run executes monitoring cycles until ctx is cancelled or Shutdown is
// called. A cycle in progress always completes.
func (s *Supervisor) Run(ctx context.Context) error {
	s.runMu.Lock()
	if s.done != nil {
		s.runMu.Unlock()
		return errors.New("supervisor is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.runMu.Unlock()

	defer func() {
		cancel()
		s.runMu.Lock()
		s.cancel, s.done = nil, nil
		s.runMu.Unlock()
		close(done)
	}()

	s.logger.Info("Supervisor started", zap.Duration("interval", s.interval))

	for {
		if ctx.Err() != nil {
			s.logger.Info("Supervisor stopped")
			return nil
		}

		s.cycle(ctx, time.Now())

		select {
		case <-ctx.Done():
			s.logger.Info("Supervisor stopped")
			return nil
		case <-time.After(s.interval):
		}
	}
}

// cycle polls every app once, samples the machine, then notifies observers.
func (s *Supervisor) cycle(ctx context.Context, now time.Time) {
	ctx = context.WithoutCancel(ctx)

	apps := s.reg.List()
	for _, a := range apps {
		a.RefreshTitle()
		if !a.Enabled() {
			continue
		}
		switch a.Phase() {
		case models.PhaseRunning:
			a.Poll(now)
		case models.PhaseCrashed, models.PhaseRestarting:
			a.Restart(ctx, now)
		}
	}

	machine := s.machine.Sample(now)

	s.mu.Lock()
	s.lastMachine = machine
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	if len(observers) == 0 {
		return
	}
	snaps := snapshotAll(apps, now)
	for _, o := range observers {
		o.Observe(snaps, machine)
	}
}

// Shutdown stops the loop, waits for it (bounded by ctx), then closes
// every live process.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.runMu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("supervisor loop did not stop: %w", ctx.Err())
		}
	}

	for _, a := range s.reg.List() {
		a.Close(ctx)
	}
	s.logger.Info("Closed all apps", zap.Int("count", s.reg.Len()))
	return err
}

// save writes the current definitions to the store.
func (s *Supervisor) save() error {
	if s.store == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.store.Save(s.reg.Definitions()); err != nil {
		s.logger.Error("Failed to save apps", zap.Error(err))
		return fmt.Errorf("failed to save apps: %w", err)
	}
	return nil
}

func snapshotAll(apps []*app.App, now time.Time) []models.Snapshot {
	snaps := make([]models.Snapshot, 0, len(apps))
	for _, a := range apps {
		snaps = append(snaps, a.Snapshot(now))
	}
	return snaps
}
