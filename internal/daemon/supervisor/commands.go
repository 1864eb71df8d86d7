package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/daemon/app"
	"github.com/neustart-io/neustart/internal/models"
)

// ErrInvalidDefinition is returned when a definition fails validation.
var ErrInvalidDefinition = errors.New("invalid app definition")

func validate(def models.AppDefinition) error {
	if strings.TrimSpace(def.ExecutablePath) == "" {
		return fmt.Errorf("%w: executable path is required", ErrInvalidDefinition)
	}
	if def.DelaySeconds < 0 {
		return fmt.Errorf("%w: restart delay must not be negative", ErrInvalidDefinition)
	}
	if def.MaxRestarts < 0 {
		return fmt.Errorf("%w: max restarts must not be negative", ErrInvalidDefinition)
	}
	return nil
}

// NewDefinition returns an enabled definition for executable carrying the
// configured default restart policy.
func (s *Supervisor) NewDefinition(executable string) models.AppDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.AppDefinition{
		ExecutablePath: executable,
		Enabled:        true,
		RestartPolicy:  s.defaults,
	}
}

// AddApp registers a new app, persists it and starts it when enabled.
// A launch failure is recorded in the app's state, not returned.
func (s *Supervisor) AddApp(ctx context.Context, def models.AppDefinition) (models.Snapshot, error) {
	if err := validate(def); err != nil {
		return models.Snapshot{}, err
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	a := s.newApp(def)
	if err := s.reg.Add(a); err != nil {
		return models.Snapshot{}, err
	}
	s.logger.Info("Added app", zap.String("app", def.ID), zap.String("executable", def.ExecutablePath))

	saveErr := s.save()

	if def.Enabled {
		if err := a.Start(ctx); err != nil {
			s.logger.Warn("Added app did not start", zap.String("app", def.ID), zap.Error(err))
		}
	}
	return a.Snapshot(time.Now()), saveErr
}

// UpdateApp replaces an app's launch configuration and restart policy.
// Changes apply at the next launch.
func (s *Supervisor) UpdateApp(id string, def models.AppDefinition) (models.Snapshot, error) {
	if err := validate(def); err != nil {
		return models.Snapshot{}, err
	}
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	a.Update(def)
	return a.Snapshot(time.Now()), s.save()
}

// RenameApp changes an app's ID.
func (s *Supervisor) RenameApp(oldID, newID string) (models.Snapshot, error) {
	if err := s.reg.Rename(oldID, newID); err != nil {
		return models.Snapshot{}, err
	}
	a, err := s.reg.Get(newID)
	if err != nil {
		return models.Snapshot{}, err
	}
	s.logger.Info("Renamed app", zap.String("from", oldID), zap.String("to", newID))
	return a.Snapshot(time.Now()), s.save()
}

// RemoveApp drops an app and terminates its process. The app leaves the
// registry before the process is signalled.
func (s *Supervisor) RemoveApp(ctx context.Context, id string) error {
	a, err := s.reg.Remove(id)
	if err != nil {
		return err
	}
	a.Retire(ctx)
	s.logger.Info("Removed app", zap.String("app", id))
	return s.save()
}

// StartApp enables an app and launches it.
func (s *Supervisor) StartApp(ctx context.Context, id string) (models.Snapshot, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	a.SetEnabled(true)
	startErr := a.Start(ctx)
	saveErr := s.save()

	snap := a.Snapshot(time.Now())
	if startErr != nil {
		return snap, startErr
	}
	return snap, saveErr
}

// StopApp terminates an app's process and disables it.
func (s *Supervisor) StopApp(ctx context.Context, id string) (models.Snapshot, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	a.Stop(ctx)
	return a.Snapshot(time.Now()), s.save()
}

// ToggleEnabled flips Enabled and starts or stops the process to match.
func (s *Supervisor) ToggleEnabled(ctx context.Context, id string) (models.Snapshot, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}

	if a.Enabled() {
		a.Stop(ctx)
	} else {
		a.SetEnabled(true)
		if err := a.Start(ctx); err != nil && !errors.Is(err, app.ErrAlreadyRunning) {
			s.logger.Warn("Enabled app did not start", zap.String("app", id), zap.Error(err))
		}
	}
	return a.Snapshot(time.Now()), s.save()
}

// ToggleHidden flips Hidden. It applies at the next launch.
func (s *Supervisor) ToggleHidden(id string) (models.Snapshot, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	a.SetHidden(!a.Definition().Hidden)
	return a.Snapshot(time.Now()), s.save()
}

// StartEnabled launches every enabled app that has no live process.
// It returns the number of apps started.
func (s *Supervisor) StartEnabled(ctx context.Context) int {
	started := 0
	for _, a := range s.reg.List() {
		if !a.Enabled() || a.Phase() == models.PhaseRunning {
			continue
		}
		if err := a.Start(ctx); err != nil {
			s.logger.Warn("Failed to start enabled app", zap.String("app", a.ID()), zap.Error(err))
			continue
		}
		started++
	}
	s.logger.Info("Started enabled apps", zap.Int("count", started))
	return started
}

// Snapshots returns the state of every app in registry order.
func (s *Supervisor) Snapshots() []models.Snapshot {
	return snapshotAll(s.reg.List(), time.Now())
}

// Snapshot returns the state of one app.
func (s *Supervisor) Snapshot(id string) (models.Snapshot, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.Snapshot{}, err
	}
	return a.Snapshot(time.Now()), nil
}

// Definition returns the persisted configuration of one app.
func (s *Supervisor) Definition(id string) (models.AppDefinition, error) {
	a, err := s.reg.Get(id)
	if err != nil {
		return models.AppDefinition{}, err
	}
	return a.Definition(), nil
}

// Machine returns the figures of the last cycle.
func (s *Supervisor) Machine() models.MachineStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMachine
}
