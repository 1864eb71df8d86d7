// Package tui implements `neustart top`, a live dashboard of managed apps.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/neustart-io/neustart/internal/models"
)

// API is the subset of the control API client the dashboard uses.
type API interface {
	ListApps(ctx context.Context) ([]models.Snapshot, error)
	Machine(ctx context.Context) (*models.MachineStats, error)
	StartApp(ctx context.Context, id string) (*models.Snapshot, error)
	StopApp(ctx context.Context, id string) (*models.Snapshot, error)
	ToggleEnabled(ctx context.Context, id string) (*models.Snapshot, error)
	ToggleHidden(ctx context.Context, id string) (*models.Snapshot, error)
	RemoveApp(ctx context.Context, id string) error
}

// Run launches the dashboard and blocks until the user quits.
func Run(api API) error {
	p := tea.NewProgram(NewModel(api), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
