// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	_ "embed"

	"github.com/neustart-io/neustart/internal/models"
)

//go:embed icon.png
var iconData []byte

// DaemonState provides access to daemon state and commands for the tray.
// StartApp and StopApp may block; the tray calls them off its own goroutine.
type DaemonState interface {
	Port() int
	Apps() []models.Snapshot
	StartApp(id string)
	StopApp(id string)
	RequestShutdown()
}
