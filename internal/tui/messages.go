package tui

import "github.com/neustart-io/neustart/internal/models"

// AppsLoadedMsg carries one poll of the daemon.
type AppsLoadedMsg struct {
	Apps    []models.Snapshot
	Machine *models.MachineStats
}

// DaemonDisconnectedMsg signals a failed poll.
type DaemonDisconnectedMsg struct {
	Err error
}

// ActionDoneMsg signals a command on one app succeeded.
type ActionDoneMsg struct {
	Verb string
	ID   string
}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}

// ClearNoticeMsg clears the action notice.
type ClearNoticeMsg struct{}
