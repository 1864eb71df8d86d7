package tui

import "github.com/charmbracelet/bubbles/key"

// GlobalKeys are always active.
type GlobalKeys struct {
	Quit    key.Binding
	Help    key.Binding
	Refresh key.Binding
}

var globalKeys = GlobalKeys{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("Ctrl+r", "refresh"),
	),
}

// AppKeys act on the selected app.
type AppKeys struct {
	Start         key.Binding
	Stop          key.Binding
	ToggleEnabled key.Binding
	ToggleHidden  key.Binding
	Delete        key.Binding
	Details       key.Binding
}

var appKeys = AppKeys{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Stop: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "stop"),
	),
	ToggleEnabled: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "enable/disable"),
	),
	ToggleHidden: key.NewBinding(
		key.WithKeys("h"),
		key.WithHelp("h", "hide/show"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x", "delete"),
		key.WithHelp("x", "delete"),
	),
	Details: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "details"),
	),
}

// ConfirmKeys for inline confirmation prompts.
type ConfirmKeys struct {
	Yes    key.Binding
	No     key.Binding
	Cancel key.Binding
}

var confirmKeys = ConfirmKeys{
	Yes: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "confirm"),
	),
	No: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "cancel"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
}

// overlayClose dismisses the help and details overlays.
var overlayClose = key.NewBinding(
	key.WithKeys("esc", "enter", "?", "q"),
	key.WithHelp("Esc", "close"),
)
