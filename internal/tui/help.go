package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []helpKey
}

type helpKey struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Global",
		keys: []helpKey{
			{"q / Ctrl+c", "Quit"},
			{"?", "Toggle help"},
			{"Ctrl+r", "Refresh now"},
		},
	},
	{
		title: "Apps",
		keys: []helpKey{
			{"j/k ↑/↓", "Navigate apps"},
			{"s", "Enable and start"},
			{"S", "Disable and stop"},
			{"e", "Toggle enabled"},
			{"h", "Toggle hidden window"},
			{"x / Del", "Close and remove"},
			{"Enter", "Show details"},
		},
	},
	{
		title: "Phases",
		keys: []helpKey{
			{"● running", "Process is alive"},
			{"↻ restarting", "Waiting to relaunch after a crash"},
			{"✕ crashed", "Exited unexpectedly; gave up or auto-restart is off"},
			{"○ stopped", "Stopped by the user or never started"},
			{"○ closed", "Closed on request"},
		},
	},
}

// renderHelp renders the help overlay content.
func renderHelp(width int) string {
	maxWidth := 64
	if width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	title := overlayTitleStyle.Render("Keyboard Shortcuts")
	sections := make([]string, 0, len(helpSections)*4+3)
	sections = append(sections, title)

	for _, sec := range helpSections {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Render(sec.title)
		sections = append(sections, "", header)

		for _, k := range sec.keys {
			keyCol := lipgloss.NewStyle().
				Width(16).
				Foreground(colorWhite).
				Bold(true).
				Render(k.key)
			descCol := lipgloss.NewStyle().
				Foreground(colorDim).
				Render(k.desc)
			sections = append(sections, "  "+keyCol+descCol)
		}
	}

	sections = append(sections, "", lipgloss.NewStyle().Foreground(colorDim).Render("Press Esc or ? to close"))

	content := strings.Join(sections, "\n")
	return overlayStyle.Width(maxWidth).Render(content)
}
