package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmMode values.
const (
	confirmNone   = 0
	confirmDelete = 1
)

func renderStatusBar(m *Model, width int) string {
	if m.confirmMode == confirmDelete {
		return renderConfirmBar(
			fmt.Sprintf("Remove %s and close its process? (y/n)", m.confirmID),
			width,
		)
	}

	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}

	left := " " + getKeyHints(m)
	if m.notice != "" {
		left = " " + lipgloss.NewStyle().Foreground(colorGreen).Render(m.notice)
	}

	right := ""
	if m.connected {
		right = lipgloss.NewStyle().Foreground(colorGreen).Render("Connected") + " "
	} else {
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Disconnected") + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	if m.activeOverlay != overlayNone {
		return keyHint("Esc", "close")
	}

	hints := []string{keyHint("q", "quit"), keyHint("?", "help")}
	if _, ok := m.selected(); ok {
		hints = append(hints,
			keyHint("s", "start"),
			keyHint("S", "stop"),
			keyHint("e", "enable"),
			keyHint("h", "hide"),
			keyHint("x", "delete"),
			keyHint("Enter", "details"),
		)
	}
	return strings.Join(hints, "  ")
}

func keyHint(k, desc string) string {
	if k == "" {
		return hintStyle.Render(desc)
	}
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderConfirmBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorYellow).
		Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "0"}).
		Width(width).
		Render(" " + msg)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}
