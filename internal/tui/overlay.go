package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/neustart-io/neustart/internal/format"
	"github.com/neustart-io/neustart/internal/models"
)

// Overlay constants.
const (
	overlayNone    = 0
	overlayHelp    = 1
	overlayDetails = 2
)

// renderOverlay renders an overlay centered on top of the base view.
func renderOverlay(base, overlayContent string, width, height int) string {
	// Dim the background
	baseLines := strings.Split(base, "\n")
	for i, line := range baseLines {
		baseLines[i] = overlayDimStyle.Render(line)
	}
	dimmed := strings.Join(baseLines, "\n")

	// Calculate overlay position
	overlayLines := strings.Split(overlayContent, "\n")
	overlayHeight := len(overlayLines)
	overlayWidth := 0
	for _, l := range overlayLines {
		if w := lipgloss.Width(l); w > overlayWidth {
			overlayWidth = w
		}
	}

	// Center
	top := (height - overlayHeight) / 2
	left := (width - overlayWidth) / 2
	if top < 1 {
		top = 1
	}
	if left < 1 {
		left = 1
	}

	// Place overlay on top of dimmed background using ANSI-aware slicing
	result := strings.Split(dimmed, "\n")
	for i, line := range overlayLines {
		row := top + i
		if row >= len(result) {
			continue
		}
		bg := result[row]
		bgWidth := lipgloss.Width(bg)

		// Left portion of background (columns 0..left-1)
		leftPart := ansi.Truncate(bg, left, "")

		// Right portion of background (columns left+overlayWidth..)
		rightPart := ""
		rightStart := left + lipgloss.Width(line)
		if rightStart < bgWidth {
			rightPart = ansi.Cut(bg, rightStart, bgWidth)
		}

		// Compose: left background + reset + overlay + reset + right background
		result[row] = leftPart + "\033[0m" + line + "\033[0m" + rightPart
	}

	return strings.Join(result, "\n")
}

// renderDetails renders the details overlay for one app.
func renderDetails(a models.Snapshot, now time.Time, width int) string {
	maxWidth := 72
	if width-4 < maxWidth {
		maxWidth = width - 4
	}

	lines := []string{overlayTitleStyle.Render(a.ID + "  " + phaseLabel(a.Phase))}
	row := func(label, value string) {
		lines = append(lines, detailLabelStyle.Render(label)+value)
	}

	row("Executable", a.ExecutablePath)
	if a.Title != "" {
		row("Title", a.Title)
	}
	row("Enabled", strconv.FormatBool(a.Enabled))
	row("Hidden", strconv.FormatBool(a.Hidden))
	if a.Phase == models.PhaseRunning {
		row("PID", strconv.Itoa(a.PID))
		row("Uptime", format.Uptime(a.Uptime))
		row("CPU", format.Percent(a.CPUPercent))
		row("RAM", format.Bytes(a.RAMBytes))
	}
	row("Restarts", strconv.Itoa(a.Restarts))
	if a.NextRestartAt != nil {
		row("Next restart", format.Until(*a.NextRestartAt, now))
	}
	if a.LastError != "" {
		msg := ansi.Truncate(a.LastError, maxWidth-20, "…")
		row("Last error", detailErrorStyle.Render(msg))
	}

	return overlayStyle.Width(maxWidth).Render(strings.Join(lines, "\n"))
}
