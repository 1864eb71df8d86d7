package cli

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/neustart-io/neustart/internal/models"
)

// Adaptive colors matching the TUI palette.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorDim)
)

// Phase badge styles.
var (
	badgeRunning    = lipgloss.NewStyle().Foreground(colorGreen)
	badgeStopped    = lipgloss.NewStyle().Foreground(colorDim)
	badgeClosed     = lipgloss.NewStyle().Foreground(colorDim)
	badgeCrashed    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	badgeRestarting = lipgloss.NewStyle().Foreground(colorOrange)
)

func phaseBadge(p models.Phase) string {
	switch p {
	case models.PhaseRunning:
		return badgeRunning.Render(string(p))
	case models.PhaseCrashed:
		return badgeCrashed.Render(string(p))
	case models.PhaseRestarting:
		return badgeRestarting.Render(string(p))
	case models.PhaseClosed:
		return badgeClosed.Render(string(p))
	default:
		return badgeStopped.Render(string(p))
	}
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// renderTable lays out rows under headers, padding cells by their visible
// width. When maxWidth > 0 the last column is truncated to fit.
func renderTable(headers []string, rows [][]string, maxWidth int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := ansi.StringWidth(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	const gap = "  "
	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		var line strings.Builder
		for i, cell := range cells {
			if style != nil {
				cell = style.Render(cell)
			}
			line.WriteString(cell)
			if i < len(cells)-1 {
				line.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)))
				line.WriteString(gap)
			}
		}
		out := line.String()
		if maxWidth > 0 {
			out = ansi.Truncate(out, maxWidth, "…")
		}
		b.WriteString(strings.TrimRight(out, " "))
		b.WriteByte('\n')
	}

	writeRow(headers, &styleHeader)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}
