package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/neustart-io/neustart/internal/models"
)

func renderHeader(apps []models.Snapshot, machine *models.MachineStats, width int) string {
	dot := lipgloss.NewStyle().Foreground(colorCyan).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render("Neustart")

	running, failing := 0, 0
	for _, a := range apps {
		switch a.Phase {
		case models.PhaseRunning:
			running++
		case models.PhaseCrashed, models.PhaseRestarting:
			failing++
		}
	}

	counts := badgeIdleStyle.Render(fmt.Sprintf("%d apps", len(apps)))
	counts += "  " + badgeRunningStyle.Render(fmt.Sprintf("● %d running", running))
	if failing > 0 {
		counts += "  " + badgeFailingStyle.Render(fmt.Sprintf("✕ %d failing", failing))
	}

	right := ""
	if machine != nil {
		right = machineStyle.Render(fmt.Sprintf("%d processes  %.0f ms privileged CPU", machine.Processes, machine.PrivilegedCPUMillis)) + " "
	}

	left := fmt.Sprintf(" %s %s  %s", dot, name, counts)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
