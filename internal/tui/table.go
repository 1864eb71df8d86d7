package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"

	"github.com/neustart-io/neustart/internal/format"
	"github.com/neustart-io/neustart/internal/models"
)

// Fixed column widths; ID and Title share what is left.
const (
	colPhase    = 14
	colPID      = 7
	colUptime   = 12
	colCPU      = 7
	colRAM      = 10
	colRestarts = 8
	colFlags    = 6
	minFlexCol  = 8
)

func phaseLabel(p models.Phase) string {
	switch p {
	case models.PhaseRunning:
		return "● running"
	case models.PhaseRestarting:
		return "↻ restarting"
	case models.PhaseCrashed:
		return "✕ crashed"
	default:
		return "○ " + string(p)
	}
}

// appColumns sizes the table to width, which excludes the border.
func appColumns(width int) []table.Column {
	// Each column is padded by one cell on both sides.
	fixed := colPhase + colPID + colUptime + colCPU + colRAM + colRestarts + colFlags
	cols := 9
	flex := width - fixed - cols*2
	idWidth := flex * 2 / 5
	titleWidth := flex - idWidth
	if idWidth < minFlexCol {
		idWidth = minFlexCol
	}
	if titleWidth < minFlexCol {
		titleWidth = minFlexCol
	}

	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "PHASE", Width: colPhase},
		{Title: "PID", Width: colPID},
		{Title: "UPTIME", Width: colUptime},
		{Title: "CPU", Width: colCPU},
		{Title: "RAM", Width: colRAM},
		{Title: "RESTARTS", Width: colRestarts},
		{Title: "FLAGS", Width: colFlags},
		{Title: "TITLE", Width: titleWidth},
	}
}

func appRow(a models.Snapshot) table.Row {
	pid, cpu, ram := "-", "-", "-"
	if a.Phase == models.PhaseRunning {
		pid = strconv.Itoa(a.PID)
		cpu = format.Percent(a.CPUPercent)
		ram = format.Bytes(a.RAMBytes)
	}

	// E = enabled, H = hidden
	flags := []byte("--")
	if a.Enabled {
		flags[0] = 'E'
	}
	if a.Hidden {
		flags[1] = 'H'
	}

	return table.Row{
		a.ID,
		phaseLabel(a.Phase),
		pid,
		format.Uptime(a.Uptime),
		cpu,
		ram,
		strconv.Itoa(a.Restarts),
		string(flags),
		a.Title,
	}
}

func appRows(apps []models.Snapshot) []table.Row {
	rows := make([]table.Row, len(apps))
	for i, a := range apps {
		rows[i] = appRow(a)
	}
	return rows
}
