package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neustart-io/neustart/internal/models"
)

// Minimum terminal size for the dashboard.
const (
	minWidth  = 60
	minHeight = 10
)

// Model is the root Bubbletea model for the dashboard.
type Model struct {
	api       API
	connected bool
	loaded    bool

	apps    []models.Snapshot
	machine *models.MachineStats

	// UI state
	table         table.Model
	activeOverlay int
	detailsID     string
	width         int
	height        int

	// Confirm mode
	confirmMode int
	confirmID   string

	// Status display
	err    error
	notice string

	now func() time.Time
}

// NewModel creates the initial dashboard model.
func NewModel(api API) Model {
	t := table.New(
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)
	return Model{
		api:   api,
		table: t,
		now:   time.Now,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadAppsCmd(m.api), pollTick())
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m, tea.Batch(loadAppsCmd(m.api), pollTick())

	case AppsLoadedMsg:
		m.connected = true
		m.loaded = true
		m.setApps(msg.Apps)
		if msg.Machine != nil {
			m.machine = msg.Machine
		}
		return m, nil

	case DaemonDisconnectedMsg:
		m.connected = false
		return m, nil

	case ActionDoneMsg:
		m.notice = fmt.Sprintf("%s %s", msg.ID, msg.Verb)
		return m, tea.Batch(loadAppsCmd(m.api), clearNoticeAfter(3*time.Second))

	case ErrorMsg:
		m.err = msg.Err
		return m, tea.Batch(loadAppsCmd(m.api), clearErrorAfter(5*time.Second))

	case ClearErrorMsg:
		m.err = nil
		return m, nil

	case ClearNoticeMsg:
		m.notice = ""
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmMode == confirmDelete {
		switch {
		case key.Matches(msg, confirmKeys.Yes):
			id := m.confirmID
			m.confirmMode, m.confirmID = confirmNone, ""
			return m, actionCmd(m.api, actionRemove, id)
		case key.Matches(msg, confirmKeys.No), key.Matches(msg, confirmKeys.Cancel):
			m.confirmMode, m.confirmID = confirmNone, ""
		}
		return m, nil
	}

	if m.activeOverlay != overlayNone {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if key.Matches(msg, overlayClose) {
			m.activeOverlay = overlayNone
			m.detailsID = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, globalKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, globalKeys.Help):
		m.activeOverlay = overlayHelp
		return m, nil
	case key.Matches(msg, globalKeys.Refresh):
		return m, loadAppsCmd(m.api)
	}

	if a, ok := m.selected(); ok {
		switch {
		case key.Matches(msg, appKeys.Start):
			return m, actionCmd(m.api, actionStart, a.ID)
		case key.Matches(msg, appKeys.Stop):
			return m, actionCmd(m.api, actionStop, a.ID)
		case key.Matches(msg, appKeys.ToggleEnabled):
			return m, actionCmd(m.api, actionToggleEnabled, a.ID)
		case key.Matches(msg, appKeys.ToggleHidden):
			return m, actionCmd(m.api, actionToggleHidden, a.ID)
		case key.Matches(msg, appKeys.Delete):
			m.confirmMode = confirmDelete
			m.confirmID = a.ID
			return m, nil
		case key.Matches(msg, appKeys.Details):
			m.activeOverlay = overlayDetails
			m.detailsID = a.ID
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// setApps replaces the rows, keeping the cursor on the same app.
func (m *Model) setApps(apps []models.Snapshot) {
	prev, hadSelection := m.selected()
	m.apps = apps
	m.table.SetRows(appRows(apps))

	if hadSelection {
		for i, a := range apps {
			if a.ID == prev.ID {
				m.table.SetCursor(i)
				break
			}
		}
	}
	if n := len(apps); n > 0 && m.table.Cursor() >= n {
		m.table.SetCursor(n - 1)
	}

	if m.activeOverlay == overlayDetails {
		if _, ok := m.find(m.detailsID); !ok {
			m.activeOverlay = overlayNone
			m.detailsID = ""
		}
	}
}

func (m Model) selected() (models.Snapshot, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.apps) {
		return models.Snapshot{}, false
	}
	return m.apps[i], true
}

func (m Model) find(id string) (models.Snapshot, bool) {
	for _, a := range m.apps {
		if a.ID == id {
			return a, true
		}
	}
	return models.Snapshot{}, false
}

func (m *Model) updateDimensions() {
	// Header and status bar take a line each; the border takes two of each.
	inner := m.width - 2
	m.table.SetColumns(appColumns(inner))
	m.table.SetWidth(inner)
	m.table.SetHeight(max(m.height-4, 2))
}

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.width < minWidth || m.height < minHeight {
		sizeStr := fmt.Sprintf("%dx%d", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorYellow).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Terminal too small",
				lipgloss.NewStyle().Foreground(colorDim).Render(
					fmt.Sprintf("Need %dx%d, have ", minWidth, minHeight)+lipgloss.NewStyle().Bold(true).Render(sizeStr),
				),
			))
	}

	if !m.loaded {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorDim).
			Render("Connecting to daemon...")
	}

	header := renderHeader(m.apps, m.machine, m.width)

	var body string
	if len(m.apps) == 0 {
		body = tableBorderStyle.
			Width(m.width-2).
			Height(m.height-4).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorDim).
			Render("No apps. Add one with: neustart add <executable>")
	} else {
		body = tableBorderStyle.Render(m.table.View())
	}

	statusBar := renderStatusBar(&m, m.width)
	view := lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)

	var overlayContent string
	switch m.activeOverlay {
	case overlayHelp:
		overlayContent = renderHelp(m.width)
	case overlayDetails:
		if a, ok := m.find(m.detailsID); ok {
			overlayContent = renderDetails(a, m.now(), m.width)
		}
	}
	if overlayContent != "" {
		view = renderOverlay(view, overlayContent, m.width, m.height)
	}
	return view
}
