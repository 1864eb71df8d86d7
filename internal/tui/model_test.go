package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/models"
)

type fakeAPI struct {
	mu      sync.Mutex
	apps    []models.Snapshot
	listErr error
	actErr  error
	calls   []string
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) ListApps(ctx context.Context) ([]models.Snapshot, error) {
	return f.apps, f.listErr
}

func (f *fakeAPI) Machine(ctx context.Context) (*models.MachineStats, error) {
	return &models.MachineStats{Processes: 123, PrivilegedCPUMillis: 456}, nil
}

func (f *fakeAPI) act(call, id string) (*models.Snapshot, error) {
	f.record(call + " " + id)
	if f.actErr != nil {
		return nil, f.actErr
	}
	return &models.Snapshot{ID: id}, nil
}

func (f *fakeAPI) StartApp(ctx context.Context, id string) (*models.Snapshot, error) {
	return f.act("start", id)
}

func (f *fakeAPI) StopApp(ctx context.Context, id string) (*models.Snapshot, error) {
	return f.act("stop", id)
}

func (f *fakeAPI) ToggleEnabled(ctx context.Context, id string) (*models.Snapshot, error) {
	return f.act("toggle-enabled", id)
}

func (f *fakeAPI) ToggleHidden(ctx context.Context, id string) (*models.Snapshot, error) {
	return f.act("toggle-hidden", id)
}

func (f *fakeAPI) RemoveApp(ctx context.Context, id string) error {
	_, err := f.act("remove", id)
	return err
}

func sampleApps() []models.Snapshot {
	return []models.Snapshot{
		{ID: "web", Phase: models.PhaseRunning, PID: 10, Enabled: true, CPUPercent: 3.5, RAMBytes: 4096, Uptime: time.Minute},
		{ID: "worker", Phase: models.PhaseCrashed, Enabled: true, LastError: "exit status 2"},
		{ID: "backup", Phase: models.PhaseStopped, Hidden: true},
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// update applies msg and returns the concrete model.
func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func loadedModel(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := NewModel(api)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, loadAppsCmd(api)())
	return m
}

func TestModel_LoadApps(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)

	assert.True(t, m.connected)
	assert.Len(t, m.table.Rows(), 3)
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "web", sel.ID)
	require.NotNil(t, m.machine)
	assert.Equal(t, 123, m.machine.Processes)
}

func TestModel_CursorFollowsApp(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	sel, _ := m.selected()
	require.Equal(t, "worker", sel.ID)

	// worker moves to the top after a rename elsewhere.
	apps := sampleApps()
	apps[0], apps[1] = apps[1], apps[0]
	m, _ = update(t, m, AppsLoadedMsg{Apps: apps})

	sel, _ = m.selected()
	assert.Equal(t, "worker", sel.ID)
	assert.Equal(t, 0, m.table.Cursor())
}

func TestModel_CursorClampedWhenAppsShrink(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	m, _ = update(t, m, AppsLoadedMsg{Apps: sampleApps()[:1]})

	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "web", sel.ID)
}

func TestModel_Actions(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runeKey('s'), "start web"},
		{runeKey('S'), "stop web"},
		{runeKey('e'), "toggle-enabled web"},
		{runeKey('h'), "toggle-hidden web"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			api := &fakeAPI{apps: sampleApps()}
			m := loadedModel(t, api)

			m, cmd := update(t, m, tt.key)
			require.NotNil(t, cmd)
			msg := cmd()

			assert.Equal(t, []string{tt.want}, api.calls)
			done, ok := msg.(ActionDoneMsg)
			require.True(t, ok)
			assert.Equal(t, "web", done.ID)

			m, _ = update(t, m, done)
			assert.Contains(t, m.notice, "web")
		})
	}
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)

	m, cmd := update(t, m, runeKey('x'))
	assert.Nil(t, cmd)
	assert.Equal(t, confirmDelete, m.confirmMode)
	assert.Equal(t, "web", m.confirmID)
	assert.Contains(t, renderStatusBar(&m, m.width), "Remove web")

	m, cmd = update(t, m, runeKey('n'))
	assert.Nil(t, cmd)
	assert.Equal(t, confirmNone, m.confirmMode)
	assert.Empty(t, api.calls)

	m, _ = update(t, m, runeKey('x'))
	_, cmd = update(t, m, runeKey('y'))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"remove web"}, api.calls)
}

func TestModel_ActionError(t *testing.T) {
	api := &fakeAPI{apps: sampleApps(), actErr: errors.New("already running")}
	m := loadedModel(t, api)

	_, cmd := update(t, m, runeKey('s'))
	msg := cmd()
	errMsg, ok := msg.(ErrorMsg)
	require.True(t, ok)
	assert.Contains(t, errMsg.Err.Error(), "web: already running")

	m, _ = update(t, m, errMsg)
	assert.Contains(t, renderStatusBar(&m, m.width), "already running")

	m, _ = update(t, m, ClearErrorMsg{})
	assert.NoError(t, m.err)
}

func TestModel_Disconnected(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)

	api.listErr = errors.New("connection refused")
	m, _ = update(t, m, loadAppsCmd(api)())

	assert.False(t, m.connected)
	assert.Len(t, m.apps, 3, "last known state is kept")
	assert.Contains(t, renderStatusBar(&m, m.width), "Disconnected")
}

func TestModel_Overlays(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := loadedModel(t, api)

	m, _ = update(t, m, runeKey('?'))
	assert.Equal(t, overlayHelp, m.activeOverlay)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	// Action keys are ignored while an overlay is open.
	m, cmd := update(t, m, runeKey('s'))
	assert.Nil(t, cmd)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, overlayNone, m.activeOverlay)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, overlayDetails, m.activeOverlay)
	assert.Contains(t, m.View(), "exit status 2")

	// The details overlay closes when its app disappears.
	m, _ = update(t, m, AppsLoadedMsg{Apps: sampleApps()[:1]})
	assert.Equal(t, overlayNone, m.activeOverlay)
}

func TestModel_Quit(t *testing.T) {
	m := loadedModel(t, &fakeAPI{})

	_, cmd := update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	m := NewModel(api)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	assert.Contains(t, m.View(), "Connecting to daemon")

	m, _ = update(t, m, loadAppsCmd(api)())
	view := m.View()
	assert.Contains(t, view, "3 apps")
	assert.Contains(t, view, "1 running")
	assert.Contains(t, view, "1 failing")
	assert.Contains(t, view, "worker")
	assert.Contains(t, view, "✕ crashed")
	assert.Contains(t, view, "123 processes")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.Contains(t, m.View(), "Terminal too small")
}

func TestModel_EmptyView(t *testing.T) {
	m := loadedModel(t, &fakeAPI{})

	assert.Contains(t, m.View(), "No apps")
	_, ok := m.selected()
	assert.False(t, ok)

	_, cmd := update(t, m, runeKey('s'))
	assert.Nil(t, cmd)
}

func TestAppColumnsFitWidth(t *testing.T) {
	for _, width := range []int{100, 118, 200} {
		total := 0
		for _, c := range appColumns(width) {
			total += c.Width + 2
		}
		assert.LessOrEqual(t, total, width, "width %d", width)
	}
}

func TestAppRow(t *testing.T) {
	apps := sampleApps()

	running := appRow(apps[0])
	assert.Equal(t, "● running", running[1])
	assert.Equal(t, "10", running[2])
	assert.Equal(t, "4.0 KiB", running[5])
	assert.Equal(t, "E-", running[7])

	stopped := appRow(apps[2])
	assert.Equal(t, "○ stopped", stopped[1])
	assert.Equal(t, "-", stopped[2])
	assert.Equal(t, "-H", stopped[7])
}

func TestRenderHeader_NoFailing(t *testing.T) {
	out := renderHeader(sampleApps()[:1], nil, 80)
	assert.Contains(t, out, "1 apps")
	assert.False(t, strings.Contains(out, "failing"))
}
