package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/neustart-io/neustart/internal/format"
	"github.com/neustart-io/neustart/internal/models"
)

const maxAppSlots = 10

var (
	state    DaemonState
	onStart  func()
	onExit   func()
	portItem *systray.MenuItem

	// Pre-allocated app menu slots
	appSlots   [maxAppSlots]*systray.MenuItem
	appStart   [maxAppSlots]*systray.MenuItem
	appStop    [maxAppSlots]*systray.MenuItem
	noAppsItem *systray.MenuItem
	quitItem   *systray.MenuItem

	// Maps slot index → app ID for start/stop actions
	slotMu  sync.RWMutex
	slotIDs [maxAppSlots]string
	ready   bool
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (launch the supervisor here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, onStartFn, onExitFn func()) {
	state = s
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(formatTooltip(nil))

	header := systray.AddMenuItem("Neustart", "")
	header.Disable()

	portItem = systray.AddMenuItem("Starting...", "")
	portItem.Disable()

	systray.AddSeparator()

	// Pre-allocate app slots (hidden by default)
	for i := 0; i < maxAppSlots; i++ {
		appSlots[i] = systray.AddMenuItem("", "")
		appStart[i] = appSlots[i].AddSubMenuItem("Start", "")
		appStop[i] = appSlots[i].AddSubMenuItem("Stop", "")
		appSlots[i].Hide()
		go handleSlotClicks(i)
	}

	noAppsItem = systray.AddMenuItem("No apps configured", "")
	noAppsItem.Disable()

	systray.AddSeparator()

	quitItem = systray.AddMenuItem("Quit", "Close all apps and exit")

	slotMu.Lock()
	ready = true
	slotMu.Unlock()

	if onStart != nil {
		onStart()
	}

	if state != nil {
		portItem.SetTitle(fmt.Sprintf("Control API on port: %d", state.Port()))
		UpdateApps(state.Apps())
	}

	go handleQuit()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleQuit() {
	<-quitItem.ClickedCh
	if state != nil {
		state.RequestShutdown()
	}
}

func handleSlotClicks(slot int) {
	for {
		select {
		case <-appStart[slot].ClickedCh:
			if id := slotID(slot); id != "" && state != nil {
				go state.StartApp(id)
			}
		case <-appStop[slot].ClickedCh:
			if id := slotID(slot); id != "" && state != nil {
				go state.StopApp(id)
			}
		}
	}
}

func slotID(slot int) string {
	slotMu.RLock()
	defer slotMu.RUnlock()
	return slotIDs[slot]
}

// UpdateApps refreshes the app menu items and tooltip. It is a no-op
// until the tray is ready.
func UpdateApps(apps []models.Snapshot) {
	slotMu.Lock()
	if !ready {
		slotMu.Unlock()
		return
	}
	for i := 0; i < maxAppSlots; i++ {
		slotIDs[i] = ""
	}
	for i, a := range apps {
		if i >= maxAppSlots {
			break
		}
		slotIDs[i] = a.ID
	}
	slotMu.Unlock()

	for i := 0; i < maxAppSlots; i++ {
		if i >= len(apps) {
			appSlots[i].Hide()
			continue
		}
		a := apps[i]
		appSlots[i].SetTitle(formatAppTitle(a))
		if a.Phase == models.PhaseRunning {
			appStart[i].Disable()
			appStop[i].Enable()
		} else {
			appStart[i].Enable()
			appStop[i].Disable()
		}
		appSlots[i].Show()
	}

	if len(apps) == 0 {
		noAppsItem.Show()
	} else {
		noAppsItem.Hide()
	}

	systray.SetTooltip(formatTooltip(apps))
}

func formatTooltip(apps []models.Snapshot) string {
	running := 0
	for _, a := range apps {
		if a.Phase == models.PhaseRunning {
			running++
		}
	}
	return fmt.Sprintf("Neustart: %d apps, %d running", len(apps), running)
}

func formatAppTitle(a models.Snapshot) string {
	name := a.ID
	if a.Title != "" && a.Title != a.ID {
		name = fmt.Sprintf("%s (%s)", a.ID, a.Title)
	}
	switch a.Phase {
	case models.PhaseRunning:
		return fmt.Sprintf("● %s  %.1f%%  %s", name, a.CPUPercent, format.Bytes(a.RAMBytes))
	case models.PhaseRestarting:
		return fmt.Sprintf("↻ %s  restarting", name)
	case models.PhaseCrashed:
		return fmt.Sprintf("✕ %s  crashed", name)
	default:
		return fmt.Sprintf("○ %s  %s", name, a.Phase)
	}
}
