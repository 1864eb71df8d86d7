package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollInterval matches the daemon's supervision cycle.
const PollInterval = time.Second

const requestTimeout = 5 * time.Second

func loadAppsCmd(api API) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		apps, err := api.ListApps(ctx)
		if err != nil {
			return DaemonDisconnectedMsg{Err: err}
		}
		// Machine stats are cosmetic; a failure keeps the last sample.
		machine, _ := api.Machine(ctx)
		return AppsLoadedMsg{Apps: apps, Machine: machine}
	}
}

// action is one of the per-app commands bound to a key.
type action struct {
	verb string
	run  func(api API, ctx context.Context, id string) error
}

var (
	actionStart = action{"started", func(api API, ctx context.Context, id string) error {
		_, err := api.StartApp(ctx, id)
		return err
	}}
	actionStop = action{"stopped", func(api API, ctx context.Context, id string) error {
		_, err := api.StopApp(ctx, id)
		return err
	}}
	actionToggleEnabled = action{"toggled", func(api API, ctx context.Context, id string) error {
		_, err := api.ToggleEnabled(ctx, id)
		return err
	}}
	actionToggleHidden = action{"toggled hidden", func(api API, ctx context.Context, id string) error {
		_, err := api.ToggleHidden(ctx, id)
		return err
	}}
	actionRemove = action{"removed", func(api API, ctx context.Context, id string) error {
		return api.RemoveApp(ctx, id)
	}}
)

func actionCmd(api API, a action, id string) tea.Cmd {
	return func() tea.Msg {
		// Stopping waits for the app's stop timeout.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := a.run(api, ctx, id); err != nil {
			return ErrorMsg{Err: fmt.Errorf("%s: %w", id, err)}
		}
		return ActionDoneMsg{Verb: a.verb, ID: id}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(PollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearNoticeAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}
