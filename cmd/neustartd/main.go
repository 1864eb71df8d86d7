// Package main is the entry point for the neustartd daemon.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/neustart-io/neustart/internal/config"
	"github.com/neustart-io/neustart/internal/daemon/instance"
	"github.com/neustart-io/neustart/internal/daemon/server"
	"github.com/neustart-io/neustart/internal/daemon/supervisor"
	"github.com/neustart-io/neustart/internal/daemon/tray"
	"github.com/neustart-io/neustart/internal/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	foreground := flag.Bool("foreground", false, "Run in foreground (no system tray)")
	port := flag.Int("port", -1, "Port to listen on (0 for dynamic allocation; default from settings)")
	flag.Parse()

	if other, err := instance.FindOther(); err == nil && other != 0 {
		announceDuplicate()
		return 0
	}

	if err := config.EnsureGlobalDir(); err != nil {
		fmt.Fprintf(os.Stderr, "neustartd: failed to create global directory: %v\n", err)
		return 1
	}

	// A copy started from another path still owns daemon.yaml.
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		fmt.Fprintf(os.Stderr, "neustartd: failed to check daemon status: %v\n", err)
		return 1
	}
	if running {
		fmt.Fprintf(os.Stderr, "neustartd: already running on port %d (PID %d)\n", info.Port, info.PID)
		announceDuplicate()
		return 0
	}

	d, err := newDaemon(*port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "neustartd: %v\n", err)
		return 1
	}
	defer func() { _ = d.logger.Sync() }()

	if *foreground {
		d.logger.Info("Running in foreground mode (no system tray)")
		return runForeground(d)
	}
	d.logger.Info("Running in background mode (with system tray)")
	return runWithTray(d)
}

func announceDuplicate() {
	fmt.Fprintln(os.Stderr, instance.AlreadyRunningMessage)
	_ = instance.Notify(instance.AlreadyRunningMessage)
}

// runForeground runs the daemon without a system tray, blocking on signals.
func runForeground(d *daemon) int {
	if err := d.start(); err != nil {
		d.logger.Error("Failed to start daemon", zap.Error(err))
		d.stop()
		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		d.logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case <-d.srv.ShutdownRequested():
		d.logger.Info("Shutdown requested")
	case err := <-d.serveErr:
		d.logger.Error("Server error", zap.Error(err))
	}

	d.stop()
	return 0
}

// runWithTray runs the daemon with a system tray icon on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func runWithTray(d *daemon) int {
	exitCode := 0
	d.sup.AddObserver(supervisor.ObserverFunc(func(apps []models.Snapshot, _ models.MachineStats) {
		tray.UpdateApps(apps)
	}))

	onStart := func() {
		if err := d.start(); err != nil {
			d.logger.Error("Failed to start daemon", zap.Error(err))
			exitCode = 1
			tray.Quit()
			return
		}

		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				d.logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			case <-d.srv.ShutdownRequested():
				d.logger.Info("Shutdown requested")
			case err := <-d.serveErr:
				d.logger.Error("Server error", zap.Error(err))
			}
			tray.Quit()
		}()
	}

	onExit := func() {
		d.stop()
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(server.NewTrayState(d.srv, d.logger.Named("tray")), onStart, onExit)
	return exitCode
}
