package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/neustart-io/neustart/internal/client"
	"github.com/neustart-io/neustart/internal/config"
)

const daemonBinary = "neustartd"

// EnsureDaemon makes sure the daemon is running, starting it if necessary.
func EnsureDaemon() error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if running {
		return nil
	}

	// Clean up stale daemon info if it exists
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}

	return startDaemon()
}

// connect ensures the daemon is up and returns a client for it.
func connect() (*client.Client, error) {
	if err := EnsureDaemon(); err != nil {
		return nil, err
	}
	return client.Connect()
}

// startDaemon starts the daemon process in the background.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	// The daemon outlives us; do not leave a zombie behind while we wait.
	go func() { _ = cmd.Wait() }()

	// Wait for daemon to be ready (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, err := config.IsDaemonRunning()
		if err == nil && running {
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

// findDaemonBinary locates the neustartd binary.
func findDaemonBinary() (string, error) {
	name := daemonBinary
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	// Try next to the current executable
	if execPath, err := os.Executable(); err == nil {
		daemonPath := filepath.Join(filepath.Dir(execPath), name)
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	// Try build directory
	buildPath := filepath.Join("build", name)
	if _, err := os.Stat(buildPath); err == nil {
		return buildPath, nil
	}

	return "", fmt.Errorf("%s not found. Install or build it first", daemonBinary)
}

// GetDaemonStatus returns the daemon status.
func GetDaemonStatus() (bool, *DaemonStatusInfo, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return false, nil, err
	}

	if !running || info == nil {
		return false, nil, nil
	}

	return true, &DaemonStatusInfo{
		Host:      info.Host,
		Port:      info.Port,
		PID:       info.PID,
		StartedAt: info.StartedAt,
	}, nil
}

// DaemonStatusInfo contains daemon status information.
type DaemonStatusInfo struct {
	Host      string
	Port      int
	PID       int
	StartedAt time.Time
}
