// Package instance detects a second copy of the daemon started from the
// same executable.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/shirou/gopsutil/v3/process"
)

// AlreadyRunningMessage is shown when a duplicate instance exits.
const AlreadyRunningMessage = "This copy of Neustart is already running. Look in your system tray!"

// candidate is the part of a running process the guard inspects.
type candidate struct {
	pid int32
	exe func() (string, error)
}

// FindOther returns the PID of another running process started from the
// same executable as this one, or 0 when there is none.
func FindOther() (int32, error) {
	self, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve executable: %w", err)
	}

	procs, err := process.Processes()
	if err != nil {
		return 0, fmt.Errorf("failed to list processes: %w", err)
	}

	candidates := make([]candidate, len(procs))
	for i, p := range procs {
		candidates[i] = candidate{pid: p.Pid, exe: p.Exe}
	}
	return findOther(self, int32(os.Getpid()), candidates), nil
}

func findOther(self string, selfPID int32, procs []candidate) int32 {
	self = normalize(self)
	for _, p := range procs {
		if p.pid == selfPID {
			continue
		}
		// Processes we may not inspect cannot be ours.
		exe, err := p.exe()
		if err != nil || exe == "" {
			continue
		}
		if samePath(self, normalize(exe)) {
			return p.pid
		}
	}
	return 0
}

func normalize(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}

func samePath(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Notify shows a desktop notification.
func Notify(message string) error {
	return beeep.Notify("Neustart", message, "")
}
