package app

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/neustart-io/neustart/internal/models"
)

// handle owns one launched OS process. Exit is observed by a dedicated
// goroutine blocked in Wait, so the supervisor never polls exit status
// through the OS.
type handle struct {
	cmd     *exec.Cmd
	pid     int
	done    chan struct{}
	exitErr error
}

// spawn launches the process described by def.
func spawn(def models.AppDefinition) (*handle, error) {
	if def.ExecutablePath == "" {
		return nil, fmt.Errorf("no executable configured")
	}

	cmd := exec.Command(def.ExecutablePath, def.Arguments...)
	cmd.Dir = def.WorkingDirectory
	setSysProcAttr(cmd, def.Hidden)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", def.ExecutablePath, err)
	}

	h := &handle{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go h.wait()
	return h, nil
}

func (h *handle) wait() {
	h.exitErr = h.cmd.Wait()
	close(h.done)
}

// exited reports whether the process has terminated.
func (h *handle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// terminate asks the process to exit, waits up to timeout (or until ctx is
// done), then kills it. It returns once the process is gone.
func (h *handle) terminate(ctx context.Context, timeout time.Duration) (forced bool) {
	if h.exited() {
		return false
	}

	terminateProcess(h.cmd)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return false
	case <-timer.C:
	case <-ctx.Done():
	}

	forceKillProcess(h.cmd)
	<-h.done
	return true
}
