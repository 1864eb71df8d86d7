//go:build windows

package app

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr hides the child's console window when requested.
func setSysProcAttr(cmd *exec.Cmd, hidden bool) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow: hidden,
	}
}

// terminateProcess kills the process on Windows.
func terminateProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Windows doesn't have SIGTERM; Kill() is the only reliable option.
	_ = cmd.Process.Kill()
}

// forceKillProcess force-kills the process on Windows.
func forceKillProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
