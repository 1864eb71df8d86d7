//go:build !windows

package cli

import (
	"os"
	"syscall"
)

func signalStop(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
