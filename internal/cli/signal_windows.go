package cli

import "os"

func signalStop(p *os.Process) error {
	return p.Kill()
}
