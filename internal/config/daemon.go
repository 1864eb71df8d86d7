package config

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/neustart-io/neustart/internal/models"
)

// LoadDaemonInfo loads the daemon connection info from ~/.neustart/daemon.yaml.
// Returns nil if the file doesn't exist.
func LoadDaemonInfo() (*models.DaemonInfo, error) {
	path, err := GlobalDaemonFile()
	if err != nil {
		return nil, err
	}

	if !FileExists(path) {
		return nil, nil
	}

	var info models.DaemonInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveDaemonInfo saves the daemon connection info to ~/.neustart/daemon.yaml.
func SaveDaemonInfo(info *models.DaemonInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}

	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveDaemonInfo removes the daemon.yaml file.
func RemoveDaemonInfo() error {
	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}

	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// pidReuseSlack tolerates clock skew between the daemon's own start time
// and the time it recorded in daemon.yaml.
const pidReuseSlack = 2 * time.Second

// IsDaemonRunning reports whether the daemon recorded in daemon.yaml is
// still alive. A dead PID, or a PID now owned by a process created after
// the daemon recorded itself, means the file is stale; it is removed and
// the old info returned with false.
func IsDaemonRunning() (bool, *models.DaemonInfo, error) {
	info, err := LoadDaemonInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	if !ownsPID(info) {
		_ = RemoveDaemonInfo()
		return false, info, nil
	}
	return true, info, nil
}

func ownsPID(info *models.DaemonInfo) bool {
	if info.PID <= 0 {
		return false
	}
	p, err := process.NewProcess(int32(info.PID))
	if err != nil {
		return false
	}
	if info.StartedAt.IsZero() {
		return true
	}
	created, err := p.CreateTime()
	if err != nil {
		// Alive but unreadable (permissions): trust the file.
		return true
	}
	return !time.UnixMilli(created).After(info.StartedAt.Add(pidReuseSlack))
}
