// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

// GlobalDirName is the name of the global Neustart directory.
const GlobalDirName = ".neustart"

// File names
const (
	AppsFileName     = "Apps.json"
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
)

// globalDirOverride replaces ~/.neustart when set (tests, portable installs).
var globalDirOverride string

// SetGlobalDir points every global path at dir instead of ~/.neustart.
// Pass "" to restore the default.
func SetGlobalDir(dir string) {
	globalDirOverride = dir
}

// GlobalDir returns the path to the global Neustart directory (~/.neustart/).
func GlobalDir() (string, error) {
	if globalDirOverride != "" {
		return globalDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DaemonFileName), nil
}

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// AppsFile resolves the app registry file. An explicit path from settings
// wins; otherwise Apps.json in the global directory is used.
func AppsFile(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppsFileName), nil
}

// EnsureGlobalDir creates the global Neustart directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
