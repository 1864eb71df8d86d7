package models

import "time"

// APIConfig holds settings for the loopback control API.
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"` // 0 = dynamic allocation
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level       string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	Development bool   `yaml:"development"`
}

// RestartDefaults is the restart policy given to apps added without one.
type RestartDefaults struct {
	AutoRestart  bool `yaml:"auto_restart"`
	DelaySeconds int  `yaml:"delay_seconds"`
	MaxRestarts  int  `yaml:"max_restarts"`
}

// Policy converts the defaults into a RestartPolicy.
func (r RestartDefaults) Policy() RestartPolicy {
	return RestartPolicy{
		AutoRestart:  r.AutoRestart,
		DelaySeconds: r.DelaySeconds,
		MaxRestarts:  r.MaxRestarts,
	}
}

// Settings represents global application settings.
// This corresponds to ~/.neustart/settings.yaml.
type Settings struct {
	Version     int             `yaml:"version"`
	AppsFile    string          `yaml:"apps_file"` // empty = ~/.neustart/Apps.json
	StopTimeout time.Duration   `yaml:"stop_timeout"`
	API         APIConfig       `yaml:"api"`
	Log         LogConfig       `yaml:"log"`
	Restart     RestartDefaults `yaml:"restart"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:     1,
		AppsFile:    "",
		StopTimeout: 5 * time.Second,
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
		Restart: RestartDefaults{
			AutoRestart:  true,
			DelaySeconds: 1,
			MaxRestarts:  5,
		},
	}
}
