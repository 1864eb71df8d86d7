package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/neustart-io/neustart/internal/models"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "NEUSTART"

// envOverrides mirrors the overridable settings. Unset variables leave the
// pointer nil so file values survive.
type envOverrides struct {
	AppsFile     *string        `envconfig:"APPS_FILE"`
	StopTimeout  *time.Duration `envconfig:"STOP_TIMEOUT"`
	APIHost      *string        `envconfig:"API_HOST"`
	APIPort      *int           `envconfig:"API_PORT"`
	LogLevel     *string        `envconfig:"LOG_LEVEL"`
	LogDev       *bool          `envconfig:"LOG_DEV"`
	RestartAuto  *bool          `envconfig:"RESTART_AUTO"`
	RestartDelay *int           `envconfig:"RESTART_DELAY_SECONDS"`
	RestartMax   *int           `envconfig:"RESTART_MAX"`
}

// LoadSettings loads the global settings from ~/.neustart/settings.yaml and
// applies NEUSTART_* environment overrides.
// If the file doesn't exist, returns default settings.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings saves the global settings to ~/.neustart/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// ApplyEnv overlays NEUSTART_* environment variables onto settings.
func ApplyEnv(settings *models.Settings) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if env.AppsFile != nil {
		settings.AppsFile = *env.AppsFile
	}
	if env.StopTimeout != nil {
		settings.StopTimeout = *env.StopTimeout
	}
	if env.APIHost != nil {
		settings.API.Host = *env.APIHost
	}
	if env.APIPort != nil {
		settings.API.Port = *env.APIPort
	}
	if env.LogLevel != nil {
		settings.Log.Level = *env.LogLevel
	}
	if env.LogDev != nil {
		settings.Log.Development = *env.LogDev
	}
	if env.RestartAuto != nil {
		settings.Restart.AutoRestart = *env.RestartAuto
	}
	if env.RestartDelay != nil {
		settings.Restart.DelaySeconds = *env.RestartDelay
	}
	if env.RestartMax != nil {
		settings.Restart.MaxRestarts = *env.RestartMax
	}
	return nil
}
