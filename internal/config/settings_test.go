package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/models"
)

func useTempGlobalDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetGlobalDir(dir)
	t.Cleanup(func() { SetGlobalDir("") })
	return dir
}

func TestLoadSettings_Defaults(t *testing.T) {
	useTempGlobalDir(t)

	settings, err := LoadSettings()
	require.NoError(t, err)

	def := models.NewSettings()
	assert.Equal(t, def.StopTimeout, settings.StopTimeout)
	assert.Equal(t, "127.0.0.1", settings.API.Host)
	assert.Equal(t, "info", settings.Log.Level)
	assert.True(t, settings.Restart.AutoRestart)
	assert.Equal(t, 5, settings.Restart.MaxRestarts)
}

func TestLoadSettings_FileOverlaysDefaults(t *testing.T) {
	dir := useTempGlobalDir(t)

	content := `
stop_timeout: 12s
api:
  port: 9123
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0644))

	settings, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, 12*time.Second, settings.StopTimeout)
	assert.Equal(t, 9123, settings.API.Port)
	assert.Equal(t, "debug", settings.Log.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1", settings.API.Host)
	assert.Equal(t, 1, settings.Restart.DelaySeconds)
}

func TestLoadSettings_Malformed(t *testing.T) {
	dir := useTempGlobalDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("api: [unclosed"), 0644))

	_, err := LoadSettings()
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NEUSTART_APPS_FILE", "/tmp/custom.json")
	t.Setenv("NEUSTART_API_PORT", "7001")
	t.Setenv("NEUSTART_STOP_TIMEOUT", "750ms")
	t.Setenv("NEUSTART_RESTART_AUTO", "false")
	t.Setenv("NEUSTART_RESTART_MAX", "0")

	settings := models.NewSettings()
	require.NoError(t, ApplyEnv(settings))

	assert.Equal(t, "/tmp/custom.json", settings.AppsFile)
	assert.Equal(t, 7001, settings.API.Port)
	assert.Equal(t, 750*time.Millisecond, settings.StopTimeout)
	assert.False(t, settings.Restart.AutoRestart)
	assert.Equal(t, 0, settings.Restart.MaxRestarts)
	assert.Equal(t, "127.0.0.1", settings.API.Host)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("NEUSTART_API_PORT", "not-a-port")

	err := ApplyEnv(models.NewSettings())
	require.Error(t, err)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	useTempGlobalDir(t)

	settings := models.NewSettings()
	settings.AppsFile = "/data/apps.json"
	settings.StopTimeout = 3 * time.Second
	require.NoError(t, SaveSettings(settings))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/data/apps.json", loaded.AppsFile)
	assert.Equal(t, 3*time.Second, loaded.StopTimeout)
}

func TestAppsFile(t *testing.T) {
	dir := useTempGlobalDir(t)

	path, err := AppsFile("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AppsFileName), path)

	path, err = AppsFile("/elsewhere/Apps.json")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/Apps.json", path)
}

func TestDaemonInfoLifecycle(t *testing.T) {
	useTempGlobalDir(t)

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Nil(t, info)

	require.NoError(t, SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", 4567, os.Getpid())))

	running, info, err = IsDaemonRunning()
	require.NoError(t, err)
	assert.True(t, running)
	require.NotNil(t, info)
	assert.Equal(t, 4567, info.Port)

	require.NoError(t, RemoveDaemonInfo())
	loaded, err := LoadDaemonInfo()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
