package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/models"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestNew_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Named("supervisor").Info("cycle done")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"cycle done"`)
	assert.Contains(t, out, `"logger":"supervisor"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	logger, level, err := NewWithLevel(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Debug("before")
	require.NoError(t, SetLevel(level, "debug"))
	logger.Debug("after")
	require.NoError(t, logger.Sync())

	assert.Error(t, SetLevel(level, "loud"))
	assert.Equal(t, "debug", level.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "before")
	assert.Contains(t, string(data), "after")
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(models.LogConfig{Level: "", Development: true})
	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Development)

	cfg = FromSettings(models.LogConfig{Level: "warn"})
	assert.Equal(t, "warn", cfg.Level)
	assert.False(t, cfg.Development)
}
