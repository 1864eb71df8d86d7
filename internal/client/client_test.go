package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/config"
	"github.com/neustart-io/neustart/internal/daemon/metrics"
	"github.com/neustart-io/neustart/internal/daemon/server"
	"github.com/neustart-io/neustart/internal/daemon/supervisor"
	"github.com/neustart-io/neustart/internal/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	store := config.NewAppsStore(filepath.Join(t.TempDir(), "Apps.json"))
	sup := supervisor.New(supervisor.Options{Store: store, Settings: models.NewSettings()})
	require.NoError(t, sup.Load())
	t.Cleanup(func() { _ = sup.Shutdown(context.Background()) })

	ts := httptest.NewServer(server.NewRouter(sup, metrics.New(), nil))
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func disabled(id string) models.AppRequest {
	enabled := false
	exe := "sleep"
	arguments := []string{"30"}
	return models.AppRequest{
		ID:             id,
		ExecutablePath: &exe,
		Arguments:      &arguments,
		Enabled:        &enabled,
	}
}

func TestClient_AddListGet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	snap, err := c.AddApp(ctx, disabled("web"))
	require.NoError(t, err)
	assert.Equal(t, "web", snap.ID)
	assert.Equal(t, models.PhaseStopped, snap.Phase)

	apps, err := c.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "web", apps[0].ID)

	got, err := c.GetApp(ctx, "web")
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	def, err := c.GetDefinition(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, []string{"30"}, def.Arguments)
}

func TestClient_Errors(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.GetApp(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = c.AddApp(ctx, disabled("web"))
	require.NoError(t, err)
	_, err = c.AddApp(ctx, disabled("web"))
	assert.True(t, IsConflict(err))

	var apiErr *APIError
	_, err = c.AddApp(ctx, models.AppRequest{ID: "x"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
}

func TestClient_RenameToggleRemove(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.AddApp(ctx, disabled("a b"))
	require.NoError(t, err)

	// IDs are path-escaped.
	snap, err := c.RenameApp(ctx, "a b", "c.d")
	require.NoError(t, err)
	assert.Equal(t, "c.d", snap.ID)

	snap, err = c.ToggleHidden(ctx, "c.d")
	require.NoError(t, err)
	assert.True(t, snap.Hidden)

	require.NoError(t, c.RemoveApp(ctx, "c.d"))
	_, err = c.GetApp(ctx, "c.d")
	assert.True(t, IsNotFound(err))
}

func TestClient_UpdateApp(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.AddApp(ctx, disabled("web"))
	require.NoError(t, err)

	arguments := []string{"60"}
	maxRestarts := 3
	_, err = c.UpdateApp(ctx, "web", models.AppRequest{Arguments: &arguments, MaxRestarts: &maxRestarts})
	require.NoError(t, err)

	def, err := c.GetDefinition(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, "sleep", def.ExecutablePath)
	assert.False(t, def.Enabled)
	assert.Equal(t, []string{"60"}, def.Arguments)
	assert.Equal(t, 3, def.MaxRestarts)
}

func TestClient_Machine(t *testing.T) {
	c := newTestClient(t)

	stats, err := c.Machine(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.Processes, 0)
}

func TestClient_PlainErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).ListApps(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestForDaemon(t *testing.T) {
	c := ForDaemon(&models.DaemonInfo{Port: 4242})
	assert.Equal(t, "http://127.0.0.1:4242", c.resty.BaseURL)

	c = ForDaemon(&models.DaemonInfo{Host: "::1", Port: 80})
	assert.Equal(t, "http://[::1]:80", c.resty.BaseURL)
}

func TestConnect_NoDaemon(t *testing.T) {
	config.SetGlobalDir(t.TempDir())
	t.Cleanup(func() { config.SetGlobalDir("") })

	_, err := Connect()
	assert.ErrorIs(t, err, ErrDaemonNotRunning)
}

func TestClient_Shutdown(t *testing.T) {
	var called bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = r.Method == http.MethodPost && r.URL.Path == "/api/shutdown"
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	require.NoError(t, New(ts.URL).Shutdown(context.Background()))
	assert.True(t, called)
}
