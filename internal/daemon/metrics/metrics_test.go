package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neustart-io/neustart/internal/models"
)

func TestObserve(t *testing.T) {
	m := New()

	m.Observe([]models.Snapshot{
		{ID: "web", Phase: models.PhaseRunning, CPUPercent: 12.5, RAMBytes: 2048, Uptime: 90 * time.Second, Restarts: 2},
		{ID: "worker", Phase: models.PhaseCrashed},
		{ID: "batch", Phase: models.PhaseStopped},
	}, models.MachineStats{PrivilegedCPUMillis: 1500, Processes: 200})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppUp.WithLabelValues("web")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AppUp.WithLabelValues("worker")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.AppCPU.WithLabelValues("web")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.AppRAM.WithLabelValues("web")))
	assert.Equal(t, 90.0, testutil.ToFloat64(m.AppUptime.WithLabelValues("web")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AppRestarts.WithLabelValues("web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppsByPhase.WithLabelValues("running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AppsByPhase.WithLabelValues("crashed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AppsByPhase.WithLabelValues("restarting")))
	assert.Equal(t, 1500.0, testutil.ToFloat64(m.MachinePrivilegedCPU))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.MachineProcesses))
}

func TestObserve_DropsRemovedApps(t *testing.T) {
	m := New()

	m.Observe([]models.Snapshot{{ID: "old", Phase: models.PhaseRunning}}, models.MachineStats{})
	assert.Equal(t, 1, testutil.CollectAndCount(m.AppUp))

	m.Observe([]models.Snapshot{{ID: "new", Phase: models.PhaseRunning}}, models.MachineStats{})
	assert.Equal(t, 1, testutil.CollectAndCount(m.AppUp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Cycles))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/apps", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "/api/apps", 200, 5*time.Millisecond)
	m.ObserveRequest("POST", "/api/apps", 400, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/apps", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/apps", "400")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe([]models.Snapshot{{ID: "web", Phase: models.PhaseRunning}}, models.MachineStats{Processes: 3})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `neustart_app_up{app="web"} 1`)
	assert.Contains(t, string(body), "neustart_machine_processes 3")
}
