// Package metrics exports supervisor state as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neustart-io/neustart/internal/models"
)

const namespace = "neustart"

var phases = []models.Phase{
	models.PhaseStopped,
	models.PhaseRunning,
	models.PhaseClosed,
	models.PhaseCrashed,
	models.PhaseRestarting,
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Supervisor metrics
	Cycles      prometheus.Counter
	AppsByPhase *prometheus.GaugeVec

	// Per-app metrics
	AppUp       *prometheus.GaugeVec
	AppCPU      *prometheus.GaugeVec
	AppRAM      *prometheus.GaugeVec
	AppUptime   *prometheus.GaugeVec
	AppRestarts *prometheus.GaugeVec

	// Machine metrics
	MachinePrivilegedCPU prometheus.Gauge
	MachineProcesses     prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed monitoring cycles",
		}),
		AppsByPhase: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "apps",
			Help:      "Number of managed apps per lifecycle phase",
		}, []string{"phase"}),

		AppUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_up",
			Help:      "1 when the app has a running process",
		}, []string{"app"}),
		AppCPU: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_cpu_percent",
			Help:      "Processor usage of the app over the last cycle",
		}, []string{"app"}),
		AppRAM: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_resident_memory_bytes",
			Help:      "Resident set size of the app process",
		}, []string{"app"}),
		AppUptime: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_uptime_seconds",
			Help:      "Time since the app process was started",
		}, []string{"app"}),
		AppRestarts: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_restarts",
			Help:      "Automatic restarts performed for the app",
		}, []string{"app"}),

		MachinePrivilegedCPU: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machine_privileged_cpu_milliseconds",
			Help:      "Sum of privileged processor time over all processes",
		}),
		MachineProcesses: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machine_processes",
			Help:      "Number of processes seen by the last scan",
		}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of control API requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Control API request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records the state published at the end of a cycle.
func (m *Metrics) Observe(apps []models.Snapshot, machine models.MachineStats) {
	m.Cycles.Inc()

	counts := make(map[models.Phase]int, len(phases))
	m.AppUp.Reset()
	m.AppCPU.Reset()
	m.AppRAM.Reset()
	m.AppUptime.Reset()
	m.AppRestarts.Reset()

	for _, a := range apps {
		counts[a.Phase]++

		up := 0.0
		if a.Phase == models.PhaseRunning {
			up = 1
		}
		m.AppUp.WithLabelValues(a.ID).Set(up)
		m.AppCPU.WithLabelValues(a.ID).Set(a.CPUPercent)
		m.AppRAM.WithLabelValues(a.ID).Set(float64(a.RAMBytes))
		m.AppUptime.WithLabelValues(a.ID).Set(a.Uptime.Seconds())
		m.AppRestarts.WithLabelValues(a.ID).Set(float64(a.Restarts))
	}
	for _, p := range phases {
		m.AppsByPhase.WithLabelValues(string(p)).Set(float64(counts[p]))
	}

	m.MachinePrivilegedCPU.Set(machine.PrivilegedCPUMillis)
	m.MachineProcesses.Set(float64(machine.Processes))
}

// ObserveRequest records one control API request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
