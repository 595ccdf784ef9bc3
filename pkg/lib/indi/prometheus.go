package indi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeremylan/POCS/pkg/lib"
)

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics
type PrometheusMetricsCollector struct {
	// Server lifecycle
	serverStarts *prometheus.CounterVec
	serverStops  prometheus.Counter
	serverUp     prometheus.Gauge

	// Driver commands
	driverLoads     *prometheus.CounterVec
	driverUnloads   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	loadedDrivers   prometheus.Gauge

	registry *prometheus.Registry
}

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "pocs_indi"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.serverStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_starts_total",
			Help:      "Total number of driver server start attempts",
		},
		[]string{"status"},
	)

	pmc.serverStops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_stops_total",
			Help:      "Total number of driver server stops",
		},
	)

	pmc.serverUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_up",
			Help:      "Whether the driver server was running after the last start or stop",
		},
	)

	pmc.driverLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_loads_total",
			Help:      "Total number of driver load attempts",
		},
		[]string{"driver", "status"},
	)

	pmc.driverUnloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_unloads_total",
			Help:      "Total number of driver unloads",
		},
		[]string{"driver"},
	)

	pmc.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of FIFO command writes",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"command", "status"},
	)

	pmc.loadedDrivers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loaded_drivers",
			Help:      "Number of drivers believed loaded in the driver server",
		},
	)

	pmc.registry.MustRegister(
		pmc.serverStarts,
		pmc.serverStops,
		pmc.serverUp,
		pmc.driverLoads,
		pmc.driverUnloads,
		pmc.commandDuration,
		pmc.loadedDrivers,
	)

	return pmc
}

// ServerStarted records a successful start
func (pmc *PrometheusMetricsCollector) ServerStarted() {
	pmc.serverStarts.WithLabelValues("success").Inc()
	pmc.serverUp.Set(1)
}

// ServerStartFailed records a failed start
func (pmc *PrometheusMetricsCollector) ServerStartFailed(code lib.ErrorCode) {
	pmc.serverStarts.WithLabelValues(errorLabel(code)).Inc()
	pmc.serverUp.Set(0)
}

// ServerStopped records a stop
func (pmc *PrometheusMetricsCollector) ServerStopped() {
	pmc.serverStops.Inc()
	pmc.serverUp.Set(0)
}

// DriverLoaded records a sent load command
func (pmc *PrometheusMetricsCollector) DriverLoaded(driver string) {
	pmc.driverLoads.WithLabelValues(driver, "success").Inc()
}

// DriverLoadFailed records a load that was not sent
func (pmc *PrometheusMetricsCollector) DriverLoadFailed(driver string, code lib.ErrorCode) {
	pmc.driverLoads.WithLabelValues(driver, errorLabel(code)).Inc()
}

// DriverUnloaded records an unload
func (pmc *PrometheusMetricsCollector) DriverUnloaded(driver string) {
	pmc.driverUnloads.WithLabelValues(driver).Inc()
}

// CommandDuration records the duration of a FIFO write
func (pmc *PrometheusMetricsCollector) CommandDuration(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	pmc.commandDuration.WithLabelValues(command, status).Observe(duration.Seconds())
}

// LoadedDrivers records the registry size
func (pmc *PrometheusMetricsCollector) LoadedDrivers(n int) {
	pmc.loadedDrivers.Set(float64(n))
}

// Registry returns the Prometheus registry for HTTP handler setup
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}

func errorLabel(code lib.ErrorCode) string {
	if code == "" {
		return "error"
	}
	return string(code)
}

// Compile-time interface compliance check
var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)
