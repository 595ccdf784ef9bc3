package indi

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremylan/POCS/pkg/lib"
)

// TestPrometheusMetricsCollector_ServerLifecycle tests start and stop metrics
func TestPrometheusMetricsCollector_ServerLifecycle(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.ServerStarted()
	pmc.ServerStartFailed(lib.ErrorCodePipeCreation)
	pmc.ServerStarted()
	pmc.ServerStopped()

	expected := `
		# HELP test_server_starts_total Total number of driver server start attempts
		# TYPE test_server_starts_total counter
		test_server_starts_total{status="PIPE_CREATION_FAILED"} 1
		test_server_starts_total{status="success"} 2
		# HELP test_server_stops_total Total number of driver server stops
		# TYPE test_server_stops_total counter
		test_server_stops_total 1
		# HELP test_server_up Whether the driver server was running after the last start or stop
		# TYPE test_server_up gauge
		test_server_up 0
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected),
		"test_server_starts_total", "test_server_stops_total", "test_server_up")
	assert.NoError(t, err)
}

// TestPrometheusMetricsCollector_Drivers tests driver load and unload metrics
func TestPrometheusMetricsCollector_Drivers(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.DriverLoaded("indi_simulator_ccd")
	pmc.DriverLoaded("indi_simulator_ccd")
	pmc.DriverLoadFailed("indi_simulator_telescope", lib.ErrorCodeNotConnected)
	pmc.DriverLoadFailed("indi_simulator_telescope", "")
	pmc.DriverUnloaded("indi_simulator_ccd")
	pmc.LoadedDrivers(1)

	expected := `
		# HELP test_driver_loads_total Total number of driver load attempts
		# TYPE test_driver_loads_total counter
		test_driver_loads_total{driver="indi_simulator_ccd",status="success"} 2
		test_driver_loads_total{driver="indi_simulator_telescope",status="NOT_CONNECTED"} 1
		test_driver_loads_total{driver="indi_simulator_telescope",status="error"} 1
		# HELP test_driver_unloads_total Total number of driver unloads
		# TYPE test_driver_unloads_total counter
		test_driver_unloads_total{driver="indi_simulator_ccd"} 1
		# HELP test_loaded_drivers Number of drivers believed loaded in the driver server
		# TYPE test_loaded_drivers gauge
		test_loaded_drivers 1
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected),
		"test_driver_loads_total", "test_driver_unloads_total", "test_loaded_drivers")
	assert.NoError(t, err)
}

// TestPrometheusMetricsCollector_CommandDuration tests FIFO write timings
func TestPrometheusMetricsCollector_CommandDuration(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	pmc.CommandDuration("start", 2*time.Millisecond, nil)
	pmc.CommandDuration("stop", time.Second, errors.New("no reader"))

	count, err := testutil.GatherAndCount(pmc.Registry(), "test_command_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestPrometheusMetricsCollector_DefaultNamespace tests the namespace fallback
func TestPrometheusMetricsCollector_DefaultNamespace(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("")
	pmc.ServerStopped()

	count, err := testutil.GatherAndCount(pmc.Registry(), "pocs_indi_server_stops_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// TestPrometheusMetricsCollector_Server tests metrics recorded by a live server
func TestPrometheusMetricsCollector_Server(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")
	s, _ := newFakeServer(t, WithMetricsCollector(pmc))

	require.NoError(t, s.LoadDriver("cam0", "indi_simulator_ccd"))
	require.NoError(t, s.Stop())

	expected := `
		# HELP test_server_starts_total Total number of driver server start attempts
		# TYPE test_server_starts_total counter
		test_server_starts_total{status="success"} 1
		# HELP test_driver_loads_total Total number of driver load attempts
		# TYPE test_driver_loads_total counter
		test_driver_loads_total{driver="indi_simulator_ccd",status="success"} 1
		# HELP test_loaded_drivers Number of drivers believed loaded in the driver server
		# TYPE test_loaded_drivers gauge
		test_loaded_drivers 0
	`
	err := testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected),
		"test_server_starts_total", "test_driver_loads_total", "test_loaded_drivers")
	assert.NoError(t, err)
}

// TestPrometheusMetricsCollector_MissingBinary tests that a fatal start is counted
func TestPrometheusMetricsCollector_MissingBinary(t *testing.T) {
	pmc := NewPrometheusMetricsCollector("test")

	_, err := NewServer(
		WithBinary("definitely-not-indiserver"),
		WithFifoPath(filepath.Join(t.TempDir(), "indiFIFO")),
		WithMetricsCollector(pmc),
	)
	require.Error(t, err)

	expected := `
		# HELP test_server_starts_total Total number of driver server start attempts
		# TYPE test_server_starts_total counter
		test_server_starts_total{status="STARTUP_FAILED"} 1
	`
	err = testutil.GatherAndCompare(pmc.Registry(), strings.NewReader(expected), "test_server_starts_total")
	assert.NoError(t, err)
}
