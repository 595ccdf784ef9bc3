package indi

import (
	"time"

	"github.com/jeremylan/POCS/pkg/lib"
)

// MetricsCollector defines the interface for collecting driver server metrics
type MetricsCollector interface {
	// ServerStarted records a successful server start
	ServerStarted()

	// ServerStartFailed records a start that did not produce a running server
	ServerStartFailed(code lib.ErrorCode)

	// ServerStopped records a stop of a running server
	ServerStopped()

	// DriverLoaded records a load command handed to the server
	DriverLoaded(driver string)

	// DriverLoadFailed records a load that was not sent
	DriverLoadFailed(driver string, code lib.ErrorCode)

	// DriverUnloaded records an unload
	DriverUnloaded(driver string)

	// CommandDuration records how long a FIFO command took
	CommandDuration(command string, duration time.Duration, err error)

	// LoadedDrivers records the number of drivers believed loaded
	LoadedDrivers(n int)
}

// noopMetricsCollector is a no-op implementation of MetricsCollector
type noopMetricsCollector struct{}

func (n *noopMetricsCollector) ServerStarted()                                     {}
func (n *noopMetricsCollector) ServerStartFailed(code lib.ErrorCode)               {}
func (n *noopMetricsCollector) ServerStopped()                                     {}
func (n *noopMetricsCollector) DriverLoaded(driver string)                         {}
func (n *noopMetricsCollector) DriverLoadFailed(driver string, code lib.ErrorCode) {}
func (n *noopMetricsCollector) DriverUnloaded(driver string)                       {}
func (n *noopMetricsCollector) CommandDuration(command string, duration time.Duration, err error) {
}
func (n *noopMetricsCollector) LoadedDrivers(count int) {}

// NewNoopMetricsCollector creates a no-op metrics collector
func NewNoopMetricsCollector() MetricsCollector {
	return &noopMetricsCollector{}
}
