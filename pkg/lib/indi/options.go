package indi

import (
	"time"
)

// Option configures the Server
type Option func(*Server)

// WithBinary sets the server executable, looked up on PATH
func WithBinary(binary string) Option {
	return func(s *Server) {
		s.binary = binary
	}
}

// WithFifoPath sets the command FIFO path
func WithFifoPath(path string) Option {
	return func(s *Server) {
		s.fifoPath = path
	}
}

// WithArgs replaces the full default argument list
func WithArgs(args ...string) Option {
	return func(s *Server) {
		s.args = append([]string(nil), args...)
	}
}

// WithWriteTimeout bounds how long a command waits for the FIFO reader
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// WithStopTimeout sets the SIGTERM grace period
func WithStopTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.stopTimeout = d
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(s *Server) {
		s.metrics = mc
	}
}
