// Package supervisor owns the lifetime of one external driver server process
// and the named pipe it reads commands from.
package supervisor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/jeremylan/POCS/pkg/lib"
)

// DefaultStopTimeout is how long Stop waits for the process to exit after
// SIGTERM before escalating to SIGKILL.
const DefaultStopTimeout = 3 * time.Second

// Supervisor starts, probes and stops server processes.
type Supervisor struct {
	stopTimeout time.Duration
}

// Handle is a started server process together with its FIFO.
type Handle struct {
	ID       string
	PID      int
	FifoPath string
	Command  lib.Command

	cmd  *exec.Cmd
	done chan struct{}

	// status fields
	mu       sync.RWMutex
	state    lib.ProcessState
	exitCode *int
	start    time.Time
	end      *time.Time
}

// New creates a Supervisor. A non-positive stopTimeout selects DefaultStopTimeout.
func New(stopTimeout time.Duration) *Supervisor {
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Supervisor{stopTimeout: stopTimeout}
}

// StopTimeout returns the SIGTERM grace period.
func (s *Supervisor) StopTimeout() time.Duration {
	return s.stopTimeout
}
