package lib

import "time"

// ProcessState is the coarse lifecycle state of a supervised server process.
type ProcessState int

const (
	ProcessStateUnspecified ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateRunning:
		return "running"
	case ProcessStateStopped:
		return "stopped"
	default:
		return "unspecified"
	}
}

// Command captures the resolved executable and argument list used to start a server.
type Command struct {
	Command string
	Args    []string
}

// ProcessStatus captures runtime state and timestamps.
type ProcessStatus struct {
	State     ProcessState
	ExitCode  *int
	StartTime time.Time
	EndTime   *time.Time
}
