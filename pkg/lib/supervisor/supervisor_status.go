package supervisor

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/jeremylan/POCS/pkg/lib"
)

// IsAlive reports whether the OS still has a live process for the handle's
// PID. A hung process is still alive.
func (s *Supervisor) IsAlive(h *Handle) bool {
	if h == nil || h.PID <= 0 {
		return false
	}
	if h.Status().State != lib.ProcessStateRunning {
		return false
	}
	return unix.Kill(h.PID, 0) == nil
}

// Status returns a snapshot of the process status.
func (h *Handle) Status() lib.ProcessStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := lib.ProcessStatus{State: h.state, StartTime: h.start}
	if h.exitCode != nil {
		st.ExitCode = new(int)
		*st.ExitCode = *h.exitCode
	}
	if h.end != nil {
		t := *h.end
		st.EndTime = &t
	}
	return st
}

// Done is closed once the process has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) waitExit(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
