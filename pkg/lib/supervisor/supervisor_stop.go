package supervisor

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/jeremylan/POCS/pkg/lib/fifo"
)

// Stop terminates the process group if it is alive and then removes the FIFO.
// Calling Stop on an already stopped handle only retries the FIFO cleanup.
func (s *Supervisor) Stop(h *Handle) error {
	if h == nil {
		return nil
	}

	if s.IsAlive(h) {
		log.Debug().Int("pid", h.PID).Msg("Shutting down driver server")
		// negative PID signals the whole process group
		_ = unix.Kill(-h.PID, unix.SIGTERM)
		if !h.waitExit(s.stopTimeout) {
			log.Warn().Int("pid", h.PID).Dur("timeout", s.stopTimeout).Msg("Driver server ignored SIGTERM, killing it")
			_ = unix.Kill(-h.PID, unix.SIGKILL)
			h.waitExit(s.stopTimeout)
		}
	}

	if err := fifo.Remove(h.FifoPath); err != nil {
		return fmt.Errorf("remove fifo %s: %w", h.FifoPath, err)
	}
	return nil
}
