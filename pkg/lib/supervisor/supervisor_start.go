package supervisor

import (
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/fifo"
)

// Resolve looks command up on PATH.
func Resolve(command string) (string, error) {
	if command == "" {
		return "", lib.NewExecutableNotFoundError(command, errors.New("command is required"))
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", lib.NewExecutableNotFoundError(command, err)
	}
	return path, nil
}

// Start creates the FIFO at fifoPath and then spawns command with args. The
// process gets no stdin and its stdout and stderr are discarded. A FIFO left
// over from an unclean shutdown is reused with a warning. On any failure the
// FIFO is removed again.
func (s *Supervisor) Start(command string, args []string, fifoPath string) (*Handle, error) {
	binPath, err := Resolve(command)
	if err != nil {
		return nil, err
	}

	created, err := fifo.Create(fifoPath)
	if err != nil {
		return nil, lib.NewPipeCreationError(fifoPath, err)
	}
	if !created {
		log.Warn().Str("fifo", fifoPath).Msg("FIFO already exists, reusing it")
	}

	cmd := exec.Command(binPath, args...)
	cmd.SysProcAttr = sysProcAttr()
	// nil Stdin/Stdout/Stderr are connected to the null device
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	h := &Handle{
		ID:       lib.NewID(),
		FifoPath: fifoPath,
		Command:  lib.Command{Command: binPath, Args: append([]string(nil), args...)},
		cmd:      cmd,
		done:     make(chan struct{}),
		state:    lib.ProcessStateRunning,
		start:    time.Now(),
	}

	log.Debug().Str("command", binPath).Strs("args", args).Msg("Starting driver server")
	if err := cmd.Start(); err != nil {
		if rmErr := fifo.Remove(fifoPath); rmErr != nil {
			log.Warn().Err(rmErr).Str("fifo", fifoPath).Msg("Failed to remove FIFO after start failure")
		}
		return nil, lib.NewProcessStartError(binPath, err)
	}
	h.PID = cmd.Process.Pid

	go h.wait()

	log.Debug().Int("pid", h.PID).Str("fifo", fifoPath).Msg("Driver server started")
	return h, nil
}

// wait reaps the process and records how it ended.
func (h *Handle) wait() {
	err := h.cmd.Wait()

	h.mu.Lock()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			h.exitCode = &code
		}
	} else {
		code := 0
		h.exitCode = &code
	}
	now := time.Now()
	h.end = &now
	h.state = lib.ProcessStateStopped
	h.mu.Unlock()

	close(h.done)

	if err != nil {
		log.Debug().Err(err).Int("pid", h.PID).Msg("Driver server exited")
	} else {
		log.Debug().Int("pid", h.PID).Msg("Driver server exited cleanly")
	}
}
