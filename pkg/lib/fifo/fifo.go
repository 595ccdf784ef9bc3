// Package fifo creates, opens and removes the named pipe used as the driver
// server's command channel.
package fifo

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrNoReader is returned when no process has the FIFO open for reading
	// before the open timeout elapses.
	ErrNoReader = errors.New("no reader attached to FIFO")

	// ErrNotFifo is returned when the path exists but is not a named pipe.
	ErrNotFifo = errors.New("path exists and is not a FIFO")
)

// Mode of a newly created FIFO: owner read/write.
const Mode = 0o600

const pollInterval = 10 * time.Millisecond

// Create makes a FIFO at path. created is false when a FIFO already existed
// there, which callers treat as a stale pipe to reuse.
func Create(path string) (created bool, err error) {
	err = unix.Mkfifo(path, Mode)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, unix.EEXIST) {
		if IsFifo(path) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", path, ErrNotFifo)
	}
	return false, &os.PathError{Op: "mkfifo", Path: path, Err: err}
}

// IsFifo reports whether path exists and is a named pipe.
func IsFifo(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeNamedPipe != 0
}

// Exists reports whether anything exists at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Remove deletes the FIFO. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// OpenWriter opens the FIFO for writing without blocking on a missing reader.
// The open is retried until a reader attaches or timeout elapses. The returned
// file is pollable, so callers can bound writes with SetWriteDeadline.
func OpenWriter(path string, timeout time.Duration) (*os.File, error) {
	deadline := time.Now().Add(timeout)
	for {
		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err == nil {
			return os.NewFile(uintptr(fd), path), nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		// ENXIO: the FIFO exists but nobody is reading it yet.
		if !errors.Is(err, unix.ENXIO) {
			return nil, &os.PathError{Op: "open", Path: path, Err: err}
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%s: %w after %s", path, ErrNoReader, timeout)
		}
		time.Sleep(pollInterval)
	}
}
