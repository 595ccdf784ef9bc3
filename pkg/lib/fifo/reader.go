package fifo

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Reader holds a FIFO open for reading and delivers whatever writers put into
// it as chunks. It plays the part of the driver server's end of the pipe.
type Reader struct {
	fd     int
	chunks chan []byte
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewReader opens path for reading. The open does not wait for a writer.
func NewReader(path string) (*Reader, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		fd:     fd,
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.loop()

	return r, nil
}

// Chunks returns the channel of received data. It is closed by Close.
func (r *Reader) Chunks() <-chan []byte {
	return r.chunks
}

// Next waits up to timeout for the next chunk.
func (r *Reader) Next(timeout time.Duration) ([]byte, bool) {
	select {
	case b, ok := <-r.chunks:
		return b, ok
	case <-time.After(timeout):
		return nil, false
	}
}

// Close stops reading and releases the descriptor.
func (r *Reader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
		close(r.chunks)
		err = unix.Close(r.fd)
	})
	return err
}

func (r *Reader) loop() {
	defer r.wg.Done()

	buf := make([]byte, 4096)
	for {
		select {
		case <-r.done:
			return
		default:
		}

		n, err := unix.Read(r.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			// EAGAIN: a writer is attached but has not written yet
			time.Sleep(pollInterval)
			continue
		}
		if n == 0 {
			// EOF: no writer attached right now
			time.Sleep(pollInterval)
			continue
		}

		chunk := append([]byte(nil), buf[:n]...)
		select {
		case r.chunks <- chunk:
		case <-r.done:
			return
		}
	}
}
