// Package channel writes driver load and unload commands to the driver
// server's FIFO. Delivery is one way: a successful Send only means the line
// was handed to the pipe.
package channel

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/fifo"
)

// DefaultTimeout bounds the wait for a reader on the FIFO and the write itself.
const DefaultTimeout = 2 * time.Second

// Channel is a single-writer transport onto one FIFO. Callers serialize Send.
type Channel struct {
	path    string
	timeout time.Duration
	alive   func() bool
}

// New creates a channel writing to path. alive reports whether the process
// reading the FIFO is running.
func New(path string, timeout time.Duration, alive func() bool) *Channel {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Channel{path: path, timeout: timeout, alive: alive}
}

// Path returns the FIFO path.
func (c *Channel) Path() string {
	return c.path
}

// Send writes the encoded tokens with one write on a freshly opened FIFO.
func (c *Channel) Send(tokens []string) error {
	if c.alive == nil || !c.alive() {
		return lib.NewChannelUnavailableError(c.path, "no running server found")
	}
	if !fifo.Exists(c.path) {
		return lib.NewChannelUnavailableError(c.path, "no FIFO file found")
	}

	line := Encode(tokens)
	log.Debug().Str("fifo", c.path).Str("command", displayLine(tokens)).Msg("Command to FIFO server")

	f, err := fifo.OpenWriter(c.path, c.timeout)
	if err != nil {
		return lib.NewTransportError(c.path, err)
	}
	_ = f.SetWriteDeadline(time.Now().Add(c.timeout))

	_, werr := f.WriteString(line)
	cerr := f.Close()
	if werr != nil {
		return lib.NewTransportError(c.path, werr)
	}
	if cerr != nil {
		return lib.NewTransportError(c.path, cerr)
	}
	return nil
}
