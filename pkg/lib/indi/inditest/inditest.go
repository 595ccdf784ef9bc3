// Package inditest provides a stand-in for the INDI server executable so
// driver server behaviour can be tested without INDI installed.
package inditest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// script parses -f like indiserver does, records its arguments, then keeps
// reading the FIFO and appends every command to commands.log.
const script = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$*" > "$dir/args.log"
fifo=""
while [ $# -gt 0 ]; do
  case "$1" in
    -f) fifo="$2"; shift ;;
  esac
  shift
done
while :; do
  cat "$fifo" >> "$dir/commands.log" 2>/dev/null || sleep 0.1
done
`

// FakeServer is an executable script acting as indiserver.
type FakeServer struct {
	Binary string
	Dir    string
}

// NewFakeServer writes the fake server into a fresh temp directory.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	dir := t.TempDir()
	bin := filepath.Join(dir, "indiserver")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake indiserver: %v", err)
	}
	return &FakeServer{Binary: bin, Dir: dir}
}

// FifoPath returns a FIFO path inside the fake server's directory.
func (f *FakeServer) FifoPath() string {
	return filepath.Join(f.Dir, "indiFIFO")
}

// Commands returns everything the server has read from its FIFO so far.
func (f *FakeServer) Commands() string {
	b, _ := os.ReadFile(filepath.Join(f.Dir, "commands.log"))
	return string(b)
}

// Args returns the arguments the server was last started with.
func (f *FakeServer) Args() string {
	b, _ := os.ReadFile(filepath.Join(f.Dir, "args.log"))
	return strings.TrimSpace(string(b))
}

// WaitCommands polls until the recorded commands equal want or timeout elapses.
func (f *FakeServer) WaitCommands(t *testing.T, want string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.Commands() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("fake indiserver commands = %q, want %q", f.Commands(), want)
}

// WaitArgs polls until the server has recorded its arguments.
func (f *FakeServer) WaitArgs(t *testing.T, timeout time.Duration) string {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if args := f.Args(); args != "" {
			return args
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("fake indiserver did not record its arguments")
	return ""
}
