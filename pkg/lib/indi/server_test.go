package indi

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/fifo"
	"github.com/jeremylan/POCS/pkg/lib/indi/inditest"
)

const waitTimeout = 5 * time.Second

func newFakeServer(t *testing.T, opts ...Option) (*Server, *inditest.FakeServer) {
	t.Helper()

	fake := inditest.NewFakeServer(t)
	opts = append([]Option{
		WithBinary(fake.Binary),
		WithFifoPath(fake.FifoPath()),
		WithStopTimeout(time.Second),
	}, opts...)

	s, err := NewServer(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.True(t, s.IsConnected(), "fake server should be running")
	return s, fake
}

// newSilentServer runs a process that never reads the FIFO.
func newSilentServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	opts = append([]Option{
		WithBinary("sleep"),
		WithArgs("30"),
		WithFifoPath(filepath.Join(t.TempDir(), "indiFIFO")),
		WithWriteTimeout(100 * time.Millisecond),
		WithStopTimeout(time.Second),
	}, opts...)

	s, err := NewServer(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestNewServerMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indiFIFO")

	s, err := NewServer(WithBinary("definitely-not-indiserver"), WithFifoPath(path))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, lib.ErrStartup))
	assert.False(t, fifo.Exists(path))
}

func TestStartUsesDefaultArgs(t *testing.T) {
	s, fake := newFakeServer(t)

	args := fake.WaitArgs(t, waitTimeout)
	assert.Equal(t, "-m 100 -f "+fake.FifoPath(), args)
	assert.Equal(t, []string{"-m", "100", "-f", fake.FifoPath()}, s.Command().Args)
	assert.NotZero(t, s.PID())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, fake.FifoPath(), s.FifoPath())
}

func TestLoadDriverWritesCommand(t *testing.T) {
	s, fake := newFakeServer(t)

	require.NoError(t, s.LoadDriver("cam0", "indi_simulator_ccd"))

	fake.WaitCommands(t, "start indi_simulator_ccd -n \"cam0\" \n", waitTimeout)
	assert.True(t, s.IsLoaded("cam0"))
}

func TestLoadThenUnload(t *testing.T) {
	s, fake := newFakeServer(t)

	require.NoError(t, s.LoadDriver("cam0", "indi_simulator_ccd"))
	require.NoError(t, s.UnloadDriver("cam0", "indi_simulator_ccd"))

	assert.False(t, s.IsLoaded("cam0"))
	fake.WaitCommands(t, "start indi_simulator_ccd -n \"cam0\" \nstop indi_simulator_ccd \"cam0\" \n", waitTimeout)
}

func TestLoadDriverSkipsDuplicate(t *testing.T) {
	s, fake := newFakeServer(t)

	require.NoError(t, s.LoadDevice(Device{Name: "cam0", Driver: "indi_simulator_ccd"}))
	require.NoError(t, s.LoadDevice(Device{Name: "cam0", Driver: "indi_simulator_ccd"}))

	fake.WaitCommands(t, "start indi_simulator_ccd -n \"cam0\" \n", waitTimeout)
	assert.Len(t, s.Drivers(), 1)
}

func TestLoadDriverWithoutDeviceName(t *testing.T) {
	s, fake := newFakeServer(t)

	require.NoError(t, s.LoadDriver("", "indi_simulator_telescope"))

	fake.WaitCommands(t, "start indi_simulator_telescope \n", waitTimeout)
	assert.True(t, s.IsLoaded("indi_simulator_telescope"))
}

func TestLoadDriverNotConnected(t *testing.T) {
	s, _ := newFakeServer(t)
	require.NoError(t, s.Stop())

	err := s.LoadDriver("cam0", "indi_simulator_ccd")
	assert.True(t, errors.Is(err, lib.ErrNotConnected))
	assert.False(t, s.IsLoaded("cam0"))
	assert.Empty(t, s.Drivers())

	err = s.UnloadDriver("cam0", "indi_simulator_ccd")
	assert.True(t, errors.Is(err, lib.ErrNotConnected))
}

func TestLoadDriverTransportFailureLeavesRegistry(t *testing.T) {
	s := newSilentServer(t)
	require.True(t, s.IsConnected())

	err := s.LoadDriver("cam0", "indi_simulator_ccd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, lib.ErrDriverLoad))
	assert.True(t, errors.Is(err, lib.ErrTransport))
	assert.False(t, s.IsLoaded("cam0"))
}

func TestUnloadDriverTransportFailureStillUpdatesRegistry(t *testing.T) {
	s := newSilentServer(t)
	s.registry.RecordLoad("cam0", "indi_simulator_ccd")

	err := s.UnloadDriver("cam0", "indi_simulator_ccd")
	assert.True(t, errors.Is(err, lib.ErrTransport))
	assert.False(t, s.IsLoaded("cam0"))
}

type commandHook struct {
	noopMetricsCollector
	onCommand func(command string, err error)
}

func (h *commandHook) CommandDuration(command string, d time.Duration, err error) {
	h.onCommand(command, err)
}

func TestLoadDriversPartialFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indiFIFO")

	var reader *fifo.Reader
	var once sync.Once
	hook := &commandHook{onCommand: func(string, error) {
		// after the first command nobody reads the FIFO any more
		once.Do(func() { _ = reader.Close() })
	}}

	s := newSilentServer(t, WithFifoPath(path), WithMetricsCollector(hook))
	require.True(t, fifo.IsFifo(path))

	var err error
	reader, err = fifo.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	failed := s.LoadDrivers(map[string]string{
		"cam-a": "indi_simulator_ccd",
		"cam-b": "indi_simulator_ccd",
		"mount": "indi_simulator_telescope",
	})

	assert.Len(t, failed, 2)
	assert.Contains(t, failed, "cam-b")
	assert.Contains(t, failed, "mount")
	assert.True(t, s.IsLoaded("cam-a"))
	assert.False(t, s.IsLoaded("cam-b"))
	assert.False(t, s.IsLoaded("mount"))
}

func TestLoadDriversNotConnectedReportsAll(t *testing.T) {
	s, _ := newFakeServer(t)
	require.NoError(t, s.Stop())

	failed := s.LoadDrivers(map[string]string{"cam0": "indi_simulator_ccd", "cam1": "indi_simulator_ccd"})
	require.Len(t, failed, 2)
	for _, err := range failed {
		assert.True(t, errors.Is(err, lib.ErrNotConnected))
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, fake := newFakeServer(t)
	require.NoError(t, s.LoadDriver("cam0", "indi_simulator_ccd"))

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.False(t, s.IsConnected())
	assert.False(t, fifo.Exists(fake.FifoPath()))
	assert.Empty(t, s.Drivers())
}

func TestStartWhileRunning(t *testing.T) {
	s, _ := newFakeServer(t)

	err := s.Start()
	assert.True(t, errors.Is(err, lib.ErrAlreadyRunning))
}

func TestRestartClearsRegistry(t *testing.T) {
	s, fake := newFakeServer(t)
	require.NoError(t, s.LoadDriver("cam0", "indi_simulator_ccd"))
	oldPID := s.PID()

	require.NoError(t, s.Restart())

	assert.True(t, s.IsConnected())
	assert.NotEqual(t, oldPID, s.PID())
	assert.False(t, s.IsLoaded("cam0"))
	assert.True(t, fifo.IsFifo(fake.FifoPath()))
}

func TestStartFailureLeavesServerDisconnected(t *testing.T) {
	fake := inditest.NewFakeServer(t)
	path := filepath.Join(t.TempDir(), "missing-dir", "indiFIFO")

	s, err := NewServer(WithBinary(fake.Binary), WithFifoPath(path))
	require.NoError(t, err, "only a missing executable is fatal")
	defer s.Stop()

	assert.False(t, s.IsConnected())
	assert.Zero(t, s.PID())
	assert.True(t, errors.Is(s.LoadDriver("cam0", "indi_simulator_ccd"), lib.ErrNotConnected))

	assert.True(t, errors.Is(s.Start(), lib.ErrPipeCreation))
	require.NoError(t, s.Stop())
}

func TestServerExitIsDetectedAndRestartable(t *testing.T) {
	s, err := NewServer(
		WithBinary("sh"),
		WithArgs("-c", "exit 0"),
		WithFifoPath(filepath.Join(t.TempDir(), "indiFIFO")),
	)
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool { return !s.IsConnected() }, waitTimeout, 10*time.Millisecond)
	assert.True(t, errors.Is(s.LoadDriver("cam0", "indi_simulator_ccd"), lib.ErrNotConnected))

	// Start reaps the dead process and spawns a new one
	require.NoError(t, s.Start())
}

func TestServersDoNotInterfere(t *testing.T) {
	a, fakeA := newFakeServer(t)
	b, fakeB := newFakeServer(t)

	require.NoError(t, a.LoadDriver("cam0", "indi_simulator_ccd"))
	require.NoError(t, b.Stop())

	assert.True(t, a.IsConnected())
	assert.True(t, a.IsLoaded("cam0"))
	assert.False(t, b.IsLoaded("cam0"))
	assert.True(t, fifo.IsFifo(fakeA.FifoPath()))
	assert.False(t, fifo.Exists(fakeB.FifoPath()))
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestConcurrentLoadsAreSerialized(t *testing.T) {
	s, fake := newFakeServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.LoadDriver(fmt.Sprintf("cam%d", i), "indi_simulator_ccd"))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Drivers(), 8)
	assert.Eventually(t, func() bool {
		return strings.Count(fake.Commands(), "\n") == 8
	}, waitTimeout, 10*time.Millisecond)

	for _, line := range strings.SplitAfter(strings.TrimSuffix(fake.Commands(), "\n"), "\n") {
		assert.Regexp(t, `^start indi_simulator_ccd -n "cam[0-7]" \n?$`, line)
	}
}
