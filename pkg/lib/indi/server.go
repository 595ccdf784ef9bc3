// Package indi runs an INDI driver server as a child process and loads and
// unloads device drivers in it through the server's command FIFO.
package indi

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/channel"
	"github.com/jeremylan/POCS/pkg/lib/registry"
	"github.com/jeremylan/POCS/pkg/lib/supervisor"
)

const (
	// DefaultBinary is the INDI server executable.
	DefaultBinary = "indiserver"

	// DefaultFifoPath is where the command FIFO is created.
	DefaultFifoPath = "/tmp/pan_indiFIFO"

	// defaultMaxQueue is passed as -m, the server's per-client queue limit in MB.
	defaultMaxQueue = "100"
)

// Device pairs a device name with the driver that serves it.
type Device struct {
	Name   string
	Driver string
}

// Server is the driver server facade. All driver commands go through one
// mutex so that the registry always matches what was written to the FIFO.
type Server struct {
	mu sync.Mutex

	id           string
	binary       string
	binPath      string
	fifoPath     string
	args         []string
	writeTimeout time.Duration
	stopTimeout  time.Duration

	supervisor *supervisor.Supervisor
	handle     *supervisor.Handle
	channel    *channel.Channel
	registry   *registry.Registry
	metrics    MetricsCollector
}

// NewServer resolves the server executable and starts it. A missing
// executable is fatal. Any other start failure is logged and leaves the
// server not connected; call Start to retry.
func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		id:           lib.NewID(),
		binary:       DefaultBinary,
		fifoPath:     DefaultFifoPath,
		writeTimeout: channel.DefaultTimeout,
		stopTimeout:  supervisor.DefaultStopTimeout,
		registry:     registry.New(),
		metrics:      NewNoopMetricsCollector(),
	}

	for _, opt := range opts {
		opt(s)
	}

	binPath, err := supervisor.Resolve(s.binary)
	if err != nil {
		s.metrics.ServerStartFailed(lib.CodeOf(err))
		return nil, err
	}
	s.binPath = binPath
	s.supervisor = supervisor.New(s.stopTimeout)
	// Send is only ever called with s.mu held, so the probe must not lock.
	s.channel = channel.New(s.fifoPath, s.writeTimeout, s.connected)

	if err := s.Start(); err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("Problem starting the INDI server")
	}

	log.Debug().Str("session", s.id).Int("pid", s.PID()).Msg("INDI server manager created")
	return s, nil
}

// ID identifies this manager instance in logs.
func (s *Server) ID() string {
	return s.id
}

// FifoPath returns the command FIFO path.
func (s *Server) FifoPath() string {
	return s.fifoPath
}

// Command returns the executable and arguments used for the server.
func (s *Server) Command() lib.Command {
	return lib.Command{Command: s.binPath, Args: s.startArgs()}
}

// PID of the current server process, or 0 if none was started.
func (s *Server) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.PID
}

// Start spawns the server with the configured arguments, or with
// `-m 100 -f <fifo>` when none were given. The driver registry starts empty.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Server) startLocked() error {
	if s.connected() {
		return lib.NewAlreadyRunningError(s.handle.PID)
	}
	if s.handle != nil {
		// reap what is left of a server that died on its own
		if err := s.supervisor.Stop(s.handle); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Cleanup of previous INDI server failed")
		}
		s.handle = nil
	}

	s.registry.Clear()
	s.metrics.LoadedDrivers(0)

	h, err := s.supervisor.Start(s.binPath, s.startArgs(), s.fifoPath)
	if err != nil {
		s.metrics.ServerStartFailed(lib.CodeOf(err))
		return err
	}
	s.handle = h
	s.metrics.ServerStarted()

	log.Info().
		Str("session", s.id).
		Int("pid", h.PID).
		Str("fifo", s.fifoPath).
		Msg("INDI server started")
	return nil
}

func (s *Server) startArgs() []string {
	if len(s.args) > 0 {
		return append([]string(nil), s.args...)
	}
	return []string{"-m", defaultMaxQueue, "-f", s.fifoPath}
}

// IsConnected reports whether the server process is alive. It is a liveness
// probe only; a hung server still counts as connected.
func (s *Server) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected()
}

func (s *Server) connected() bool {
	return s.supervisor.IsAlive(s.handle)
}

// LoadDriver asks the server to start driver for device. The registry is only
// updated once the command was written. A device already loaded with the same
// driver is not sent again. An empty device name lets the server pick one; the
// driver name is then used as the registry key.
func (s *Server) LoadDriver(device, driver string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected() {
		err := lib.NewNotConnectedError("load driver").
			WithContext("device", device).
			WithContext("driver", driver)
		s.metrics.DriverLoadFailed(driver, err.Code)
		return err
	}

	key := registryKey(device, driver)
	if rec, ok := s.registry.Get(key); ok && rec.Driver == driver {
		log.Debug().Str("device", key).Str("driver", driver).Msg("Driver already loaded")
		return nil
	}

	log.Debug().Str("device", device).Str("driver", driver).Msg("Loading driver")
	if err := s.send("start", channel.LoadCommand(driver, device)); err != nil {
		loadErr := lib.NewDriverLoadError(device, driver, err)
		s.metrics.DriverLoadFailed(driver, loadErr.Code)
		return loadErr
	}

	s.registry.RecordLoad(key, driver)
	s.metrics.DriverLoaded(driver)
	s.metrics.LoadedDrivers(s.registry.Len())
	return nil
}

// LoadDevice loads the driver for d.
func (s *Server) LoadDevice(d Device) error {
	return s.LoadDriver(d.Name, d.Driver)
}

// LoadDrivers loads every device -> driver pair. A failure is logged and the
// device skipped. The returned map holds only the devices that failed.
func (s *Server) LoadDrivers(devices map[string]string) map[string]error {
	failed := make(map[string]error)

	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		driver := devices[name]
		if err := s.LoadDriver(name, driver); err != nil {
			log.Warn().
				Err(err).
				Str("device", name).
				Str("driver", driver).
				Msg("Problem loading driver. Skipping for now.")
			failed[name] = err
		}
	}
	return failed
}

// UnloadDriver asks the server to stop driver for device. The device is
// dropped from the registry whether or not the command could be written.
func (s *Server) UnloadDriver(device, driver string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected() {
		return lib.NewNotConnectedError("unload driver").
			WithContext("device", device).
			WithContext("driver", driver)
	}

	log.Debug().Str("device", device).Str("driver", driver).Msg("Unloading driver")
	err := s.send("stop", channel.UnloadCommand(driver, device))

	s.registry.RecordUnload(registryKey(device, driver))
	s.metrics.DriverUnloaded(driver)
	s.metrics.LoadedDrivers(s.registry.Len())

	if err != nil {
		log.Warn().Err(err).Str("device", device).Str("driver", driver).Msg("Problem unloading driver")
		return err
	}
	return nil
}

func (s *Server) send(command string, tokens []string) error {
	start := time.Now()
	err := s.channel.Send(tokens)
	s.metrics.CommandDuration(command, time.Since(start), err)
	return err
}

// IsLoaded reports whether device is believed loaded.
func (s *Server) IsLoaded(device string) bool {
	return s.registry.IsLoaded(device)
}

// Drivers returns the registry contents sorted by device.
func (s *Server) Drivers() []registry.Record {
	return s.registry.Records()
}

// Stop terminates the server, removes the FIFO and forgets all drivers. It is
// safe to call more than once and on a server that never started.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Server) stopLocked() error {
	wasAlive := s.connected()

	err := s.supervisor.Stop(s.handle)
	s.registry.Clear()
	s.metrics.LoadedDrivers(0)

	if wasAlive {
		s.metrics.ServerStopped()
		log.Info().Str("session", s.id).Int("pid", s.handle.PID).Msg("INDI server stopped")
	}
	return err
}

// Restart stops the server and starts a fresh one with an empty registry.
func (s *Server) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopLocked(); err != nil {
		log.Warn().Err(err).Str("session", s.id).Msg("Problem stopping INDI server before restart")
	}
	return s.startLocked()
}

func registryKey(device, driver string) string {
	if device == "" {
		return driver
	}
	return device
}
