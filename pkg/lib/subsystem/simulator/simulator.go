// Package simulator provides mount and camera models that need no hardware
// and no driver server.
package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/subsystem"
)

// Model is the registered name of the simulator models.
const Model = "simulator"

// Mount is a simulated mount. It starts parked.
type Mount struct {
	mu        sync.Mutex
	location  config.Location
	params    map[string]any
	connected bool
	parked    bool
	position  string
}

// NewMount builds a simulated mount for p.Location.
func NewMount(p subsystem.Params) (subsystem.Subsystem, error) {
	return &Mount{location: p.Location, parked: true}, nil
}

func (m *Mount) Model() string { return Model }

func (m *Mount) Configure(params map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = params
	return nil
}

func (m *Mount) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	log.Debug().Str("model", Model).Str("location", m.location.Name).Msg("Mount connected")
	return nil
}

func (m *Mount) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mount) Location() config.Location { return m.location }

func (m *Mount) SlewTo(position string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return lib.NewNotConnectedError("slew").WithContext("model", Model)
	}
	if position == "" {
		return lib.NewError(lib.ErrorCodeConfiguration, "Empty slew position")
	}
	m.parked = false
	m.position = position
	log.Debug().Str("position", position).Msg("Simulated slew")
	return nil
}

func (m *Mount) Park() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return lib.NewNotConnectedError("park").WithContext("model", Model)
	}
	m.parked = true
	m.position = ""
	return nil
}

func (m *Mount) IsParked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parked
}

// Position is the last slew target, empty while parked.
func (m *Mount) Position() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Camera is a simulated camera. Captures return without waiting.
type Camera struct {
	mu        sync.Mutex
	name      string
	params    map[string]any
	connected bool
	captures  int
}

// NewCamera builds a simulated camera named after the configured name.
func NewCamera(p subsystem.Params) (subsystem.Subsystem, error) {
	name := p.Config.Name
	if name == "" {
		name = "SimulatedCamera"
	}
	return &Camera{name: name}, nil
}

func (c *Camera) Model() string { return Model }

func (c *Camera) Name() string { return c.name }

func (c *Camera) Configure(params map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	return nil
}

func (c *Camera) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	log.Debug().Str("camera", c.name).Msg("Camera connected")
	return nil
}

func (c *Camera) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Camera) Capture(seconds float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return "", lib.NewNotConnectedError("capture").WithContext("camera", c.name)
	}
	if seconds <= 0 {
		return "", lib.NewError(lib.ErrorCodeConfiguration, "Exposure time must be positive").
			WithContext("seconds", seconds)
	}
	c.captures++
	return fmt.Sprintf("%s_%s_%03d.fits", c.name, time.Now().UTC().Format("20060102T150405"), c.captures), nil
}

var (
	_ subsystem.Mount  = (*Mount)(nil)
	_ subsystem.Camera = (*Camera)(nil)
)
