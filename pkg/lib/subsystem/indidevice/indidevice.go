// Package indidevice provides mount and camera models backed by a driver
// loaded into the INDI server. Connecting loads the configured driver.
package indidevice

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/subsystem"
)

// Model is the registered name of the driver-backed models.
const Model = "indi"

// device holds what both models share: the driver and the device it serves.
type device struct {
	mu        sync.Mutex
	kind      string
	name      string
	driver    string
	loader    subsystem.DriverLoader
	connected bool
}

func newDevice(kind string, p subsystem.Params) *device {
	return &device{
		kind:   kind,
		name:   p.Config.Name,
		driver: p.Config.Driver,
		loader: p.Drivers,
	}
}

func (d *device) Model() string { return Model }

func (d *device) Configure(params map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if v, ok := params["driver"].(string); ok && v != "" {
		d.driver = v
	}
	if v, ok := params["name"].(string); ok && v != "" {
		d.name = v
	}
	if d.driver == "" {
		return lib.NewConfigurationError(d.kind+".driver", "required by the indi model")
	}
	return nil
}

func (d *device) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loader == nil {
		return lib.NewNotConnectedError("connect "+d.kind).
			WithContext("driver", d.driver).
			WithSuggestion("Configure indi_server to run a driver server")
	}
	if err := d.loader.LoadDriver(d.name, d.driver); err != nil {
		return err
	}

	d.connected = true
	log.Info().Str("kind", d.kind).Str("device", d.name).Str("driver", d.driver).Msg("Device connected")
	return nil
}

func (d *device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *device) requireConnected(op string) error {
	if !d.connected {
		return lib.NewNotConnectedError(op).
			WithContext("device", d.name).
			WithContext("driver", d.driver)
	}
	return nil
}

// Mount is a mount served by an INDI driver.
type Mount struct {
	*device
	location config.Location
	parked   bool
	position string
}

// NewMount builds a driver-backed mount.
func NewMount(p subsystem.Params) (subsystem.Subsystem, error) {
	return &Mount{device: newDevice(config.KindMount, p), location: p.Location, parked: true}, nil
}

func (m *Mount) Location() config.Location { return m.location }

func (m *Mount) SlewTo(position string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireConnected("slew"); err != nil {
		return err
	}
	m.parked = false
	m.position = position
	log.Debug().Str("device", m.name).Str("position", position).Msg("Slew requested")
	return nil
}

func (m *Mount) Park() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireConnected("park"); err != nil {
		return err
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

// Camera is a camera served by an INDI driver.
type Camera struct {
	*device
	captures int
}

// NewCamera builds a driver-backed camera.
func NewCamera(p subsystem.Params) (subsystem.Subsystem, error) {
	return &Camera{device: newDevice(config.KindCamera, p)}, nil
}

// Name is the INDI device name, or the driver when the server names it.
func (c *Camera) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.name == "" {
		return c.driver
	}
	return c.name
}

func (c *Camera) Capture(seconds float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireConnected("capture"); err != nil {
		return "", err
	}
	c.captures++
	id := fmt.Sprintf("%s_%s_%03d", c.driver, time.Now().UTC().Format("20060102T150405"), c.captures)
	log.Debug().Str("device", c.name).Float64("seconds", seconds).Str("image", id).Msg("Exposure requested")
	return id, nil
}

var (
	_ subsystem.Mount  = (*Mount)(nil)
	_ subsystem.Camera = (*Camera)(nil)
)
