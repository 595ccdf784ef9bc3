// Package subsystem defines the mount and camera abstractions built by the
// component factory.
package subsystem

import (
	"github.com/jeremylan/POCS/pkg/lib/config"
)

// Subsystem is the capability set shared by every hardware model.
type Subsystem interface {
	// Model is the registered model name.
	Model() string

	// Configure applies model parameters. It is called once, before Connect.
	Configure(params map[string]any) error

	// Connect brings the hardware online.
	Connect() error

	IsConnected() bool
}

// Mount points the telescope.
type Mount interface {
	Subsystem

	// Location is the site the mount was built for.
	Location() config.Location

	// SlewTo moves to a sexagesimal position such as "02h26m51.06s +37d33m01.7s".
	SlewTo(position string) error
	Park() error
	IsParked() bool
}

// Camera takes exposures.
type Camera interface {
	Subsystem

	Name() string

	// Capture exposes for the given number of seconds and returns the
	// image identifier.
	Capture(seconds float64) (string, error)
}

// DriverLoader loads a device driver into the driver server.
type DriverLoader interface {
	LoadDriver(device, driver string) error
}

// Params is what a model constructor receives.
type Params struct {
	Config   config.SubsystemConfig
	Location config.Location

	// Drivers is nil when no driver server is configured.
	Drivers DriverLoader
}

// Constructor builds an unconfigured subsystem.
type Constructor func(p Params) (Subsystem, error)
