// Package config loads the observatory configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/indi"
)

// Subsystem kinds.
const (
	KindMount  = "mount"
	KindCamera = "camera"
)

// simulateAll in the simulator list forces simulators for every kind.
const simulateAll = "all"

// targetsDir is where target lists live, relative to base_dir.
const targetsDir = "resources/conf_files/targets"

// Config is the observatory configuration.
type Config struct {
	Site        *LocationConfig   `yaml:"location"`
	Mount       *SubsystemConfig  `yaml:"mount"`
	Cameras     []SubsystemConfig `yaml:"cameras"`
	BaseDir     string            `yaml:"base_dir"`
	TargetsFile string            `yaml:"targets_file"`

	// Simulator lists the kinds ("mount", "camera" or "all") whose
	// configured model is replaced by the simulator.
	Simulator []string `yaml:"simulator"`

	// IndiServer is optional; without it no driver server is started.
	IndiServer *IndiServerConfig `yaml:"indi_server"`
}

// SubsystemConfig selects a model and carries its parameters.
type SubsystemConfig struct {
	Model  string         `yaml:"model"`
	Name   string         `yaml:"name"`
	Driver string         `yaml:"driver"`
	Params map[string]any `yaml:",inline"`
}

// IndiServerConfig configures the driver server process.
type IndiServerConfig struct {
	Binary       string        `yaml:"binary"`
	Fifo         string        `yaml:"fifo"`
	Args         []string      `yaml:"args"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	StopTimeout  time.Duration `yaml:"stop_timeout"`
}

// Load reads and parses the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lib.NewConfigurationError("config", "cannot read file").
			WithContext("path", path).
			WithCause(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var e *lib.Error
		if errors.As(err, &e) {
			e.WithContext("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, lib.NewConfigurationError("config", "malformed YAML").WithCause(err)
	}
	return &cfg, nil
}

// Location returns the validated site location.
func (c *Config) Location() (Location, error) {
	return c.Site.resolve()
}

// TargetsPath is the scheduler's target list file. It is empty when either
// base_dir or targets_file is unset.
func (c *Config) TargetsPath() string {
	if c.BaseDir == "" || c.TargetsFile == "" {
		return ""
	}
	return filepath.Join(c.BaseDir, targetsDir, c.TargetsFile)
}

// IsSimulated reports whether kind must use the simulator model.
func (c *Config) IsSimulated(kind string) bool {
	for _, k := range c.Simulator {
		if k == kind || k == simulateAll {
			return true
		}
	}
	return false
}

// MountModel is the model to build for the mount, honouring the simulator list.
func (c *Config) MountModel() string {
	if c.IsSimulated(KindMount) {
		return "simulator"
	}
	if c.Mount == nil {
		return ""
	}
	return c.Mount.Model
}

// CameraModel is the model to build for camera entry e.
func (c *Config) CameraModel(e SubsystemConfig) string {
	if c.IsSimulated(KindCamera) {
		return "simulator"
	}
	return e.Model
}

// HasDriverServer reports whether a driver server is configured.
func (c *Config) HasDriverServer() bool {
	return c.IndiServer != nil
}

// ServerOptions translates indi_server into driver server options. Unset
// fields keep the server defaults.
func (c *Config) ServerOptions() []indi.Option {
	s := c.IndiServer
	if s == nil {
		return nil
	}

	var opts []indi.Option
	if s.Binary != "" {
		opts = append(opts, indi.WithBinary(s.Binary))
	}
	if s.Fifo != "" {
		opts = append(opts, indi.WithFifoPath(s.Fifo))
	}
	if len(s.Args) > 0 {
		opts = append(opts, indi.WithArgs(s.Args...))
	}
	if s.WriteTimeout > 0 {
		opts = append(opts, indi.WithWriteTimeout(s.WriteTimeout))
	}
	if s.StopTimeout > 0 {
		opts = append(opts, indi.WithStopTimeout(s.StopTimeout))
	}
	return opts
}

// AllParams returns the subsystem parameters including model, name and driver.
func (s SubsystemConfig) AllParams() map[string]any {
	params := make(map[string]any, len(s.Params)+3)
	for k, v := range s.Params {
		params[k] = v
	}
	if s.Model != "" {
		params["model"] = s.Model
	}
	if s.Name != "" {
		params["name"] = s.Name
	}
	if s.Driver != "" {
		params["driver"] = s.Driver
	}
	return params
}

func (s SubsystemConfig) String() string {
	if s.Name == "" {
		return s.Model
	}
	return fmt.Sprintf("%s (%s)", s.Name, s.Model)
}
