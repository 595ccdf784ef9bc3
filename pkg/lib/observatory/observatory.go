// Package observatory assembles the site location, driver server, mount,
// cameras and scheduler from the configuration.
package observatory

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/factory"
	"github.com/jeremylan/POCS/pkg/lib/indi"
	"github.com/jeremylan/POCS/pkg/lib/scheduler"
	"github.com/jeremylan/POCS/pkg/lib/subsystem"
)

// TimeEnv overrides the observatory clock, formatted as TimeLayout in UTC.
const TimeEnv = "POCSTIME"

// TimeLayout is the layout of TimeEnv.
const TimeLayout = "2006-01-02 15:04:05"

// Observatory is the composition root. Close releases the driver server.
type Observatory struct {
	cfg      *config.Config
	location config.Location

	factory      *factory.Factory
	server       *indi.Server
	serverOpts   []indi.Option
	newScheduler SchedulerBuilder

	mount          subsystem.Mount
	cameras        []subsystem.Camera
	cameraFailures []factory.CameraFailure
	scheduler      scheduler.Scheduler

	closeOnce sync.Once
	closeErr  error
}

// New builds an observatory. A bad location, a missing driver server
// executable or an unusable mount model abort construction, and anything
// already started is stopped first. Cameras that fail to build and a missing
// target list are logged and left out.
func New(cfg *config.Config, opts ...Option) (*Observatory, error) {
	log.Info().Msg("Initializing observatory")

	o := &Observatory{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	if o.factory == nil {
		o.factory = factory.NewDefault()
	}
	if o.newScheduler == nil {
		o.newScheduler = func(path string, loc config.Location) (scheduler.Scheduler, error) {
			return scheduler.NewListScheduler(path, loc)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		o.stopServer()
		return nil, err
	}
	o.location = loc
	log.Debug().Str("location", loc.String()).Msg("Location set")

	if err := o.createDriverServer(); err != nil {
		return nil, err
	}

	if err := o.createMount(); err != nil {
		o.stopServer()
		return nil, err
	}

	o.createCameras()
	o.createScheduler()

	return o, nil
}

func (o *Observatory) createDriverServer() error {
	if o.server != nil || !o.cfg.HasDriverServer() {
		return nil
	}

	opts := append(o.cfg.ServerOptions(), o.serverOpts...)
	s, err := indi.NewServer(opts...)
	if err != nil {
		return err
	}
	o.server = s
	return nil
}

func (o *Observatory) params(sc config.SubsystemConfig) subsystem.Params {
	p := subsystem.Params{Config: sc, Location: o.location}
	if o.server != nil {
		p.Drivers = o.server
	}
	return p
}

func (o *Observatory) createMount() error {
	var sc config.SubsystemConfig
	if o.cfg.Mount != nil {
		sc = *o.cfg.Mount
	} else if !o.cfg.IsSimulated(config.KindMount) {
		return lib.NewConfigurationError("mount", "missing")
	}

	model := o.cfg.MountModel()
	log.Info().Str("model", model).Msg("Creating mount")

	m, err := o.factory.BuildMount(model, o.params(sc))
	if err != nil {
		return err
	}
	o.mount = m
	log.Info().Str("model", model).Msg("Mount created")
	return nil
}

func (o *Observatory) createCameras() {
	o.cameras, o.cameraFailures = o.factory.BuildCameras(o.cfg.Cameras, o.params(config.SubsystemConfig{}), o.cfg.CameraModel)
	log.Info().
		Int("created", len(o.cameras)).
		Int("failed", len(o.cameraFailures)).
		Msg("Cameras created")
}

func (o *Observatory) createScheduler() {
	path := o.cfg.TargetsPath()
	if path == "" {
		log.Warn().Msg("No targets file configured, running without a scheduler")
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Targets file does not exist")
		return
	}

	log.Info().Str("path", path).Msg("Creating scheduler")
	s, err := o.newScheduler(path, o.location)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Problem creating scheduler")
		return
	}
	o.scheduler = s
	log.Info().Msg("Scheduler created")
}

// GetTarget asks the scheduler for the next target.
func (o *Observatory) GetTarget() (*scheduler.Target, error) {
	if o.scheduler == nil {
		return nil, lib.NewNoSchedulerError().WithContext("targets_path", o.cfg.TargetsPath())
	}

	log.Debug().Msg("Getting target for observatory")
	target, err := o.scheduler.GetTarget(o)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("target", target.Name).Msg("Got target for observatory")
	return target, nil
}

// Connect connects the mount, then every camera. It keeps going after a
// failure and returns all failures joined.
func (o *Observatory) Connect() error {
	var errs []error

	if err := o.mount.Connect(); err != nil {
		log.Error().Err(err).Str("model", o.mount.Model()).Msg("Problem connecting mount")
		errs = append(errs, err)
	}

	for _, cam := range o.cameras {
		if err := cam.Connect(); err != nil {
			log.Error().Err(err).Str("camera", cam.Name()).Msg("Problem connecting camera")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the driver server. Further calls return the first result.
func (o *Observatory) Close() error {
	o.closeOnce.Do(func() {
		o.closeErr = o.stopServer()
		log.Info().Msg("Observatory closed")
	})
	return o.closeErr
}

func (o *Observatory) stopServer() error {
	if o.server == nil {
		return nil
	}
	return o.server.Stop()
}

// Location is the validated site.
func (o *Observatory) Location() config.Location {
	return o.location
}

// Now is the observatory clock: the current UTC time, unless POCSTIME is set.
func (o *Observatory) Now() time.Time {
	if v := os.Getenv(TimeEnv); v != "" {
		t, err := time.ParseInLocation(TimeLayout, v, time.UTC)
		if err == nil {
			return t
		}
		log.Warn().Err(err).Str(TimeEnv, v).Msg("Ignoring malformed time override")
	}
	return time.Now().UTC()
}

func (o *Observatory) Mount() subsystem.Mount {
	return o.mount
}

func (o *Observatory) Cameras() []subsystem.Camera {
	return append([]subsystem.Camera(nil), o.cameras...)
}

// CameraFailures lists the camera entries that could not be built.
func (o *Observatory) CameraFailures() []factory.CameraFailure {
	return append([]factory.CameraFailure(nil), o.cameraFailures...)
}

// DriverServer is nil when no driver server is configured.
func (o *Observatory) DriverServer() *indi.Server {
	return o.server
}

// HasScheduler reports whether a scheduler was built.
func (o *Observatory) HasScheduler() bool {
	return o.scheduler != nil
}

var _ scheduler.Context = (*Observatory)(nil)
