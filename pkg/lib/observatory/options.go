package observatory

import (
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/factory"
	"github.com/jeremylan/POCS/pkg/lib/indi"
	"github.com/jeremylan/POCS/pkg/lib/scheduler"
)

// Option configures an Observatory.
type Option func(*Observatory)

// SchedulerBuilder builds the scheduler from a target list path.
type SchedulerBuilder func(path string, location config.Location) (scheduler.Scheduler, error)

// WithFactory replaces the default model factory.
func WithFactory(f *factory.Factory) Option {
	return func(o *Observatory) {
		o.factory = f
	}
}

// WithDriverServer uses s instead of starting a driver server from the
// configuration. The observatory stops it on Close.
func WithDriverServer(s *indi.Server) Option {
	return func(o *Observatory) {
		o.server = s
	}
}

// WithServerOptions adds options applied after the configured ones when the
// driver server is started from the configuration.
func WithServerOptions(opts ...indi.Option) Option {
	return func(o *Observatory) {
		o.serverOpts = append(o.serverOpts, opts...)
	}
}

// WithSchedulerBuilder replaces the target list scheduler.
func WithSchedulerBuilder(b SchedulerBuilder) Option {
	return func(o *Observatory) {
		o.newScheduler = b
	}
}
