package factory

import (
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/subsystem/indidevice"
	"github.com/jeremylan/POCS/pkg/lib/subsystem/simulator"
)

// RegisterAll registers the built-in mount and camera models.
func RegisterAll(f *Factory) {
	f.MustRegister(config.KindMount, simulator.Model, simulator.NewMount)
	f.MustRegister(config.KindCamera, simulator.Model, simulator.NewCamera)
	f.MustRegister(config.KindMount, indidevice.Model, indidevice.NewMount)
	f.MustRegister(config.KindCamera, indidevice.Model, indidevice.NewCamera)
}
