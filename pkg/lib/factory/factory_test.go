package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/subsystem"
	"github.com/jeremylan/POCS/pkg/lib/subsystem/simulator"
)

func TestBuildUnknownMountModel(t *testing.T) {
	f := NewDefault()

	s, err := f.Build(config.KindMount, "unknown_model_xyz", subsystem.Params{})
	assert.Nil(t, s)

	var e *lib.Error
	require.True(t, errors.As(err, &e), "want a structured error, got %v", err)
	assert.Equal(t, lib.ErrorCodeUnknownModel, e.Code)
	assert.Equal(t, "unknown_model_xyz", e.Context["model"])
	assert.Equal(t, config.KindMount, e.Context["kind"])
}

func TestBuildUnknownKind(t *testing.T) {
	f := NewDefault()

	_, err := f.Build("dome", simulator.Model, subsystem.Params{})
	assert.True(t, errors.Is(err, lib.ErrUnknownModel))
}

func TestBuildMount(t *testing.T) {
	f := NewDefault()
	loc := config.Location{Name: "Test Site"}

	m, err := f.BuildMount(simulator.Model, subsystem.Params{Location: loc})
	require.NoError(t, err)
	assert.Equal(t, simulator.Model, m.Model())
	assert.Equal(t, "Test Site", m.Location().Name)
}

func TestBuildMountRejectsCamera(t *testing.T) {
	f := New()
	f.MustRegister(config.KindMount, "cam-only", simulator.NewCamera)

	_, err := f.BuildMount("cam-only", subsystem.Params{})
	assert.True(t, errors.Is(err, lib.ErrUnknownModel))
}

func TestBuildConfigureFailure(t *testing.T) {
	f := NewDefault()

	// the indi model needs a driver
	_, err := f.Build(config.KindCamera, "indi", subsystem.Params{Config: config.SubsystemConfig{Model: "indi"}})
	assert.True(t, errors.Is(err, lib.ErrConfiguration))
}

func TestBuildCamerasPartial(t *testing.T) {
	f := NewDefault()
	entries := []config.SubsystemConfig{
		{Model: "simulator", Name: "cam00"},
		{Model: "bogus", Name: "cam01"},
	}

	cameras, failures := f.BuildCameras(entries, subsystem.Params{}, nil)

	require.Len(t, cameras, 1)
	assert.Equal(t, "cam00", cameras[0].Name())

	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Index)
	assert.Equal(t, "bogus", failures[0].Entry.Model)
	assert.True(t, errors.Is(failures[0].Err, lib.ErrUnknownModel))
}

func TestBuildCamerasModelOverride(t *testing.T) {
	f := NewDefault()
	entries := []config.SubsystemConfig{{Model: "bogus", Name: "cam00"}}

	cameras, failures := f.BuildCameras(entries, subsystem.Params{}, func(config.SubsystemConfig) string {
		return simulator.Model
	})

	assert.Len(t, cameras, 1)
	assert.Empty(t, failures)
}

func TestRegister(t *testing.T) {
	f := New()

	require.NoError(t, f.Register(config.KindCamera, "simulator", simulator.NewCamera))
	assert.Error(t, f.Register(config.KindCamera, "simulator", simulator.NewCamera))
	assert.Error(t, f.Register(config.KindCamera, "", simulator.NewCamera))
	assert.Error(t, f.Register(config.KindCamera, "nil", nil))
	assert.Panics(t, func() { f.MustRegister(config.KindCamera, "simulator", simulator.NewCamera) })
}

func TestModels(t *testing.T) {
	f := NewDefault()

	assert.Equal(t, []string{"indi", "simulator"}, f.Models(config.KindMount))
	assert.Equal(t, []string{"indi", "simulator"}, f.Models(config.KindCamera))
	assert.Equal(t, []string{"camera", "mount"}, f.Kinds())
	assert.Empty(t, f.Models("dome"))
}
