// Package factory resolves mount and camera model names to constructors.
package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jeremylan/POCS/pkg/lib"
	"github.com/jeremylan/POCS/pkg/lib/config"
	"github.com/jeremylan/POCS/pkg/lib/subsystem"
)

// Factory is a model registration table keyed by kind, then model name.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]map[string]subsystem.Constructor
}

// CameraFailure is a camera entry that could not be built.
type CameraFailure struct {
	Index int
	Entry config.SubsystemConfig
	Err   error
}

// New returns an empty factory.
func New() *Factory {
	return &Factory{ctors: make(map[string]map[string]subsystem.Constructor)}
}

// NewDefault returns a factory with every built-in model registered.
func NewDefault() *Factory {
	f := New()
	RegisterAll(f)
	return f
}

// Register adds a constructor for model under kind.
func (f *Factory) Register(kind, model string, ctor subsystem.Constructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if kind == "" || model == "" {
		return fmt.Errorf("kind and model name cannot be empty")
	}
	if ctor == nil {
		return fmt.Errorf("%s model %s must provide a constructor", kind, model)
	}

	models, ok := f.ctors[kind]
	if !ok {
		models = make(map[string]subsystem.Constructor)
		f.ctors[kind] = models
	}
	if _, exists := models[model]; exists {
		return fmt.Errorf("%s model %s is already registered", kind, model)
	}

	models[model] = ctor
	return nil
}

// MustRegister registers a constructor and panics on error.
func (f *Factory) MustRegister(kind, model string, ctor subsystem.Constructor) {
	if err := f.Register(kind, model, ctor); err != nil {
		panic(fmt.Sprintf("failed to register model: %v", err))
	}
}

// Build constructs and configures a subsystem. An unregistered kind or
// model fails with an UnknownModel error.
func (f *Factory) Build(kind, model string, p subsystem.Params) (subsystem.Subsystem, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[kind][model]
	f.mu.RUnlock()

	if !ok {
		return nil, lib.NewUnknownModelError(kind, model)
	}

	s, err := ctor(p)
	if err != nil {
		return nil, fmt.Errorf("build %s model %s: %w", kind, model, err)
	}
	if err := s.Configure(p.Config.AllParams()); err != nil {
		return nil, fmt.Errorf("configure %s model %s: %w", kind, model, err)
	}
	return s, nil
}

// BuildMount builds the mount. The model must produce a subsystem.Mount.
func (f *Factory) BuildMount(model string, p subsystem.Params) (subsystem.Mount, error) {
	s, err := f.Build(config.KindMount, model, p)
	if err != nil {
		return nil, err
	}

	m, ok := s.(subsystem.Mount)
	if !ok {
		return nil, lib.NewUnknownModelError(config.KindMount, model).
			WithSuggestion(fmt.Sprintf("Model %s is registered but does not implement a mount", model))
	}
	return m, nil
}

// BuildCamera builds a single camera.
func (f *Factory) BuildCamera(model string, p subsystem.Params) (subsystem.Camera, error) {
	s, err := f.Build(config.KindCamera, model, p)
	if err != nil {
		return nil, err
	}

	c, ok := s.(subsystem.Camera)
	if !ok {
		return nil, lib.NewUnknownModelError(config.KindCamera, model).
			WithSuggestion(fmt.Sprintf("Model %s is registered but does not implement a camera", model))
	}
	return c, nil
}

// BuildCameras builds every entry. A failing entry is logged and reported;
// it never stops the remaining entries. modelOf picks the model for an entry
// and may be nil to use the configured one.
func (f *Factory) BuildCameras(entries []config.SubsystemConfig, base subsystem.Params, modelOf func(config.SubsystemConfig) string) ([]subsystem.Camera, []CameraFailure) {
	var (
		cameras  []subsystem.Camera
		failures []CameraFailure
	)

	for i, entry := range entries {
		model := entry.Model
		if modelOf != nil {
			model = modelOf(entry)
		}

		p := base
		p.Config = entry

		log.Info().Int("index", i).Str("model", model).Str("name", entry.Name).Msg("Creating camera")
		cam, err := f.BuildCamera(model, p)
		if err != nil {
			log.Error().Err(err).Int("index", i).Str("model", model).Msg("Problem creating camera. Skipping.")
			failures = append(failures, CameraFailure{Index: i, Entry: entry, Err: err})
			continue
		}
		cameras = append(cameras, cam)
	}
	return cameras, failures
}

// Models returns the registered model names for kind, sorted.
func (f *Factory) Models(kind string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.ctors[kind]))
	for name := range f.ctors[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kinds returns the kinds with at least one model, sorted.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.ctors))
	for kind := range f.ctors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
