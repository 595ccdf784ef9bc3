// Package scheduler picks the next target for the observatory.
package scheduler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jeremylan/POCS/pkg/lib/config"
)

// ErrNoVisibleTarget is returned when every target is below the horizon.
var ErrNoVisibleTarget = errors.New("no target above the horizon")

// Target is an entry of the target list.
type Target struct {
	Name string `yaml:"name"`

	// Position is sexagesimal RA and Dec, e.g. "02h26m51.0582s +37d33m01.733s".
	Position string  `yaml:"position"`
	Priority float64 `yaml:"priority"`

	ExposureSeconds float64 `yaml:"exp_time"`
	MinExposures    int     `yaml:"min_nexp"`
	ExposureSetSize int     `yaml:"exp_set_size"`

	coord Coordinates
}

// Coordinates returns the parsed position.
func (t Target) Coordinates() Coordinates {
	return t.coord
}

func (t Target) String() string {
	return fmt.Sprintf("%s [%s] priority=%g", t.Name, t.Position, t.Priority)
}

// Context is what the scheduler needs from the observatory.
type Context interface {
	Location() config.Location
	Now() time.Time
}

// Scheduler picks a target.
type Scheduler interface {
	GetTarget(ctx Context) (*Target, error)
}

// ListScheduler picks from a fixed target list: the highest priority target
// currently above the horizon, ties broken by list order.
type ListScheduler struct {
	path     string
	location config.Location
	targets  []Target
}

// NewListScheduler loads the target list at path.
func NewListScheduler(path string, location config.Location) (*ListScheduler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	targets, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("targets file %s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("targets", len(targets)).Msg("Target list loaded")
	return &ListScheduler{path: path, location: location, targets: targets}, nil
}

// ParseTargets decodes a YAML target list and parses every position.
func ParseTargets(data []byte) ([]Target, error) {
	var targets []Target
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("failed to parse targets: %w", err)
	}

	for i := range targets {
		if targets[i].Name == "" {
			return nil, fmt.Errorf("target %d has no name", i)
		}
		c, err := ParseCoordinates(targets[i].Position)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", targets[i].Name, err)
		}
		targets[i].coord = c
	}
	return targets, nil
}

// Targets returns a copy of the target list.
func (s *ListScheduler) Targets() []Target {
	return append([]Target(nil), s.targets...)
}

// GetTarget returns the best target visible at ctx.Now() from ctx.Location().
func (s *ListScheduler) GetTarget(ctx Context) (*Target, error) {
	loc := ctx.Location()
	now := ctx.Now()

	var best *Target
	for i := range s.targets {
		t := &s.targets[i]
		alt := t.coord.Altitude(loc.Latitude, loc.Longitude, now)
		if alt <= loc.Horizon {
			log.Debug().Str("target", t.Name).Float64("altitude", alt).Msg("Target below horizon")
			continue
		}
		if best == nil || t.Priority > best.Priority {
			best = t
		}
	}

	if best == nil {
		return nil, ErrNoVisibleTarget
	}
	target := *best
	return &target, nil
}

var _ Scheduler = (*ListScheduler)(nil)
