package config

import (
	"fmt"
	"time"

	"github.com/jeremylan/POCS/pkg/lib"
)

// Location defaults.
const (
	DefaultLocationName = "Nameless Location"
	DefaultPressure     = 0.680 // bar
	DefaultElevation    = 0.0   // m
	DefaultHorizon      = 0.0   // deg
)

// LocationConfig is the raw location block. Pointer fields distinguish
// "absent" from zero.
type LocationConfig struct {
	Name      string   `yaml:"name"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	Elevation *float64 `yaml:"elevation"`
	Timezone  string   `yaml:"timezone"`
	Pressure  *float64 `yaml:"pressure"`
	Horizon   *float64 `yaml:"horizon"`
}

// Location is a validated observatory site. It is a value; copies never
// alias the configuration it came from.
type Location struct {
	Name      string
	Latitude  float64 // deg, north positive
	Longitude float64 // deg, east positive
	Elevation float64 // m
	Timezone  string
	Pressure  float64 // bar
	Horizon   float64 // deg

	tz *time.Location
}

// TimeLocation returns the site time zone, or UTC when none was configured.
func (l Location) TimeLocation() *time.Location {
	if l.tz == nil {
		return time.UTC
	}
	return l.tz
}

func (l Location) String() string {
	return fmt.Sprintf("%s (lat=%.4f lon=%.4f elev=%.0fm)", l.Name, l.Latitude, l.Longitude, l.Elevation)
}

func (lc *LocationConfig) resolve() (Location, error) {
	if lc == nil {
		return Location{}, lib.NewConfigurationError("location", "missing").
			WithSuggestion("Add a location block with latitude and longitude")
	}

	loc := Location{
		Name:      DefaultLocationName,
		Elevation: DefaultElevation,
		Timezone:  lc.Timezone,
		Pressure:  DefaultPressure,
		Horizon:   DefaultHorizon,
	}
	if lc.Name != "" {
		loc.Name = lc.Name
	}

	if lc.Latitude == nil {
		return Location{}, lib.NewConfigurationError("location.latitude", "missing")
	}
	if *lc.Latitude < -90 || *lc.Latitude > 90 {
		return Location{}, lib.NewConfigurationError("location.latitude", "must be within [-90, 90]").
			WithContext("value", *lc.Latitude)
	}
	loc.Latitude = *lc.Latitude

	if lc.Longitude == nil {
		return Location{}, lib.NewConfigurationError("location.longitude", "missing")
	}
	if *lc.Longitude < -180 || *lc.Longitude > 180 {
		return Location{}, lib.NewConfigurationError("location.longitude", "must be within [-180, 180]").
			WithContext("value", *lc.Longitude)
	}
	loc.Longitude = *lc.Longitude

	if lc.Elevation != nil {
		loc.Elevation = *lc.Elevation
	}

	if lc.Pressure != nil {
		if *lc.Pressure < 0 {
			return Location{}, lib.NewConfigurationError("location.pressure", "must not be negative").
				WithContext("value", *lc.Pressure)
		}
		loc.Pressure = *lc.Pressure
	}

	if lc.Horizon != nil {
		if *lc.Horizon < 0 || *lc.Horizon >= 90 {
			return Location{}, lib.NewConfigurationError("location.horizon", "must be within [0, 90)").
				WithContext("value", *lc.Horizon)
		}
		loc.Horizon = *lc.Horizon
	}

	if lc.Timezone != "" {
		tz, err := time.LoadLocation(lc.Timezone)
		if err != nil {
			return Location{}, lib.NewConfigurationError("location.timezone", "unknown time zone").
				WithContext("value", lc.Timezone).
				WithCause(err)
		}
		loc.tz = tz
	}

	return loc, nil
}
