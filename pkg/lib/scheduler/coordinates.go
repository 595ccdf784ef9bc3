package scheduler

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var positionRe = regexp.MustCompile(`^\s*(\d+)h(\d+)m([\d.]+)s\s+([+-]?)(\d+)d(\d+)m([\d.]+)s\s*$`)

// j2000 is JD 2451545.0.
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Coordinates are equatorial coordinates in degrees.
type Coordinates struct {
	RA  float64
	Dec float64
}

// ParseCoordinates parses "HHhMMmSS.Ss +DDdMMmSS.Ss".
func ParseCoordinates(s string) (Coordinates, error) {
	m := positionRe.FindStringSubmatch(s)
	if m == nil {
		return Coordinates{}, fmt.Errorf("invalid position %q", s)
	}

	f := make([]float64, 0, 6)
	for _, i := range []int{1, 2, 3, 5, 6, 7} {
		v, err := strconv.ParseFloat(m[i], 64)
		if err != nil {
			return Coordinates{}, fmt.Errorf("invalid position %q: %w", s, err)
		}
		f = append(f, v)
	}

	ra := (f[0] + f[1]/60 + f[2]/3600) * 15
	dec := f[3] + f[4]/60 + f[5]/3600
	if m[4] == "-" {
		dec = -dec
	}

	if ra >= 360 || dec > 90 {
		return Coordinates{}, fmt.Errorf("position %q out of range", s)
	}
	return Coordinates{RA: ra, Dec: dec}, nil
}

// Altitude in degrees seen from lat/lon (degrees, east positive) at t.
func (c Coordinates) Altitude(lat, lon float64, t time.Time) float64 {
	days := t.UTC().Sub(j2000).Hours() / 24
	gmst := math.Mod(280.46061837+360.98564736629*days, 360)
	ha := rad(gmst + lon - c.RA)

	phi, dec := rad(lat), rad(c.Dec)
	sinAlt := math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(ha)
	sinAlt = math.Max(-1, math.Min(1, sinAlt))
	return math.Asin(sinAlt) * 180 / math.Pi
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
