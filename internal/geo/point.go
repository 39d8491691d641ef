// Package geo holds the WGS84 point type shared by the domain and storage
// layers. Axis order is longitude, latitude (EPSG:4326) everywhere: wire
// input, storage, and output all use the WKT form POINT(lon lat).
package geo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidPoint = errors.New("invalid point")

var pointRegex = regexp.MustCompile(`(?i)^POINT\s*\(\s*(-?[0-9.]+)\s+(-?[0-9.]+)\s*\)$`)

// Point is a single WGS84 coordinate pair.
type Point struct {
	Lon float64
	Lat float64
}

// ParsePoint parses a WKT point like "POINT(30.06 -1.95)".
func ParsePoint(value string) (Point, error) {
	matches := pointRegex.FindStringSubmatch(strings.TrimSpace(value))
	if matches == nil {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, value)
	}

	lon, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidPoint, matches[1])
	}
	lat, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidPoint, matches[2])
	}

	p := Point{Lon: lon, Lat: lat}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks that both coordinates are finite and within WGS84 bounds.
func (p Point) Validate() error {
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return fmt.Errorf("%w: coordinates must be finite", ErrInvalidPoint)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidPoint, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidPoint, p.Lat)
	}
	return nil
}

// String renders the point in WKT, the same form ST_AsText produces.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%s %s)", formatCoord(p.Lon), formatCoord(p.Lat))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
