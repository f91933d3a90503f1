package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Immutable geographic coordinates in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinates) LngLat() []float64 { return []float64{c.Lng, c.Lat} }

// AngleFrom returns the polar angle of c around origin in radians, in (-π, π].
func (c Coordinates) AngleFrom(origin Coordinates) float64 {
	a := math.Atan2(c.Lat-origin.Lat, c.Lng-origin.Lng)
	if a == -math.Pi {
		return math.Pi
	}
	return a
}

// ParseLngLat parses a "lng,lat" pair as returned by most Chinese map providers.
func ParseLngLat(s string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("parse location %q: want \"lng,lat\"", s)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse location %q: longitude: %w", s, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("parse location %q: latitude: %w", s, err)
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinates{}, fmt.Errorf("parse location %q: out of range", s)
	}

	return Coordinates{Lat: lat, Lng: lng}, nil
}
