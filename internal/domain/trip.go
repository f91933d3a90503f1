package domain

import (
	"errors"
	"time"
)

var ErrInvalidMaxStops = errors.New("max stops per trip must be positive")

// Represents a single stop in a trip. The depot is not a stop.
type Stop struct {
	Seq                int
	OrderNo            string
	Address            string
	ETA                time.Time
	DistanceFromPrevKm float64
	// Late is set when ETA falls after the configured delivery deadline.
	Late bool
}

// Represents one vehicle run from the depot through its stops and back.
// A Trip is immutable planning data produced by a single solve.
type Trip struct {
	ID              string
	Vehicle         Vehicle
	Stops           []Stop
	Orders          []Order
	TotalWeightKg   float64
	TotalPallets    int
	TotalDistanceKm float64
	TotalDuration   time.Duration
	EstimatedCost   float64
	Depot           Depot
}

// LoadRatio is carried weight over the vehicle's weight capacity.
func (t Trip) LoadRatio() float64 {
	if t.Vehicle.CapacityKg <= 0 {
		return 0
	}
	return t.TotalWeightKg / t.Vehicle.CapacityKg
}

// Overloaded reports whether no configured vehicle could carry the trip and
// the largest one was assigned anyway.
func (t Trip) Overloaded() bool {
	return !t.Vehicle.Fits(t.TotalWeightKg, t.TotalPallets)
}
