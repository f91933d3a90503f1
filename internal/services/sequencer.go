package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

const kmPerDegree = 111.0

// RouteParams drive ETA, duration and lateness for sequenced trips.
type RouteParams struct {
	Start time.Time
	// Deadline marks stops arriving after it as late. Zero disables the check.
	Deadline        time.Time
	AverageSpeedKmh float64
	ServicePerStop  time.Duration
	DetourFactor    float64
}

// DefaultRouteParams starts at 07:00 on day with a 20:00 deadline.
func DefaultRouteParams(day time.Time) RouteParams {
	y, m, d := day.Date()
	return RouteParams{
		Start:           time.Date(y, m, d, 7, 0, 0, 0, day.Location()),
		Deadline:        time.Date(y, m, d, 20, 0, 0, 0, day.Location()),
		AverageSpeedKmh: 48,
		ServicePerStop:  25 * time.Minute,
		DetourFactor:    1.32,
	}
}

// ClockOn returns the wall-clock time hhmm ("07:00") on day.
func ClockOn(day time.Time, hhmm string) (time.Time, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return time.Time{}, fmt.Errorf("parse clock %q: want HH:MM", hhmm)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("parse clock %q: invalid hour", hhmm)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("parse clock %q: invalid minute", hhmm)
	}

	y, mo, d := day.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, day.Location()), nil
}

// RoadDistanceKm approximates road distance between two points with an
// equirectangular projection scaled by the detour factor. The longitude term
// uses the latitude of from.
func RoadDistanceKm(from, to domain.Coordinates, detour float64) float64 {
	dLat := math.Abs(from.Lat-to.Lat) * kmPerDegree
	dLng := math.Abs(from.Lng-to.Lng) * kmPerDegree * math.Cos(from.Lat*math.Pi/180)
	return (dLat + dLng) * detour
}

// TripID names the i-th trip (zero-based) of a solve.
func TripID(i int) string {
	return fmt.Sprintf("T-%d", 101+i)
}

// SequenceTrip visits the load's orders in their packed order, starting and
// ending at the depot, and prices the closed loop.
func SequenceTrip(id string, load Load, depot domain.Depot, p RouteParams) domain.Trip {
	last := depot.Point()
	total := 0.0
	stops := make([]domain.Stop, 0, len(load.Orders))

	for i, o := range load.Orders {
		pos := o.Point()
		leg := RoadDistanceKm(last, pos, p.DetourFactor)
		total += leg

		driving := time.Duration(total / p.AverageSpeedKmh * float64(time.Hour))
		eta := p.Start.Add(driving + time.Duration(i)*p.ServicePerStop)

		stops = append(stops, domain.Stop{
			Seq:                i + 1,
			OrderNo:            o.OrderNo,
			Address:            o.Address,
			ETA:                eta,
			DistanceFromPrevKm: leg,
			Late:               !p.Deadline.IsZero() && eta.After(p.Deadline),
		})
		last = pos
	}

	if len(load.Orders) > 0 {
		total += RoadDistanceKm(last, depot.Point(), p.DetourFactor)
	}

	return domain.Trip{
		ID:              id,
		Vehicle:         load.Vehicle,
		Stops:           stops,
		Orders:          load.Orders,
		TotalWeightKg:   load.WeightKg,
		TotalPallets:    load.Pallets,
		TotalDistanceKm: total,
		TotalDuration:   time.Duration(total / p.AverageSpeedKmh * float64(time.Hour)),
		EstimatedCost:   load.Vehicle.BaseCost + total*load.Vehicle.CostPerKm,
		Depot:           depot,
	}
}
