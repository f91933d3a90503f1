package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrEmptyFleet = errors.New("fleet: no vehicle types configured")

// Fleet configuration for one vehicle type, as supplied by configuration.
type FleetConfigItem struct {
	MaxKg    float64 `json:"max_kg" koanf:"max_kg"`
	Slots    int     `json:"slots" koanf:"slots"`
	CostBase float64 `json:"cost_base" koanf:"cost_base"`
	CostKm   float64 `json:"cost_km" koanf:"cost_km"`
}

// A vehicle type available for trips. Read-only for the duration of a solve.
type Vehicle struct {
	Type            string
	CapacityKg      float64
	CapacityPallets int
	BaseCost        float64
	CostPerKm       float64
}

// Fits reports whether a load of weightKg and pallets stays within capacity.
func (v Vehicle) Fits(weightKg float64, pallets int) bool {
	return v.CapacityKg >= weightKg && v.CapacityPallets >= pallets
}

// Fleet holds the vehicle types ordered ascending by weight capacity.
type Fleet struct {
	vehicles []Vehicle
}

// NewFleet resolves fleet configuration into an ordered Fleet.
// Types with equal weight capacity are ordered by pallets, then by name.
func NewFleet(items map[string]FleetConfigItem) (Fleet, error) {
	if len(items) == 0 {
		return Fleet{}, ErrEmptyFleet
	}

	vehicles := make([]Vehicle, 0, len(items))
	for name, it := range items {
		name = strings.TrimSpace(name)
		if name == "" {
			return Fleet{}, errors.New("fleet: vehicle type name must not be empty")
		}
		if it.MaxKg <= 0 || it.Slots < 1 {
			return Fleet{}, fmt.Errorf("fleet: vehicle %q: capacity must be positive (max_kg=%v slots=%d)", name, it.MaxKg, it.Slots)
		}
		if it.CostBase < 0 || it.CostKm < 0 {
			return Fleet{}, fmt.Errorf("fleet: vehicle %q: costs must not be negative", name)
		}

		vehicles = append(vehicles, Vehicle{
			Type:            name,
			CapacityKg:      it.MaxKg,
			CapacityPallets: it.Slots,
			BaseCost:        it.CostBase,
			CostPerKm:       it.CostKm,
		})
	}

	slices.SortFunc(vehicles, func(a, b Vehicle) int {
		if a.CapacityKg != b.CapacityKg {
			if a.CapacityKg < b.CapacityKg {
				return -1
			}
			return 1
		}
		if a.CapacityPallets != b.CapacityPallets {
			return a.CapacityPallets - b.CapacityPallets
		}
		return strings.Compare(a.Type, b.Type)
	})

	return Fleet{vehicles: vehicles}, nil
}

// Vehicles returns a copy of the ordered vehicle list.
func (f Fleet) Vehicles() []Vehicle { return slices.Clone(f.vehicles) }

func (f Fleet) Len() int { return len(f.vehicles) }

// Largest returns the vehicle with the highest weight capacity.
func (f Fleet) Largest() Vehicle {
	if len(f.vehicles) == 0 {
		return Vehicle{}
	}
	return f.vehicles[len(f.vehicles)-1]
}

// Select returns the smallest vehicle that carries the load. When no vehicle
// fits, the largest one is returned with ok=false and the trip is overloaded.
func (f Fleet) Select(weightKg float64, pallets int) (v Vehicle, ok bool) {
	for _, v := range f.vehicles {
		if v.Fits(weightKg, pallets) {
			return v, true
		}
	}
	return f.Largest(), false
}
