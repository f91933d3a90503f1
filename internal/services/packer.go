package services

import (
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// Load is a closed group of orders and the vehicle chosen to carry it.
type Load struct {
	Orders   []domain.Order
	WeightKg float64
	Pallets  int
	Vehicle  domain.Vehicle
	// Overflow is set when no vehicle fits and the largest one was assigned.
	Overflow bool
}

// PackTrips partitions angle-ordered orders into loads in a single forward
// pass. A group closes when the next order would push it past the largest
// vehicle's weight or pallet capacity, or when it already holds maxStops
// orders. Each closed group gets the smallest vehicle that carries it, or the
// largest vehicle when none does.
//
// Loads come back in closing order. The input is not modified.
func PackTrips(orders []domain.Order, fleet domain.Fleet, maxStops int) ([]Load, error) {
	if fleet.Len() == 0 {
		return nil, domain.ErrEmptyFleet
	}
	if maxStops < 1 {
		return nil, domain.ErrInvalidMaxStops
	}

	largest := fleet.Largest()
	loads := make([]Load, 0, len(orders)/maxStops+1)
	var cur Load

	for _, o := range orders {
		full := cur.WeightKg+o.WeightKg > largest.CapacityKg ||
			cur.Pallets+o.Pallets > largest.CapacityPallets ||
			len(cur.Orders) >= maxStops

		if full && len(cur.Orders) > 0 {
			loads = append(loads, closeLoad(cur, fleet))
			cur = Load{}
		}

		cur.Orders = append(cur.Orders, o)
		cur.WeightKg += o.WeightKg
		cur.Pallets += o.Pallets
	}

	if len(cur.Orders) > 0 {
		loads = append(loads, closeLoad(cur, fleet))
	}

	return loads, nil
}

func closeLoad(l Load, fleet domain.Fleet) Load {
	v, fits := fleet.Select(l.WeightKg, l.Pallets)
	l.Vehicle, l.Overflow = v, !fits
	return l
}
