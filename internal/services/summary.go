package services

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// Summarize rolls trips up into fleet totals. orders is the full geocoded
// batch in input order; it supplies the order count and the risk list.
func Summarize(orders []domain.Order, trips []domain.Trip) domain.DispatchSummary {
	s := domain.DispatchSummary{
		TotalOrders:     len(orders),
		TotalTrips:      len(trips),
		FleetMix:        make(map[string]int),
		RiskOrders:      []string{},
		LateOrders:      []string{},
		OverloadedTrips: []string{},
	}

	for _, o := range orders {
		if o.GeoFault {
			s.RiskOrders = append(s.RiskOrders, o.OrderNo)
		}
	}

	if len(trips) == 0 {
		return s
	}

	distances := make([]float64, len(trips))
	costs := make([]float64, len(trips))
	ratios := make([]float64, len(trips))

	for i, t := range trips {
		s.FleetMix[t.Vehicle.Type]++
		distances[i] = t.TotalDistanceKm
		costs[i] = t.EstimatedCost
		ratios[i] = t.LoadRatio()

		if t.Overloaded() {
			s.OverloadedTrips = append(s.OverloadedTrips, t.ID)
		}
		for _, st := range t.Stops {
			if st.Late {
				s.LateOrders = append(s.LateOrders, st.OrderNo)
			}
		}
	}

	s.TotalDistanceKm = floats.Sum(distances)
	s.TotalCost = floats.Sum(costs)
	s.AvgLoadRatio = stat.Mean(ratios, nil)

	return s
}
