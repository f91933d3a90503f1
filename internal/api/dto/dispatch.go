package dto

import (
	"math"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/repositories"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// DispatchRequest carries one batch and optional per-solve overrides of the
// configured dispatch settings.
type DispatchRequest struct {
	Orders    []repositories.OrderRecord        `json:"orders"`
	MaxStops  int                               `json:"maxStops,omitempty"`
	StartTime string                            `json:"startTime,omitempty"`
	Deadline  string                            `json:"deadline,omitempty"`
	Date      string                            `json:"date,omitempty"`
	Fleet     map[string]domain.FleetConfigItem `json:"fleet,omitempty"`
	DepotID   string                            `json:"depotId,omitempty"`
}

type StopResponse struct {
	Seq                int     `json:"seq"`
	OrderNo            string  `json:"orderNo"`
	Address            string  `json:"address"`
	ETA                string  `json:"eta"`
	DistanceFromPrevKm float64 `json:"distanceFromPrev"`
	Late               bool    `json:"late,omitempty"`
}

type VehicleResponse struct {
	Type            string  `json:"type"`
	CapacityKg      float64 `json:"capacityKg"`
	CapacityPallets int     `json:"capacityPallets"`
	BaseCost        float64 `json:"baseCost"`
	CostPerKm       float64 `json:"costPerKm"`
}

type TripResponse struct {
	ID                 string          `json:"id"`
	Vehicle            VehicleResponse `json:"vehicle"`
	Stops              []StopResponse  `json:"stops"`
	OrderNos           []string        `json:"orderNos"`
	TotalWeightKg      float64         `json:"totalWeight"`
	TotalPallets       int             `json:"totalPallets"`
	TotalDistanceKm    float64         `json:"totalDistance"`
	TotalDurationHours float64         `json:"totalDuration"`
	EstimatedCost      float64         `json:"estimatedCost"`
	LoadRatio          float64         `json:"loadRatio"`
	Overloaded         bool            `json:"overloaded,omitempty"`
	RiskOrders         []string        `json:"riskOrders,omitempty"`
}

type SummaryResponse struct {
	TotalOrders     int            `json:"totalOrders"`
	TotalTrips      int            `json:"totalTrips"`
	FleetMix        map[string]int `json:"fleetMix"`
	TotalDistanceKm float64        `json:"totalDistance"`
	TotalCost       float64        `json:"totalCost"`
	AvgLoadRatio    float64        `json:"avgLoadRate"`
	RiskOrders      []string       `json:"riskOrders"`
	LateOrders      []string       `json:"lateOrders"`
	OverloadedTrips []string       `json:"overloadedTrips"`
}

type DepotResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type PlanResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Depot     DepotResponse   `json:"depot"`
	Trips     []TripResponse  `json:"trips"`
	Summary   SummaryResponse `json:"summary"`
}

// NewPlanResponse renders a plan for clients. Distances and durations are
// rounded to 0.1, money to cents, ETAs to HH:MM.
func NewPlanResponse(p domain.Plan) PlanResponse {
	res := PlanResponse{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Depot: DepotResponse{
			ID:      p.Depot.ID,
			Name:    p.Depot.Name,
			Address: p.Depot.Address,
			Lat:     p.Depot.Lat,
			Lng:     p.Depot.Lng,
		},
		Trips: make([]TripResponse, 0, len(p.Trips)),
		Summary: SummaryResponse{
			TotalOrders:     p.Summary.TotalOrders,
			TotalTrips:      p.Summary.TotalTrips,
			FleetMix:        p.Summary.FleetMix,
			TotalDistanceKm: round(p.Summary.TotalDistanceKm, 1),
			TotalCost:       round(p.Summary.TotalCost, 2),
			AvgLoadRatio:    round(p.Summary.AvgLoadRatio, 3),
			RiskOrders:      p.Summary.RiskOrders,
			LateOrders:      p.Summary.LateOrders,
			OverloadedTrips: p.Summary.OverloadedTrips,
		},
	}

	for _, t := range p.Trips {
		tr := TripResponse{
			ID: t.ID,
			Vehicle: VehicleResponse{
				Type:            t.Vehicle.Type,
				CapacityKg:      t.Vehicle.CapacityKg,
				CapacityPallets: t.Vehicle.CapacityPallets,
				BaseCost:        t.Vehicle.BaseCost,
				CostPerKm:       t.Vehicle.CostPerKm,
			},
			Stops:              make([]StopResponse, 0, len(t.Stops)),
			OrderNos:           make([]string, 0, len(t.Orders)),
			TotalWeightKg:      t.TotalWeightKg,
			TotalPallets:       t.TotalPallets,
			TotalDistanceKm:    round(t.TotalDistanceKm, 1),
			TotalDurationHours: round(t.TotalDuration.Hours(), 1),
			EstimatedCost:      round(t.EstimatedCost, 2),
			LoadRatio:          round(t.LoadRatio(), 3),
			Overloaded:         t.Overloaded(),
		}
		for _, s := range t.Stops {
			tr.Stops = append(tr.Stops, StopResponse{
				Seq:                s.Seq,
				OrderNo:            s.OrderNo,
				Address:            s.Address,
				ETA:                s.ETA.Format("15:04"),
				DistanceFromPrevKm: round(s.DistanceFromPrevKm, 1),
				Late:               s.Late,
			})
		}
		for _, o := range t.Orders {
			tr.OrderNos = append(tr.OrderNos, o.OrderNo)
			if o.GeoFault {
				tr.RiskOrders = append(tr.RiskOrders, o.OrderNo)
			}
		}
		res.Trips = append(res.Trips, tr)
	}

	return res
}

type CancelResponse struct {
	Canceled bool `json:"canceled"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
