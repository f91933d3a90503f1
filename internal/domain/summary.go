package domain

import "time"

// Fleet-level totals for one solve.
type DispatchSummary struct {
	TotalOrders     int
	TotalTrips      int
	FleetMix        map[string]int
	TotalDistanceKm float64
	TotalCost       float64
	AvgLoadRatio    float64
	RiskOrders      []string
	LateOrders      []string
	OverloadedTrips []string
}

// The output of a completed solve.
type Plan struct {
	ID        string
	CreatedAt time.Time
	Depot     Depot
	Trips     []Trip
	Summary   DispatchSummary
}
