package domain

// A fixed origin point for trips. The first configured depot is the primary
// one and is the only reference point a solve optimizes against.
type Depot struct {
	ID      string
	Name    string
	Address string
	Lat     float64
	Lng     float64
}

func (d Depot) Point() Coordinates { return Coordinates{Lat: d.Lat, Lng: d.Lng} }
