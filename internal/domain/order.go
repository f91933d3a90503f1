package domain

// Represents a single business unit to deliver.
// Orders are produced by ingestion; geocoding fills in Location, Angle and
// GeoFault by returning an updated copy. An Order is never modified after it
// has been grouped into a Trip.
type Order struct {
	OrderNo      string
	DeliveryDate string
	Receiver     string
	Address      string
	WeightKg     float64
	Pallets      int
	Remarks      string

	// Location is nil until the order has been geocoded.
	Location *Coordinates
	// Angle around the depot in radians. Only meaningful when Location is set.
	Angle float64
	// GeoFault marks an approximated coordinate rather than a confirmed match.
	GeoFault bool
}

// Geocoded reports whether the order carries a resolved coordinate.
func (o Order) Geocoded() bool { return o.Location != nil }

// WithGeocode returns a copy of o positioned at res, with its angle computed
// around depot.
func (o Order) WithGeocode(res GeoResult, depot Coordinates) Order {
	loc := res.Location
	o.Location = &loc
	o.Angle = loc.AngleFrom(depot)
	o.GeoFault = res.Faulted
	return o
}

// Point returns the resolved coordinate, or the zero value when not geocoded.
func (o Order) Point() Coordinates {
	if o.Location == nil {
		return Coordinates{}
	}
	return *o.Location
}
