package services

import (
	"math"
	"sync"
	"testing"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
)

var testDepot = domain.Depot{ID: "D1", Name: "苏州中心仓", Lat: 31.0, Lng: 121.0}

// orderAt places an order r degrees from the test depot at angle deg.
func orderAt(no string, deg, r, weight float64, pallets int) domain.Order {
	rad := deg * math.Pi / 180
	loc := domain.Coordinates{
		Lat: testDepot.Lat + r*math.Sin(rad),
		Lng: testDepot.Lng + r*math.Cos(rad),
	}
	o := domain.Order{OrderNo: no, Address: "addr " + no, WeightKg: weight, Pallets: pallets}
	return o.WithGeocode(domain.GeoResult{Location: loc}, testDepot.Point())
}

func mustFleet(t *testing.T, items map[string]domain.FleetConfigItem) domain.Fleet {
	t.Helper()
	f, err := domain.NewFleet(items)
	if err != nil {
		t.Fatalf("new fleet: %v", err)
	}
	return f
}

type recordingSink struct {
	mu     sync.Mutex
	events []obs.Event
}

func (r *recordingSink) Emit(ev obs.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) byMessage(msg string) []obs.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []obs.Event
	for _, ev := range r.events {
		if ev.Message == msg {
			out = append(out, ev)
		}
	}
	return out
}
