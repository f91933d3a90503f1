package domain

import (
	"math"
	"testing"
	"time"
)

func TestAngleFrom(t *testing.T) {
	depot := Coordinates{Lat: 31.0, Lng: 121.0}

	east := Coordinates{Lat: 31.0, Lng: 121.5}
	if a := east.AngleFrom(depot); a != 0 {
		t.Errorf("east angle = %v, want 0", a)
	}

	north := Coordinates{Lat: 31.5, Lng: 121.0}
	if a := north.AngleFrom(depot); math.Abs(a-math.Pi/2) > 1e-12 {
		t.Errorf("north angle = %v, want π/2", a)
	}

	// Due west sits on the branch cut and must map to +π.
	west := Coordinates{Lat: 31.0, Lng: 120.5}
	if a := west.AngleFrom(depot); a != math.Pi {
		t.Errorf("west angle = %v, want π", a)
	}
}

func TestParseLngLat(t *testing.T) {
	c, err := ParseLngLat("120.585316,31.298886")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Lng != 120.585316 || c.Lat != 31.298886 {
		t.Errorf("parsed %+v", c)
	}

	for _, bad := range []string{"", "120.5", "abc,31", "120.5,95"} {
		if _, err := ParseLngLat(bad); err == nil {
			t.Errorf("ParseLngLat(%q) expected error", bad)
		}
	}
}

func TestCacheEntryFresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	fresh := CacheEntry{CachedAt: now.Add(-ttl + time.Millisecond)}
	if !fresh.Fresh(now, ttl) {
		t.Error("entry inside ttl should be fresh")
	}

	expired := CacheEntry{CachedAt: now.Add(-ttl - time.Millisecond)}
	if expired.Fresh(now, ttl) {
		t.Error("entry older than ttl must be treated as a miss")
	}

	if (CacheEntry{}).Fresh(now, ttl) {
		t.Error("entry without timestamp must not be trusted")
	}
}

func TestOrderWithGeocodeReturnsCopy(t *testing.T) {
	o := Order{OrderNo: "A1", WeightKg: 10, Pallets: 1}
	depot := Coordinates{Lat: 31, Lng: 121}

	got := o.WithGeocode(GeoResult{Location: Coordinates{Lat: 31, Lng: 122}, Faulted: true}, depot)

	if o.Geocoded() {
		t.Error("original order must not be modified")
	}
	if !got.Geocoded() || !got.GeoFault || got.Angle != 0 {
		t.Errorf("unexpected geocoded order: %+v", got)
	}
}
