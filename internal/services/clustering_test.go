package services

import (
	"testing"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

func TestSortByAngle(t *testing.T) {
	in := []domain.Order{
		orderAt("E", 0, 0.1, 1, 1),
		orderAt("S", -90, 0.1, 1, 1),
		orderAt("W", 180, 0.1, 1, 1),
		orderAt("N", 90, 0.1, 1, 1),
	}

	got := SortByAngle(in)
	want := []string{"S", "E", "N", "W"}
	for i, o := range got {
		if o.OrderNo != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, o.OrderNo, want[i])
		}
	}

	if in[0].OrderNo != "E" {
		t.Fatalf("input must not be reordered")
	}
}

func TestSortByAngleIsStable(t *testing.T) {
	// Same bearing, different distance: identical angles.
	in := []domain.Order{
		orderAt("B", 45, 0.2, 1, 1),
		orderAt("X", -30, 0.1, 1, 1),
		orderAt("A", 45, 0.1, 1, 1),
		orderAt("C", 45, 0.3, 1, 1),
	}
	in[2].Angle = in[0].Angle
	in[3].Angle = in[0].Angle

	got := SortByAngle(in)
	want := []string{"X", "B", "A", "C"}
	for i, o := range got {
		if o.OrderNo != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, o.OrderNo, want[i])
		}
	}
}
