package services

import (
	"cmp"
	"slices"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// SortByAngle returns the orders in a polar sweep around the depot: ascending
// by Angle, with equal angles kept in input order. The input is not modified.
func SortByAngle(orders []domain.Order) []domain.Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b domain.Order) int {
		return cmp.Compare(a.Angle, b.Angle)
	})
	return sorted
}
