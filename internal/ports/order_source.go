package ports

import (
	"context"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// Port: a boundary for retrieving the batch of orders to dispatch.
type OrderSource interface {
	// Retrieve all orders in ingestion order.
	ListOrders(ctx context.Context) ([]domain.Order, error)
}
