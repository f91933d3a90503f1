package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// OrderRecord is the ingestion shape of one order.
type OrderRecord struct {
	OrderNo      string  `json:"orderNo"`
	DeliveryDate string  `json:"deliveryDate,omitempty"`
	Receiver     string  `json:"receiver"`
	Address      string  `json:"address"`
	WeightKg     float64 `json:"weightKg"`
	Pallets      int     `json:"pallets"`
	Remarks      string  `json:"remarks,omitempty"`
}

// ParseOrders validates records and converts them into domain orders, keeping
// their order. Weight must be positive; a missing pallet count defaults to 1.
func ParseOrders(records []OrderRecord) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		orderNo := strings.TrimSpace(r.OrderNo)
		if orderNo == "" {
			return nil, fmt.Errorf("parse orders: item %d: orderNo cannot be empty", i+1)
		}
		if _, dup := seen[orderNo]; dup {
			return nil, fmt.Errorf("parse orders: item %d: duplicate orderNo %q", i+1, orderNo)
		}
		seen[orderNo] = struct{}{}

		address := strings.TrimSpace(r.Address)
		if address == "" {
			return nil, fmt.Errorf("parse orders: order %q: address cannot be empty", orderNo)
		}
		if !(r.WeightKg > 0) {
			return nil, fmt.Errorf("parse orders: order %q: weightKg must be positive, got %v", orderNo, r.WeightKg)
		}
		if r.Pallets < 0 {
			return nil, fmt.Errorf("parse orders: order %q: pallets cannot be negative, got %d", orderNo, r.Pallets)
		}

		pallets := r.Pallets
		if pallets < 1 {
			pallets = 1
		}

		orders = append(orders, domain.Order{
			OrderNo:      orderNo,
			DeliveryDate: strings.TrimSpace(r.DeliveryDate),
			Receiver:     strings.TrimSpace(r.Receiver),
			Address:      address,
			WeightKg:     r.WeightKg,
			Pallets:      pallets,
			Remarks:      strings.TrimSpace(r.Remarks),
		})
	}

	return orders, nil
}

// ReadOrders decodes a JSON array of order records from r.
func ReadOrders(r io.Reader) ([]domain.Order, error) {
	var records []OrderRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("read orders: parse json: %w", err)
	}
	return ParseOrders(records)
}

// JSONOrderFile reads the dispatch batch from a JSON file. It implements
// ports.OrderSource.
type JSONOrderFile struct{ Path string }

func NewJSONOrderFile(path string) *JSONOrderFile {
	return &JSONOrderFile{Path: path}
}

func (f *JSONOrderFile) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("list orders: open %q: %w", f.Path, err)
	}
	defer file.Close()

	orders, err := ReadOrders(file)
	if err != nil {
		return nil, fmt.Errorf("list orders: %q: %w", f.Path, err)
	}
	return orders, nil
}
