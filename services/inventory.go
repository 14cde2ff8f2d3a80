package services

import (
	"context"
	"fmt"

	"storefront-svc/models"
	"storefront-svc/repository"
)

type StockRequest struct {
	ProductID int64
	Name      string
	Quantity  int
}

// Evaluate compares requested quantities against on-hand stock. Requests for
// the same product are summed. A product missing from stock counts as zero
// available. Shortfalls keep the order of the first request per product.
func Evaluate(requests []StockRequest, stock map[int64]models.Product) []Shortfall {
	var (
		order     []int64
		requested = make(map[int64]int, len(requests))
		names     = make(map[int64]string, len(requests))
	)
	for _, r := range requests {
		if _, seen := requested[r.ProductID]; !seen {
			order = append(order, r.ProductID)
			names[r.ProductID] = r.Name
		}
		requested[r.ProductID] += r.Quantity
	}

	var shortfalls []Shortfall
	for _, id := range order {
		product, ok := stock[id]
		available := 0
		name := names[id]
		if ok {
			available = product.Quantity
			name = product.Name
		}
		if requested[id] > available {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: id,
				Name:      name,
				Available: available,
				Requested: requested[id],
			})
		}
	}
	return shortfalls
}

// InventoryGuard is a read-only stock check used for display. Order placement
// re-validates under row locks and does not depend on it.
type InventoryGuard struct {
	products repository.ProductRepository
}

func NewInventoryGuard(products repository.ProductRepository) *InventoryGuard {
	return &InventoryGuard{products: products}
}

func (g *InventoryGuard) Check(ctx context.Context, requests []StockRequest) ([]Shortfall, error) {
	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ProductID)
	}

	stock, err := g.products.StockLevels(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check stock: %w", err)
	}
	return Evaluate(requests, stock), nil
}

// CheckCart runs Check over the lines of a cart.
func (g *InventoryGuard) CheckCart(ctx context.Context, lines []models.CartLine) ([]Shortfall, error) {
	return g.Check(ctx, requestsFromLines(lines))
}

func requestsFromLines(lines []models.CartLine) []StockRequest {
	requests := make([]StockRequest, 0, len(lines))
	for _, l := range lines {
		requests = append(requests, StockRequest{ProductID: l.ProductID, Name: l.Product.Name, Quantity: l.Quantity})
	}
	return requests
}
