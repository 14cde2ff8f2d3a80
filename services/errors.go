package services

import (
	"errors"
	"fmt"
	"strings"

	"storefront-svc/repository"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNotFound covers both missing records and records the requester may
	// not see.
	ErrNotFound = repository.ErrNotFound
)

type Shortfall struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// InsufficientStockError lists every line that cannot be fulfilled.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (available %d, requested %d)", s.Name, s.Available, s.Requested))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// Messages renders one customer facing line per shortfall.
func (e *InsufficientStockError) Messages() []string {
	msgs := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		msgs = append(msgs, fmt.Sprintf("Недостаточно товара %q на складе. В наличии: %d, запрошено: %d.",
			s.Name, s.Available, s.Requested))
	}
	return msgs
}
