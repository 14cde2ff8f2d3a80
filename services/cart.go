package services

import (
	"context"

	"storefront-svc/models"
	"storefront-svc/repository"
)

// CartService applies cart mutations scoped to one owner. Lines that belong
// to another owner are reported as ErrNotFound.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) Summary(ctx context.Context, owner models.Owner) (models.CartSummary, error) {
	lines, err := s.carts.List(ctx, owner)
	if err != nil {
		return models.CartSummary{}, err
	}
	return models.NewCartSummary(lines), nil
}

// Add merges quantity into the owner's line for the product.
func (s *CartService) Add(ctx context.Context, owner models.Owner, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return err
	}
	return s.carts.Add(ctx, owner, productID, quantity)
}

// Change applies an increment, decrement or absolute quantity. A resulting
// quantity of zero or less deletes the line.
func (s *CartService) Change(ctx context.Context, owner models.Owner, lineID int64, change models.CartChange) error {
	line, err := s.carts.Get(ctx, owner, lineID)
	if err != nil {
		return err
	}

	var quantity int
	switch {
	case change.Action == models.CartIncrement:
		quantity = line.Quantity + 1
	case change.Action == models.CartDecrement:
		quantity = line.Quantity - 1
	case change.Quantity != nil:
		quantity = *change.Quantity
	default:
		return ErrInvalidQuantity
	}

	if quantity <= 0 {
		return s.carts.Delete(ctx, owner, lineID)
	}
	return s.carts.SetQuantity(ctx, owner, lineID, quantity)
}

func (s *CartService) Remove(ctx context.Context, owner models.Owner, lineID int64) error {
	return s.carts.Delete(ctx, owner, lineID)
}
