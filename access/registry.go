package access

import (
	"context"
	"fmt"

	"storefront-svc/models"
	"storefront-svc/services"
	"storefront-svc/session"

	"github.com/google/uuid"
)

const grantsKey = "order_grants"

type OrderFinder interface {
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Registry decides who may see an order confirmation. The owner of an order
// always may. A guest order is visible only to sessions holding a grant for
// it. Every other case is reported as services.ErrNotFound so that a denied
// order looks the same as a missing one.
type Registry struct {
	orders OrderFinder
}

func NewRegistry(orders OrderFinder) *Registry {
	return &Registry{orders: orders}
}

// Grant records that the session may view the order. Granting twice is a
// no-op.
func (r *Registry) Grant(ctx context.Context, rc session.RequestContext, orderID uuid.UUID) error {
	if rc.Data == nil {
		return fmt.Errorf("request has no session")
	}
	if err := rc.Data.AddToSet(ctx, grantsKey, orderID.String()); err != nil {
		return fmt.Errorf("failed to grant order access: %w", err)
	}
	return nil
}

func (r *Registry) Authorize(ctx context.Context, rc session.RequestContext, order models.Order) error {
	if order.UserID != nil {
		if rc.UserID != nil && *rc.UserID == *order.UserID {
			return nil
		}
		return services.ErrNotFound
	}

	if rc.Data == nil {
		return services.ErrNotFound
	}
	granted, err := rc.Data.SetContains(ctx, grantsKey, order.ID.String())
	if err != nil {
		return fmt.Errorf("failed to read order grants: %w", err)
	}
	if !granted {
		return services.ErrNotFound
	}
	return nil
}

// Order loads the order and authorizes the requester in one step.
func (r *Registry) Order(ctx context.Context, rc session.RequestContext, id uuid.UUID) (*models.Order, error) {
	order, err := r.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Authorize(ctx, rc, *order); err != nil {
		return nil, err
	}
	return order, nil
}
