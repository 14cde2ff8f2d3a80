package services

import (
	"context"

	"storefront-svc/models"
	"storefront-svc/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("storefront/services")

// Notifier sends the order placed messages. Implementations handle and log
// their own failures.
type Notifier interface {
	OrderPlaced(ctx context.Context, order models.Order)
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order models.Order) error
}

type CheckoutService struct {
	orders    repository.OrderStore
	notifier  Notifier
	publisher EventPublisher
	logger    *zap.Logger
}

// NewCheckoutService wires order placement. publisher may be nil when event
// publishing is disabled.
func NewCheckoutService(orders repository.OrderStore, notifier Notifier, publisher EventPublisher, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder turns the owner's cart into an order. Stock is checked and
// decremented under row locks in the same transaction that writes the order
// and clears the cart, so either all of it persists or none of it does.
// Notifications and the order event go out only after commit and cannot fail
// the call.
func (s *CheckoutService) PlaceOrder(ctx context.Context, owner models.Owner, contact models.Contact, delivery models.Delivery) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	order := &models.Order{
		ID:       uuid.New(),
		UserID:   owner.UserID,
		Contact:  contact,
		Delivery: delivery,
	}

	err := s.orders.WithinTx(ctx, func(tx repository.OrderTx) error {
		lines, err := tx.LockCartLines(ctx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		stock := make(map[int64]models.Product, len(lines))
		for _, l := range lines {
			stock[l.ProductID] = l.Product
		}
		if shortfalls := Evaluate(requestsFromLines(lines), stock); len(shortfalls) > 0 {
			return &InsufficientStockError{Shortfalls: shortfalls}
		}

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		order.Items = make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			productID := l.ProductID
			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: &productID,
				Name:      l.Product.Name,
				Price:     l.Product.SellPrice(),
				Quantity:  l.Quantity,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return err
			}

			ok, err := tx.DecrementStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{Shortfalls: []Shortfall{{
					ProductID: l.ProductID,
					Name:      l.Product.Name,
					Available: l.Product.Quantity,
					Requested: l.Quantity,
				}}}
			}
			order.Items = append(order.Items, item)
		}

		_, err = tx.ClearCart(ctx, owner)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Int("order.items", len(order.Items)),
	)
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total().StringFixed(2)),
		zap.Bool("guest", order.Guest()),
	)

	s.afterCommit(ctx, *order)
	return order, nil
}

func (s *CheckoutService) afterCommit(ctx context.Context, order models.Order) {
	// the order exists even if the client has gone away
	ctx = context.WithoutCancel(ctx)
	if s.publisher != nil {
		if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
			s.logger.Error("Failed to publish order event",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			// Don't fail the request, order is already committed
		}
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(ctx, order)
	}
}

// FindOrder loads an order without any access check.
func (s *CheckoutService) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "CheckoutService.FindOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id.String()))

	return s.orders.FindOrder(ctx, id)
}
