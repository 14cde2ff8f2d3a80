package notify

import (
	"context"
	"fmt"
	"time"

	"storefront-svc/middleware"
	"storefront-svc/models"

	"go.uber.org/zap"
)

const (
	kindSeller   = "seller"
	kindCustomer = "customer"
)

// Dispatcher sends the order placed emails. Each message is attempted on its
// own; a failure is logged and counted but never returned.
type Dispatcher struct {
	sender  EmailSender
	seller  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewDispatcher(sender EmailSender, seller string, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		seller:  seller,
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, order models.Order) {
	if len(order.Items) == 0 {
		return
	}

	d.deliver(ctx, kindSeller, order, func() (Message, error) {
		return sellerMessage(d.seller, order)
	})

	if order.Contact.Email == "" {
		middleware.RecordNotificationSent(kindCustomer, "skipped")
		return
	}
	d.deliver(ctx, kindCustomer, order, func() (Message, error) {
		return customerMessage(order)
	})
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, order models.Order, build func() (Message, error)) {
	err := d.send(ctx, build)
	if err != nil {
		middleware.RecordNotificationSent(kind, "failed")
		d.logger.Error("Failed to send order notification",
			zap.String("kind", kind),
			zap.String("order_id", order.ID.String()),
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		return
	}

	middleware.RecordNotificationSent(kind, "sent")
	d.logger.Info("Order notification sent",
		zap.String("kind", kind),
		zap.String("order_id", order.ID.String()),
	)
}

func (d *Dispatcher) send(ctx context.Context, build func() (Message, error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notification panicked: %v", r)
		}
	}()

	msg, err := build()
	if err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.sender.Send(ctx, msg)
}
