package handlers

import (
	"context"
	"errors"
	"net/http"

	"storefront-svc/middleware"
	"storefront-svc/models"
	"storefront-svc/services"
	"storefront-svc/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	checkoutPath = "/orders/create-order"

	msgRequiredFields = "Заполните все обязательные поля!"
	msgOrderPlaced    = "Заказ оформлен!"
	msgEmptyCart      = "Ваша корзина пуста."
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, owner models.Owner, contact models.Contact, delivery models.Delivery) (*models.Order, error)
}

type StockChecker interface {
	CheckCart(ctx context.Context, lines []models.CartLine) ([]services.Shortfall, error)
}

type OrderAccess interface {
	Grant(ctx context.Context, rc session.RequestContext, orderID uuid.UUID) error
	Order(ctx context.Context, rc session.RequestContext, id uuid.UUID) (*models.Order, error)
}

type CheckoutHandler struct {
	carts  CartService
	stock  StockChecker
	orders OrderPlacer
	access OrderAccess
	logger *zap.Logger
}

func NewCheckoutHandler(carts CartService, stock StockChecker, orders OrderPlacer, access OrderAccess, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:  carts,
		stock:  stock,
		orders: orders,
		access: access,
		logger: logger,
	}
}

// Form returns what the checkout page shows: pending messages, the cart and
// any lines that currently exceed stock. The stock list is informational.
func (h *CheckoutHandler) Form(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "CheckoutForm")
	defer span.End()

	rc := middleware.RequestContextFrom(c)

	flashes, err := rc.Flashes(ctx)
	if err != nil {
		h.logger.Warn("Failed to read flash messages", zap.Error(err))
		flashes = []session.Flash{}
	}

	summary, err := h.carts.Summary(ctx, rc.Owner())
	if err != nil {
		respondError(c, span, h.logger, "Failed to load cart", err)
		return
	}

	shortfalls, err := h.stock.CheckCart(ctx, summary.Lines)
	if err != nil {
		h.logger.Warn("Failed to check stock", zap.Error(err))
	}
	if shortfalls == nil {
		shortfalls = []services.Shortfall{}
	}

	c.JSON(http.StatusOK, gin.H{
		"title":      "Оформление заказа",
		"messages":   flashes,
		"cart":       newCartView(summary),
		"shortfalls": shortfalls,
	})
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "CreateOrder")
	defer span.End()

	rc := middleware.RequestContextFrom(c)

	var form models.CheckoutForm
	if err := c.ShouldBind(&form); err != nil {
		h.reject(ctx, c, rc, "invalid_form", session.FlashError, msgRequiredFields)
		return
	}
	delivery, ok := form.Delivery()
	if !ok {
		h.reject(ctx, c, rc, "invalid_form", session.FlashError, msgRequiredFields)
		return
	}
	span.SetAttributes(attribute.String("order.delivery_method", string(delivery.Method)))

	order, err := h.orders.PlaceOrder(ctx, rc.Owner(), form.Contact(), delivery)
	if err != nil {
		var stockErr *services.InsufficientStockError
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			h.reject(ctx, c, rc, "empty_cart", session.FlashError, msgEmptyCart)
		case errors.As(err, &stockErr):
			h.reject(ctx, c, rc, "insufficient_stock", session.FlashError, stockErr.Messages()...)
		default:
			middleware.RecordCheckoutRejected("error")
			respondError(c, span, h.logger, "Failed to place order", err)
		}
		return
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	middleware.RecordOrderPlaced(string(order.Delivery.Method))

	if err := h.access.Grant(ctx, rc, order.ID); err != nil {
		h.logger.Error("Failed to grant order access",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
	h.flash(ctx, rc, session.FlashSuccess, msgOrderPlaced)

	c.Redirect(http.StatusSeeOther, "/orders/success/"+order.ID.String())
}

func (h *CheckoutHandler) reject(ctx context.Context, c *gin.Context, rc session.RequestContext, reason string, level session.FlashLevel, messages ...string) {
	middleware.RecordCheckoutRejected(reason)
	for _, m := range messages {
		h.flash(ctx, rc, level, m)
	}
	c.Redirect(http.StatusSeeOther, checkoutPath)
}

func (h *CheckoutHandler) flash(ctx context.Context, rc session.RequestContext, level session.FlashLevel, message string) {
	if err := rc.AddFlash(ctx, level, message); err != nil {
		h.logger.Warn("Failed to store flash message", zap.Error(err))
	}
}
