package handlers

import (
	"context"
	"net/http"
	"strconv"

	"storefront-svc/middleware"
	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartService interface {
	Summary(ctx context.Context, owner models.Owner) (models.CartSummary, error)
	Add(ctx context.Context, owner models.Owner, productID int64, quantity int) error
	Change(ctx context.Context, owner models.Owner, lineID int64, change models.CartChange) error
	Remove(ctx context.Context, owner models.Owner, lineID int64) error
}

type CartHandler struct {
	carts  CartService
	logger *zap.Logger
}

func NewCartHandler(carts CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

func (h *CartHandler) Show(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "ShowCart")
	defer span.End()

	h.respond(ctx, c, span, "")
}

func (h *CartHandler) Add(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "AddToCart")
	defer span.End()

	productID, err := strconv.ParseInt(c.PostForm("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}
	quantity, err := strconv.Atoi(c.DefaultPostForm("quantity", "1"))
	if err != nil {
		quantity = 1
	}

	owner := middleware.RequestContextFrom(c).Owner()
	if err := h.carts.Add(ctx, owner, productID, quantity); err != nil {
		respondError(c, span, h.logger, "Failed to add to cart", err)
		return
	}

	h.respond(ctx, c, span, "Товар добавлен в корзину")
}

func (h *CartHandler) Change(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "ChangeCart")
	defer span.End()

	lineID, ok := cartLineID(c)
	if !ok {
		return
	}

	change := models.CartChange{Action: models.CartAction(c.PostForm("action"))}
	switch change.Action {
	case models.CartIncrement, models.CartDecrement:
	default:
		change.Action = ""
		raw, present := c.GetPostForm("quantity")
		if !present {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action or quantity required"})
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be an integer"})
			return
		}
		change.Quantity = &n
	}

	owner := middleware.RequestContextFrom(c).Owner()
	if err := h.carts.Change(ctx, owner, lineID, change); err != nil {
		respondError(c, span, h.logger, "Failed to change cart", err)
		return
	}

	h.respond(ctx, c, span, "Количество обновлено")
}

func (h *CartHandler) Remove(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "RemoveFromCart")
	defer span.End()

	lineID, ok := cartLineID(c)
	if !ok {
		return
	}

	owner := middleware.RequestContextFrom(c).Owner()
	if err := h.carts.Remove(ctx, owner, lineID); err != nil {
		respondError(c, span, h.logger, "Failed to remove from cart", err)
		return
	}

	h.respond(ctx, c, span, "Товар удалён")
}

func cartLineID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.PostForm("cart_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart_id required"})
		return 0, false
	}
	return id, true
}

// respond writes the refreshed cart summary shared by every cart endpoint.
func (h *CartHandler) respond(ctx context.Context, c *gin.Context, span trace.Span, message string) {
	summary, err := h.carts.Summary(ctx, middleware.RequestContextFrom(c).Owner())
	if err != nil {
		respondError(c, span, h.logger, "Failed to load cart", err)
		return
	}

	html, err := renderCart(summary)
	if err != nil {
		respondError(c, span, h.logger, "Failed to render cart", err)
		return
	}

	view := newCartView(summary)
	body := gin.H{
		"cart_items_html": html,
		"total_quantity":  view.TotalQuantity,
		"total_sum":       view.TotalSum,
		"lines":           view.Lines,
	}
	if message != "" {
		body["message"] = message
	}
	c.JSON(http.StatusOK, body)
}
