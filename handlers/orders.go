package handlers

import (
	"net/http"

	"storefront-svc/middleware"
	"storefront-svc/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrdersHandler struct {
	access OrderAccess
	logger *zap.Logger
}

func NewOrdersHandler(access OrderAccess, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{access: access, logger: logger}
}

// Success shows a placed order to its owner or to the session that placed it.
// Anyone else gets the same 404 as for an id that does not exist.
func (h *OrdersHandler) Success(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "OrderSuccess")
	defer span.End()

	id, err := uuid.Parse(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	span.SetAttributes(attribute.String("order.id", id.String()))

	rc := middleware.RequestContextFrom(c)
	order, err := h.access.Order(ctx, rc, id)
	if err != nil {
		respondError(c, span, h.logger, "Failed to load order", err)
		return
	}

	flashes, err := rc.Flashes(ctx)
	if err != nil {
		h.logger.Warn("Failed to read flash messages", zap.Error(err))
	}
	if flashes == nil {
		flashes = []session.Flash{}
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": flashes,
		"order":    newOrderView(*order),
	})
}
