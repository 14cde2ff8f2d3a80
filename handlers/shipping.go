package handlers

import (
	"context"
	"net/http"

	"storefront-svc/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

type AddressLookup interface {
	SearchSettlements(ctx context.Context, query string) []models.Settlement
	Warehouses(ctx context.Context, settlementRef string) models.WarehousesResponse
}

// ShippingHandler serves carrier autocomplete. Both endpoints always answer
// 200; upstream trouble shows up as an empty list.
type ShippingHandler struct {
	lookup AddressLookup
}

func NewShippingHandler(lookup AddressLookup) *ShippingHandler {
	return &ShippingHandler{lookup: lookup}
}

func (h *ShippingHandler) SearchCity(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "SearchCity")
	defer span.End()

	c.JSON(http.StatusOK, h.lookup.SearchSettlements(ctx, c.Query("q")))
}

func (h *ShippingHandler) GetWarehouses(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "GetWarehouses")
	defer span.End()

	c.JSON(http.StatusOK, h.lookup.Warehouses(ctx, c.Query("settlement_ref")))
}
