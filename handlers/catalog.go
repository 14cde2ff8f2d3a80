package handlers

import (
	"context"
	"net/http"
	"strconv"

	"storefront-svc/models"
	"storefront-svc/services"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Catalog interface {
	List(ctx context.Context, filter models.CatalogFilter) (models.CatalogPage, error)
	Product(ctx context.Context, slug string) (services.ProductDetail, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type CatalogHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewCatalogHandler(catalog Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

func (h *CatalogHandler) List(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "ListCatalog")
	defer span.End()

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		page = n
	}

	filter := models.CatalogFilter{
		CategorySlug: c.Param("category_slug"),
		Query:        c.Query("q"),
		OnSale:       isChecked(c.Query("on_sale")),
		OrderBy:      c.Query("order_by"),
		Page:         page,
		PageSize:     services.CatalogPageSize,
	}
	span.SetAttributes(
		attribute.String("catalog.category", filter.CategorySlug),
		attribute.Int("catalog.page", filter.Page),
	)

	result, err := h.catalog.List(ctx, filter)
	if err != nil {
		respondError(c, span, h.logger, "Failed to list catalog", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CatalogHandler) Product(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "GetProduct")
	defer span.End()

	slug := c.Param("product_slug")
	span.SetAttributes(attribute.String("product.slug", slug))

	detail, err := h.catalog.Product(ctx, slug)
	if err != nil {
		respondError(c, span, h.logger, "Failed to get product", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	ctx, span := otel.Tracer("storefront").Start(c.Request.Context(), "ListCategories")
	defer span.End()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		respondError(c, span, h.logger, "Failed to list categories", err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func isChecked(v string) bool {
	switch v {
	case "1", "on", "true":
		return true
	}
	return false
}
