package services

import (
	"context"

	"storefront-svc/models"
	"storefront-svc/repository"
)

const (
	CatalogPageSize = 12
	relatedLimit    = 10
	allCategories   = "all"
)

type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// List returns one page of the catalog. An unknown category slug is
// ErrNotFound; "all" or an empty slug means every category.
func (s *CatalogService) List(ctx context.Context, filter models.CatalogFilter) (models.CatalogPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = CatalogPageSize
	}

	var categoryID *int64
	if filter.CategorySlug != "" && filter.CategorySlug != allCategories {
		category, err := s.products.CategoryBySlug(ctx, filter.CategorySlug)
		if err != nil {
			return models.CatalogPage{}, err
		}
		categoryID = &category.ID
	}

	products, total, err := s.products.List(ctx, filter, categoryID)
	if err != nil {
		return models.CatalogPage{}, err
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))
	if filter.Page > totalPages && total > 0 {
		return models.CatalogPage{}, ErrNotFound
	}

	return models.CatalogPage{
		Products:   toViews(products),
		Page:       filter.Page,
		TotalPages: totalPages,
		Total:      total,
		HasMore:    filter.Page < totalPages,
	}, nil
}

type ProductDetail struct {
	Product models.ProductView   `json:"product"`
	Related []models.ProductView `json:"related"`
}

func (s *CatalogService) Product(ctx context.Context, slug string) (ProductDetail, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}

	related, err := s.products.Related(ctx, *product, relatedLimit)
	if err != nil {
		return ProductDetail{}, err
	}

	return ProductDetail{
		Product: models.NewProductView(*product),
		Related: toViews(related),
	}, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.products.Categories(ctx)
}

func toViews(products []models.Product) []models.ProductView {
	views := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, models.NewProductView(p))
	}
	return views
}
