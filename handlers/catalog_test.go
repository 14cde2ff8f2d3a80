package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-svc/models"
	"storefront-svc/repository"
	"storefront-svc/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var productRowColumns = []string{"id", "category_id", "name", "slug", "short_description",
	"price", "discount", "quantity", "is_bestseller", "created_at"}

func setupCatalogTest(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	catalog := services.NewCatalogService(repository.NewPostgresProductRepository(db))
	handler := NewCatalogHandler(catalog, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/categories", handler.Categories)
	router.GET("/catalog", handler.List)
	router.GET("/catalog/:category_slug", handler.List)
	router.GET("/catalog/product/:product_slug", handler.Product)

	return mock, router
}

func TestCatalogHandler_Categories_Success(t *testing.T) {
	mock, router := setupCatalogTest(t)

	rows := sqlmock.NewRows([]string{"id", "name", "slug", "sort_order"}).
		AddRow(1, "Lamps", "lamps", 0).
		AddRow(2, "Tables", "tables", 1)
	mock.ExpectQuery("SELECT id, name, slug, sort_order FROM categories ORDER BY sort_order, name").
		WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var categories []models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)
	assert.Equal(t, "tables", categories[1].Slug)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCatalogHandler_List_AllCategories(t *testing.T) {
	mock, router := setupCatalogTest(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM products ORDER BY id ASC LIMIT \\$1 OFFSET \\$2").
		WithArgs(services.CatalogPageSize, 0).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(1, 1, "Lamp", "lamp", "desk lamp", "200.00", "10.00", 3, false, time.Now()))

	req := httptest.NewRequest("GET", "/catalog/all", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var page struct {
		Products []struct {
			Slug          string `json:"slug"`
			SellPrice     string `json:"sell_price"`
			DiscountPrice string `json:"discount_price"`
		} `json:"products"`
		TotalPages int `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Products, 1)
	assert.Equal(t, "180.00", page.Products[0].SellPrice)
	assert.Equal(t, "20.00", page.Products[0].DiscountPrice)
	assert.Equal(t, 1, page.TotalPages)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_List_UnknownCategory(t *testing.T) {
	mock, router := setupCatalogTest(t)

	mock.ExpectQuery("SELECT id, name, slug, sort_order FROM categories WHERE slug = \\$1").
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest("GET", "/catalog/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_List_InvalidPage(t *testing.T) {
	_, router := setupCatalogTest(t)

	for _, page := range []string{"abc", "0", "-2"} {
		req := httptest.NewRequest("GET", "/catalog?page="+page, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("page=%s: expected status %d, got %d", page, http.StatusNotFound, w.Code)
		}
	}
}

func TestCatalogHandler_List_PagePastEnd(t *testing.T) {
	mock, router := setupCatalogTest(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM products ORDER BY id ASC LIMIT \\$1 OFFSET \\$2").
		WithArgs(services.CatalogPageSize, 5*services.CatalogPageSize).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	req := httptest.NewRequest("GET", "/catalog?page=6", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCatalogHandler_Product_WithRelated(t *testing.T) {
	mock, router := setupCatalogTest(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE slug = \\$1").
		WithArgs("lamp").
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(1, 4, "Lamp", "lamp", "desk lamp", "100.00", "0", 3, false, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE category_id = \\$1 AND id <> \\$2 ORDER BY random\\(\\) LIMIT \\$3").
		WithArgs(int64(4), int64(1), 10).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(2, 4, "Shade", "shade", "", "30.00", "0", 1, false, time.Now()))

	req := httptest.NewRequest("GET", "/catalog/product/lamp", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var detail struct {
		Product struct {
			Slug string `json:"slug"`
		} `json:"product"`
		Related []struct {
			Slug string `json:"slug"`
		} `json:"related"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "lamp", detail.Product.Slug)
	require.Len(t, detail.Related, 1)
	assert.Equal(t, "shade", detail.Related[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_Product_NotFound(t *testing.T) {
	mock, router := setupCatalogTest(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE slug = \\$1").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest("GET", "/catalog/product/ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
