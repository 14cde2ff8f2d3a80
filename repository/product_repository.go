package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-svc/models"

	"github.com/lib/pq"
)

const productColumns = "id, category_id, name, slug, short_description, price, discount, quantity, is_bestseller, created_at"

// catalogOrdering maps the public order_by values onto SQL.
var catalogOrdering = map[string]string{
	"price":  "price ASC, id ASC",
	"-price": "price DESC, id ASC",
	"name":   "name ASC",
	"-name":  "name DESC",
}

// ProductRepository is read-only; stock is only ever written inside an order
// transaction (see OrderTx.DecrementStock).
type ProductRepository interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter models.CatalogFilter, categoryID *int64) ([]models.Product, int64, error)
	Related(ctx context.Context, product models.Product, limit int) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	StockLevels(ctx context.Context, ids []int64) (map[int64]models.Product, error)
}

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func scanProduct(row scanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.ShortDescription,
		&p.Price, &p.Discount, &p.Quantity, &p.IsBestseller, &p.CreatedAt)
	return p, err
}

func (r *PostgresProductRepository) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *PostgresProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE slug = $1", slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// List returns one catalog page and the total number of matching products.
func (r *PostgresProductRepository) List(ctx context.Context, filter models.CatalogFilter, categoryID *int64) ([]models.Product, int64, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if categoryID != nil {
		where = append(where, "category_id = "+arg(*categoryID))
	}
	if filter.Query != "" {
		ph := arg("%" + escapeLike(filter.Query) + "%")
		where = append(where, "(name ILIKE "+ph+" OR short_description ILIKE "+ph+")")
	}
	if filter.OnSale {
		where = append(where, "discount > 0")
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := catalogOrdering[filter.OrderBy]
	if !ok {
		order = "id ASC"
	}

	query := "SELECT " + productColumns + " FROM products" + clause +
		" ORDER BY " + order +
		" LIMIT " + arg(filter.PageSize) +
		" OFFSET " + arg((filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *PostgresProductRepository) Related(ctx context.Context, product models.Product, limit int) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE category_id = $1 AND id <> $2 ORDER BY random() LIMIT $3",
		product.CategoryID, product.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *PostgresProductRepository) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, slug, sort_order FROM categories ORDER BY sort_order, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresProductRepository) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, slug, sort_order FROM categories WHERE slug = $1", slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// StockLevels reads current products by id without locking them.
func (r *PostgresProductRepository) StockLevels(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	stock := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return stock, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to read stock levels: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		stock[p.ID] = p
	}
	return stock, nil
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
