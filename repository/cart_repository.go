package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-svc/models"
)

const cartLineSelect = `SELECT c.id, c.product_id, c.quantity, c.created_at,
	p.id, p.category_id, p.name, p.slug, p.short_description, p.price, p.discount, p.quantity, p.is_bestseller, p.created_at
	FROM cart_items c JOIN products p ON p.id = c.product_id`

// CartRepository is partitioned by owner: every statement filters on
// owner_key, so a line belonging to someone else behaves as missing.
type CartRepository interface {
	List(ctx context.Context, owner models.Owner) ([]models.CartLine, error)
	Add(ctx context.Context, owner models.Owner, productID int64, quantity int) error
	Get(ctx context.Context, owner models.Owner, lineID int64) (*models.CartLine, error)
	SetQuantity(ctx context.Context, owner models.Owner, lineID int64, quantity int) error
	Delete(ctx context.Context, owner models.Owner, lineID int64) error
}

type PostgresCartRepository struct {
	db *sql.DB
}

func NewPostgresCartRepository(db *sql.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

func scanCartLine(row scanner) (models.CartLine, error) {
	var l models.CartLine
	p := &l.Product
	err := row.Scan(&l.ID, &l.ProductID, &l.Quantity, &l.CreatedAt,
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.ShortDescription,
		&p.Price, &p.Discount, &p.Quantity, &p.IsBestseller, &p.CreatedAt)
	return l, err
}

func collectCartLines(rows *sql.Rows) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}
	return lines, nil
}

func (r *PostgresCartRepository) List(ctx context.Context, owner models.Owner) ([]models.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, cartLineSelect+" WHERE c.owner_key = $1 ORDER BY c.id", owner.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	return collectCartLines(rows)
}

// Add merges into the existing (owner, product) line instead of creating a
// second one.
func (r *PostgresCartRepository) Add(ctx context.Context, owner models.Owner, productID int64, quantity int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_items (owner_key, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (owner_key, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		owner.Key(), productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	return nil
}

func (r *PostgresCartRepository) Get(ctx context.Context, owner models.Owner, lineID int64) (*models.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		cartLineSelect+" WHERE c.id = $1 AND c.owner_key = $2", lineID, owner.Key()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}
	return &l, nil
}

func (r *PostgresCartRepository) SetQuantity(ctx context.Context, owner models.Owner, lineID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1 WHERE id = $2 AND owner_key = $3",
		quantity, lineID, owner.Key())
	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	return requireAffected(result)
}

func (r *PostgresCartRepository) Delete(ctx context.Context, owner models.Owner, lineID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE id = $1 AND owner_key = $2", lineID, owner.Key())
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
