package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"storefront-svc/models"

	"github.com/google/uuid"
)

// OrderTx is the set of statements an order placement runs inside one
// database transaction.
type OrderTx interface {
	// LockCartLines returns the owner's cart lines joined with their products.
	// Both the lines and the products are row-locked until the transaction
	// ends. Lines come back in the order they were added to the cart.
	LockCartLines(ctx context.Context, owner models.Owner) ([]models.CartLine, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	// DecrementStock reports false when fewer than quantity units remain.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	ClearCart(ctx context.Context, owner models.Owner) (int64, error)
}

type OrderStore interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx OrderTx) error) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

func (s *PostgresOrderStore) WithinTx(ctx context.Context, fn func(tx OrderTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&postgresOrderTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresOrderStore) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var (
		order  models.Order
		userID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, first_name, last_name, phone_number, email,
			delivery_method, requires_delivery, delivery_address, payment_on_get, created_at
		FROM orders WHERE id = $1`, id.String(),
	).Scan(&order.ID, &userID, &order.Contact.FirstName, &order.Contact.LastName,
		&order.Contact.PhoneNumber, &order.Contact.Email, &order.Delivery.Method,
		&order.Delivery.RequiresDelivery, &order.Delivery.Address, &order.Delivery.PaymentOnGet,
		&order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if userID.Valid {
		order.UserID = &userID.Int64
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id",
		id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	order.Items = []models.OrderItem{}
	for rows.Next() {
		var (
			item      models.OrderItem
			productID sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &productID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if productID.Valid {
			item.ProductID = &productID.Int64
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return &order, nil
}

type postgresOrderTx struct {
	tx *sql.Tx
}

func (t *postgresOrderTx) LockCartLines(ctx context.Context, owner models.Owner) ([]models.CartLine, error) {
	// Rows are locked in product id order so that concurrent checkouts
	// touching the same products cannot deadlock.
	rows, err := t.tx.QueryContext(ctx,
		cartLineSelect+" WHERE c.owner_key = $1 ORDER BY p.id FOR UPDATE OF c, p", owner.Key())
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
	}
	defer rows.Close()

	lines, err := collectCartLines(rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (t *postgresOrderTx) CreateOrder(ctx context.Context, order *models.Order) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, first_name, last_name, phone_number, email,
			delivery_method, requires_delivery, delivery_address, payment_on_get)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		order.ID.String(), order.UserID, order.Contact.FirstName, order.Contact.LastName,
		order.Contact.PhoneNumber, order.Contact.Email, string(order.Delivery.Method),
		order.Delivery.RequiresDelivery, order.Delivery.Address, order.Delivery.PaymentOnGet,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (t *postgresOrderTx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		item.OrderID.String(), item.ProductID, item.Name, item.Price, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (t *postgresOrderTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1",
		quantity, productID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (t *postgresOrderTx) ClearCart(ctx context.Context, owner models.Owner) (int64, error) {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM cart_items WHERE owner_key = $1", owner.Key())
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return result.RowsAffected()
}
