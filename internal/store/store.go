package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// RunInTx runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise, so a reservation that fails
// partway leaves no stock change behind.
func (s *Store) RunInTx(ctx context.Context, fn func(tx port.OrderTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// orderTx implements port.OrderTx over one sqlx transaction.
type orderTx struct {
	tx *sqlx.Tx
}

// VariantForUpdate reads a variant under a row-level write lock. Concurrent
// reservations against the same variant block here until the holder's
// transaction ends.
func (t *orderTx) VariantForUpdate(ctx context.Context, variantID int64) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := t.tx.GetContext(ctx, &v,
		"SELECT * FROM product_variants WHERE id = $1 FOR UPDATE", variantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock variant %d: %w", variantID, err)
	}
	return &v, nil
}

func (t *orderTx) UpdateVariantStock(ctx context.Context, variantID int64, stock int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE product_variants SET stock = $1, updated_at = NOW() WHERE id = $2",
		stock, variantID)
	if err != nil {
		return fmt.Errorf("failed to update stock for variant %d: %w", variantID, err)
	}
	return nil
}

func (t *orderTx) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, company_name, status, total_amount, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return t.tx.GetContext(ctx, order, query,
		order.UserID, order.CompanyName, order.Status, order.TotalAmount, order.IdempotencyKey)
}

func (t *orderTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, variant_id, quantity, price_at_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return t.tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.VariantID, item.Quantity, item.PriceAtOrder)
}

func (t *orderTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := t.tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

func (t *orderTx) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"DELETE FROM order_items WHERE order_id = $1", orderID)
	return err
}

func (t *orderTx) UpdateOrder(ctx context.Context, orderID int64, status string, totalAmount int64) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, total_amount = $2, updated_at = NOW() WHERE id = $3",
		status, totalAmount, orderID)
	return err
}

func (t *orderTx) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}
