package service

import (
	"context"
	"errors"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"
	"supplychain-service/internal/util"

	"go.uber.org/zap"
)

// OrderLineInput is one requested order line: a variant reference and a
// quantity.
type OrderLineInput struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// ReservationEngine applies and reverses inventory deltas as order items
// are created, replaced or removed. Every mutation runs inside one
// transaction so stock changes are all-or-nothing, and variants are read
// under row locks so concurrent reservations against the same variant
// serialize. The engine performs no authorization; callers apply the
// AccessFilter first.
type ReservationEngine struct {
	store  port.OrderStore
	logger *zap.Logger
}

// NewReservationEngine creates a new reservation engine
func NewReservationEngine(store port.OrderStore) *ReservationEngine {
	return &ReservationEngine{
		store:  store,
		logger: util.GetLogger(),
	}
}

func validateItems(items []OrderLineInput) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, in := range items {
		if in.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// applyItems validates and applies the requested lines inside tx, in the
// order submitted: lock the variant, check stock, decrement, insert the
// line with the price snapshotted from the locked row. Re-locking a variant
// already touched in this transaction observes the decremented stock, so
// duplicate references to one variant accumulate correctly.
func (e *ReservationEngine) applyItems(ctx context.Context, tx port.OrderTx, orderID int64, items []OrderLineInput) ([]models.OrderItem, int64, error) {
	created := make([]models.OrderItem, 0, len(items))
	var total int64

	for _, in := range items {
		v, err := tx.VariantForUpdate(ctx, in.VariantID)
		if errors.Is(err, port.ErrNotFound) {
			return nil, 0, &UnknownVariantError{VariantID: in.VariantID}
		}
		if err != nil {
			return nil, 0, err
		}

		if in.Quantity > v.Stock {
			return nil, 0, &InsufficientStockError{
				VariantID: v.ID,
				Requested: in.Quantity,
				Available: v.Stock,
			}
		}

		if err := tx.UpdateVariantStock(ctx, v.ID, v.Stock-in.Quantity); err != nil {
			return nil, 0, err
		}

		item := models.OrderItem{
			OrderID:      orderID,
			VariantID:    v.ID,
			Quantity:     in.Quantity,
			PriceAtOrder: v.UnitPrice,
		}
		if err := tx.InsertOrderItem(ctx, &item); err != nil {
			return nil, 0, err
		}

		created = append(created, item)
		total += v.UnitPrice * int64(in.Quantity)
	}

	return created, total, nil
}

// restoreItems reverses the stock effect of every existing line on the
// order and deletes the lines.
func (e *ReservationEngine) restoreItems(ctx context.Context, tx port.OrderTx, orderID int64) ([]models.OrderItem, error) {
	old, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for _, item := range old {
		v, err := tx.VariantForUpdate(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if err := tx.UpdateVariantStock(ctx, v.ID, v.Stock+item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.DeleteOrderItems(ctx, orderID); err != nil {
		return nil, err
	}
	return old, nil
}

// CreateOrder reserves stock for every requested line and creates the order
// with its items in one transaction. On any failure nothing is applied: the
// transaction rolls back and every touched variant keeps its prior stock.
func (e *ReservationEngine) CreateOrder(ctx context.Context, principal models.Principal, items []OrderLineInput, idempotencyKey string) (*models.Order, []models.OrderItem, error) {
	if err := validateItems(items); err != nil {
		return nil, nil, err
	}

	order := models.Order{
		UserID:         principal.ID,
		CompanyName:    principal.CompanyName,
		Status:         models.OrderStatusPending,
		IdempotencyKey: idempotencyKey,
	}
	var created []models.OrderItem

	err := e.store.RunInTx(ctx, func(tx port.OrderTx) error {
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}

		lines, total, err := e.applyItems(ctx, tx, order.ID, items)
		if err != nil {
			return err
		}

		created = lines
		order.TotalAmount = total
		return tx.UpdateOrder(ctx, order.ID, order.Status, total)
	})
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("items", len(created)))
	return &order, created, nil
}

// ReplaceOrderItems discards the order's entire item set and applies the
// new one: every old quantity is restored first, then the new lines are
// validated against the restored stock and applied. The whole replace is
// one transaction, so a failing new line rolls everything back to the
// pre-call state; the restore never survives on its own.
func (e *ReservationEngine) ReplaceOrderItems(ctx context.Context, order *models.Order, items []OrderLineInput) ([]models.OrderItem, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var created []models.OrderItem

	err := e.store.RunInTx(ctx, func(tx port.OrderTx) error {
		if _, err := e.restoreItems(ctx, tx, order.ID); err != nil {
			return err
		}

		lines, total, err := e.applyItems(ctx, tx, order.ID, items)
		if err != nil {
			return err
		}

		created = lines
		order.TotalAmount = total
		return tx.UpdateOrder(ctx, order.ID, order.Status, total)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Order items replaced",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(created)))
	return created, nil
}

// UpdateStatus sets the order's status. Pure transition, no stock effect,
// and no constraint on which transitions are allowed.
func (e *ReservationEngine) UpdateStatus(ctx context.Context, order *models.Order, status string) error {
	if !models.ValidStatus(status) {
		return ErrInvalidStatus
	}

	err := e.store.RunInTx(ctx, func(tx port.OrderTx) error {
		return tx.UpdateOrder(ctx, order.ID, status, order.TotalAmount)
	})
	if err != nil {
		return err
	}

	order.Status = status
	return nil
}

// DeleteOrder restores stock for every line, then removes the order and its
// items, atomically. Returns the removed items so callers can report what
// was released.
func (e *ReservationEngine) DeleteOrder(ctx context.Context, order *models.Order) ([]models.OrderItem, error) {
	var removed []models.OrderItem

	err := e.store.RunInTx(ctx, func(tx port.OrderTx) error {
		old, err := e.restoreItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		removed = old
		return tx.DeleteOrder(ctx, order.ID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Order deleted, stock restored",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(removed)))
	return removed, nil
}
