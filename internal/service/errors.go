package service

import (
	"errors"
	"fmt"
)

// Terminal, caller-visible failures. None of these are retried: each one is
// either a caller data error or a business rule (no stock available), never
// a transient fault.
var (
	// ErrEmptyOrder is returned when an order is submitted with no items.
	ErrEmptyOrder = errors.New("order must contain at least one item")

	// ErrInvalidQuantity is returned when an item quantity is below one.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")

	// ErrUnauthorized is returned when the access filter denies the
	// principal before the reservation engine is ever invoked.
	ErrUnauthorized = errors.New("principal is not allowed to access this resource")

	// ErrOrderNotFound is returned when an order lookup misses.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidStatus is returned for an unknown order status value.
	ErrInvalidStatus = errors.New("invalid order status")
)

// InsufficientStockError reports a reservation that asked for more units
// than a variant has available. Requested and Available identify the exact
// shortfall; stock is never clamped to make the order fit.
type InsufficientStockError struct {
	VariantID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d: requested=%d, available=%d",
		e.VariantID, e.Requested, e.Available)
}

// UnknownVariantError reports an order line referencing a variant that does
// not exist.
type UnknownVariantError struct {
	VariantID int64
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown product variant: %d", e.VariantID)
}
