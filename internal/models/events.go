package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderItemsReplaced = "ORDER_ITEMS_REPLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeOrderDeleted       = "ORDER_DELETED"
	EventTypeLowStock           = "LOW_STOCK"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	VariantID    int64 `json:"variant_id"`
	Quantity     int   `json:"quantity"`
	PriceAtOrder int64 `json:"price_at_order"`
}

// OrderCreatedEvent published when an order is created and its stock
// reserved
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      string          `json:"user_id"`
	CompanyName string          `json:"company_name"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderItemsReplacedEvent published when an order's item set is fully
// replaced
type OrderItemsReplacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published on a status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderDeletedEvent published when an order is deleted and its stock
// restored
type OrderDeletedEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	UserID  string          `json:"user_id"`
	Items   []OrderItemData `json:"items"`
}

// LowStockEvent published by the stock watcher when a variant falls under
// its reorder threshold
type LowStockEvent struct {
	BaseEvent
	VariantID int64  `json:"variant_id"`
	ProductID int64  `json:"product_id"`
	Stock     int    `json:"stock"`
	MinStock  int    `json:"min_stock"`
	Company   string `json:"company,omitempty"`
}
