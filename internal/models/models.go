package models

import "time"

// Product represents a catalog product owned by a supplier organization
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	CompanyName string    `db:"company_name" json:"company_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Variants []ProductVariant `db:"-" json:"variants,omitempty"`
}

// ProductVariant is one sellable variant of a product and carries its
// inventory record: current stock, the reorder threshold and the unit price
// in minor currency units. Stock is mutated only by the reservation engine
// and by explicit restocks.
type ProductVariant struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size,omitempty"`
	Color     string    `db:"color" json:"color,omitempty"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	Stock     int       `db:"stock" json:"stock"`
	MinStock  int       `db:"min_stock" json:"min_stock"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BelowMinStock reports whether the variant has fallen under its reorder
// threshold.
func (v ProductVariant) BelowMinStock() bool {
	return v.Stock < v.MinStock
}

// Order represents a customer order
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	CompanyName    string    `db:"company_name" json:"company_name"`
	Status         string    `db:"status" json:"status"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents one line of an order. PriceAtOrder is snapshotted
// from the variant's unit price when the line is created and never
// recomputed afterwards.
type OrderItem struct {
	ID           int64 `db:"id" json:"id"`
	OrderID      int64 `db:"order_id" json:"order_id"`
	VariantID    int64 `db:"variant_id" json:"variant_id"`
	Quantity     int   `db:"quantity" json:"quantity"`
	PriceAtOrder int64 `db:"price_at_order" json:"price_at_order"`
}

// Order statuses. Transitions are deliberately unconstrained: any status
// may be set to any other.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Principal roles
const (
	RoleSuperAdmin     = "SUPER_ADMIN"
	RoleWholesaler     = "WHOLESALER"
	RoleSemiWholesaler = "SEMI_WHOLESALER"
	RoleRetailer       = "RETAILER"
)

// Principal is the authenticated caller as asserted by the upstream
// identity provider. The service consumes it as-is and performs no
// credential checks of its own.
type Principal struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
}

// IsSuperAdmin reports whether the principal bypasses ownership checks.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}
