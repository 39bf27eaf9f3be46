package port

import (
	"context"
	"errors"

	"supplychain-service/internal/models"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("not found")

// OrderTx is the unit of work handed to the reservation engine. Every
// method runs inside one database transaction; the whole unit commits or
// rolls back together. VariantForUpdate must hold a write lock on the row
// until the transaction ends, so concurrent reservations against the same
// variant serialize.
type OrderTx interface {
	// VariantForUpdate reads a variant with a row-level write lock.
	// Returns ErrNoRows-style not-found via the store's sentinel.
	VariantForUpdate(ctx context.Context, variantID int64) (*models.ProductVariant, error)

	// UpdateVariantStock sets the variant's absolute stock value.
	UpdateVariantStock(ctx context.Context, variantID int64, stock int) error

	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	DeleteOrderItems(ctx context.Context, orderID int64) error
	UpdateOrder(ctx context.Context, orderID int64, status string, totalAmount int64) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

// OrderStore is what the order service needs from persistence.
type OrderStore interface {
	// RunInTx runs fn inside a transaction, committing when fn returns
	// nil and rolling back otherwise.
	RunInTx(ctx context.Context, fn func(tx OrderTx) error) error

	OrderByID(ctx context.Context, id int64) (*models.Order, error)
	OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	OrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	OrdersByCompany(ctx context.Context, companyName string) ([]models.Order, error)
	Orders(ctx context.Context) ([]models.Order, error)
	VariantByID(ctx context.Context, id int64) (*models.ProductVariant, error)
}

// CatalogStore is what the catalog service needs from persistence.
type CatalogStore interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	Products(ctx context.Context) ([]models.Product, error)
	ProductsByCompany(ctx context.Context, companyName string) ([]models.Product, error)
	VariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error)
	VariantByID(ctx context.Context, id int64) (*models.ProductVariant, error)
	VariantsByIDs(ctx context.Context, ids []int64) ([]models.ProductVariant, error)
	AddStock(ctx context.Context, variantID int64, delta int) (*models.ProductVariant, error)
}

// InventoryCache is the read-path cache for inventory snapshots plus
// idempotency bookkeeping. Misses are reported as ErrNotFound.
type InventoryCache interface {
	CacheVariant(ctx context.Context, v *models.ProductVariant) error
	CachedVariant(ctx context.Context, variantID int64) (*models.ProductVariant, error)
	InvalidateVariants(ctx context.Context, variantIDs ...int64) error
	SetIdempotencyKey(ctx context.Context, key string, orderID int64) error
}

// EventPublisher is the outbound event contract consumed by the services.
// Implementations must be safe for concurrent use.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderItemsReplaced(ctx context.Context, event *models.OrderItemsReplacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error
	PublishLowStock(ctx context.Context, event *models.LowStockEvent) error
}
