package service

import (
	"context"
	"sync"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"
)

// memStore is an in-memory port.OrderStore standing in for Postgres. It
// mirrors the SQL store's transactional semantics: RunInTx serializes
// writers and restores a snapshot when fn fails, so a failed reservation
// leaves no stock change behind.
type memStore struct {
	mu       sync.Mutex
	variants map[int64]models.ProductVariant
	orders   map[int64]models.Order
	items    map[int64][]models.OrderItem

	nextOrderID int64
	nextItemID  int64
}

func newMemStore() *memStore {
	return &memStore{
		variants: make(map[int64]models.ProductVariant),
		orders:   make(map[int64]models.Order),
		items:    make(map[int64][]models.OrderItem),
	}
}

func (m *memStore) addVariant(v models.ProductVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[v.ID] = v
}

func (m *memStore) setUnitPrice(variantID, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.variants[variantID]
	v.UnitPrice = price
	m.variants[variantID] = v
}

func (m *memStore) stock(variantID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[variantID].Stock
}

type memSnapshot struct {
	variants map[int64]models.ProductVariant
	orders   map[int64]models.Order
	items    map[int64][]models.OrderItem
}

func (m *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		variants: make(map[int64]models.ProductVariant, len(m.variants)),
		orders:   make(map[int64]models.Order, len(m.orders)),
		items:    make(map[int64][]models.OrderItem, len(m.items)),
	}
	for id, v := range m.variants {
		snap.variants[id] = v
	}
	for id, o := range m.orders {
		snap.orders[id] = o
	}
	for id, list := range m.items {
		snap.items[id] = append([]models.OrderItem(nil), list...)
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.variants = snap.variants
	m.orders = snap.orders
	m.items = snap.items
}

// RunInTx holds the store lock for the whole unit of work, which is the
// in-memory analogue of the row locks the SQL store takes.
func (m *memStore) RunInTx(ctx context.Context, fn func(tx port.OrderTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memTx{s: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) OrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &o, nil
}

func (m *memStore) OrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			out := o
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) OrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrderItem(nil), m.items[orderID]...), nil
}

func (m *memStore) OrdersByCompany(ctx context.Context, companyName string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.CompanyName == companyName {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) Orders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) VariantByID(ctx context.Context, id int64) (*models.ProductVariant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &v, nil
}

// memTx implements port.OrderTx against the locked store.
type memTx struct {
	s *memStore
}

func (t *memTx) VariantForUpdate(ctx context.Context, variantID int64) (*models.ProductVariant, error) {
	v, ok := t.s.variants[variantID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &v, nil
}

func (t *memTx) UpdateVariantStock(ctx context.Context, variantID int64, stock int) error {
	v := t.s.variants[variantID]
	v.Stock = stock
	t.s.variants[variantID] = v
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *models.Order) error {
	t.s.nextOrderID++
	order.ID = t.s.nextOrderID
	t.s.orders[order.ID] = *order
	return nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	t.s.nextItemID++
	item.ID = t.s.nextItemID
	t.s.items[item.OrderID] = append(t.s.items[item.OrderID], *item)
	return nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return append([]models.OrderItem(nil), t.s.items[orderID]...), nil
}

func (t *memTx) DeleteOrderItems(ctx context.Context, orderID int64) error {
	delete(t.s.items, orderID)
	return nil
}

func (t *memTx) UpdateOrder(ctx context.Context, orderID int64, status string, totalAmount int64) error {
	o := t.s.orders[orderID]
	o.Status = status
	o.TotalAmount = totalAmount
	t.s.orders[orderID] = o
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, orderID int64) error {
	delete(t.s.orders, orderID)
	delete(t.s.items, orderID)
	return nil
}

// nopCache satisfies port.InventoryCache for tests that do not exercise
// the cache.
type nopCache struct{}

func (nopCache) CacheVariant(ctx context.Context, v *models.ProductVariant) error {
	return nil
}

func (nopCache) CachedVariant(ctx context.Context, variantID int64) (*models.ProductVariant, error) {
	return nil, port.ErrNotFound
}

func (nopCache) InvalidateVariants(ctx context.Context, variantIDs ...int64) error {
	return nil
}

func (nopCache) SetIdempotencyKey(ctx context.Context, key string, orderID int64) error {
	return nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (p *capturePublisher) record(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() []interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]interface{}(nil), p.events...)
}

func (p *capturePublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return p.record(event)
}

func (p *capturePublisher) PublishOrderItemsReplaced(ctx context.Context, event *models.OrderItemsReplacedEvent) error {
	return p.record(event)
}

func (p *capturePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return p.record(event)
}

func (p *capturePublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return p.record(event)
}

func (p *capturePublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	return p.record(event)
}
