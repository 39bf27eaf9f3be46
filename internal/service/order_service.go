package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"supplychain-service/internal/models"
	"supplychain-service/internal/port"
	"supplychain-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService exposes the order operations to the HTTP layer. It applies
// the access filter, delegates every stock mutation to the reservation
// engine, and takes care of idempotency, cache invalidation, metrics and
// event publication around it.
type OrderService struct {
	store     port.OrderStore
	cache     port.InventoryCache
	engine    *ReservationEngine
	publisher port.EventPublisher
	access    AccessFilter
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store port.OrderStore, cache port.InventoryCache, publisher port.EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		cache:     cache,
		engine:    NewReservationEngine(store),
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Items          []OrderLineInput `json:"items" binding:"required"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// ReplaceItemsRequest represents a full-replace of an order's item set
type ReplaceItemsRequest struct {
	Items []OrderLineInput `json:"items" binding:"required"`
}

// UpdateStatusRequest represents a status transition request
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderResponse bundles an order with its items
type OrderResponse struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// CreateOrder creates a new order with its stock reservation. Repeating a
// request with the same idempotency key returns the previously created
// order instead of reserving twice.
func (s *OrderService) CreateOrder(ctx context.Context, principal models.Principal, req *CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.store.OrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existing.ID))
		items, err := s.store.OrderItemsByOrderID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		return &OrderResponse{Order: existing, Items: items}, nil
	}

	start := time.Now()
	order, items, err := s.engine.CreateOrder(ctx, principal, req.Items, req.IdempotencyKey)
	util.ReservationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.invalidateVariants(ctx, items)

	if err := s.cache.SetIdempotencyKey(ctx, req.IdempotencyKey, order.ID); err != nil {
		s.logger.Warn("Failed to store idempotency key", zap.Error(err))
	}

	event := &models.OrderCreatedEvent{
		BaseEvent:   NewBaseEvent(models.EventTypeOrderCreated),
		OrderID:     order.ID,
		UserID:      order.UserID,
		CompanyName: order.CompanyName,
		TotalAmount: order.TotalAmount,
		Items:       toEventItems(items),
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return &OrderResponse{Order: order, Items: items}, nil
}

// GetOrder retrieves an order with its items, subject to the access filter
func (s *OrderService) GetOrder(ctx context.Context, principal models.Principal, orderID int64) (*OrderResponse, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanReadOrder(principal, order) {
		return nil, ErrUnauthorized
	}

	items, err := s.store.OrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderResponse{Order: order, Items: items}, nil
}

// ListOrders retrieves the orders visible to the principal: everything for
// a super admin, the principal's organization for everyone else.
func (s *OrderService) ListOrders(ctx context.Context, principal models.Principal) ([]models.Order, error) {
	if principal.IsSuperAdmin() {
		return s.store.Orders(ctx)
	}
	return s.store.OrdersByCompany(ctx, principal.CompanyName)
}

// ReplaceOrderItems fully replaces the order's item set
func (s *OrderService) ReplaceOrderItems(ctx context.Context, principal models.Principal, orderID int64, req *ReplaceItemsRequest) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ReplaceOrderItems")
	defer span.End()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanWriteOrder(principal, order) {
		return nil, ErrUnauthorized
	}

	old, err := s.store.OrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.engine.ReplaceOrderItems(ctx, order, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	s.invalidateVariants(ctx, append(old, items...))

	event := &models.OrderItemsReplacedEvent{
		BaseEvent:   NewBaseEvent(models.EventTypeOrderItemsReplaced),
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       toEventItems(items),
	}
	if err := s.publisher.PublishOrderItemsReplaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderItemsReplaced event", zap.Error(err))
	}

	return &OrderResponse{Order: order, Items: items}, nil
}

// UpdateStatus sets the order's status
func (s *OrderService) UpdateStatus(ctx context.Context, principal models.Principal, orderID int64, status string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanWriteOrder(principal, order) {
		return nil, ErrUnauthorized
	}

	oldStatus := order.Status
	if err := s.engine.UpdateStatus(ctx, order, status); err != nil {
		return nil, err
	}

	event := &models.OrderStatusChangedEvent{
		BaseEvent: NewBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   order.ID,
		OldStatus: oldStatus,
		NewStatus: status,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return order, nil
}

// DeleteOrder removes the order and restores every reserved unit
func (s *OrderService) DeleteOrder(ctx context.Context, principal models.Principal, orderID int64) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !s.access.CanWriteOrder(principal, order) {
		return ErrUnauthorized
	}

	removed, err := s.engine.DeleteOrder(ctx, order)
	if err != nil {
		return err
	}

	for _, item := range removed {
		util.StockRestoredTotal.Add(float64(item.Quantity))
	}
	s.invalidateVariants(ctx, removed)

	event := &models.OrderDeletedEvent{
		BaseEvent: NewBaseEvent(models.EventTypeOrderDeleted),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     toEventItems(removed),
	}
	if err := s.publisher.PublishOrderDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
	}

	return nil
}

func (s *OrderService) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if errors.Is(err, port.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) invalidateVariants(ctx context.Context, items []models.OrderItem) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}
	if err := s.cache.InvalidateVariants(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Error(err))
	}
}

// NewBaseEvent builds the common envelope for a domain event
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func toEventItems(items []models.OrderItem) []models.OrderItemData {
	out := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItemData{
			VariantID:    item.VariantID,
			Quantity:     item.Quantity,
			PriceAtOrder: item.PriceAtOrder,
		})
	}
	return out
}

// failureReason maps an engine failure to its metric label
func failureReason(err error) string {
	var insufficient *InsufficientStockError
	var unknown *UnknownVariantError
	switch {
	case errors.Is(err, ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &unknown):
		return "unknown_variant"
	default:
		return "db_error"
	}
}
