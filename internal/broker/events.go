package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"supplychain-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes domain events, keyed by order (or variant for
// stock alerts) so events for one aggregate stay ordered within a
// partition.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// PublishOrderCreated publishes an OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderItemsReplaced publishes an OrderItemsReplaced event
func (ep *EventPublisher) PublishOrderItemsReplaced(ctx context.Context, event *models.OrderItemsReplacedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderStatusChanged publishes an OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderDeleted publishes an OrderDeleted event
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishLowStock publishes a LowStock alert
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	key := fmt.Sprintf("variant-%d", event.VariantID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes order events to registered callbacks. Events that
// change stock (created, replaced, deleted) share one callback signature:
// the affected items.
type EventHandler struct {
	onStockChanged func(ctx context.Context, orderID int64, items []models.OrderItemData) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStockChanged registers a handler invoked for every event that moved
// stock
func (eh *EventHandler) OnStockChanged(handler func(ctx context.Context, orderID int64, items []models.OrderItemData) error) {
	eh.onStockChanged = handler
}

// HandleMessage routes messages to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	if eh.onStockChanged == nil {
		return nil
	}

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		var event models.OrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
		}
		return eh.onStockChanged(ctx, event.OrderID, event.Items)

	case models.EventTypeOrderItemsReplaced:
		var event models.OrderItemsReplacedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal OrderItemsReplaced event: %w", err)
		}
		return eh.onStockChanged(ctx, event.OrderID, event.Items)

	case models.EventTypeOrderDeleted:
		var event models.OrderDeletedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal OrderDeleted event: %w", err)
		}
		return eh.onStockChanged(ctx, event.OrderID, event.Items)

	default:
		log.Printf("Ignoring event type: %s", baseEvent.EventType)
	}

	return nil
}
