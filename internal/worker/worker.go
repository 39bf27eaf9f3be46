package worker

import (
	"context"
	"log"

	"supplychain-service/internal/broker"
	"supplychain-service/internal/models"
	"supplychain-service/internal/port"
	"supplychain-service/internal/service"
	"supplychain-service/internal/util"

	"go.uber.org/zap"
)

// StockWatcher consumes order events and re-reads every variant the event
// touched. A variant found under its reorder threshold produces a LowStock
// event and a metric, so replenishment can be driven off the same topic.
type StockWatcher struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        port.CatalogStore
	publisher    port.EventPublisher
	logger       *zap.Logger
}

// NewStockWatcher creates a new stock watcher
func NewStockWatcher(consumer *broker.Consumer, store port.CatalogStore, publisher port.EventPublisher) *StockWatcher {
	w := &StockWatcher{
		consumer:  consumer,
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnStockChanged(w.checkVariants)
	w.eventHandler = eventHandler

	return w
}

// Start starts the watcher
func (w *StockWatcher) Start(ctx context.Context) error {
	log.Println("Starting stock watcher...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the watcher
func (w *StockWatcher) Stop() error {
	log.Println("Stopping stock watcher...")
	return w.consumer.Close()
}

func (w *StockWatcher) checkVariants(ctx context.Context, orderID int64, items []models.OrderItemData) error {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VariantID)
	}

	variants, err := w.store.VariantsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, v := range variants {
		if !v.BelowMinStock() {
			continue
		}

		util.LowStockAlertsTotal.Inc()
		w.logger.Warn("Variant under reorder threshold",
			zap.Int64("variant_id", v.ID),
			zap.Int64("order_id", orderID),
			zap.Int("stock", v.Stock),
			zap.Int("min_stock", v.MinStock))

		event := &models.LowStockEvent{
			BaseEvent: service.NewBaseEvent(models.EventTypeLowStock),
			VariantID: v.ID,
			ProductID: v.ProductID,
			Stock:     v.Stock,
			MinStock:  v.MinStock,
		}
		if product, err := w.store.ProductByID(ctx, v.ProductID); err == nil {
			event.Company = product.CompanyName
		}

		if err := w.publisher.PublishLowStock(ctx, event); err != nil {
			w.logger.Error("Failed to publish LowStock event",
				zap.Int64("variant_id", v.ID),
				zap.Error(err))
		}
	}

	return nil
}
