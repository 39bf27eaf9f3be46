package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"supplychain-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrincipal = models.Principal{
	ID:          "user-1",
	Role:        models.RoleRetailer,
	CompanyName: "Acme Distribution",
}

func newTestEngine(variants ...models.ProductVariant) (*ReservationEngine, *memStore) {
	store := newMemStore()
	for _, v := range variants {
		store.addVariant(v)
	}
	return NewReservationEngine(store), store
}

func TestCreateOrderReservesStock(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 2500, Stock: 10},
	)
	ctx := context.Background()

	order, items, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 4}}, "key-1")
	require.NoError(t, err)

	assert.Equal(t, 6, store.stock(1))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, testPrincipal.ID, order.UserID)
	assert.Equal(t, int64(4*2500), order.TotalAmount)

	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, int64(2500), items[0].PriceAtOrder)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 3},
	)
	ctx := context.Background()

	_, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 5}}, "key-1")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(1), insufficient.VariantID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 3, store.stock(1))

	// repeating the same failed request against unchanged stock yields
	// the same failure and no stock movement
	_, _, err = engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 5}}, "key-2")
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, store.stock(1))
}

func TestCreateOrderEmptyItems(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 3},
	)

	_, _, err := engine.CreateOrder(context.Background(), testPrincipal, nil, "key-1")
	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, 3, store.stock(1))
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 3},
	)

	_, _, err := engine.CreateOrder(context.Background(), testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 0}}, "key-1")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 3, store.stock(1))
}

func TestCreateOrderUnknownVariant(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 3},
	)

	_, _, err := engine.CreateOrder(context.Background(), testPrincipal,
		[]OrderLineInput{{VariantID: 99, Quantity: 1}}, "key-1")

	var unknown *UnknownVariantError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(99), unknown.VariantID)
	assert.Equal(t, 3, store.stock(1))
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
		models.ProductVariant{ID: 2, ProductID: 1, UnitPrice: 2000, Stock: 1},
	)

	_, _, err := engine.CreateOrder(context.Background(), testPrincipal,
		[]OrderLineInput{
			{VariantID: 1, Quantity: 5},
			{VariantID: 2, Quantity: 3},
		}, "key-1")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2), insufficient.VariantID)

	// the first line's decrement must not survive the rollback
	assert.Equal(t, 10, store.stock(1))
	assert.Equal(t, 1, store.stock(2))
}

func TestCreateOrderDuplicateVariantLines(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	// two lines against the same variant accumulate
	_, items, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{
			{VariantID: 1, Quantity: 3},
			{VariantID: 1, Quantity: 4},
		}, "key-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, store.stock(1))

	// and a combined request beyond the remaining stock fails whole
	_, _, err = engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{
			{VariantID: 1, Quantity: 2},
			{VariantID: 1, Quantity: 2},
		}, "key-2")
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, store.stock(1))
}

func TestPriceSnapshotIsStable(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1500, Stock: 10},
	)
	ctx := context.Background()

	order, items, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 2}}, "key-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1500), items[0].PriceAtOrder)

	// a later price change leaves the snapshot untouched
	store.setUnitPrice(1, 9900)
	stored, err := store.OrderItemsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(1500), stored[0].PriceAtOrder)
}

func TestReplaceOrderItems(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	order, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 4}}, "key-1")
	require.NoError(t, err)
	require.Equal(t, 6, store.stock(1))

	// old reservation restored first, then the new one applied
	items, err := engine.ReplaceOrderItems(ctx, order,
		[]OrderLineInput{{VariantID: 1, Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 8, store.stock(1))
	assert.Equal(t, int64(2*1000), order.TotalAmount)
}

func TestReplaceValidatesAgainstRestoredStock(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	order, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 4}}, "key-1")
	require.NoError(t, err)
	require.Equal(t, 6, store.stock(1))

	// 10 units fit once the order's own 4 are given back
	_, err = engine.ReplaceOrderItems(ctx, order,
		[]OrderLineInput{{VariantID: 1, Quantity: 10}})
	require.NoError(t, err)
	assert.Equal(t, 0, store.stock(1))
}

func TestReplaceRollsBackToPreCallState(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	order, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 4}}, "key-1")
	require.NoError(t, err)
	require.Equal(t, 6, store.stock(1))

	// post-restore stock is 10, so 100 still fails; the restore must not
	// survive on its own: the order and its reservation stay intact
	_, err = engine.ReplaceOrderItems(ctx, order,
		[]OrderLineInput{{VariantID: 1, Quantity: 100}})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 100, insufficient.Requested)
	assert.Equal(t, 10, insufficient.Available)

	assert.Equal(t, 6, store.stock(1))
	items, err := store.OrderItemsByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestDeleteOrderConservation(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
		models.ProductVariant{ID: 2, ProductID: 1, UnitPrice: 2000, Stock: 7},
	)
	ctx := context.Background()

	order, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{
			{VariantID: 1, Quantity: 3},
			{VariantID: 2, Quantity: 5},
		}, "key-1")
	require.NoError(t, err)

	_, err = engine.ReplaceOrderItems(ctx, order,
		[]OrderLineInput{{VariantID: 2, Quantity: 2}})
	require.NoError(t, err)

	removed, err := engine.DeleteOrder(ctx, order)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	// every decrement had a matching restore
	assert.Equal(t, 10, store.stock(1))
	assert.Equal(t, 7, store.stock(2))

	_, err = store.OrderByID(ctx, order.ID)
	assert.Error(t, err)
}

func TestUpdateStatus(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	order, _, err := engine.CreateOrder(ctx, testPrincipal,
		[]OrderLineInput{{VariantID: 1, Quantity: 4}}, "key-1")
	require.NoError(t, err)

	require.NoError(t, engine.UpdateStatus(ctx, order, models.OrderStatusCompleted))
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	// transitions are unconstrained, including going backwards
	require.NoError(t, engine.UpdateStatus(ctx, order, models.OrderStatusPending))
	assert.Equal(t, models.OrderStatusPending, order.Status)

	// and never move stock
	assert.Equal(t, 6, store.stock(1))

	err = engine.UpdateStatus(ctx, order, "SHIPPED_TO_MARS")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestConcurrentCreateOrders(t *testing.T) {
	engine, store := newTestEngine(
		models.ProductVariant{ID: 1, ProductID: 1, UnitPrice: 1000, Stock: 10},
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = engine.CreateOrder(ctx, testPrincipal,
				[]OrderLineInput{{VariantID: 1, Quantity: 6}}, fmt.Sprintf("key-%d", i))
		}(i)
	}
	wg.Wait()

	var failures int
	var insufficient *InsufficientStockError
	for _, err := range errs {
		if err != nil {
			require.ErrorAs(t, err, &insufficient)
			failures++
		}
	}

	// exactly one of the two competing reservations wins
	assert.Equal(t, 1, failures)
	assert.Equal(t, 4, store.stock(1))
}
