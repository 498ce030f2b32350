package book_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bookkeeping-engine/book"
	"github.com/warp/bookkeeping-engine/book/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	p1 = book.ProductID("P1")
	p2 = book.ProductID("P2")
	w1 = book.WarehouseID("W1")
	w2 = book.WarehouseID("W2")
)

func newTestInventory(t *testing.T) *book.InventoryLedger {
	t.Helper()
	return book.NewInventoryLedger(store.NewMemory())
}

func receive(t *testing.T, inv *book.InventoryLedger, p book.ProductID, w book.WarehouseID, qty int64, cost int64) {
	t.Helper()
	_, err := inv.IncreaseStock(context.Background(), p, w, qty, decimal.NewFromInt(cost))
	require.NoError(t, err)
}

// =============================================================================
// WEIGHTED-AVERAGE COSTING
// =============================================================================

func TestInventory_ReceiptsMoveTheAverageCost(t *testing.T) {
	// GIVEN: 10 units at 100, then 10 units at 200
	// THEN: qty=20, cost=150; a later issue of 5 leaves cost at 150

	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p1, w1, 10, 100)
	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), qty)
	cost, err := inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(100)))

	receive(t, inv, p1, w1, 10, 200)
	qty, err = inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), qty)
	cost, err = inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(150)))

	_, err = inv.ReduceStock(ctx, p1, w1, 5)
	require.NoError(t, err)
	qty, err = inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(15), qty)
	cost, err = inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(150)), "issues never move the cost basis")
}

func TestInventory_CostIsWeightedAverageOfAllReceipts(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	receipts := []struct {
		qty  int64
		cost int64
	}{
		{5, 80}, {20, 110}, {1, 400}, {14, 95},
	}

	var totalQty int64
	totalValue := decimal.Zero
	for _, r := range receipts {
		receive(t, inv, p1, w1, r.qty, r.cost)
		totalQty += r.qty
		totalValue = totalValue.Add(decimal.NewFromInt(r.cost).Mul(decimal.NewFromInt(r.qty)))
	}

	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, totalQty, qty, "quantity is the sum of all received quantities")

	cost, err := inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	want := totalValue.Div(decimal.NewFromInt(totalQty))
	assert.True(t, cost.Equal(want), "cost is the quantity-weighted average: want %s got %s", want, cost)
}

func TestInventory_ZeroCostReceiptsAreAllowed(t *testing.T) {
	inv := newTestInventory(t)

	_, err := inv.IncreaseStock(context.Background(), p1, w1, 10, decimal.Zero)
	assert.NoError(t, err)

	_, err = inv.IncreaseStock(context.Background(), p1, w1, 10, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, book.ErrInvalidQuantity, "negative cost is rejected")
}

// =============================================================================
// QUANTITY INVARIANT
// =============================================================================

func TestInventory_Reduce_RejectsOverdraw(t *testing.T) {
	// Scenario: reduce 100 on qty=15 fails; qty stays 15.

	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p1, w1, 10, 100)
	receive(t, inv, p1, w1, 10, 200)
	_, err := inv.ReduceStock(ctx, p1, w1, 5)
	require.NoError(t, err)

	_, err = inv.ReduceStock(ctx, p1, w1, 100)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)

	var detail *book.InsufficientStockError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, int64(100), detail.Requested)
	assert.Equal(t, int64(15), detail.Available)

	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(15), qty, "failed reduce leaves state unchanged")
	cost, err := inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(150)))
}

func TestInventory_Reduce_UnknownKeyIsInsufficient(t *testing.T) {
	inv := newTestInventory(t)

	_, err := inv.ReduceStock(context.Background(), p1, w1, 1)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
}

func TestInventory_Reduce_ToZeroKeepsTheRecord(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p1, w1, 10, 100)
	_, err := inv.ReduceStock(ctx, p1, w1, 10)
	require.NoError(t, err)

	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
	cost, err := inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(100)), "zero quantity keeps the cost basis")
}

func TestInventory_UnknownKeyReadsAsZero(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	qty, err := inv.GetStock(ctx, "nope", "nowhere")
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)

	cost, err := inv.GetCostPrice(ctx, "nope", "nowhere")
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

// =============================================================================
// STOCKTAKE ADJUSTMENT
// =============================================================================

func TestInventory_Adjust_SetsQuantityKeepsCost(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p1, w1, 10, 100)
	receive(t, inv, p1, w1, 10, 200)

	rec, err := inv.AdjustStock(ctx, p1, w1, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.Quantity)
	assert.True(t, rec.UnitCost.Equal(decimal.NewFromInt(150)))

	_, err = inv.AdjustStock(ctx, p1, w1, -1)
	assert.ErrorIs(t, err, book.ErrInvalidQuantity)
}

func TestInventory_Adjust_CreatesRecordForUnknownKey(t *testing.T) {
	inv := newTestInventory(t)

	rec, err := inv.AdjustStock(context.Background(), p2, w2, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.Quantity)
	assert.True(t, rec.UnitCost.IsZero(), "stocktake of an untracked product has no cost basis")
}

// =============================================================================
// WAREHOUSE SNAPSHOT
// =============================================================================

func TestInventory_WarehouseProducts_StableOrder(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p2, w1, 3, 50)
	receive(t, inv, p1, w1, 5, 100)
	receive(t, inv, p1, w2, 9, 100)

	a, err := inv.WarehouseProducts(ctx, w1)
	require.NoError(t, err)
	require.Len(t, a, 2, "other warehouses are not included")
	assert.Equal(t, p1, a[0].Product)
	assert.Equal(t, p2, a[1].Product)

	b, err := inv.WarehouseProducts(ctx, w1)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same call, same result")
}

// =============================================================================
// CONCURRENCY - no lost updates on a shared key
// =============================================================================

func TestInventory_ConcurrentReceiptsLoseNoUpdates(t *testing.T) {
	inv := newTestInventory(t)
	ctx := context.Background()

	const workers = 20
	const perWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := inv.IncreaseStock(ctx, p1, w1, 1, decimal.NewFromInt(100))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), qty)

	cost, err := inv.GetCostPrice(ctx, p1, w1)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(100)))
}

func TestInventory_ConcurrentReducesNeverOverdraw(t *testing.T) {
	// GIVEN: 100 units on hand and 150 competing single-unit issues
	// THEN: exactly 100 succeed and the quantity ends at zero

	inv := newTestInventory(t)
	ctx := context.Background()

	receive(t, inv, p1, w1, 100, 10)

	const attempts = 150
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.ReduceStock(ctx, p1, w1, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, book.ErrInsufficientStock)
			rejected++
		}
	}

	assert.Equal(t, 100, succeeded)
	assert.Equal(t, 50, rejected)

	qty, err := inv.GetStock(ctx, p1, w1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qty)
}
