/*
inventory.go - Per (product, warehouse) quantity and weighted-average cost

PURPOSE:
  The InventoryLedger tracks how much of each product sits in each warehouse
  and what one unit of it is worth. Receipts move the unit cost (moving
  average); issues consume at the current average; stocktake adjustments
  correct the quantity to a physical count.

CRITICAL INVARIANTS:
  1. Quantity is never negative. A reduce that would go below zero is
     rejected in full; there is no partial decrement.
  2. Unit cost moves only on receipt:
       newCost = (oldQty*oldCost + qty*unitCost) / (oldQty + qty)
  3. Mutations on the same (product, warehouse) key are serialized; the
     full read-compute-write runs under that key's lock.

RECORD LIFECYCLE:
  Created implicitly on first receipt (or stocktake) for a key; never
  deleted. Zero quantity is a valid steady state, not a removal. Queries for
  an unknown key return zero values, not an error.

SEE ALSO:
  - posting.go: PostingCoordinator pairs these mutations with journal entries
  - store.go: Persistence contract for stock records
*/
package book

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INVENTORY LEDGER
// =============================================================================

// InventoryLedger tracks quantity and weighted-average unit cost per
// (product, warehouse) key over a Store.
type InventoryLedger struct {
	store Store
	locks *keyedMutex
}

// NewInventoryLedger creates an inventory ledger over the given store.
func NewInventoryLedger(store Store) *InventoryLedger {
	return &InventoryLedger{
		store: store,
		locks: newKeyedMutex(),
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// GetStock returns the recorded quantity for a key, 0 for an unknown key.
// No record is created implicitly.
func (l *InventoryLedger) GetStock(ctx context.Context, product ProductID, warehouse WarehouseID) (int64, error) {
	rec, _, err := l.store.GetStock(ctx, StockKey{Product: product, Warehouse: warehouse})
	if err != nil {
		return 0, err
	}
	return rec.Quantity, nil
}

// GetCostPrice returns the weighted-average unit cost for a key, zero for an
// unknown key.
func (l *InventoryLedger) GetCostPrice(ctx context.Context, product ProductID, warehouse WarehouseID) (decimal.Decimal, error) {
	rec, ok, err := l.store.GetStock(ctx, StockKey{Product: product, Warehouse: warehouse})
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return rec.UnitCost, nil
}

// WarehouseProducts returns a snapshot of all stock records in a warehouse,
// sorted by product ID. Successive calls with no intervening mutation return
// the same sequence, so a stocktake session can diff against it.
func (l *InventoryLedger) WarehouseProducts(ctx context.Context, warehouse WarehouseID) ([]StockRecord, error) {
	return l.store.WarehouseStock(ctx, warehouse)
}

// =============================================================================
// MUTATIONS - serialized per key
// =============================================================================

// IncreaseStock receives qty units at unitCost into the warehouse and
// recomputes the moving-average cost. Requires qty > 0 and unitCost >= 0.
// Returns the record after the receipt.
func (l *InventoryLedger) IncreaseStock(ctx context.Context, product ProductID, warehouse WarehouseID, qty int64, unitCost decimal.Decimal) (StockRecord, error) {
	key := StockKey{Product: product, Warehouse: warehouse}
	unlock := l.locks.lock(key)
	defer unlock()
	return l.increaseLocked(ctx, l.store, key, qty, unitCost)
}

// ReduceStock issues qty units out of the warehouse. Requires qty > 0.
// Fails with InsufficientStockError when qty exceeds the recorded quantity;
// state is unchanged on failure. Unit cost is unchanged either way.
func (l *InventoryLedger) ReduceStock(ctx context.Context, product ProductID, warehouse WarehouseID, qty int64) (StockRecord, error) {
	key := StockKey{Product: product, Warehouse: warehouse}
	unlock := l.locks.lock(key)
	defer unlock()
	return l.reduceLocked(ctx, l.store, key, qty)
}

// AdjustStock sets the recorded quantity to actualQty after a physical count.
// Requires actualQty >= 0. Unit cost is unchanged. The caller computes the
// count difference and valuation delta for the matching journal entry (the
// PostingCoordinator does both in one locked posting).
func (l *InventoryLedger) AdjustStock(ctx context.Context, product ProductID, warehouse WarehouseID, actualQty int64) (StockRecord, error) {
	key := StockKey{Product: product, Warehouse: warehouse}
	unlock := l.locks.lock(key)
	defer unlock()
	return l.adjustLocked(ctx, l.store, key, actualQty)
}

// =============================================================================
// LOCKED IMPLEMENTATIONS
// =============================================================================
// The *Locked methods assume the key's lock is held and run against an
// explicit store, so the PostingCoordinator can execute them inside a store
// transaction while holding the lock across the whole posting.

func (l *InventoryLedger) increaseLocked(ctx context.Context, st Store, key StockKey, qty int64, unitCost decimal.Decimal) (StockRecord, error) {
	if qty <= 0 {
		return StockRecord{}, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return StockRecord{}, ErrInvalidQuantity
	}

	rec, ok, err := st.GetStock(ctx, key)
	if err != nil {
		return StockRecord{}, err
	}
	if !ok {
		rec = StockRecord{Product: key.Product, Warehouse: key.Warehouse, UnitCost: decimal.Zero}
	}

	rec.UnitCost = weightedAverageCost(rec.Quantity, rec.UnitCost, qty, unitCost)
	rec.Quantity += qty

	if err := st.PutStock(ctx, rec); err != nil {
		return StockRecord{}, err
	}
	return rec, nil
}

func (l *InventoryLedger) reduceLocked(ctx context.Context, st Store, key StockKey, qty int64) (StockRecord, error) {
	if qty <= 0 {
		return StockRecord{}, ErrInvalidQuantity
	}

	rec, _, err := st.GetStock(ctx, key)
	if err != nil {
		return StockRecord{}, err
	}
	if qty > rec.Quantity {
		return StockRecord{}, &InsufficientStockError{
			Product:   key.Product,
			Warehouse: key.Warehouse,
			Requested: qty,
			Available: rec.Quantity,
		}
	}

	rec.Product, rec.Warehouse = key.Product, key.Warehouse
	rec.Quantity -= qty

	if err := st.PutStock(ctx, rec); err != nil {
		return StockRecord{}, err
	}
	return rec, nil
}

func (l *InventoryLedger) adjustLocked(ctx context.Context, st Store, key StockKey, actualQty int64) (StockRecord, error) {
	if actualQty < 0 {
		return StockRecord{}, ErrInvalidQuantity
	}

	rec, ok, err := st.GetStock(ctx, key)
	if err != nil {
		return StockRecord{}, err
	}
	if !ok {
		rec = StockRecord{Product: key.Product, Warehouse: key.Warehouse, UnitCost: decimal.Zero}
	}

	rec.Quantity = actualQty

	if err := st.PutStock(ctx, rec); err != nil {
		return StockRecord{}, err
	}
	return rec, nil
}

// weightedAverageCost recomputes the moving-average unit cost after a receipt
// of qty units at unitCost. With nothing on hand the new cost is simply the
// receipt cost.
func weightedAverageCost(oldQty int64, oldCost decimal.Decimal, qty int64, unitCost decimal.Decimal) decimal.Decimal {
	newQty := oldQty + qty
	if newQty == 0 {
		return decimal.Zero
	}
	oldValue := oldCost.Mul(decimal.NewFromInt(oldQty))
	newValue := unitCost.Mul(decimal.NewFromInt(qty))
	return oldValue.Add(newValue).Div(decimal.NewFromInt(newQty))
}
