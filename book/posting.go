/*
posting.go - Atomic pairing of stock mutations and journal entries

PURPOSE:
  The PostingCoordinator is the composition point and the only sanctioned
  entry point for business events: it applies an inventory movement and its
  matching journal entry as one logical unit, so money and stock never
  diverge. Callers (form handlers) never drive the raw ledgers directly.

STATE MACHINE (per posting call):
  Pending -> StockApplied -> Committed
  Pending -> StockApplied -> RolledBack -> Failed
  There is no partially-committed terminal state.

ATOMICITY:
  When the store implements TxStore, the stock write and the entry append
  run inside one store transaction. Otherwise the coordinator applies the
  stock mutation first and restores the exact pre-call record if the entry
  append fails.

LOCKING:
  The coordinator holds the (product, warehouse) key lock across the full
  stock-mutate + append (or rollback) sequence, so a concurrent posting on
  the same key never observes the intermediate state.

ZERO-VALUE POSTINGS:
  A posting whose monetary value is zero (stocktake that found no count
  difference, or a movement of goods with zero cost basis) applies the stock
  change and posts no entry; the returned entry is nil with a nil error. An
  entry with amount zero would violate the balance invariant.

SEE ALSO:
  - inventory.go: Stock mutation semantics
  - journal.go: Entry validation + append
  - factory.go: Entry construction per event type
*/
package book

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PostingState tracks how far a posting call progressed.
// Committed and Failed are the only terminal states.
type PostingState string

const (
	StatePending      PostingState = "pending"
	StateStockApplied PostingState = "stock_applied"
	StateCommitted    PostingState = "committed"
	StateRolledBack   PostingState = "rolled_back"
	StateFailed       PostingState = "failed"
)

// =============================================================================
// POSTING COORDINATOR
// =============================================================================

// PostingCoordinator binds an inventory mutation and its journal entry into
// one atomic unit. Build one coordinator per store and route all business
// events through it; its Journal and Inventory accessors serve the read APIs.
type PostingCoordinator struct {
	store     Store
	journal   *JournalLedger
	inventory *InventoryLedger
}

// NewPostingCoordinator creates a coordinator (and its journal and inventory
// ledgers) over the given store. Pass a TxStore to commit postings in store
// transactions; any other Store gets compensating rollback instead.
func NewPostingCoordinator(store Store) *PostingCoordinator {
	return &PostingCoordinator{
		store:     store,
		journal:   NewJournalLedger(store),
		inventory: NewInventoryLedger(store),
	}
}

// Journal exposes the read side of the journal ledger.
func (c *PostingCoordinator) Journal() *JournalLedger {
	return c.journal
}

// Inventory exposes the read side of the inventory ledger.
func (c *PostingCoordinator) Inventory() *InventoryLedger {
	return c.inventory
}

// =============================================================================
// POSTING ARGUMENTS
// =============================================================================

// ReceiptArgs carries the journal side of an inventory receipt.
type ReceiptArgs struct {
	ReceiptNo     string
	CreditAccount string
	WarehouseName string
	Description   string
	IncludeTax    bool
	TaxAmount     decimal.Decimal
}

// IssueArgs carries the journal side of an inventory issue.
type IssueArgs struct {
	IssueNo       string
	DebitAccount  string
	WarehouseName string
	Description   string
	Reason        string
}

// StocktakeArgs carries the journal side of a stocktake adjustment.
type StocktakeArgs struct {
	AdjustmentNo  string
	WarehouseName string
	Reason        string
}

// =============================================================================
// INVENTORY POSTINGS - stock mutation + entry as one unit
// =============================================================================

// PostReceipt receives qty units at unitCost into the warehouse and appends
// the matching inventory_receipt entry, committing both or neither. The entry
// amount is qty x unitCost before tax, with ReceiptArgs controlling tax
// treatment and the credit account.
func (c *PostingCoordinator) PostReceipt(ctx context.Context, product ProductID, warehouse WarehouseID, qty int64, unitCost decimal.Decimal, args ReceiptArgs) (*Entry, error) {
	key := StockKey{Product: product, Warehouse: warehouse}
	amount := unitCost.Mul(decimal.NewFromInt(qty))

	mutate := func(st Store) error {
		_, err := c.inventory.increaseLocked(ctx, st, key, qty, unitCost)
		return err
	}
	build := func() (Entry, bool) {
		e := NewInventoryReceiptEntry(args.ReceiptNo, amount, args.CreditAccount,
			warehouse, args.WarehouseName, args.Description, args.IncludeTax, args.TaxAmount)
		return e, e.Amount.IsPositive()
	}
	return c.execute(ctx, OpInventoryReceipt, key, mutate, build)
}

// PostIssue issues qty units out of the warehouse and appends the matching
// inventory_issue entry. The goods are consumed at the current average cost,
// so the entry amount is qty x the unit cost on record. An insufficient-stock
// rejection never creates an entry.
func (c *PostingCoordinator) PostIssue(ctx context.Context, product ProductID, warehouse WarehouseID, qty int64, args IssueArgs) (*Entry, error) {
	key := StockKey{Product: product, Warehouse: warehouse}

	var amount decimal.Decimal
	mutate := func(st Store) error {
		next, err := c.inventory.reduceLocked(ctx, st, key, qty)
		if err != nil {
			return err
		}
		amount = next.UnitCost.Mul(decimal.NewFromInt(qty))
		return nil
	}
	build := func() (Entry, bool) {
		e := NewInventoryIssueEntry(args.IssueNo, amount, args.DebitAccount,
			warehouse, args.WarehouseName, args.Description, args.Reason)
		return e, e.Amount.IsPositive()
	}
	return c.execute(ctx, OpInventoryIssue, key, mutate, build)
}

// PostAdjustment corrects the recorded quantity to a physical count and
// appends the matching inventory_adjustment entry for the valuation delta
// (|count difference| x unit cost on record). A count that matches the
// records applies nothing and posts nothing.
func (c *PostingCoordinator) PostAdjustment(ctx context.Context, product ProductID, warehouse WarehouseID, actualQty int64, args StocktakeArgs) (*Entry, error) {
	key := StockKey{Product: product, Warehouse: warehouse}

	var amount decimal.Decimal
	var direction AdjustmentDirection
	mutate := func(st Store) error {
		prev, _, err := st.GetStock(ctx, key)
		if err != nil {
			return err
		}
		if _, err := c.inventory.adjustLocked(ctx, st, key, actualQty); err != nil {
			return err
		}
		diff := actualQty - prev.Quantity
		direction = AdjustIncrease
		if diff < 0 {
			direction = AdjustDecrease
			diff = -diff
		}
		amount = prev.UnitCost.Mul(decimal.NewFromInt(diff))
		return nil
	}
	build := func() (Entry, bool) {
		e := NewInventoryAdjustmentEntry(args.AdjustmentNo, amount, direction,
			args.Reason, warehouse, args.WarehouseName)
		return e, e.Amount.IsPositive()
	}
	return c.execute(ctx, OpInventoryAdjustment, key, mutate, build)
}

// =============================================================================
// JOURNAL-ONLY POSTINGS - business events with no stock side
// =============================================================================

// PostCashReceipt records a customer payment.
func (c *PostingCoordinator) PostCashReceipt(ctx context.Context, receiptNo string, amount decimal.Decimal, method PaymentMethod, customerID, customerName, note string) (*Entry, error) {
	return c.append(ctx, NewCashReceiptEntry(receiptNo, amount, method, customerID, customerName, note))
}

// PostSale records a credit sale.
func (c *PostingCoordinator) PostSale(ctx context.Context, invoiceNo string, amount decimal.Decimal, customerID, customerName, note string) (*Entry, error) {
	return c.append(ctx, NewSaleEntry(invoiceNo, amount, customerID, customerName, note))
}

// PostSalesReturn records a sales return.
func (c *PostingCoordinator) PostSalesReturn(ctx context.Context, returnNo string, amount decimal.Decimal, customerID, customerName, reason string) (*Entry, error) {
	return c.append(ctx, NewSalesReturnEntry(returnNo, amount, customerID, customerName, reason))
}

// PostOpening records an opening balance.
func (c *PostingCoordinator) PostOpening(ctx context.Context, refNo string, amount decimal.Decimal, debitAccount, description string) (*Entry, error) {
	return c.append(ctx, NewOpeningEntry(refNo, amount, debitAccount, description))
}

func (c *PostingCoordinator) append(ctx context.Context, e Entry) (*Entry, error) {
	stored, err := c.journal.Append(ctx, e)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// =============================================================================
// EXECUTION - key lock, transaction or compensation
// =============================================================================

// execute runs one posting under the key's lock: mutate the stock, then
// build and append the entry. Inside a store transaction when the backend
// supports it; otherwise with an exact-restore compensation on append
// failure.
//
// Errors from the mutation itself (invalid quantity, insufficient stock)
// surface unchanged: nothing was applied. Errors after the stock was applied
// surface as *PostingError once the pre-call state is restored.
func (c *PostingCoordinator) execute(ctx context.Context, op OperationType, key StockKey, mutate func(Store) error, build func() (Entry, bool)) (*Entry, error) {
	unlock := c.inventory.locks.lock(key)
	defer unlock()

	state := StatePending
	var stored *Entry

	run := func(st Store) error {
		if err := mutate(st); err != nil {
			return err
		}
		state = StateStockApplied
		e, ok := build()
		if !ok {
			return nil
		}
		got, err := c.journal.appendWith(ctx, st, e)
		if err != nil {
			return err
		}
		stored = &got
		return nil
	}

	if tx, ok := c.store.(TxStore); ok {
		if err := tx.WithTx(ctx, run); err != nil {
			if state == StateStockApplied {
				// The transaction rollback already restored the pre-call state.
				return nil, &PostingError{Op: op, State: StateFailed, Err: err}
			}
			return nil, err
		}
		return stored, nil
	}

	// No transaction support: snapshot, apply, compensate on failure.
	prev, _, err := c.store.GetStock(ctx, key)
	if err != nil {
		return nil, err
	}
	prev.Product, prev.Warehouse = key.Product, key.Warehouse

	if err := run(c.store); err != nil {
		if state != StateStockApplied {
			return nil, err
		}
		if rbErr := c.store.PutStock(ctx, prev); rbErr != nil {
			return nil, &PostingError{Op: op, State: StateStockApplied,
				Err: fmt.Errorf("append failed (%v) and rollback failed: %w", err, rbErr)}
		}
		return nil, &PostingError{Op: op, State: StateFailed, Err: err}
	}
	return stored, nil
}
