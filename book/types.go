/*
Package book provides the bookkeeping and inventory-valuation core.

PURPOSE:
  This package contains the double-entry journal ledger and the per-product,
  per-warehouse stock ledger that every business screen (sales, customer
  payments, inventory receipts/issues/adjustments) writes to. It is consumed
  by UI and API layers; it never renders anything itself.

KEY CONCEPTS IN THIS FILE (types.go):
  - Entry: An immutable journal entry recording one balanced financial event
  - StockRecord: Quantity and weighted-average unit cost for one
    (product, warehouse) pair
  - ProductID / WarehouseID / EntryID: Type-safe identifiers

INVARIANTS:
  1. Every entry balances: one debit account, one credit account, one
     positive amount on both sides.
  2. Entries are append-only. Corrections are reversing entries, never edits.
  3. Stock quantity is never negative.

SEE ALSO:
  - journal.go: JournalLedger, the append-only entry store
  - factory.go: Balanced-entry constructors per business event
  - inventory.go: InventoryLedger, quantity + moving-average cost
  - posting.go: PostingCoordinator, atomic stock+entry pairing
*/
package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type ProductID string
type WarehouseID string

// StockKey identifies one stock record. Stock is tracked per product AND per
// warehouse: the same product in two warehouses is two independent records.
type StockKey struct {
	Product   ProductID
	Warehouse WarehouseID
}

// =============================================================================
// JOURNAL ENTRY - Single balanced debit/credit record
// =============================================================================

// EntryStatus is the review state of a journal entry.
type EntryStatus string

const (
	StatusDraft       EntryStatus = "draft"
	StatusApproved    EntryStatus = "approved"
	StatusUnderReview EntryStatus = "under_review"
)

// EntryOrigin distinguishes system-generated entries from user-authored ones.
// Auto entries are produced only by the EntryFactory constructors; manual
// entries are user-authored and must still satisfy the balance invariant.
type EntryOrigin string

const (
	OriginAuto   EntryOrigin = "auto"
	OriginManual EntryOrigin = "manual"
)

// OperationType tags the business event that generated an entry. It is used
// for filtered queries and selects the account-mapping rule in factory.go.
type OperationType string

const (
	OpSale                OperationType = "sale"
	OpPurchase            OperationType = "purchase"
	OpCashReceipt         OperationType = "cash_receipt"
	OpInventoryReceipt    OperationType = "inventory_receipt"
	OpInventoryIssue      OperationType = "inventory_issue"
	OpInventoryAdjustment OperationType = "inventory_adjustment"
	OpOpening             OperationType = "opening"
	OpSalesReturn         OperationType = "sales_return"
)

// Entry is a single dated, balanced debit/credit record of a financial event.
//
// The model is a single-debit/single-credit simplification: Amount is both
// the debit and the credit side, so an Entry balances by construction as long
// as Amount is positive and the two accounts differ.
//
// Entries are created exclusively through JournalLedger.Append and are
// immutable thereafter.
type Entry struct {
	ID EntryID

	// Date is the accounting date of the event; CreatedAt is the wall-clock
	// creation time. They differ for back-dated manual entries.
	Date      time.Time
	CreatedAt time.Time

	Description string
	// Reference is the external business document number (receipt number,
	// issue number, stocktake number).
	Reference string

	DebitAccount  string
	CreditAccount string
	// Amount is positive and identical on the debit and credit side.
	Amount decimal.Decimal

	Status EntryStatus
	Origin EntryOrigin

	// Operation tags the originating business event.
	Operation OperationType

	// SourceReference back-links to the originating business record (customer
	// id, warehouse id) so ledger entries are traceable to business objects.
	// Optional.
	SourceReference string
}

// =============================================================================
// STOCK RECORD - Quantity + weighted-average cost per (product, warehouse)
// =============================================================================

// StockRecord holds the recorded quantity and the weighted-average unit cost
// for one (product, warehouse) pair.
//
// A record is created implicitly on first receipt and never deleted; zero
// quantity is a valid steady state. Quantity is never negative.
type StockRecord struct {
	Product   ProductID
	Warehouse WarehouseID

	Quantity int64
	// UnitCost is the moving-average cost per unit. It changes only on
	// receipt; issues consume at the current average without altering it.
	UnitCost decimal.Decimal
}

// Key returns the record's stock key.
func (r StockRecord) Key() StockKey {
	return StockKey{Product: r.Product, Warehouse: r.Warehouse}
}

// Value returns the total valuation of the record (quantity x unit cost).
func (r StockRecord) Value() decimal.Decimal {
	return r.UnitCost.Mul(decimal.NewFromInt(r.Quantity))
}
