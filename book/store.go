/*
store.go - Persistence interface for journal entries and stock records

PURPOSE:
  Defines the interface between the domain logic and storage. Different
  implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  Store:   Entry append + queries, keyed stock records
  TxStore: Transactional composite writes (atomic stock+entry pairs)

APPEND-ONLY CONTRACT:
  The entry side of the Store is append-only:
  - AppendEntry(): The ONLY entry write operation
  - NO update or delete methods exist
  Corrections are made via reversing entries.

SCHEMA SHAPE:
  A durable store must preserve, across restarts:
  - entries: id, date, created_at, description, reference, debit_account,
    credit_account, amount, status, origin, operation, source_reference,
    plus a monotonic insertion sequence (Entries returns insertion order)
  - stock: (product_id, warehouse_id) -> quantity, unit_cost

IMPLEMENTATIONS:
  - book/store/memory.go: In-memory (testing/dev)
  - store/sqlite:         SQLite file or :memory:
  - store/postgres:       PostgreSQL via pgx

SEE ALSO:
  - journal.go: JournalLedger over the entry side
  - inventory.go: InventoryLedger over the stock side
  - posting.go: PostingCoordinator, uses WithTx when available
*/
package book

import "context"

// =============================================================================
// STORE - Entry log (append-only) + keyed stock records
// =============================================================================

// Store handles persistence of journal entries and stock records.
// IMPORTANT: entries are APPEND-ONLY. No update, no delete. Ever.
type Store interface {
	// AppendEntry persists an entry. The entry has already been validated
	// and carries its final ID. This is the only entry write operation.
	AppendEntry(ctx context.Context, e Entry) error

	// Entries returns all entries in insertion order.
	Entries(ctx context.Context) ([]Entry, error)

	// EntriesByOperation returns entries with the given operation tag,
	// in insertion order.
	EntriesByOperation(ctx context.Context, op OperationType) ([]Entry, error)

	// GetStock returns the record for a (product, warehouse) key.
	// ok is false for an unknown key; no record is created implicitly.
	GetStock(ctx context.Context, key StockKey) (rec StockRecord, ok bool, err error)

	// PutStock writes a stock record, creating it if absent. Stock records
	// are never deleted; zero quantity is a valid steady state.
	PutStock(ctx context.Context, rec StockRecord) error

	// WarehouseStock returns all stock records of one warehouse, sorted by
	// product ID. The order is stable across calls so stocktake sessions
	// can diff successive snapshots.
	WarehouseStock(ctx context.Context, warehouse WarehouseID) ([]StockRecord, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic composite writes
// =============================================================================

// TxStore wraps Store with transaction support.
// The PostingCoordinator uses this to commit a stock mutation and its journal
// entry as one unit when the backend supports it.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, every write made through the Store it received
	// is rolled back. If fn returns nil, all writes are committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
