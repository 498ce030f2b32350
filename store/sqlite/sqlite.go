/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements book.Store and book.TxStore using SQLite. Suitable as the
  durable single-node backend; store/postgres applies the same patterns
  to PostgreSQL.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements on the entries table
  - Corrections via reversing entries only
  The stock table is keyed by (product_id, warehouse_id) and upserted.

ORDERING:
  Entries carry a monotonic seq column; Entries/EntriesByOperation return
  insertion order. WarehouseStock orders by product_id so stocktake
  snapshots are stable.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's single-writer
  model. The database is opened in WAL mode so readers don't block.

USAGE:
  st, err := sqlite.New("./data/books.db")   // ":memory:" for tests
  if err != nil { ... }
  defer st.Close()
  coordinator := book.NewPostingCoordinator(st)

SEE ALSO:
  - book/store.go: Interface definitions and schema shape
  - book/store/memory.go: In-memory implementation
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/bookkeeping-engine/book"
)

// Store implements book.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Journal entries (append-only)
	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		entry_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		description TEXT,
		reference TEXT,
		debit_account TEXT NOT NULL,
		credit_account TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		origin TEXT NOT NULL,
		operation TEXT NOT NULL,
		source_reference TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_entries_operation
		ON entries(operation);
	CREATE INDEX IF NOT EXISTS idx_entries_date
		ON entries(entry_date);
	CREATE INDEX IF NOT EXISTS idx_entries_source
		ON entries(source_reference) WHERE source_reference != '';

	-- Stock records, keyed per (product, warehouse)
	CREATE TABLE IF NOT EXISTS stock (
		product_id TEXT NOT NULL,
		warehouse_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		unit_cost TEXT NOT NULL,
		PRIMARY KEY (product_id, warehouse_id)
	);

	CREATE INDEX IF NOT EXISTS idx_stock_warehouse
		ON stock(warehouse_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ENTRY SIDE (book.Store interface)
// =============================================================================

// AppendEntry adds an entry to the journal.
func (s *Store) AppendEntry(ctx context.Context, e book.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func appendEntry(ctx context.Context, q querier, e book.Entry) error {
	query := `
		INSERT INTO entries
		(id, entry_date, created_at, description, reference, debit_account,
		 credit_account, amount, status, origin, operation, source_reference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		string(e.ID),
		e.Date.UTC().Format(time.RFC3339Nano),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		e.Description,
		e.Reference,
		e.DebitAccount,
		e.CreditAccount,
		e.Amount.String(),
		string(e.Status),
		string(e.Origin),
		string(e.Operation),
		e.SourceReference,
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// Entries returns all entries in insertion order.
func (s *Store) Entries(ctx context.Context) ([]book.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, selectEntries+` ORDER BY seq ASC`)
}

// EntriesByOperation returns entries with the given operation tag, in
// insertion order.
func (s *Store) EntriesByOperation(ctx context.Context, op book.OperationType) ([]book.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEntries(ctx, s.db, selectEntries+` WHERE operation = ? ORDER BY seq ASC`, string(op))
}

const selectEntries = `
	SELECT id, entry_date, created_at, description, reference, debit_account,
	       credit_account, amount, status, origin, operation, source_reference
	FROM entries`

func queryEntries(ctx context.Context, q querier, query string, args ...any) ([]book.Entry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []book.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (book.Entry, error) {
	var (
		e         book.Entry
		id        string
		entryDate string
		createdAt string
		amount    string
		status    string
		origin    string
		operation string
	)

	err := rows.Scan(
		&id, &entryDate, &createdAt, &e.Description, &e.Reference,
		&e.DebitAccount, &e.CreditAccount, &amount, &status, &origin,
		&operation, &e.SourceReference,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.ID = book.EntryID(id)
	e.Status = book.EntryStatus(status)
	e.Origin = book.EntryOrigin(origin)
	e.Operation = book.OperationType(operation)
	if e.Date, err = time.Parse(time.RFC3339Nano, entryDate); err != nil {
		return e, fmt.Errorf("failed to parse entry date: %w", err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return e, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return e, fmt.Errorf("failed to parse amount: %w", err)
	}
	return e, nil
}

// =============================================================================
// STOCK SIDE (book.Store interface)
// =============================================================================

func (s *Store) GetStock(ctx context.Context, key book.StockKey) (book.StockRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getStock(ctx, s.db, key)
}

func getStock(ctx context.Context, q querier, key book.StockKey) (book.StockRecord, bool, error) {
	var (
		rec      book.StockRecord
		unitCost string
	)
	err := q.QueryRowContext(ctx,
		`SELECT quantity, unit_cost FROM stock WHERE product_id = ? AND warehouse_id = ?`,
		string(key.Product), string(key.Warehouse),
	).Scan(&rec.Quantity, &unitCost)
	if err == sql.ErrNoRows {
		return book.StockRecord{}, false, nil
	}
	if err != nil {
		return book.StockRecord{}, false, fmt.Errorf("failed to query stock: %w", err)
	}

	rec.Product, rec.Warehouse = key.Product, key.Warehouse
	if rec.UnitCost, err = decimal.NewFromString(unitCost); err != nil {
		return book.StockRecord{}, false, fmt.Errorf("failed to parse unit cost: %w", err)
	}
	return rec, true, nil
}

func (s *Store) PutStock(ctx context.Context, rec book.StockRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return putStock(ctx, s.db, rec)
}

func putStock(ctx context.Context, q querier, rec book.StockRecord) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, unit_cost)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = excluded.quantity, unit_cost = excluded.unit_cost
	`
	_, err := q.ExecContext(ctx, query,
		string(rec.Product), string(rec.Warehouse), rec.Quantity, rec.UnitCost.String())
	if err != nil {
		return fmt.Errorf("failed to put stock: %w", err)
	}
	return nil
}

func (s *Store) WarehouseStock(ctx context.Context, warehouse book.WarehouseID) ([]book.StockRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return warehouseStock(ctx, s.db, warehouse)
}

func warehouseStock(ctx context.Context, q querier, warehouse book.WarehouseID) ([]book.StockRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT product_id, quantity, unit_cost FROM stock
		 WHERE warehouse_id = ? ORDER BY product_id ASC`,
		string(warehouse))
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouse stock: %w", err)
	}
	defer rows.Close()

	var records []book.StockRecord
	for rows.Next() {
		var (
			rec      book.StockRecord
			product  string
			unitCost string
		)
		if err := rows.Scan(&product, &rec.Quantity, &unitCost); err != nil {
			return nil, fmt.Errorf("failed to scan stock record: %w", err)
		}
		rec.Product = book.ProductID(product)
		rec.Warehouse = warehouse
		if rec.UnitCost, err = decimal.NewFromString(unitCost); err != nil {
			return nil, fmt.Errorf("failed to parse unit cost: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (book.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The store lock
// is held for the duration, so no reader observes a half-applied posting.
func (s *Store) WithTx(ctx context.Context, fn func(store book.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes all operations through one *sql.Tx. It never takes the
// parent lock; WithTx already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendEntry(ctx context.Context, e book.Entry) error {
	return appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) Entries(ctx context.Context) ([]book.Entry, error) {
	return queryEntries(ctx, ts.tx, selectEntries+` ORDER BY seq ASC`)
}

func (ts *txStore) EntriesByOperation(ctx context.Context, op book.OperationType) ([]book.Entry, error) {
	return queryEntries(ctx, ts.tx, selectEntries+` WHERE operation = ? ORDER BY seq ASC`, string(op))
}

func (ts *txStore) GetStock(ctx context.Context, key book.StockKey) (book.StockRecord, bool, error) {
	return getStock(ctx, ts.tx, key)
}

func (ts *txStore) PutStock(ctx context.Context, rec book.StockRecord) error {
	return putStock(ctx, ts.tx, rec)
}

func (ts *txStore) WarehouseStock(ctx context.Context, warehouse book.WarehouseID) ([]book.StockRecord, error) {
	return warehouseStock(ctx, ts.tx, warehouse)
}
