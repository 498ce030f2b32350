package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bookkeeping-engine/book"
	"github.com/warp/bookkeeping-engine/store/sqlite"
)

// newTestStore opens a store on a per-test database file. A file rather than
// ":memory:" because database/sql pools connections and each in-memory
// connection would see its own empty database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testEntry(op book.OperationType, amount int64) book.Entry {
	now := time.Now().UTC()
	return book.Entry{
		ID:              book.EntryID(uuid.NewString()),
		Date:            now,
		CreatedAt:       now,
		Description:     "test entry",
		Reference:       "REF-1",
		DebitAccount:    book.AccountCash,
		CreditAccount:   book.AccountSalesRevenue,
		Amount:          decimal.NewFromInt(amount),
		Status:          book.StatusApproved,
		Origin:          book.OriginAuto,
		Operation:       op,
		SourceReference: "C1",
	}
}

// =============================================================================
// ENTRY SIDE
// =============================================================================

func TestSQLite_EntryRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	want := testEntry(book.OpSale, 1234)
	want.Amount = decimal.RequireFromString("1234.56")
	require.NoError(t, st.AppendEntry(ctx, want))

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, got.Date.Equal(want.Date))
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Reference, got.Reference)
	assert.Equal(t, want.DebitAccount, got.DebitAccount)
	assert.Equal(t, want.CreditAccount, got.CreditAccount)
	assert.True(t, got.Amount.Equal(want.Amount), "decimal amount survives the TEXT column")
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Origin, got.Origin)
	assert.Equal(t, want.Operation, got.Operation)
	assert.Equal(t, want.SourceReference, got.SourceReference)
}

func TestSQLite_EntriesKeepInsertionOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var ids []book.EntryID
	for i := 0; i < 5; i++ {
		e := testEntry(book.OpSale, int64(100+i))
		require.NoError(t, st.AppendEntry(ctx, e))
		ids = append(ids, e.ID)
	}

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
	}
}

func TestSQLite_DuplicateIDRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e := testEntry(book.OpSale, 100)
	require.NoError(t, st.AppendEntry(ctx, e))
	assert.Error(t, st.AppendEntry(ctx, e), "the id column is unique")
}

func TestSQLite_EntriesByOperation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.AppendEntry(ctx, testEntry(book.OpSale, 100)))
	require.NoError(t, st.AppendEntry(ctx, testEntry(book.OpCashReceipt, 100)))
	require.NoError(t, st.AppendEntry(ctx, testEntry(book.OpSale, 200)))

	sales, err := st.EntriesByOperation(ctx, book.OpSale)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	for _, e := range sales {
		assert.Equal(t, book.OpSale, e.Operation)
	}
}

// =============================================================================
// STOCK SIDE
// =============================================================================

func TestSQLite_StockUpsertAndReadBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	key := book.StockKey{Product: "P1", Warehouse: "W1"}

	_, ok, err := st.GetStock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "unknown key reads as absent")

	rec := book.StockRecord{Product: "P1", Warehouse: "W1",
		Quantity: 10, UnitCost: decimal.RequireFromString("99.95")}
	require.NoError(t, st.PutStock(ctx, rec))

	got, ok, err := st.GetStock(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Quantity, got.Quantity)
	assert.True(t, got.UnitCost.Equal(rec.UnitCost))

	rec.Quantity = 25
	require.NoError(t, st.PutStock(ctx, rec), "same key upserts, no duplicate row")

	got, _, err = st.GetStock(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.Quantity)
}

func TestSQLite_WarehouseStockSortedByProduct(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, p := range []book.ProductID{"P3", "P1", "P2"} {
		require.NoError(t, st.PutStock(ctx, book.StockRecord{
			Product: p, Warehouse: "W1", Quantity: 1, UnitCost: decimal.NewFromInt(10)}))
	}
	require.NoError(t, st.PutStock(ctx, book.StockRecord{
		Product: "P9", Warehouse: "W2", Quantity: 1, UnitCost: decimal.NewFromInt(10)}))

	records, err := st.WarehouseStock(ctx, "W1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, book.ProductID("P1"), records[0].Product)
	assert.Equal(t, book.ProductID("P2"), records[1].Product)
	assert.Equal(t, book.ProductID("P3"), records[2].Product)
	assert.Equal(t, book.WarehouseID("W1"), records[0].Warehouse)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_CommitsBothWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	e := testEntry(book.OpInventoryReceipt, 1000)
	err := st.WithTx(ctx, func(tx book.Store) error {
		if err := tx.PutStock(ctx, book.StockRecord{
			Product: "P1", Warehouse: "W1", Quantity: 10, UnitCost: decimal.NewFromInt(100)}); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, e)
	})
	require.NoError(t, err)

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, ok, err := st.GetStock(ctx, book.StockKey{Product: "P1", Warehouse: "W1"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("posting refused")

	err := st.WithTx(ctx, func(tx book.Store) error {
		if err := tx.PutStock(ctx, book.StockRecord{
			Product: "P1", Warehouse: "W1", Quantity: 10, UnitCost: decimal.NewFromInt(100)}); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, testEntry(book.OpInventoryReceipt, 1000)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom, "the callback's error surfaces unchanged")

	entries, err := st.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "the entry write was rolled back")

	_, ok, err := st.GetStock(ctx, book.StockKey{Product: "P1", Warehouse: "W1"})
	require.NoError(t, err)
	assert.False(t, ok, "the stock write was rolled back")
}

func TestSQLite_WithTx_ReadsSeeUncommittedWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx book.Store) error {
		if err := tx.AppendEntry(ctx, testEntry(book.OpSale, 100)); err != nil {
			return err
		}
		entries, err := tx.Entries(ctx)
		if err != nil {
			return err
		}
		assert.Len(t, entries, 1, "the transaction sees its own writes")
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// END TO END - the coordinator over SQLite
// =============================================================================

func TestSQLite_CoordinatorPostsAtomically(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c := book.NewPostingCoordinator(st)

	_, err := c.PostReceipt(ctx, "P1", "W1", 10, decimal.NewFromInt(100), book.ReceiptArgs{
		ReceiptNo:     "GRN-1",
		CreditAccount: book.AccountBankPOS,
		WarehouseName: "Main",
	})
	require.NoError(t, err)

	entry, err := c.PostIssue(ctx, "P1", "W1", 4, book.IssueArgs{
		IssueNo:      "ISS-1",
		DebitAccount: "Cost of Goods Sold",
	})
	require.NoError(t, err)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(400)))

	qty, err := c.Inventory().GetStock(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), qty)

	entries, err := c.Journal().List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
