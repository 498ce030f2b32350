// Package store provides in-memory Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/bookkeeping-engine/book"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries []book.Entry
	stock   map[book.StockKey]book.StockRecord
}

func NewMemory() *Memory {
	return &Memory{
		stock: make(map[book.StockKey]book.StockRecord),
	}
}

// AppendEntry adds a single entry. Append-only.
func (m *Memory) AppendEntry(_ context.Context, e book.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of all entries in insertion order.
func (m *Memory) Entries(_ context.Context) ([]book.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]book.Entry, len(m.entries))
	copy(result, m.entries)
	return result, nil
}

// EntriesByOperation returns entries with the given operation tag, in
// insertion order.
func (m *Memory) EntriesByOperation(_ context.Context, op book.OperationType) ([]book.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []book.Entry
	for _, e := range m.entries {
		if e.Operation == op {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) GetStock(_ context.Context, key book.StockKey) (book.StockRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.stock[key]
	return rec, ok, nil
}

func (m *Memory) PutStock(_ context.Context, rec book.StockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[rec.Key()] = rec
	return nil
}

// WarehouseStock returns the warehouse's records sorted by product ID.
// The sort keeps the order stable across calls for stocktake diffing.
func (m *Memory) WarehouseStock(_ context.Context, warehouse book.WarehouseID) ([]book.StockRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []book.StockRecord
	for key, rec := range m.stock {
		if key.Warehouse == warehouse {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Product < result[j].Product
	})
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. The store lock is held for the
// whole transaction, so readers never observe a half-applied posting.
// For the memory store the transaction is simulated with a snapshot that is
// restored when fn fails.
func (tm *TxMemory) WithTx(_ context.Context, fn func(book.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	entriesCopy := make([]book.Entry, len(tm.entries))
	copy(entriesCopy, tm.entries)
	stockCopy := make(map[book.StockKey]book.StockRecord, len(tm.stock))
	for k, v := range tm.stock {
		stockCopy[k] = v
	}
	return memorySnapshot{entries: entriesCopy, stock: stockCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.entries = s.entries
	tm.stock = s.stock
}

type memorySnapshot struct {
	entries []book.Entry
	stock   map[book.StockKey]book.StockRecord
}

// txMemoryView operates on the parent's state without re-locking; the parent
// holds its lock for the duration of WithTx.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) AppendEntry(_ context.Context, e book.Entry) error {
	tv.parent.entries = append(tv.parent.entries, e)
	return nil
}

func (tv *txMemoryView) Entries(_ context.Context) ([]book.Entry, error) {
	result := make([]book.Entry, len(tv.parent.entries))
	copy(result, tv.parent.entries)
	return result, nil
}

func (tv *txMemoryView) EntriesByOperation(_ context.Context, op book.OperationType) ([]book.Entry, error) {
	var result []book.Entry
	for _, e := range tv.parent.entries {
		if e.Operation == op {
			result = append(result, e)
		}
	}
	return result, nil
}

func (tv *txMemoryView) GetStock(_ context.Context, key book.StockKey) (book.StockRecord, bool, error) {
	rec, ok := tv.parent.stock[key]
	return rec, ok, nil
}

func (tv *txMemoryView) PutStock(_ context.Context, rec book.StockRecord) error {
	tv.parent.stock[rec.Key()] = rec
	return nil
}

func (tv *txMemoryView) WarehouseStock(_ context.Context, warehouse book.WarehouseID) ([]book.StockRecord, error) {
	var result []book.StockRecord
	for key, rec := range tv.parent.stock {
		if key.Warehouse == warehouse {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Product < result[j].Product
	})
	return result, nil
}
