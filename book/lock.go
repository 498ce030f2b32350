package book

import "sync"

// keyedMutex serializes operations per stock key. Two goroutines mutating the
// same (product, warehouse) record take turns; different keys proceed in
// parallel. Locks are created on first use and kept for the process lifetime
// (the key space is bounded by the product x warehouse catalog).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[StockKey]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[StockKey]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key StockKey) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
