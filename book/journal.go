/*
journal.go - Append-only journal ledger

PURPOSE:
  The JournalLedger is the auditable record of every financial event.
  Every sale, customer payment, and inventory movement ends up here as a
  balanced entry.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No update, no delete. EVER.
  2. BALANCED: Amount > 0, DebitAccount != CreditAccount, both non-empty.
  3. IMMUTABLE: Once appended, entries stay unchanged; corrections are
     reversing entries.

VALIDATION:
  Append validates before storing anything. A rejected entry leaves the
  ledger exactly as it was.

SEE ALSO:
  - factory.go: Constructors producing entries that pass validation
  - store.go: Persistence contract
*/
package book

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// JOURNAL LEDGER - Append-only store of balanced entries
// =============================================================================

// JournalLedger is the append-only journal over a Store.
// There is deliberately no update or delete operation.
type JournalLedger struct {
	store Store
}

// NewJournalLedger creates a journal ledger over the given store.
func NewJournalLedger(store Store) *JournalLedger {
	return &JournalLedger{store: store}
}

// Append validates e, assigns ID/CreatedAt/defaults where absent, stores the
// entry, and returns the stored copy. On validation failure it returns
// ErrInvalidEntry (wrapped with field context) and nothing is stored.
func (l *JournalLedger) Append(ctx context.Context, e Entry) (Entry, error) {
	return l.appendWith(ctx, l.store, e)
}

// appendWith runs Append against an explicit store. The PostingCoordinator
// uses this to append inside a store transaction.
func (l *JournalLedger) appendWith(ctx context.Context, st Store, e Entry) (Entry, error) {
	if err := ValidateEntry(e); err != nil {
		return Entry{}, err
	}

	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = EntryID(uuid.NewString())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.Date.IsZero() {
		e.Date = now
	}
	if e.Origin == "" {
		e.Origin = OriginManual
	}
	if e.Status == "" {
		e.Status = StatusDraft
	}

	if err := st.AppendEntry(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns a snapshot of all entries in insertion order.
// Callers may re-sort by Date for back-dated views.
func (l *JournalLedger) List(ctx context.Context) ([]Entry, error) {
	return l.store.Entries(ctx)
}

// ListByOperation returns a snapshot of entries with the given operation tag,
// with the same ordering guarantee as List.
func (l *JournalLedger) ListByOperation(ctx context.Context, op OperationType) ([]Entry, error) {
	return l.store.EntriesByOperation(ctx, op)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateEntry checks the balance invariant:
// positive amount, two distinct non-empty accounts.
func ValidateEntry(e Entry) error {
	if strings.TrimSpace(e.DebitAccount) == "" {
		return &InvalidEntryError{Field: "debit account", Reason: "is required"}
	}
	if strings.TrimSpace(e.CreditAccount) == "" {
		return &InvalidEntryError{Field: "credit account", Reason: "is required"}
	}
	if e.DebitAccount == e.CreditAccount {
		return &InvalidEntryError{Field: "accounts", Reason: "debit and credit account must differ"}
	}
	if !e.Amount.IsPositive() {
		return &InvalidEntryError{Field: "amount", Reason: "must be positive"}
	}
	return nil
}
