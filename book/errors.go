/*
errors.go - Centralized error types for the bookkeeping core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; nothing in this package
  panics across the package boundary.

ERROR CATEGORIES:
  1. Entry validation errors - Malformed or unbalanced journal entries
  2. Stock errors - Quantity invariant violations
  3. Posting errors - Composite stock+entry operations that could not commit

USAGE:
  if errors.Is(err, book.ErrInsufficientStock) {
      // surface as a user-facing validation message
  }

  var pe *book.PostingError
  if errors.As(err, &pe) {
      // pe.Op, pe.State carry the failed posting's context
  }
*/
package book

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidEntry is returned when a journal entry fails validation
	// (zero/negative amount, equal debit/credit accounts, missing accounts).
	// Nothing is stored when validation fails.
	ErrInvalidEntry = errors.New("invalid journal entry")

	// ErrInvalidQuantity is returned when a stock operation receives a
	// non-positive quantity, a negative unit cost, or a negative stocktake
	// count.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInsufficientStock is returned when an issue requests more than the
	// currently recorded quantity. The operation is rejected in full; there
	// is no partial decrement.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrPostingFailed is returned when the paired stock+entry operation
	// could not be committed atomically. The coordinator guarantees rollback
	// to the pre-call state before surfacing it.
	ErrPostingFailed = errors.New("posting failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidEntryError reports which field of an entry failed validation.
type InvalidEntryError struct {
	Field  string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid journal entry: %s %s", e.Field, e.Reason)
}

func (e *InvalidEntryError) Unwrap() error {
	return ErrInvalidEntry
}

// InsufficientStockError provides details about a stock shortage.
type InsufficientStockError struct {
	Product   ProductID
	Warehouse WarehouseID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s in %s: requested %d, available %d",
		e.Product, e.Warehouse, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PostingError reports a composite posting that could not commit. State is
// the terminal state the posting reached (always StateFailed after rollback;
// the pre-call stock state has been restored).
type PostingError struct {
	Op    OperationType
	State PostingState
	Err   error
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("posting %s failed (state %s): %v", e.Op, e.State, e.Err)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

// Is reports ErrPostingFailed in addition to the wrapped cause, so callers
// can match either the generic sentinel or the underlying error.
func (e *PostingError) Is(target error) bool {
	return target == ErrPostingFailed
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input and
// should be surfaced as a validation message rather than a failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientStock)
}
