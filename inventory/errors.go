/*
errors.go - Centralized error types for the inventory domain

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify errors with errors.Is and the helpers below; the
  HTTP layer maps the classes to status codes.

ERROR CATEGORIES:
  1. Validation errors - rejected before any mutation
  2. Conflict errors   - insufficient stock, already-undone runs
  3. Storage errors    - wrapped database failures, fully rolled back

SEE ALSO:
  - production/engine.go: Main producer of these errors
  - api/handlers.go: Maps them to HTTP responses
*/
package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMaterialNotFound is returned when a material id or name is unknown.
	ErrMaterialNotFound = errors.New("material not found")

	// ErrRecordNotFound is returned when a production record id is unknown.
	ErrRecordNotFound = errors.New("production record not found")

	// ErrAlreadyUndone is returned when undoing a run that is already
	// soft-deleted. The second undo is a no-op; state is unchanged.
	ErrAlreadyUndone = errors.New("production record already undone")

	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientMaterial is returned when stock cannot cover the
	// recipe requirement. Wrapped by InsufficientMaterialError.
	ErrInsufficientMaterial = errors.New("insufficient material")

	// ErrDuplicateActiveRecipe is returned when activating a second
	// recipe item for a material that already has an active one.
	ErrDuplicateActiveRecipe = errors.New("material already has an active recipe item")

	// ErrDuplicateMaterial is returned when registering a material whose
	// name is already taken.
	ErrDuplicateMaterial = errors.New("material name already exists")

	// ErrEmployeeNotFound is returned when an employee id is unknown.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrLedgerMismatch is returned when replaying the ledger does not
	// reproduce the stored quantity projection.
	ErrLedgerMismatch = errors.New("ledger replay does not match quantity projection")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientMaterialError lists every material that falls short.
// Returned by availability checks before any state changes.
type InsufficientMaterialError struct {
	Shortages []Shortage
}

func (e *InsufficientMaterialError) Error() string {
	if len(e.Shortages) == 1 {
		s := e.Shortages[0]
		return fmt.Sprintf("insufficient material: %s requires %s, available %s",
			s.MaterialName, s.Required, s.Available)
	}
	return fmt.Sprintf("insufficient material: %d materials short", len(e.Shortages))
}

func (e *InsufficientMaterialError) Unwrap() error {
	return ErrInsufficientMaterial
}

// LedgerMismatchError reports a projection drift for one material.
type LedgerMismatchError struct {
	MaterialID string
	Projected  decimal.Decimal // replayed from the ledger
	Stored     decimal.Decimal // quantity column
}

func (e *LedgerMismatchError) Error() string {
	return fmt.Sprintf("ledger mismatch for material %s: replay %s, stored %s",
		e.MaterialID, e.Projected, e.Stored)
}

func (e *LedgerMismatchError) Unwrap() error {
	return ErrLedgerMismatch
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMaterialNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// IsClientError returns true if the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidQuantity)
}

// IsConflict returns true for state conflicts the caller can recover
// from (restock and retry, or skip the duplicate undo).
func IsConflict(err error) bool {
	return errors.Is(err, ErrInsufficientMaterial) ||
		errors.Is(err, ErrAlreadyUndone) ||
		errors.Is(err, ErrDuplicateActiveRecipe) ||
		errors.Is(err, ErrDuplicateMaterial)
}
