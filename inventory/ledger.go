/*
ledger.go - Ledger replay, cost and consistency checks

PURPOSE:
  The stock ledger is the immutable source of truth for every quantity
  change. A material's Quantity column is only a cached projection.
  This file holds the pure functions that derive values from entries:
  replay, production cost, and projection verification.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted
  2. ARITHMETIC: QuantityAfter == QuantityBefore + QuantityChange
  3. SIGNS: restock > 0, production < 0, adjustment negates a prior
     production entry
  4. PROJECTION: replaying all entries for a material reproduces its
     current quantity exactly

CORRECTIONS:
  A mistake is never edited away. Undoing a production run appends one
  adjustment entry per original production entry with the opposite
  sign; both remain in the ledger and the net effect is the correction.

SEE ALSO:
  - store.go: LedgerStore persistence contract
  - production/engine.go: Writes production and adjustment entries
*/
package inventory

import "github.com/shopspring/decimal"

// =============================================================================
// REPLAY - Derive quantities from the ledger
// =============================================================================

// Replay sums the quantity changes of entries in order. Starting from
// zero (materials are created empty and restocked), the result is the
// material's expected current quantity.
func Replay(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.QuantityChange)
	}
	return total
}

// VerifyProjection checks a material's stored quantity against a full
// ledger replay and the per-entry arithmetic. Returns nil when the
// projection is consistent.
func VerifyProjection(m Material, entries []LedgerEntry) error {
	for _, e := range entries {
		if !e.Consistent() {
			return &LedgerMismatchError{
				MaterialID: m.ID,
				Projected:  e.QuantityBefore.Add(e.QuantityChange),
				Stored:     e.QuantityAfter,
			}
		}
	}
	projected := Replay(entries)
	if !projected.Equal(m.Quantity) {
		return &LedgerMismatchError{MaterialID: m.ID, Projected: projected, Stored: m.Quantity}
	}
	return nil
}

// =============================================================================
// COST - Derived from snapshot prices
// =============================================================================

// CostOfEntries sums |change| x snapshot unit price over entries.
// Used for production cost (production entries of one record) and for
// consumption reports (production entries of one material).
func CostOfEntries(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Cost())
	}
	return total
}

// TotalConsumed sums |change| over entries.
func TotalConsumed(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.QuantityChange.Abs())
	}
	return total
}
