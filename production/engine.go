/*
Package production implements the production engine.

PURPOSE:
  Given a requested output quantity, the engine validates availability
  against the active recipe, atomically deducts materials, writes one
  production ledger entry per material, and creates a production
  record. A run can later be reversed: compensating adjustment entries
  restore the balances and the record is soft-deleted.

CRITICAL INVARIANTS:
  1. ATOMIC: a run's record, deductions and ledger entries commit
     together or not at all - no partial deduction across materials
  2. CHECK-THEN-DEDUCT inside one transaction: two concurrent runs
     cannot both pass the availability check against the same stock
  3. NO MUTATION ON FAILURE: shortage and validation failures leave
     state untouched
  4. REVERSAL: undo appends adjustment entries (opposite sign) and
     soft-deletes the record; a second undo is a reported no-op

EXAMPLE FLOW:
  1. CreateProduction(100): recipe {Wood 0.25/unit} -> deduct 25 Wood,
     ledger entry change -25, record quantity 100
  2. UndoProduction(record.ID): adjustment entry change +25, Wood
     restored, record.IsDeleted = true

SEE ALSO:
  - inventory/ledger.go: Replay and cost derivations
  - recipe/recipe.go: Active recipe resolution
*/
package production

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/recipe"
)

// Engine coordinates production runs against the shared store.
type Engine struct {
	store   inventory.TxStore
	recipes *recipe.Registry
	log     *logrus.Logger
}

func NewEngine(store inventory.TxStore, recipes *recipe.Registry, log *logrus.Logger) *Engine {
	return &Engine{store: store, recipes: recipes, log: log}
}

// =============================================================================
// AVAILABILITY CHECK - Read-only
// =============================================================================

// CheckAvailability reports whether quantity units can be produced
// with current stock. Never mutates state.
func (e *Engine) CheckAvailability(ctx context.Context, quantity int64) (bool, []inventory.Shortage, error) {
	if quantity <= 0 {
		return false, nil, inventory.ErrInvalidQuantity
	}
	activeRecipe, err := e.recipes.Active(ctx)
	if err != nil {
		return false, nil, err
	}
	shortages, err := shortagesFor(ctx, e.store, activeRecipe, quantity)
	if err != nil {
		return false, nil, err
	}
	return len(shortages) == 0, shortages, nil
}

// shortagesFor computes the shortage list against the given store
// view. Called both standalone and inside the creation transaction.
// The recipe is passed in because resolving it goes through the shared
// store, which must not be re-entered while a transaction holds the
// write lock.
func shortagesFor(ctx context.Context, store inventory.Store, activeRecipe map[string]decimal.Decimal, quantity int64) ([]inventory.Shortage, error) {
	qty := decimal.NewFromInt(quantity)
	var shortages []inventory.Shortage
	for _, name := range sortedNames(activeRecipe) {
		required := activeRecipe[name].Mul(qty)
		material, err := store.GetMaterialByName(ctx, name)
		if err != nil {
			return nil, err
		}

		available := decimal.Zero
		if material != nil {
			available = material.Quantity
		}
		if material == nil || available.LessThan(required) {
			shortages = append(shortages, inventory.Shortage{
				MaterialName: name,
				Required:     required,
				Available:    available,
				Shortage:     required.Sub(available),
			})
		}
	}
	return shortages, nil
}

// =============================================================================
// CREATE PRODUCTION - Atomic deduction
// =============================================================================

// CreateProduction validates availability, then atomically inserts a
// production record, deducts every recipe material and appends one
// production ledger entry per material. On shortage it fails with
// *inventory.InsufficientMaterialError and no state changes.
func (e *Engine) CreateProduction(ctx context.Context, quantity int64, notes string) (*inventory.ProductionRecord, error) {
	if quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}

	// The recipe is resolved up front; the transaction's write lock
	// then serializes stock reads and deductions against other runs.
	activeRecipe, err := e.recipes.Active(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := inventory.ProductionRecord{
		ID:        uuid.NewString(),
		Date:      now,
		Quantity:  quantity,
		Notes:     notes,
		CreatedAt: now,
	}

	err = e.store.WithTx(ctx, func(tx inventory.Store) error {
		// Availability is re-checked inside the transaction so that
		// concurrent runs are serialized against the same stock.
		shortages, err := shortagesFor(ctx, tx, activeRecipe, quantity)
		if err != nil {
			return err
		}
		if len(shortages) > 0 {
			return &inventory.InsufficientMaterialError{Shortages: shortages}
		}

		if err := tx.SaveProduction(ctx, record); err != nil {
			return err
		}

		qty := decimal.NewFromInt(quantity)
		for _, name := range sortedNames(activeRecipe) {
			deduction := activeRecipe[name].Mul(qty)
			if deduction.IsZero() {
				// Zero-requirement materials are part of the recipe
				// but consume nothing; no entry is written.
				continue
			}

			material, err := tx.GetMaterialByName(ctx, name)
			if err != nil {
				return err
			}
			if material == nil {
				return inventory.ErrMaterialNotFound
			}

			before := material.Quantity
			after, err := tx.AdjustQuantity(ctx, material.ID, deduction.Neg())
			if err != nil {
				return err
			}

			entry := inventory.LedgerEntry{
				ID:             uuid.NewString(),
				MaterialID:     material.ID,
				Kind:           inventory.KindProduction,
				QuantityChange: deduction.Neg(),
				QuantityBefore: before,
				QuantityAfter:  after,
				UnitPrice:      material.UnitPrice,
				ProductionID:   record.ID,
				Notes:          fmt.Sprintf("Production of %d units", quantity),
				CreatedAt:      now,
			}
			if err := tx.AppendEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"record_id": record.ID,
		"quantity":  quantity,
	}).Info("production run created")
	return &record, nil
}

// =============================================================================
// UNDO PRODUCTION - Compensating reversal
// =============================================================================

// UndoProduction reverses a run: every production entry tied to the
// record gets a compensating adjustment entry with the opposite sign,
// the materials are restored, and the record is soft-deleted. All in
// one transaction. A second invocation fails with ErrAlreadyUndone
// and changes nothing.
func (e *Engine) UndoProduction(ctx context.Context, recordID string) error {
	err := e.store.WithTx(ctx, func(tx inventory.Store) error {
		record, err := tx.GetProduction(ctx, recordID)
		if err != nil {
			return err
		}
		if record == nil {
			return inventory.ErrRecordNotFound
		}
		if record.IsDeleted {
			return inventory.ErrAlreadyUndone
		}

		entries, err := tx.EntriesByProduction(ctx, recordID, inventory.KindProduction)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, original := range entries {
			restore := original.QuantityChange.Neg() // original is negative
			material, err := tx.GetMaterial(ctx, original.MaterialID)
			if err != nil {
				return err
			}
			if material == nil {
				return inventory.ErrMaterialNotFound
			}

			before := material.Quantity
			after, err := tx.AdjustQuantity(ctx, original.MaterialID, restore)
			if err != nil {
				return err
			}

			reversal := inventory.LedgerEntry{
				ID:             uuid.NewString(),
				MaterialID:     original.MaterialID,
				Kind:           inventory.KindAdjustment,
				QuantityChange: restore,
				QuantityBefore: before,
				QuantityAfter:  after,
				UnitPrice:      original.UnitPrice,
				ProductionID:   recordID,
				Notes:          fmt.Sprintf("Reversal of production run %s", recordID),
				CreatedAt:      now,
			}
			if err := tx.AppendEntry(ctx, reversal); err != nil {
				return err
			}
		}

		return tx.MarkProductionDeleted(ctx, recordID)
	})
	if err != nil {
		return err
	}

	e.log.WithFields(logrus.Fields{"record_id": recordID}).Info("production run undone")
	return nil
}

// =============================================================================
// COST - From snapshot prices in the ledger
// =============================================================================

// Cost returns the material cost of a run: the sum over its production
// entries of |change| x the unit price snapshotted when the entry was
// written. Undone runs still report their original cost.
func (e *Engine) Cost(ctx context.Context, recordID string) (decimal.Decimal, error) {
	record, err := e.store.GetProduction(ctx, recordID)
	if err != nil {
		return decimal.Zero, err
	}
	if record == nil {
		return decimal.Zero, inventory.ErrRecordNotFound
	}

	entries, err := e.store.EntriesByProduction(ctx, recordID, inventory.KindProduction)
	if err != nil {
		return decimal.Zero, err
	}
	return inventory.CostOfEntries(entries), nil
}

// Records lists non-deleted production records in [from, to].
func (e *Engine) Records(ctx context.Context, from, to time.Time) ([]inventory.ProductionRecord, error) {
	return e.store.ListProductions(ctx, from, to)
}

// sortedNames makes recipe iteration deterministic.
func sortedNames(recipe map[string]decimal.Decimal) []string {
	names := make([]string, 0, len(recipe))
	for name := range recipe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
