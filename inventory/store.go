/*
store.go - Persistence interfaces for the inventory domain

PURPOSE:
  Defines the contract between domain logic and the database. The
  ledger portion is append-only: there is no update or delete for
  entries, ever. Different implementations can use SQLite or an
  in-memory store.

KEY INTERFACES:
  MaterialStore:   Material records and the quantity projection
  LedgerStore:     Append-only stock ledger
  ProductionStore: Production records (soft delete only)
  RecipeStore:     Recipe items with the one-active-per-material rule
  Store:           All of the above
  TxStore:         Store plus atomic multi-write transactions

APPEND-ONLY CONTRACT:
  LedgerStore exposes AppendEntry and read methods only. Corrections
  are made by appending adjustment entries, never by mutation.

ATOMICITY:
  Production creation and undo touch materials, the ledger, and a
  production record in one unit of work. WithTx gives the engine a
  Store whose writes commit together or not at all.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - store/memory: In-memory store for tests

SEE ALSO:
  - production/engine.go: Primary consumer of TxStore
  - ledger.go: Pure derivations over entries
*/
package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MATERIAL STORE
// =============================================================================

// MaterialStore persists materials. Missing records are reported as
// (nil, nil) from the getters; AdjustQuantity returns
// ErrMaterialNotFound instead because callers depend on the result.
type MaterialStore interface {
	SaveMaterial(ctx context.Context, m Material) error
	GetMaterial(ctx context.Context, id string) (*Material, error)
	GetMaterialByName(ctx context.Context, name string) (*Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)

	// AdjustQuantity applies a signed delta to the quantity projection
	// and returns the new quantity. Must only be called inside a
	// transaction that also appends the matching ledger entry.
	AdjustQuantity(ctx context.Context, materialID string, delta decimal.Decimal) (decimal.Decimal, error)
}

// =============================================================================
// LEDGER STORE - Append-only
// =============================================================================

type LedgerStore interface {
	// AppendEntry persists one ledger entry. This is the ONLY write.
	AppendEntry(ctx context.Context, e LedgerEntry) error

	// EntriesByMaterial returns a material's entries in [from, to],
	// ordered by creation time. Zero times mean unbounded.
	EntriesByMaterial(ctx context.Context, materialID string, kind EntryKind, from, to time.Time) ([]LedgerEntry, error)

	// EntriesByProduction returns the entries tied to one production
	// record, optionally filtered by kind ("" for all).
	EntriesByProduction(ctx context.Context, productionID string, kind EntryKind) ([]LedgerEntry, error)

	// RecentEntries returns the newest entries across all materials.
	RecentEntries(ctx context.Context, limit int) ([]LedgerEntry, error)
}

// =============================================================================
// PRODUCTION STORE
// =============================================================================

type ProductionStore interface {
	SaveProduction(ctx context.Context, rec ProductionRecord) error
	GetProduction(ctx context.Context, id string) (*ProductionRecord, error)

	// ListProductions returns non-deleted records with Date in
	// [from, to], newest first. Zero times mean unbounded.
	ListProductions(ctx context.Context, from, to time.Time) ([]ProductionRecord, error)

	// MarkProductionDeleted soft-deletes a record. The row remains.
	MarkProductionDeleted(ctx context.Context, id string) error
}

// =============================================================================
// RECIPE STORE
// =============================================================================

type RecipeStore interface {
	// SaveRecipeItem inserts or updates an item. Activating an item
	// for a material that already has a different active item fails
	// with ErrDuplicateActiveRecipe.
	SaveRecipeItem(ctx context.Context, item RecipeItem) error
	ListRecipeItems(ctx context.Context) ([]RecipeItem, error)
	ActiveRecipeItems(ctx context.Context) ([]RecipeItem, error)
	DeleteRecipeItem(ctx context.Context, id string) error
}

// =============================================================================
// COMPOSITE + TRANSACTIONAL STORE
// =============================================================================

// Store is the full inventory persistence surface.
type Store interface {
	MaterialStore
	LedgerStore
	ProductionStore
	RecipeStore
}

// TxStore adds atomic multi-write transactions.
type TxStore interface {
	Store

	// WithTx executes fn against a Store whose writes are committed
	// together when fn returns nil and rolled back when it errors.
	WithTx(ctx context.Context, fn func(Store) error) error
}
