/*
Package inventory provides the core stock-tracking domain.

PURPOSE:
  This package contains the types and invariants for raw-material
  inventory: materials, the append-only stock ledger, production
  records, and recipe items. Everything that changes a material's
  quantity flows through a ledger entry; the quantity column is a
  cached projection that can always be rebuilt by replay.

KEY CONCEPTS IN THIS FILE (types.go):
  - Material: A raw material with a quantity projection and unit price
  - LedgerEntry: An immutable record of one quantity change
  - ProductionRecord: One production run (soft-deleted on undo)
  - RecipeItem: Per-unit material requirement for production
  - Shortage: How far a material falls short of a requirement

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified, only compensated
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Auditability: Every quantity change carries before/after values
  4. Projection: material.Quantity == initial + sum(ledger changes)

SEE ALSO:
  - ledger.go: Replay, cost and consistency checks
  - store.go: Persistence interfaces
  - errors.go: Error taxonomy
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MATERIAL - Raw material with a quantity projection
// =============================================================================

// Material is a raw-material record. Quantity is a materialized
// projection of the ledger and must only change inside a transaction
// that also appends a matching ledger entry.
type Material struct {
	ID        string
	Name      string // unique
	Quantity  decimal.Decimal
	Unit      string // e.g. "kg", "L", "sheets"
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockStatus buckets a material's quantity for dashboards.
type StockStatus string

const (
	StockLow    StockStatus = "low"    // quantity < 20
	StockMedium StockStatus = "medium" // quantity < 50
	StockGood   StockStatus = "good"
)

// LowStockThreshold is the default cutoff for low-stock listings.
var LowStockThreshold = decimal.NewFromInt(20)

var mediumStockThreshold = decimal.NewFromInt(50)

func (m Material) StockStatus() StockStatus {
	switch {
	case m.Quantity.LessThan(LowStockThreshold):
		return StockLow
	case m.Quantity.LessThan(mediumStockThreshold):
		return StockMedium
	default:
		return StockGood
	}
}

// =============================================================================
// LEDGER ENTRY - Atomic change to a material's quantity
// =============================================================================

type EntryKind string

const (
	KindRestock    EntryKind = "restock"    // quantity added to stock, change > 0
	KindProduction EntryKind = "production" // deduction for a production run, change < 0
	KindAdjustment EntryKind = "adjustment" // compensating reversal of a prior entry
)

// LedgerEntry records one quantity change. Append-only: entries are
// never updated or deleted. QuantityAfter = QuantityBefore +
// QuantityChange always holds.
//
// UnitPrice snapshots the material's price at write time so that
// historical cost reports do not drift when prices change later.
type LedgerEntry struct {
	ID             string
	MaterialID     string
	Kind           EntryKind
	QuantityChange decimal.Decimal // signed
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	UnitPrice      decimal.Decimal // price per unit at write time
	ProductionID   string          // empty unless tied to a production run
	Notes          string
	CreatedAt      time.Time
}

// Consistent reports whether the entry's own arithmetic holds.
func (e LedgerEntry) Consistent() bool {
	return e.QuantityBefore.Add(e.QuantityChange).Equal(e.QuantityAfter)
}

// Cost returns |change| x snapshot unit price.
func (e LedgerEntry) Cost() decimal.Decimal {
	return e.QuantityChange.Abs().Mul(e.UnitPrice)
}

// =============================================================================
// PRODUCTION RECORD - One production run
// =============================================================================

// ProductionRecord is created on a successful run and soft-deleted
// (never removed) when the run is undone. Immutable otherwise.
type ProductionRecord struct {
	ID        string
	Date      time.Time
	Quantity  int64 // units produced, > 0
	Notes     string
	IsDeleted bool
	CreatedAt time.Time
}

// =============================================================================
// RECIPE ITEM - Per-unit material requirement
// =============================================================================

// RecipeItem maps a material to the quantity consumed per unit of
// output. At most one item per material may be active; the storage
// layer enforces this with a partial unique index.
type RecipeItem struct {
	ID              string
	MaterialID      string
	MaterialName    string // resolved by the store for convenience
	QuantityPerUnit decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// SHORTAGE - Availability gap for one material
// =============================================================================

type Shortage struct {
	MaterialName string
	Required     decimal.Decimal
	Available    decimal.Decimal
	Shortage     decimal.Decimal // Required - Available
}

// =============================================================================
// STOCKOUT FORECAST - Derived from recent consumption
// =============================================================================

// StockoutForecast estimates when a material runs out based on its
// trailing consumption rate.
type StockoutForecast struct {
	MaterialName        string
	CurrentStock        decimal.Decimal
	AvgDailyConsumption decimal.Decimal
	DaysRemaining       decimal.Decimal
	EstimatedDate       time.Time
}
