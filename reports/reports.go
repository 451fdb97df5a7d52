/*
Package reports derives summaries from production records and the
stock ledger.

PURPOSE:
  Read-only reporting: production summaries, per-material consumption,
  and profit analytics. Everything here is a pure derivation by
  replaying ledger entries and production records over a date range -
  nothing in this package mutates the store.

STALENESS:
  Reports read under the store's normal isolation; a long report that
  overlaps concurrent writes may see a mix of before/after state.
  That is accepted staleness, not a correctness violation.

SEE ALSO:
  - analytics.go: Profit bucketing by day/week/month/year
  - inventory/ledger.go: Cost and consumption derivations
*/
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/settings"
)

// Service computes read-only reports.
type Service struct {
	store    inventory.Store
	settings *settings.Service
}

func NewService(store inventory.Store, settings *settings.Service) *Service {
	return &Service{store: store, settings: settings}
}

// =============================================================================
// PRODUCTION SUMMARY
// =============================================================================

// ProductionSummary aggregates non-deleted runs over a date range.
type ProductionSummary struct {
	TotalRuns      int
	TotalUnits     int64
	TotalCost      decimal.Decimal
	AvgUnitsPerRun decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
}

// GetProductionSummary totals runs, units and cost in [from, to].
// Soft-deleted (undone) runs are excluded.
func (s *Service) GetProductionSummary(ctx context.Context, from, to time.Time) (*ProductionSummary, error) {
	records, err := s.store.ListProductions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &ProductionSummary{
		TotalCost: decimal.Zero,
		StartDate: from,
		EndDate:   to,
	}
	for _, rec := range records {
		summary.TotalRuns++
		summary.TotalUnits += rec.Quantity

		entries, err := s.store.EntriesByProduction(ctx, rec.ID, inventory.KindProduction)
		if err != nil {
			return nil, err
		}
		summary.TotalCost = summary.TotalCost.Add(inventory.CostOfEntries(entries))
	}

	summary.TotalCost = summary.TotalCost.Round(2)
	summary.AvgUnitsPerRun = decimal.Zero
	if summary.TotalRuns > 0 {
		summary.AvgUnitsPerRun = decimal.NewFromInt(summary.TotalUnits).
			Div(decimal.NewFromInt(int64(summary.TotalRuns))).Round(2)
	}
	return summary, nil
}

// =============================================================================
// MATERIAL CONSUMPTION
// =============================================================================

// MaterialConsumption aggregates one material's production entries.
type MaterialConsumption struct {
	MaterialName     string
	Unit             string
	TotalConsumed    decimal.Decimal
	TotalCost        decimal.Decimal
	TransactionCount int
}

// GetMaterialConsumption totals a material's consumption in [from, to]
// from its production ledger entries, costed at snapshot prices.
func (s *Service) GetMaterialConsumption(ctx context.Context, materialID string, from, to time.Time) (*MaterialConsumption, error) {
	material, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, inventory.ErrMaterialNotFound
	}

	entries, err := s.store.EntriesByMaterial(ctx, materialID, inventory.KindProduction, from, to)
	if err != nil {
		return nil, err
	}

	return &MaterialConsumption{
		MaterialName:     material.Name,
		Unit:             material.Unit,
		TotalConsumed:    inventory.TotalConsumed(entries).Round(2),
		TotalCost:        inventory.CostOfEntries(entries).Round(2),
		TransactionCount: len(entries),
	}, nil
}
