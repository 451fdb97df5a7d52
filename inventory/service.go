/*
service.go - Inventory operations (restock, low stock, stockout)

PURPOSE:
  The write path for stock additions and the read paths that look at
  stock levels directly. Restock is the only way quantity goes up;
  like every mutation it runs as one transaction with its ledger entry.

SEE ALSO:
  - production/engine.go: The deduction write path
  - ledger.go: TotalConsumed used by stockout prediction
*/
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// stockoutWindowDays is the trailing window used to estimate the
// consumption rate for stockout prediction.
const stockoutWindowDays = 30

// Service exposes the inventory write and query operations.
type Service struct {
	store TxStore
	log   *logrus.Logger
}

func NewService(store TxStore, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// =============================================================================
// MATERIAL CREATION - Opening stock goes through the ledger too
// =============================================================================

// CreateMaterial registers a material. A non-zero initial quantity is
// recorded as an opening restock entry so that a full ledger replay
// reproduces the quantity projection from zero.
func (s *Service) CreateMaterial(ctx context.Context, name, unit string, initialQuantity, unitPrice decimal.Decimal) (*Material, error) {
	if name == "" || unit == "" {
		return nil, fmt.Errorf("material name and unit are required")
	}
	if initialQuantity.IsNegative() || unitPrice.IsNegative() {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.store.GetMaterialByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateMaterial
	}

	now := time.Now().UTC()
	material := Material{
		ID:        uuid.NewString(),
		Name:      name,
		Quantity:  decimal.Zero,
		Unit:      unit,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveMaterial(ctx, material); err != nil {
			return err
		}
		if initialQuantity.IsZero() {
			return nil
		}
		after, err := tx.AdjustQuantity(ctx, material.ID, initialQuantity)
		if err != nil {
			return err
		}
		material.Quantity = after
		return tx.AppendEntry(ctx, LedgerEntry{
			ID:             uuid.NewString(),
			MaterialID:     material.ID,
			Kind:           KindRestock,
			QuantityChange: initialQuantity,
			QuantityBefore: decimal.Zero,
			QuantityAfter:  after,
			UnitPrice:      unitPrice,
			Notes:          "Opening stock",
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &material, nil
}

// =============================================================================
// RESTOCK - The only stock-increasing operation
// =============================================================================

// Restock adds quantity to a material and appends the matching restock
// ledger entry in one transaction. Returns the new quantity.
func (s *Service) Restock(ctx context.Context, materialID string, quantity decimal.Decimal, notes string) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}

	var newQuantity decimal.Decimal
	err := s.store.WithTx(ctx, func(tx Store) error {
		material, err := tx.GetMaterial(ctx, materialID)
		if err != nil {
			return err
		}
		if material == nil {
			return ErrMaterialNotFound
		}

		before := material.Quantity
		after, err := tx.AdjustQuantity(ctx, materialID, quantity)
		if err != nil {
			return err
		}

		if notes == "" {
			notes = fmt.Sprintf("Restocked %s %s", quantity, material.Unit)
		}
		entry := LedgerEntry{
			ID:             uuid.NewString(),
			MaterialID:     materialID,
			Kind:           KindRestock,
			QuantityChange: quantity,
			QuantityBefore: before,
			QuantityAfter:  after,
			UnitPrice:      material.UnitPrice,
			Notes:          notes,
			CreatedAt:      time.Now().UTC(),
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		newQuantity = after
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.log.WithFields(logrus.Fields{
		"material_id": materialID,
		"quantity":    quantity.String(),
	}).Info("material restocked")
	return newQuantity, nil
}

// =============================================================================
// STOCK QUERIES
// =============================================================================

// GetMaterial retrieves a material or ErrMaterialNotFound.
func (s *Service) GetMaterial(ctx context.Context, id string) (*Material, error) {
	material, err := s.store.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}
	return material, nil
}

// ListMaterials returns every material ordered by name.
func (s *Service) ListMaterials(ctx context.Context) ([]Material, error) {
	return s.store.ListMaterials(ctx)
}

// LowStock returns materials with quantity below the threshold.
// A zero threshold uses the default.
func (s *Service) LowStock(ctx context.Context, threshold decimal.Decimal) ([]Material, error) {
	if threshold.IsZero() {
		threshold = LowStockThreshold
	}
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	var low []Material
	for _, m := range materials {
		if m.Quantity.LessThan(threshold) {
			low = append(low, m)
		}
	}
	return low, nil
}

// PredictStockout estimates when a material runs out from its trailing
// 30-day production consumption. Returns (nil, nil) when there is no
// recent consumption to extrapolate from.
func (s *Service) PredictStockout(ctx context.Context, materialID string) (*StockoutForecast, error) {
	material, err := s.store.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -stockoutWindowDays)
	entries, err := s.store.EntriesByMaterial(ctx, materialID, KindProduction, windowStart, now)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	avgDaily := TotalConsumed(entries).Div(decimal.NewFromInt(stockoutWindowDays))
	if avgDaily.IsZero() {
		return nil, nil
	}

	daysRemaining := material.Quantity.Div(avgDaily)
	days := daysRemaining.IntPart()
	return &StockoutForecast{
		MaterialName:        material.Name,
		CurrentStock:        material.Quantity,
		AvgDailyConsumption: avgDaily.Round(2),
		DaysRemaining:       daysRemaining.Round(1),
		EstimatedDate:       now.AddDate(0, 0, int(days)),
	}, nil
}

// =============================================================================
// CONSISTENCY - Audit the projection against the ledger
// =============================================================================

// VerifyLedger replays every material's ledger and compares the result
// to the stored quantity projection. Returns one error per drifting
// material; an empty slice means the store is consistent.
func (s *Service) VerifyLedger(ctx context.Context) ([]error, error) {
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}

	var mismatches []error
	for _, m := range materials {
		entries, err := s.store.EntriesByMaterial(ctx, m.ID, "", time.Time{}, time.Time{})
		if err != nil {
			return nil, err
		}
		if err := VerifyProjection(m, entries); err != nil {
			mismatches = append(mismatches, err)
		}
	}
	return mismatches, nil
}
