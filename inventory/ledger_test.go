package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/factory-ops/inventory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(kind inventory.EntryKind, change, before string) inventory.LedgerEntry {
	b := dec(before)
	c := dec(change)
	return inventory.LedgerEntry{
		ID:             "e-" + change,
		MaterialID:     "mat-1",
		Kind:           kind,
		QuantityChange: c,
		QuantityBefore: b,
		QuantityAfter:  b.Add(c),
		UnitPrice:      dec("10"),
		CreatedAt:      time.Now().UTC(),
	}
}

// =============================================================================
// REPLAY TESTS
// =============================================================================

func TestReplay_SumsChanges(t *testing.T) {
	// GIVEN: Opening stock 500, production -25, reversal +25, restock 40
	// WHEN: Replaying from zero
	// THEN: The result is 540

	entries := []inventory.LedgerEntry{
		entry(inventory.KindRestock, "500", "0"),
		entry(inventory.KindProduction, "-25", "500"),
		entry(inventory.KindAdjustment, "25", "475"),
		entry(inventory.KindRestock, "40", "500"),
	}

	total := inventory.Replay(entries)
	assert.True(t, total.Equal(dec("540")), "replay = %s", total)
}

func TestReplay_Empty(t *testing.T) {
	assert.True(t, inventory.Replay(nil).IsZero())
}

func TestVerifyProjection_Consistent(t *testing.T) {
	material := inventory.Material{ID: "mat-1", Quantity: dec("475")}
	entries := []inventory.LedgerEntry{
		entry(inventory.KindRestock, "500", "0"),
		entry(inventory.KindProduction, "-25", "500"),
	}

	assert.NoError(t, inventory.VerifyProjection(material, entries))
}

func TestVerifyProjection_DriftedProjection(t *testing.T) {
	// GIVEN: A ledger totalling 475 but a stored quantity of 480
	// THEN: The mismatch is reported

	material := inventory.Material{ID: "mat-1", Quantity: dec("480")}
	entries := []inventory.LedgerEntry{
		entry(inventory.KindRestock, "500", "0"),
		entry(inventory.KindProduction, "-25", "500"),
	}

	err := inventory.VerifyProjection(material, entries)
	assert.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrLedgerMismatch)
}

func TestVerifyProjection_BrokenArithmetic(t *testing.T) {
	// An entry whose after != before + change is itself invalid.
	bad := entry(inventory.KindRestock, "500", "0")
	bad.QuantityAfter = dec("501")

	material := inventory.Material{ID: "mat-1", Quantity: dec("501")}
	err := inventory.VerifyProjection(material, []inventory.LedgerEntry{bad})
	assert.ErrorIs(t, err, inventory.ErrLedgerMismatch)
}

// =============================================================================
// COST AND CONSUMPTION TESTS
// =============================================================================

func TestCostOfEntries(t *testing.T) {
	// Two production entries at snapshot price 10: |-25| + |-5| = 30 units, 300 total.
	entries := []inventory.LedgerEntry{
		entry(inventory.KindProduction, "-25", "500"),
		entry(inventory.KindProduction, "-5", "475"),
	}

	cost := inventory.CostOfEntries(entries)
	assert.True(t, cost.Equal(dec("300")), "cost = %s", cost)
}

func TestTotalConsumed(t *testing.T) {
	entries := []inventory.LedgerEntry{
		entry(inventory.KindProduction, "-25", "500"),
		entry(inventory.KindProduction, "-70", "475"),
	}

	total := inventory.TotalConsumed(entries)
	assert.True(t, total.Equal(dec("95")), "consumed = %s", total)
}

// =============================================================================
// STOCK STATUS TESTS
// =============================================================================

func TestStockStatus_Thresholds(t *testing.T) {
	cases := []struct {
		quantity string
		want     string
	}{
		{"0", "low"},
		{"19.99", "low"},
		{"20", "medium"},
		{"49.5", "medium"},
		{"50", "good"},
		{"1000", "good"},
	}
	for _, tc := range cases {
		m := inventory.Material{Quantity: dec(tc.quantity)}
		assert.Equal(t, tc.want, string(m.StockStatus()), "quantity %s", tc.quantity)
	}
}
