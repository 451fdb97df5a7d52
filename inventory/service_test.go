package inventory_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/store/memory"
)

func newTestService(t *testing.T) (*inventory.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return inventory.NewService(store, log), store
}

// =============================================================================
// MATERIAL CREATION TESTS
// =============================================================================

func TestCreateMaterial_OpeningStockGoesThroughLedger(t *testing.T) {
	// GIVEN: A new material with 500 units of opening stock
	// WHEN: It is created
	// THEN: The quantity projection is 500 AND a restock entry exists,
	//       so a replay from zero reproduces the projection

	service, store := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Wood Splints", "kg", dec("500"), dec("10"))
	require.NoError(t, err)
	assert.True(t, material.Quantity.Equal(dec("500")))

	entries, err := store.EntriesByMaterial(ctx, material.ID, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.KindRestock, entries[0].Kind)
	assert.Equal(t, "Opening stock", entries[0].Notes)
	assert.True(t, inventory.Replay(entries).Equal(material.Quantity))
}

func TestCreateMaterial_ZeroOpeningStock(t *testing.T) {
	// Zero opening stock writes no entry; there is nothing to replay.
	service, store := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Glue", "kg", dec("0"), dec("80"))
	require.NoError(t, err)
	assert.True(t, material.Quantity.IsZero())

	entries, err := store.EntriesByMaterial(ctx, material.ID, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateMaterial_Validation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateMaterial(ctx, "", "kg", dec("1"), dec("1"))
	assert.Error(t, err, "name is required")

	_, err = service.CreateMaterial(ctx, "X", "kg", dec("-1"), dec("1"))
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestCreateMaterial_DuplicateName(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateMaterial(ctx, "Glue", "kg", dec("10"), dec("80"))
	require.NoError(t, err)

	_, err = service.CreateMaterial(ctx, "Glue", "kg", dec("1"), dec("1"))
	assert.ErrorIs(t, err, inventory.ErrDuplicateMaterial)
}

// =============================================================================
// RESTOCK TESTS
// =============================================================================

func TestRestock_AtomicWithLedgerEntry(t *testing.T) {
	// GIVEN: A material at 100
	// WHEN: Restocking 40
	// THEN: Quantity is 140 and a restock entry records before/after

	service, store := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Chemical Paste", "kg", dec("100"), dec("50"))
	require.NoError(t, err)

	newQuantity, err := service.Restock(ctx, material.ID, dec("40"), "weekly delivery")
	require.NoError(t, err)
	assert.True(t, newQuantity.Equal(dec("140")))

	entries, err := store.EntriesByMaterial(ctx, material.ID, inventory.KindRestock, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2, "opening stock plus the restock")

	restock := entries[1]
	assert.True(t, restock.QuantityBefore.Equal(dec("100")))
	assert.True(t, restock.QuantityAfter.Equal(dec("140")))
	assert.Equal(t, "weekly delivery", restock.Notes)
}

func TestRestock_RejectsNonPositive(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Glue", "kg", dec("10"), dec("1"))
	require.NoError(t, err)

	_, err = service.Restock(ctx, material.ID, dec("0"), "")
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = service.Restock(ctx, material.ID, dec("-5"), "")
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)
}

func TestRestock_UnknownMaterial(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Restock(context.Background(), "missing", dec("5"), "")
	assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
}

// =============================================================================
// STOCK QUERY TESTS
// =============================================================================

func TestLowStock(t *testing.T) {
	// GIVEN: Materials at 5, 30 and 500
	// WHEN: Listing with the default threshold (20) and then with 100
	// THEN: Thresholds bound the results as expected

	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.CreateMaterial(ctx, "Glue", "kg", dec("5"), dec("1"))
	require.NoError(t, err)
	_, err = service.CreateMaterial(ctx, "Chemical Paste", "kg", dec("30"), dec("1"))
	require.NoError(t, err)
	_, err = service.CreateMaterial(ctx, "Wood Splints", "kg", dec("500"), dec("1"))
	require.NoError(t, err)

	low, err := service.LowStock(ctx, dec("0"))
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Glue", low[0].Name)

	low, err = service.LowStock(ctx, dec("100"))
	require.NoError(t, err)
	assert.Len(t, low, 2)
}

func TestPredictStockout_NoConsumption(t *testing.T) {
	// With no production history there is nothing to extrapolate.
	service, _ := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Wood Splints", "kg", dec("500"), dec("10"))
	require.NoError(t, err)

	forecast, err := service.PredictStockout(ctx, material.ID)
	require.NoError(t, err)
	assert.Nil(t, forecast)
}

func TestPredictStockout_FromRecentConsumption(t *testing.T) {
	// GIVEN: 60 units consumed over the trailing window (2/day) and 100 in stock
	// WHEN: Predicting stockout
	// THEN: Roughly 50 days remain

	service, store := newTestService(t)
	ctx := context.Background()

	material, err := service.CreateMaterial(ctx, "Chemical Paste", "kg", dec("100"), dec("50"))
	require.NoError(t, err)

	// Simulate production consumption inside the window.
	now := time.Now().UTC()
	for i, change := range []string{"-20", "-20", "-20"} {
		entry := inventory.LedgerEntry{
			ID:             "prod-" + string(rune('a'+i)),
			MaterialID:     material.ID,
			Kind:           inventory.KindProduction,
			QuantityChange: dec(change),
			QuantityBefore: dec("100"),
			QuantityAfter:  dec("80"),
			UnitPrice:      dec("50"),
			ProductionID:   "run-1",
			CreatedAt:      now.AddDate(0, 0, -(i + 1)),
		}
		require.NoError(t, store.AppendEntry(ctx, entry))
	}

	forecast, err := service.PredictStockout(ctx, material.ID)
	require.NoError(t, err)
	require.NotNil(t, forecast)

	assert.True(t, forecast.AvgDailyConsumption.Equal(dec("2")), "avg = %s", forecast.AvgDailyConsumption)
	assert.True(t, forecast.DaysRemaining.Equal(dec("50")), "days = %s", forecast.DaysRemaining)
}
