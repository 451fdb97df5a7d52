package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
	"github.com/warp/factory-ops/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addMaterial(t *testing.T, store *sqlite.Store, name, quantity string) inventory.Material {
	t.Helper()
	now := time.Now().UTC()
	m := inventory.Material{
		ID:        uuid.NewString(),
		Name:      name,
		Quantity:  decimal.RequireFromString(quantity),
		Unit:      "kg",
		UnitPrice: decimal.RequireFromString("10"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.SaveMaterial(context.Background(), m))
	return m
}

func addEmployee(t *testing.T, store *sqlite.Store, code string) payroll.Employee {
	t.Helper()
	now := time.Now().UTC()
	e := payroll.Employee{
		ID:             uuid.NewString(),
		EmployeeID:     code,
		FirstName:      "Test",
		LastName:       "Worker",
		HireDate:       now,
		BaseSalary:     decimal.RequireFromString("10000"),
		EmploymentType: payroll.EmploymentPermanent,
		Status:         payroll.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.SaveEmployee(context.Background(), e))
	return e
}

// =============================================================================
// MATERIALS
// =============================================================================

func TestSaveMaterial_UpsertKeepsQuantity(t *testing.T) {
	// GIVEN: A material with quantity 100
	// WHEN: Upserting with a new price and a different quantity value
	// THEN: Price changes but the stored quantity projection is untouched

	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Wood Splints", "100")

	m.UnitPrice = decimal.RequireFromString("25")
	m.Quantity = decimal.RequireFromString("999")
	require.NoError(t, store.SaveMaterial(ctx, m))

	got, err := store.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("25")))
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("100")),
		"quantity only moves through AdjustQuantity, got %s", got.Quantity)
}

func TestSaveMaterial_DuplicateName(t *testing.T) {
	store := newStore(t)
	addMaterial(t, store, "Glue", "10")

	now := time.Now().UTC()
	err := store.SaveMaterial(context.Background(), inventory.Material{
		ID:        uuid.NewString(),
		Name:      "Glue",
		Quantity:  decimal.Zero,
		Unit:      "kg",
		UnitPrice: decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	assert.Error(t, err)
}

func TestGetMaterial_Missing(t *testing.T) {
	store := newStore(t)

	got, err := store.GetMaterial(context.Background(), "no-such-material")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdjustQuantity_RejectsNegativeResult(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Chemical Paste", "10")

	_, err := store.AdjustQuantity(ctx, m.ID, decimal.RequireFromString("-15"))
	assert.Error(t, err)

	got, err := store.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("10")))
}

func TestAdjustQuantity_UnknownMaterial(t *testing.T) {
	store := newStore(t)

	_, err := store.AdjustQuantity(context.Background(), "no-such-material", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, inventory.ErrMaterialNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_CommitsTogether(t *testing.T) {
	// GIVEN: A material with quantity 100
	// WHEN: Deducting and appending the matching ledger entry in one transaction
	// THEN: Both writes are visible afterwards

	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Cardboard Sheets", "100")

	err := store.WithTx(ctx, func(tx inventory.Store) error {
		after, err := tx.AdjustQuantity(ctx, m.ID, decimal.RequireFromString("-30"))
		if err != nil {
			return err
		}
		return tx.AppendEntry(ctx, inventory.LedgerEntry{
			ID:             uuid.NewString(),
			MaterialID:     m.ID,
			Kind:           inventory.KindProduction,
			QuantityChange: decimal.RequireFromString("-30"),
			QuantityBefore: decimal.RequireFromString("100"),
			QuantityAfter:  after,
			UnitPrice:      m.UnitPrice,
			CreatedAt:      time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	got, err := store.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("70")))

	entries, err := store.EntriesByMaterial(ctx, m.ID, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A deduction already applied inside a transaction
	// WHEN: The transaction function returns an error
	// THEN: The deduction is rolled back and no ledger entry survives

	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Wood Splints", "100")

	boom := fmt.Errorf("shortage detected after partial deduction")
	err := store.WithTx(ctx, func(tx inventory.Store) error {
		if _, err := tx.AdjustQuantity(ctx, m.ID, decimal.RequireFromString("-40")); err != nil {
			return err
		}
		if err := tx.AppendEntry(ctx, inventory.LedgerEntry{
			ID:             uuid.NewString(),
			MaterialID:     m.ID,
			Kind:           inventory.KindProduction,
			QuantityChange: decimal.RequireFromString("-40"),
			QuantityBefore: decimal.RequireFromString("100"),
			QuantityAfter:  decimal.RequireFromString("60"),
			UnitPrice:      m.UnitPrice,
			CreatedAt:      time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetMaterial(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.RequireFromString("100")), "deduction must roll back")

	entries, err := store.EntriesByMaterial(ctx, m.ID, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// =============================================================================
// PRODUCTION RECORDS
// =============================================================================

func TestProduction_SoftDelete(t *testing.T) {
	// GIVEN: A production record
	// WHEN: Marking it deleted
	// THEN: Lookups by ID still see it but listings do not

	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := inventory.ProductionRecord{
		ID:        uuid.NewString(),
		Date:      now,
		Quantity:  100,
		CreatedAt: now,
	}
	require.NoError(t, store.SaveProduction(ctx, rec))
	require.NoError(t, store.MarkProductionDeleted(ctx, rec.ID))

	got, err := store.GetProduction(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "soft-deleted rows stay readable by ID")
	assert.True(t, got.IsDeleted)

	records, err := store.ListProductions(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMarkProductionDeleted_UnknownID(t *testing.T) {
	store := newStore(t)

	err := store.MarkProductionDeleted(context.Background(), "no-such-record")
	assert.ErrorIs(t, err, inventory.ErrRecordNotFound)
}

// =============================================================================
// RECIPE ITEMS
// =============================================================================

func TestSaveRecipeItem_OneActivePerMaterial(t *testing.T) {
	// GIVEN: An active recipe item for a material
	// WHEN: Inserting a second active item for the same material
	// THEN: The unique partial index rejects it

	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Glue", "50")
	now := time.Now().UTC()

	first := inventory.RecipeItem{
		ID:              uuid.NewString(),
		MaterialID:      m.ID,
		QuantityPerUnit: decimal.RequireFromString("0.05"),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, store.SaveRecipeItem(ctx, first))

	second := first
	second.ID = uuid.NewString()
	err := store.SaveRecipeItem(ctx, second)
	assert.ErrorIs(t, err, inventory.ErrDuplicateActiveRecipe)

	// An inactive duplicate is fine, and updating the existing active
	// row in place is too.
	second.IsActive = false
	require.NoError(t, store.SaveRecipeItem(ctx, second))

	first.QuantityPerUnit = decimal.RequireFromString("0.1")
	require.NoError(t, store.SaveRecipeItem(ctx, first))

	active, err := store.ActiveRecipeItems(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].QuantityPerUnit.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, "Glue", active[0].MaterialName)
}

func TestDeleteRecipeItem(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	m := addMaterial(t, store, "Wood Splints", "500")
	now := time.Now().UTC()

	item := inventory.RecipeItem{
		ID:              uuid.NewString(),
		MaterialID:      m.ID,
		QuantityPerUnit: decimal.RequireFromString("0.25"),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, store.SaveRecipeItem(ctx, item))
	require.NoError(t, store.DeleteRecipeItem(ctx, item.ID))

	items, err := store.ListRecipeItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	value, err := store.GetSetting(ctx, "selling_price")
	require.NoError(t, err)
	assert.Empty(t, value, "missing keys read as empty")

	require.NoError(t, store.SetSetting(ctx, "selling_price", "150", "price per unit"))
	require.NoError(t, store.SetSetting(ctx, "selling_price", "200", "price per unit"))

	value, err = store.GetSetting(ctx, "selling_price")
	require.NoError(t, err)
	assert.Equal(t, "200", value)
}

// =============================================================================
// PAYROLL TABLES
// =============================================================================

func TestSaveEmployee_DuplicateCode(t *testing.T) {
	store := newStore(t)
	addEmployee(t, store, "EMP-001")

	now := time.Now().UTC()
	err := store.SaveEmployee(context.Background(), payroll.Employee{
		ID:             uuid.NewString(),
		EmployeeID:     "EMP-001",
		FirstName:      "Duplicate",
		LastName:       "Code",
		HireDate:       now,
		BaseSalary:     decimal.Zero,
		EmploymentType: payroll.EmploymentContract,
		Status:         payroll.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	assert.Error(t, err)
}

func TestDeleteEmployee_CascadesAttendanceAndSalaries(t *testing.T) {
	// GIVEN: An employee with attendance and a salary record
	// WHEN: Deleting the employee
	// THEN: Foreign keys cascade and the dependent rows disappear

	store := newStore(t)
	ctx := context.Background()
	emp := addEmployee(t, store, "EMP-002")
	now := time.Now().UTC()
	day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	month := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveAttendance(ctx, payroll.Attendance{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		Date:        day,
		Status:      payroll.AttendancePresent,
		HoursWorked: decimal.RequireFromString("8"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
	require.NoError(t, store.SaveSalary(ctx, payroll.Salary{
		ID:            uuid.NewString(),
		EmployeeID:    emp.ID,
		Month:         month,
		GrossSalary:   decimal.RequireFromString("10000"),
		Bonus:         decimal.Zero,
		Deductions:    decimal.Zero,
		Tax:           decimal.Zero,
		NetSalary:     decimal.RequireFromString("10000"),
		PaymentStatus: payroll.PaymentPending,
		AmountPaid:    decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))

	require.NoError(t, store.DeleteEmployee(ctx, emp.ID))

	att, err := store.GetAttendance(ctx, emp.ID, day)
	require.NoError(t, err)
	assert.Nil(t, att)

	sal, err := store.GetSalary(ctx, emp.ID, month)
	require.NoError(t, err)
	assert.Nil(t, sal)
}

func TestAttendance_ClockTimesSurviveRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	emp := addEmployee(t, store, "EMP-003")
	now := time.Now().UTC()

	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	in := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	out := time.Date(2026, 8, 15, 17, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveAttendance(ctx, payroll.Attendance{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		Date:        day,
		ClockIn:     &in,
		ClockOut:    &out,
		Status:      payroll.AttendancePresent,
		HoursWorked: decimal.RequireFromString("8"),
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	got, err := store.GetAttendance(ctx, emp.ID, day)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ClockIn)
	require.NotNil(t, got.ClockOut)
	assert.True(t, got.ClockIn.Equal(in))
	assert.True(t, got.ClockOut.Equal(out))
}
