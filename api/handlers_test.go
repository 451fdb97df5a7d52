package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/factory-ops/api"
	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
	"github.com/warp/factory-ops/production"
	"github.com/warp/factory-ops/recipe"
	"github.com/warp/factory-ops/reports"
	"github.com/warp/factory-ops/settings"
	"github.com/warp/factory-ops/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	inventorySvc := inventory.NewService(store, log)
	recipeReg := recipe.NewRegistry(store)
	engine := production.NewEngine(store, recipeReg, log)
	settingsSvc := settings.NewService(store)
	reportsSvc := reports.NewService(store, settingsSvc)
	payrollSvc := payroll.NewService(store, log)

	handler := api.NewHandler(inventorySvc, engine, recipeReg, reportsSvc, settingsSvc, payrollSvc, store, log)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func doJSONList(t *testing.T, server *httptest.Server, path string) []map[string]any {
	t.Helper()

	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

// seedFactory creates the four standard materials over HTTP and wires
// the explicit recipe. Returns material name to ID.
func seedFactory(t *testing.T, server *httptest.Server) map[string]string {
	t.Helper()

	seed := []struct {
		name     string
		quantity string
		price    string
		perUnit  string
	}{
		{"Wood Splints", "500", "10", "0.25"},
		{"Chemical Paste", "100", "50", "0.7"},
		{"Cardboard Sheets", "1000", "2", "0.12"},
		{"Glue", "50", "80", "0"},
	}

	ids := make(map[string]string, len(seed))
	for _, s := range seed {
		resp, body := doJSON(t, server, http.MethodPost, "/api/materials", map[string]string{
			"name":             s.name,
			"unit":             "kg",
			"initial_quantity": s.quantity,
			"unit_price":       s.price,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id, _ := body["id"].(string)
		require.NotEmpty(t, id)
		ids[s.name] = id

		resp, _ = doJSON(t, server, http.MethodPut, "/api/recipe", map[string]any{
			"material_id":       id,
			"quantity_per_unit": s.perUnit,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	return ids
}

// =============================================================================
// PRODUCTION FLOW
// =============================================================================

func TestProductionFlow_EndToEnd(t *testing.T) {
	// GIVEN: A seeded factory
	// WHEN: Checking, producing, costing and undoing over HTTP
	// THEN: Each step returns the right status and stock moves correctly

	server := newTestServer(t)
	seedFactory(t, server)

	// 200 units cannot be produced: chemical paste runs short.
	resp, body := doJSON(t, server, http.MethodPost, "/api/production/check", map[string]any{"quantity": 200})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["can_produce"])
	shortages, _ := body["shortages"].([]any)
	require.Len(t, shortages, 1)
	shortage := shortages[0].(map[string]any)
	assert.Equal(t, "Chemical Paste", shortage["material_name"])
	assert.Equal(t, "40", shortage["shortage"])

	// Producing 200 fails with the same shortage detail attached.
	resp, body = doJSON(t, server, http.MethodPost, "/api/production", map[string]any{"quantity": 200})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_material", body["code"])
	assert.NotEmpty(t, body["details"])

	// Producing 100 succeeds.
	resp, body = doJSON(t, server, http.MethodPost, "/api/production", map[string]any{"quantity": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	productionID, _ := body["id"].(string)
	require.NotEmpty(t, productionID)

	materials := doJSONList(t, server, "/api/materials")
	quantities := map[string]string{}
	for _, m := range materials {
		quantities[m["name"].(string)] = m["quantity"].(string)
	}
	assert.Equal(t, "475", quantities["Wood Splints"])
	assert.Equal(t, "30", quantities["Chemical Paste"])
	assert.Equal(t, "988", quantities["Cardboard Sheets"])
	assert.Equal(t, "50", quantities["Glue"], "zero-requirement material untouched")

	// Cost uses the snapshot prices: 25*10 + 70*50 + 12*2 = 3774.
	resp, body = doJSON(t, server, http.MethodGet, "/api/production/"+productionID+"/cost", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3774", body["total_cost"])

	// Undo restores stock exactly.
	resp, _ = doJSON(t, server, http.MethodDelete, "/api/production/"+productionID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	materials = doJSONList(t, server, "/api/materials")
	for _, m := range materials {
		switch m["name"].(string) {
		case "Wood Splints":
			assert.Equal(t, "500", m["quantity"])
		case "Chemical Paste":
			assert.Equal(t, "100", m["quantity"])
		case "Cardboard Sheets":
			assert.Equal(t, "1000", m["quantity"])
		}
	}

	// A second undo conflicts.
	resp, _ = doJSON(t, server, http.MethodDelete, "/api/production/"+productionID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The ledger projection still replays cleanly.
	resp, body = doJSON(t, server, http.MethodGet, "/api/admin/verify-ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["consistent"])
}

func TestCreateProduction_ValidationErrors(t *testing.T) {
	server := newTestServer(t)
	seedFactory(t, server)

	resp, _ := doJSON(t, server, http.MethodPost, "/api/production", map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodPost, "/api/production", map[string]any{"quantity": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// MATERIALS
// =============================================================================

func TestMaterials_RestockAndLedger(t *testing.T) {
	server := newTestServer(t)
	ids := seedFactory(t, server)
	glueID := ids["Glue"]

	resp, body := doJSON(t, server, http.MethodPost, "/api/materials/"+glueID+"/restock", map[string]string{
		"quantity": "25",
		"notes":    "weekly delivery",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "75", body["new_quantity"])

	entries := doJSONList(t, server, "/api/materials/"+glueID+"/ledger")
	require.Len(t, entries, 2, "opening stock plus restock")
	var notes []string
	for _, e := range entries {
		if n, ok := e["notes"].(string); ok {
			notes = append(notes, n)
		}
	}
	assert.Contains(t, notes, "weekly delivery")

	resp, _ = doJSON(t, server, http.MethodPost, "/api/materials/"+glueID+"/restock", map[string]string{
		"quantity": "-5",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMaterials_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/api/materials/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["code"])
}

func TestMaterials_DuplicateName(t *testing.T) {
	server := newTestServer(t)
	seedFactory(t, server)

	resp, _ := doJSON(t, server, http.MethodPost, "/api/materials", map[string]string{
		"name":             "Glue",
		"unit":             "kg",
		"initial_quantity": "1",
		"unit_price":       "1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMaterials_LowStock(t *testing.T) {
	server := newTestServer(t)
	seedFactory(t, server)

	low := doJSONList(t, server, "/api/materials/low-stock?threshold=60")
	require.Len(t, low, 1)
	assert.Equal(t, "Glue", low[0]["name"])
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSellingPrice_RoundTrip(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/api/settings/selling-price", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "150", body["selling_price"], "default price until configured")

	resp, _ = doJSON(t, server, http.MethodPut, "/api/settings/selling-price", map[string]string{"price": "200"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodGet, "/api/settings/selling-price", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "200", body["selling_price"])
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestPayrollFlow_EndToEnd(t *testing.T) {
	// GIVEN: A fresh server
	// WHEN: Creating an employee, recording attendance and saving a salary
	// THEN: Each endpoint round-trips and the reports pick the data up

	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodPost, "/api/employees", map[string]string{
		"employee_id":     "EMP-001",
		"first_name":      "Nadia",
		"last_name":       "Rahman",
		"hire_date":       "2024-03-01",
		"base_salary":     "12000",
		"employment_type": "permanent",
		"department":      "Production",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	employeeID, _ := body["id"].(string)
	require.NotEmpty(t, employeeID)

	resp, _ = doJSON(t, server, http.MethodPost, "/api/attendance", map[string]string{
		"employee_id": employeeID,
		"date":        "2026-08-20",
		"status":      "present",
		"clock_in":    "2026-08-20T09:00:00Z",
		"clock_out":   "2026-08-20T17:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodPost, "/api/salaries", map[string]string{
		"employee_id":  employeeID,
		"month":        "2026-08",
		"gross_salary": "12000",
		"bonus":        "1000",
		"tax":          "800",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12200", body["net_salary"])

	salaries := doJSONList(t, server, "/api/salaries?month=2026-08")
	require.Len(t, salaries, 1)
	assert.Equal(t, "2026-08", salaries[0]["month"])

	resp, body = doJSON(t, server, http.MethodGet, "/api/payroll/report?month=2026-08", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodDelete, "/api/employees/"+employeeID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodGet, "/api/employees/"+employeeID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEmployee_WithoutStatusStaysActive(t *testing.T) {
	// GIVEN: An active employee
	// WHEN: Updating via PUT with a payload that carries no status
	// THEN: The employee is still active afterwards

	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodPost, "/api/employees", map[string]string{
		"employee_id":     "EMP-002",
		"first_name":      "Karim",
		"last_name":       "Uddin",
		"hire_date":       "2024-03-01",
		"base_salary":     "11000",
		"employment_type": "permanent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	employeeID, _ := body["id"].(string)
	require.NotEmpty(t, employeeID)

	resp, body = doJSON(t, server, http.MethodPut, "/api/employees/"+employeeID, map[string]string{
		"employee_id":     "EMP-002",
		"first_name":      "Karim",
		"last_name":       "Uddin",
		"hire_date":       "2024-03-01",
		"base_salary":     "11500",
		"employment_type": "permanent",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["status"])

	resp, body = doJSON(t, server, http.MethodGet, "/api/employees/"+employeeID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", body["status"])
}

func TestSetRecipeItem_SecondPutUpdatesQuantity(t *testing.T) {
	// GIVEN: A recipe item already set for a material
	// WHEN: PUTting the same material with a new quantity per unit
	// THEN: The item is updated in place instead of conflicting

	server := newTestServer(t)

	resp, body := doJSON(t, server, http.MethodPost, "/api/materials", map[string]string{
		"name":             "Wood Splints",
		"unit":             "kg",
		"initial_quantity": "500",
		"unit_price":       "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	materialID, _ := body["id"].(string)
	require.NotEmpty(t, materialID)

	resp, _ = doJSON(t, server, http.MethodPut, "/api/recipe", map[string]string{
		"material_id":       materialID,
		"quantity_per_unit": "0.25",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodPut, "/api/recipe", map[string]string{
		"material_id":       materialID,
		"quantity_per_unit": "0.3",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.3", body["quantity_per_unit"])

	items := doJSONList(t, server, "/api/recipe")
	require.Len(t, items, 1)
	assert.Equal(t, "0.3", items[0]["quantity_per_unit"])
}

func TestEmployees_InvalidPayloads(t *testing.T) {
	server := newTestServer(t)

	cases := []map[string]string{
		{"first_name": "No", "last_name": "Code", "hire_date": "2024-01-01", "base_salary": "1", "employment_type": "permanent"},
		{"employee_id": "EMP-002", "first_name": "Bad", "last_name": "Type", "hire_date": "2024-01-01", "base_salary": "1", "employment_type": "freelance"},
		{"employee_id": "EMP-003", "first_name": "Bad", "last_name": "Date", "hire_date": "01/01/2024", "base_salary": "1", "employment_type": "contract"},
	}
	for i, payload := range cases {
		resp, _ := doJSON(t, server, http.MethodPost, "/api/employees", payload)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, fmt.Sprintf("case %d", i))
	}
}

func TestSalaries_MissingMonthParam(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server, http.MethodGet, "/api/salaries", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// ANALYTICS
// =============================================================================

func TestAnalytics_InvalidPeriod(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, server, http.MethodGet, "/api/analytics/hourly", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
