/*
handlers.go - HTTP API handlers for the factory operations system

PURPOSE:
  Exposes inventory, production, recipe, reporting, settings and
  payroll services via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Materials:
    GET    /api/materials                    List materials
    POST   /api/materials                    Register material
    GET    /api/materials/{id}               Material details
    POST   /api/materials/{id}/restock       Add stock
    GET    /api/materials/{id}/ledger        Ledger history
    GET    /api/materials/{id}/stockout      Stockout forecast
    GET    /api/materials/low-stock          Below-threshold materials

  Production:
    POST   /api/production/check             Availability check
    POST   /api/production                   Record production run
    GET    /api/production                   List runs
    DELETE /api/production/{id}              Undo run
    GET    /api/production/{id}/cost         Material cost of run

  Recipe:
    GET    /api/recipe                       List recipe items
    PUT    /api/recipe                       Set recipe item
    DELETE /api/recipe/{id}                  Remove recipe item

  Reports:
    GET    /api/reports/summary              Production summary
    GET    /api/reports/consumption/{id}     Material consumption
    GET    /api/analytics/overview           All-time overview
    GET    /api/analytics/{period}           daily|weekly|monthly|yearly

  Settings:
    GET    /api/settings/selling-price       Current selling price
    PUT    /api/settings/selling-price       Update selling price

  Payroll:
    GET    /api/employees                    List employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Employee details
    PUT    /api/employees/{id}               Update employee
    DELETE /api/employees/{id}               Remove employee
    POST   /api/attendance                   Record one day
    POST   /api/attendance/bulk              Record whole roster
    GET    /api/attendance/report            Attendance report
    POST   /api/salaries                     Save monthly salary
    GET    /api/salaries                     Salaries for a month
    GET    /api/payroll/report               Monthly payroll report

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Material, production record or employee not found
  - 409: Conflict (insufficient stock, already undone, duplicates)
  - 500: Internal errors
  Insufficient-stock responses carry the per-material shortage list in
  the details field so clients can show what is missing.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are
  public. Put this behind a gateway before exposing it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
	"github.com/warp/factory-ops/production"
	"github.com/warp/factory-ops/recipe"
	"github.com/warp/factory-ops/reports"
	"github.com/warp/factory-ops/settings"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Inventory  *inventory.Service
	Production *production.Engine
	Recipes    *recipe.Registry
	Reports    *reports.Service
	Settings   *settings.Service
	Payroll    *payroll.Service

	// Ledger queries go straight to the store; there is no business
	// logic between the history endpoints and the rows.
	Ledger inventory.LedgerStore

	log      *logrus.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler wired to the given services.
func NewHandler(
	inv *inventory.Service,
	prod *production.Engine,
	recipes *recipe.Registry,
	rep *reports.Service,
	set *settings.Service,
	pay *payroll.Service,
	ledger inventory.LedgerStore,
	log *logrus.Logger,
) *Handler {
	return &Handler{
		Inventory:  inv,
		Production: prod,
		Recipes:    recipes,
		Reports:    rep,
		Settings:   set,
		Payroll:    pay,
		Ledger:     ledger,
		log:        log,
		validate:   validator.New(),
	}
}

// =============================================================================
// MATERIALS
// =============================================================================

func (h *Handler) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.Inventory.ListMaterials(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMaterialDTOs(materials))
}

func (h *Handler) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req CreateMaterialRequest
	if !h.decode(w, r, &req) {
		return
	}

	initial, ok := parseDecimalField(req.InitialQuantity)
	if !ok {
		h.writeBadRequest(w, "initial_quantity must be a decimal number")
		return
	}
	price, ok := parseDecimalField(req.UnitPrice)
	if !ok {
		h.writeBadRequest(w, "unit_price must be a decimal number")
		return
	}

	material, err := h.Inventory.CreateMaterial(r.Context(), req.Name, req.Unit, initial, price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMaterialDTO(*material))
}

func (h *Handler) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := h.Inventory.GetMaterial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMaterialDTO(*material))
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !h.decode(w, r, &req) {
		return
	}

	quantity, ok := parseDecimalField(req.Quantity)
	if !ok {
		h.writeBadRequest(w, "quantity must be a decimal number")
		return
	}

	newQuantity, err := h.Inventory.Restock(r.Context(), chi.URLParam(r, "id"), quantity, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"new_quantity": newQuantity.String()})
}

func (h *Handler) handleMaterialLedger(w http.ResponseWriter, r *http.Request) {
	kind := inventory.EntryKind(r.URL.Query().Get("kind"))
	from, to, err := parseDateRange(r)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	entries, err := h.Ledger.EntriesByMaterial(r.Context(), chi.URLParam(r, "id"), kind, from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

func (h *Handler) handleStockoutForecast(w http.ResponseWriter, r *http.Request) {
	forecast, err := h.Inventory.PredictStockout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if forecast == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "no consumption recorded"})
		return
	}
	h.writeJSON(w, http.StatusOK, StockoutForecastDTO{
		MaterialName:        forecast.MaterialName,
		CurrentStock:        forecast.CurrentStock.String(),
		AvgDailyConsumption: forecast.AvgDailyConsumption.String(),
		DaysRemaining:       forecast.DaysRemaining.String(),
		EstimatedDate:       forecast.EstimatedDate.Format("2006-01-02"),
	})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := inventory.LowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, ok := parseDecimalField(raw)
		if !ok {
			h.writeBadRequest(w, "threshold must be a decimal number")
			return
		}
		threshold = parsed
	}

	materials, err := h.Inventory.LowStock(r.Context(), threshold)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMaterialDTOs(materials))
}

func (h *Handler) handleRecentLedger(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.Ledger.RecentEntries(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

// =============================================================================
// PRODUCTION
// =============================================================================

func (h *Handler) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, shortages, err := h.Production.CheckAvailability(r.Context(), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, AvailabilityDTO{
		CanProduce: ok,
		Shortages:  toShortageDTOs(shortages),
	})
}

func (h *Handler) handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	var req CreateProductionRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.Production.CreateProduction(r.Context(), req.Quantity, req.Notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toProductionDTO(*record))
}

func (h *Handler) handleListProductions(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	records, err := h.Production.Records(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dtos := make([]ProductionDTO, len(records))
	for i, rec := range records {
		dtos[i] = toProductionDTO(rec)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleUndoProduction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Production.UndoProduction(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "reversed", "production_id": id})
}

func (h *Handler) handleProductionCost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cost, err := h.Production.Cost(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ProductionCostDTO{
		ProductionID: id,
		TotalCost:    cost.String(),
	})
}

// =============================================================================
// RECIPE
// =============================================================================

func (h *Handler) handleListRecipe(w http.ResponseWriter, r *http.Request) {
	items, err := h.Recipes.Items(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRecipeItemDTOs(items))
}

func (h *Handler) handleSetRecipeItem(w http.ResponseWriter, r *http.Request) {
	var req SetRecipeItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	perUnit, ok := parseDecimalField(req.QuantityPerUnit)
	if !ok {
		h.writeBadRequest(w, "quantity_per_unit must be a decimal number")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item, err := h.Recipes.SetItem(r.Context(), req.MaterialID, perUnit, active)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRecipeItemDTOs([]inventory.RecipeItem{*item})[0])
}

func (h *Handler) handleRemoveRecipeItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Recipes.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORTS AND ANALYTICS
// =============================================================================

func (h *Handler) handleProductionSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	summary, err := h.Reports.GetProductionSummary(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleMaterialConsumption(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	consumption, err := h.Reports.GetMaterialConsumption(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, consumption)
}

func (h *Handler) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Reports.GetOverview(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", 0)

	var (
		buckets []reports.Bucket
		err     error
	)
	switch chi.URLParam(r, "period") {
	case "daily":
		buckets, err = h.Reports.GetDailyAnalytics(r.Context(), orDefault(count, 30))
	case "weekly":
		buckets, err = h.Reports.GetWeeklyAnalytics(r.Context(), orDefault(count, 12))
	case "monthly":
		buckets, err = h.Reports.GetMonthlyAnalytics(r.Context(), orDefault(count, 12))
	case "yearly":
		buckets, err = h.Reports.GetYearlyAnalytics(r.Context(), orDefault(count, 5))
	default:
		h.writeBadRequest(w, "period must be one of daily, weekly, monthly, yearly")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, buckets)
}

// =============================================================================
// SETTINGS
// =============================================================================

func (h *Handler) handleGetSellingPrice(w http.ResponseWriter, r *http.Request) {
	price, err := h.Settings.SellingPrice(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"selling_price": price.String()})
}

func (h *Handler) handleSetSellingPrice(w http.ResponseWriter, r *http.Request) {
	var req SellingPriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	price, ok := parseDecimalField(req.Price)
	if !ok {
		h.writeBadRequest(w, "price must be a decimal number")
		return
	}
	if err := h.Settings.SetSellingPrice(r.Context(), price); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"selling_price": price.String()})
}

// =============================================================================
// ADMIN
// =============================================================================

// handleVerifyLedger replays every material's ledger and reports any
// drift between the ledger and the quantity projection.
func (h *Handler) handleVerifyLedger(w http.ResponseWriter, r *http.Request) {
	mismatches, err := h.Inventory.VerifyLedger(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	messages := make([]string, len(mismatches))
	for i, mismatch := range mismatches {
		messages[i] = mismatch.Error()
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"consistent": len(mismatches) == 0,
		"mismatches": messages,
	})
}

// =============================================================================
// PAYROLL
// =============================================================================

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	status := payroll.EmployeeStatus(r.URL.Query().Get("status"))
	employees, err := h.Payroll.ListEmployees(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	employee, ok := h.employeeFromRequest(w, req)
	if !ok {
		return
	}

	created, err := h.Payroll.CreateEmployee(r.Context(), *employee)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toEmployeeDTO(*created))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Payroll.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if employee == nil {
		h.writeError(w, inventory.ErrEmployeeNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, toEmployeeDTO(*employee))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	employee, ok := h.employeeFromRequest(w, req)
	if !ok {
		return
	}
	employee.ID = chi.URLParam(r, "id")

	updated, err := h.Payroll.UpdateEmployee(r.Context(), *employee)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEmployeeDTO(*updated))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Payroll.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) employeeFromRequest(w http.ResponseWriter, req CreateEmployeeRequest) (*payroll.Employee, bool) {
	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		h.writeBadRequest(w, "hire_date must be YYYY-MM-DD")
		return nil, false
	}
	salary, ok := parseDecimalField(req.BaseSalary)
	if !ok {
		h.writeBadRequest(w, "base_salary must be a decimal number")
		return nil, false
	}

	return &payroll.Employee{
		EmployeeID:     req.EmployeeID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Department:     req.Department,
		Position:       req.Position,
		HireDate:       hireDate,
		BaseSalary:     salary,
		EmploymentType: payroll.EmploymentType(req.EmploymentType),
		Status:         payroll.EmployeeStatus(req.Status),
		Address:        req.Address,
	}, true
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req RecordAttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeBadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	attendance := payroll.Attendance{
		EmployeeID: req.EmployeeID,
		Date:       date,
		Status:     payroll.AttendanceStatus(req.Status),
		Notes:      req.Notes,
	}
	if req.ClockIn != "" {
		clockIn, err := time.Parse(time.RFC3339, req.ClockIn)
		if err != nil {
			h.writeBadRequest(w, "clock_in must be RFC3339")
			return
		}
		attendance.ClockIn = &clockIn
	}
	if req.ClockOut != "" {
		clockOut, err := time.Parse(time.RFC3339, req.ClockOut)
		if err != nil {
			h.writeBadRequest(w, "clock_out must be RFC3339")
			return
		}
		attendance.ClockOut = &clockOut
	}

	saved, err := h.Payroll.RecordAttendance(r.Context(), attendance)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleBulkAttendance(w http.ResponseWriter, r *http.Request) {
	var req BulkAttendanceRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeBadRequest(w, "date must be YYYY-MM-DD")
		return
	}

	statuses := make(map[string]payroll.AttendanceStatus, len(req.Statuses))
	for employeeID, status := range req.Statuses {
		statuses[employeeID] = payroll.AttendanceStatus(status)
	}

	recorded, err := h.Payroll.BulkAttendance(r.Context(), date, statuses)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"recorded": recorded})
}

func (h *Handler) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		h.writeBadRequest(w, err.Error())
		return
	}

	report, err := h.Payroll.AttendanceReport(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSaveSalary(w http.ResponseWriter, r *http.Request) {
	var req SaveSalaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		h.writeBadRequest(w, "month must be YYYY-MM")
		return
	}

	salary := payroll.Salary{
		EmployeeID:    req.EmployeeID,
		Month:         month,
		PaymentStatus: payroll.PaymentStatus(req.PaymentStatus),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	gross, ok := parseDecimalField(req.GrossSalary)
	if !ok {
		h.writeBadRequest(w, "gross_salary must be a decimal number")
		return
	}
	bonus, ok := parseDecimalField(req.Bonus)
	if !ok {
		h.writeBadRequest(w, "bonus must be a decimal number")
		return
	}
	deductions, ok := parseDecimalField(req.Deductions)
	if !ok {
		h.writeBadRequest(w, "deductions must be a decimal number")
		return
	}
	tax, ok := parseDecimalField(req.Tax)
	if !ok {
		h.writeBadRequest(w, "tax must be a decimal number")
		return
	}
	amountPaid, ok := parseDecimalField(req.AmountPaid)
	if !ok {
		h.writeBadRequest(w, "amount_paid must be a decimal number")
		return
	}
	salary.GrossSalary = gross
	salary.Bonus = bonus
	salary.Deductions = deductions
	salary.Tax = tax
	salary.AmountPaid = amountPaid

	saved, err := h.Payroll.SaveSalary(r.Context(), salary)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSalaryDTO(*saved))
}

func (h *Handler) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		h.writeBadRequest(w, "month query parameter is required (YYYY-MM)")
		return
	}
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		h.writeBadRequest(w, "month must be YYYY-MM")
		return
	}

	salaries, err := h.Payroll.ListSalariesForMonth(r.Context(), month)
	if err != nil {
		h.writeError(w, err)
		return
	}

	dtos := make([]SalaryDTO, len(salaries))
	for i, sal := range salaries {
		dtos[i] = toSalaryDTO(sal)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handlePayrollReport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		h.writeBadRequest(w, "month query parameter is required (YYYY-MM)")
		return
	}
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		h.writeBadRequest(w, "month must be YYYY-MM")
		return
	}

	report, err := h.Payroll.MonthlyPayrollReport(r.Context(), month)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// decode parses and validates a JSON request body. On failure it
// writes the 400 response itself and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeBadRequest(w, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeBadRequest(w, err.Error())
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

// writeError maps domain errors to HTTP statuses. Insufficient stock
// gets its shortage list attached so the client can display it.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientMaterialError
	if errors.As(err, &insufficient) {
		h.writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   insufficient.Error(),
			Code:    "insufficient_material",
			Details: toShortageDTOs(insufficient.Shortages),
		})
		return
	}

	switch {
	case inventory.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case inventory.IsConflict(err):
		h.writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	case inventory.IsClientError(err):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
	default:
		h.log.WithError(err).Error("internal error")
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}

// parseDateRange reads optional from/to query parameters (YYYY-MM-DD).
// Zero times mean unbounded.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("to must be YYYY-MM-DD")
		}
		// Make the upper bound inclusive of the whole day.
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
