/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract,
  allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validate struct tags and are checked with
  go-playground/validator in the handlers. Quantities arrive as JSON
  strings so decimal values survive the trip without float rounding.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/factory-ops/inventory"
	"github.com/warp/factory-ops/payroll"
)

// =============================================================================
// MATERIALS
// =============================================================================

// MaterialDTO represents a raw material in API responses.
type MaterialDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	UnitPrice   string `json:"unit_price"`
	StockStatus string `json:"stock_status"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CreateMaterialRequest is the request to register a material.
type CreateMaterialRequest struct {
	Name            string `json:"name" validate:"required"`
	Unit            string `json:"unit" validate:"required"`
	InitialQuantity string `json:"initial_quantity" validate:"required"`
	UnitPrice       string `json:"unit_price" validate:"required"`
}

// RestockRequest is the request to add stock to a material.
type RestockRequest struct {
	Quantity string `json:"quantity" validate:"required"`
	Notes    string `json:"notes"`
}

// StockoutForecastDTO is the projected stockout for a material.
type StockoutForecastDTO struct {
	MaterialName        string `json:"material_name"`
	CurrentStock        string `json:"current_stock"`
	AvgDailyConsumption string `json:"avg_daily_consumption"`
	DaysRemaining       string `json:"days_remaining"`
	EstimatedDate       string `json:"estimated_date"`
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerEntryDTO represents one stock ledger entry.
type LedgerEntryDTO struct {
	ID             string `json:"id"`
	MaterialID     string `json:"material_id"`
	Kind           string `json:"kind"`
	QuantityChange string `json:"quantity_change"`
	QuantityBefore string `json:"quantity_before"`
	QuantityAfter  string `json:"quantity_after"`
	UnitPrice      string `json:"unit_price"`
	ProductionID   string `json:"production_id,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// =============================================================================
// PRODUCTION
// =============================================================================

// CreateProductionRequest is the request to record a production run.
type CreateProductionRequest struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Notes    string `json:"notes"`
}

// ProductionDTO represents a production run.
type ProductionDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Quantity  int64  `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AvailabilityRequest asks whether a quantity can be produced.
type AvailabilityRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

// ShortageDTO describes one material blocking a production run.
type ShortageDTO struct {
	MaterialName string `json:"material_name"`
	Required     string `json:"required"`
	Available    string `json:"available"`
	Shortage     string `json:"shortage"`
}

// AvailabilityDTO is the availability check result.
type AvailabilityDTO struct {
	CanProduce bool          `json:"can_produce"`
	Shortages  []ShortageDTO `json:"shortages,omitempty"`
}

// ProductionCostDTO is the material cost of one run.
type ProductionCostDTO struct {
	ProductionID string `json:"production_id"`
	TotalCost    string `json:"total_cost"`
}

// =============================================================================
// RECIPE
// =============================================================================

// RecipeItemDTO represents one bill-of-materials row.
type RecipeItemDTO struct {
	ID              string `json:"id"`
	MaterialID      string `json:"material_id"`
	MaterialName    string `json:"material_name"`
	QuantityPerUnit string `json:"quantity_per_unit"`
	IsActive        bool   `json:"is_active"`
}

// SetRecipeItemRequest creates or updates a recipe item.
type SetRecipeItemRequest struct {
	MaterialID      string `json:"material_id" validate:"required"`
	QuantityPerUnit string `json:"quantity_per_unit" validate:"required"`
	IsActive        *bool  `json:"is_active"`
}

// =============================================================================
// REPORTS AND SETTINGS
// =============================================================================

// SellingPriceRequest updates the per-unit selling price.
type SellingPriceRequest struct {
	Price string `json:"price" validate:"required"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Department     string `json:"department,omitempty"`
	Position       string `json:"position,omitempty"`
	HireDate       string `json:"hire_date"`
	BaseSalary     string `json:"base_salary"`
	EmploymentType string `json:"employment_type"`
	Status         string `json:"status"`
	Address        string `json:"address,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	EmployeeID     string `json:"employee_id" validate:"required"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	Department     string `json:"department"`
	Position       string `json:"position"`
	HireDate       string `json:"hire_date" validate:"required"`
	BaseSalary     string `json:"base_salary" validate:"required"`
	EmploymentType string `json:"employment_type" validate:"required,oneof=permanent contract temporary"`
	Status         string `json:"status" validate:"omitempty,oneof=active inactive terminated"`
	Address        string `json:"address"`
}

// RecordAttendanceRequest records one employee's day.
type RecordAttendanceRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=present absent late half-day sick leave"`
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out"`
	Notes      string `json:"notes"`
}

// BulkAttendanceRequest records a whole roster's day at once.
type BulkAttendanceRequest struct {
	Date     string            `json:"date" validate:"required"`
	Statuses map[string]string `json:"statuses" validate:"required,min=1"`
}

// SaveSalaryRequest creates or updates a monthly salary row.
type SaveSalaryRequest struct {
	EmployeeID    string `json:"employee_id" validate:"required"`
	Month         string `json:"month" validate:"required"`
	GrossSalary   string `json:"gross_salary" validate:"required"`
	Bonus         string `json:"bonus"`
	Deductions    string `json:"deductions"`
	Tax           string `json:"tax"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=pending paid partial"`
	PaymentMethod string `json:"payment_method"`
	AmountPaid    string `json:"amount_paid"`
	Notes         string `json:"notes"`
}

// SalaryDTO represents a monthly salary row.
type SalaryDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Month         string `json:"month"`
	GrossSalary   string `json:"gross_salary"`
	Bonus         string `json:"bonus"`
	Deductions    string `json:"deductions"`
	Tax           string `json:"tax"`
	NetSalary     string `json:"net_salary"`
	PaymentStatus string `json:"payment_status"`
	PaymentDate   string `json:"payment_date,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	AmountPaid    string `json:"amount_paid"`
	Notes         string `json:"notes,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMaterialDTO(m inventory.Material) MaterialDTO {
	return MaterialDTO{
		ID:          m.ID,
		Name:        m.Name,
		Quantity:    m.Quantity.String(),
		Unit:        m.Unit,
		UnitPrice:   m.UnitPrice.String(),
		StockStatus: string(m.StockStatus()),
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.Format(time.RFC3339),
	}
}

func toMaterialDTOs(materials []inventory.Material) []MaterialDTO {
	dtos := make([]MaterialDTO, len(materials))
	for i, m := range materials {
		dtos[i] = toMaterialDTO(m)
	}
	return dtos
}

func toLedgerEntryDTO(e inventory.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:             e.ID,
		MaterialID:     e.MaterialID,
		Kind:           string(e.Kind),
		QuantityChange: e.QuantityChange.String(),
		QuantityBefore: e.QuantityBefore.String(),
		QuantityAfter:  e.QuantityAfter.String(),
		UnitPrice:      e.UnitPrice.String(),
		ProductionID:   e.ProductionID,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func toLedgerEntryDTOs(entries []inventory.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	return dtos
}

func toProductionDTO(rec inventory.ProductionRecord) ProductionDTO {
	return ProductionDTO{
		ID:        rec.ID,
		Date:      rec.Date.Format(time.RFC3339),
		Quantity:  rec.Quantity,
		Notes:     rec.Notes,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
}

func toShortageDTOs(shortages []inventory.Shortage) []ShortageDTO {
	dtos := make([]ShortageDTO, len(shortages))
	for i, sh := range shortages {
		dtos[i] = ShortageDTO{
			MaterialName: sh.MaterialName,
			Required:     sh.Required.String(),
			Available:    sh.Available.String(),
			Shortage:     sh.Shortage.String(),
		}
	}
	return dtos
}

func toRecipeItemDTOs(items []inventory.RecipeItem) []RecipeItemDTO {
	dtos := make([]RecipeItemDTO, len(items))
	for i, item := range items {
		dtos[i] = RecipeItemDTO{
			ID:              item.ID,
			MaterialID:      item.MaterialID,
			MaterialName:    item.MaterialName,
			QuantityPerUnit: item.QuantityPerUnit.String(),
			IsActive:        item.IsActive,
		}
	}
	return dtos
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.ID,
		EmployeeID:     e.EmployeeID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		Phone:          e.Phone,
		Department:     e.Department,
		Position:       e.Position,
		HireDate:       e.HireDate.Format("2006-01-02"),
		BaseSalary:     e.BaseSalary.String(),
		EmploymentType: string(e.EmploymentType),
		Status:         string(e.Status),
		Address:        e.Address,
	}
}

func toSalaryDTO(sal payroll.Salary) SalaryDTO {
	dto := SalaryDTO{
		ID:            sal.ID,
		EmployeeID:    sal.EmployeeID,
		Month:         sal.Month.Format("2006-01"),
		GrossSalary:   sal.GrossSalary.String(),
		Bonus:         sal.Bonus.String(),
		Deductions:    sal.Deductions.String(),
		Tax:           sal.Tax.String(),
		NetSalary:     sal.NetSalary.String(),
		PaymentStatus: string(sal.PaymentStatus),
		PaymentMethod: sal.PaymentMethod,
		AmountPaid:    sal.AmountPaid.String(),
		Notes:         sal.Notes,
	}
	if sal.PaymentDate != nil {
		dto.PaymentDate = sal.PaymentDate.Format("2006-01-02")
	}
	return dto
}

func parseDecimalField(value string) (decimal.Decimal, bool) {
	if value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
