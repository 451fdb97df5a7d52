/*
payroll.go - Payroll service operations and reports

PURPOSE:
  Employee CRUD, attendance recording (single and bulk), salary
  records, and the two period reports (attendance counts per employee,
  payroll month totals).

INVARIANTS:
  - One attendance row per (employee, date); re-recording updates
  - One salary row per (employee, month); net is always recomputed
    from its components on save
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/factory-ops/inventory"
)

// =============================================================================
// STORE CONTRACT
// =============================================================================

// Store persists payroll data. Getters return (nil, nil) for missing
// records.
type Store interface {
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context, status EmployeeStatus) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id string) error

	// SaveAttendance inserts or updates the row for (employee, date).
	SaveAttendance(ctx context.Context, a Attendance) error
	GetAttendance(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)
	ListAttendance(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)

	// SaveSalary inserts or updates the row for (employee, month).
	SaveSalary(ctx context.Context, s Salary) error
	GetSalary(ctx context.Context, employeeID string, month time.Time) (*Salary, error)
	ListSalaries(ctx context.Context, month time.Time) ([]Salary, error)
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployee registers a new employee.
func (s *Service) CreateEmployee(ctx context.Context, e Employee) (*Employee, error) {
	if e.EmployeeID == "" || e.FirstName == "" || e.LastName == "" {
		return nil, fmt.Errorf("employee id, first name and last name are required")
	}
	if e.BaseSalary.IsNegative() {
		return nil, fmt.Errorf("base salary must not be negative")
	}
	if e.EmploymentType == "" {
		e.EmploymentType = EmploymentPermanent
	}
	if e.Status == "" {
		e.Status = StatusActive
	}

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee saves changes to an existing employee. Status and
// employment type keep their stored values when the incoming fields
// are empty, so a payload without a status does not deactivate the
// employee.
func (s *Service) UpdateEmployee(ctx context.Context, e Employee) (*Employee, error) {
	existing, err := s.store.GetEmployee(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, inventory.ErrEmployeeNotFound
	}
	if e.Status == "" {
		e.Status = existing.Status
	}
	if e.EmploymentType == "" {
		e.EmploymentType = existing.EmploymentType
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, status EmployeeStatus) ([]Employee, error) {
	return s.store.ListEmployees(ctx, status)
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	return s.store.DeleteEmployee(ctx, id)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// RecordAttendance inserts or updates the attendance row for the
// employee on the given day. Hours are derived from clock times when
// both are present.
func (s *Service) RecordAttendance(ctx context.Context, a Attendance) (*Attendance, error) {
	employee, err := s.store.GetEmployee(ctx, a.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, inventory.ErrEmployeeNotFound
	}
	if a.Status == "" {
		a.Status = AttendancePresent
	}

	a.Date = truncateToDay(a.Date)
	a.ComputeHours()
	if a.HoursWorked.IsNegative() {
		return nil, fmt.Errorf("clock-out before clock-in")
	}

	now := time.Now().UTC()
	existing, err := s.store.GetAttendance(ctx, a.EmployeeID, a.Date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = uuid.NewString()
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	if err := s.store.SaveAttendance(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// BulkAttendance marks attendance for every active employee on one
// date. Returns the number of employees marked present. Rows are
// written one employee at a time; on a mid-roster error the rows
// already written stay, and a retry upserts them without duplication.
func (s *Service) BulkAttendance(ctx context.Context, date time.Time, statuses map[string]AttendanceStatus) (int, error) {
	employees, err := s.store.ListEmployees(ctx, StatusActive)
	if err != nil {
		return 0, err
	}

	present := 0
	for _, emp := range employees {
		status, ok := statuses[emp.ID]
		if !ok {
			status = AttendancePresent
		}
		_, err := s.RecordAttendance(ctx, Attendance{
			EmployeeID: emp.ID,
			Date:       date,
			Status:     status,
			Notes:      fmt.Sprintf("Bulk marked as %s", status),
		})
		if err != nil {
			return present, err
		}
		if status == AttendancePresent {
			present++
		}
	}

	s.log.WithFields(logrus.Fields{
		"date":      truncateToDay(date).Format("2006-01-02"),
		"employees": len(employees),
		"present":   present,
	}).Info("bulk attendance marked")
	return present, nil
}

// =============================================================================
// SALARIES
// =============================================================================

// SaveSalary inserts or updates the salary row for (employee, month).
// Net salary is always recomputed from its components.
func (s *Service) SaveSalary(ctx context.Context, sal Salary) (*Salary, error) {
	employee, err := s.store.GetEmployee(ctx, sal.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, inventory.ErrEmployeeNotFound
	}
	for _, v := range []decimal.Decimal{sal.GrossSalary, sal.Bonus, sal.Deductions, sal.Tax, sal.AmountPaid} {
		if v.IsNegative() {
			return nil, fmt.Errorf("salary components must not be negative")
		}
	}

	sal.Month = firstOfMonth(sal.Month)
	sal.ComputeNet()
	if sal.PaymentStatus == "" {
		sal.PaymentStatus = PaymentPending
	}

	now := time.Now().UTC()
	existing, err := s.store.GetSalary(ctx, sal.EmployeeID, sal.Month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		sal.ID = existing.ID
		sal.CreatedAt = existing.CreatedAt
	} else {
		sal.ID = uuid.NewString()
		sal.CreatedAt = now
	}
	sal.UpdatedAt = now

	if err := s.store.SaveSalary(ctx, sal); err != nil {
		return nil, err
	}
	return &sal, nil
}

// ListSalariesForMonth returns every salary row for a month.
func (s *Service) ListSalariesForMonth(ctx context.Context, month time.Time) ([]Salary, error) {
	return s.store.ListSalaries(ctx, firstOfMonth(month))
}

// =============================================================================
// REPORTS
// =============================================================================

// AttendanceReportRow aggregates one employee's attendance in a range.
type AttendanceReportRow struct {
	Employee   Employee
	Present    int
	Absent     int
	Late       int
	TotalHours decimal.Decimal
	Records    []Attendance
}

// AttendanceReport groups attendance in [from, to] by employee with
// present/absent/late counts and total hours.
func (s *Service) AttendanceReport(ctx context.Context, from, to time.Time) ([]AttendanceReportRow, error) {
	employees, err := s.store.ListEmployees(ctx, "")
	if err != nil {
		return nil, err
	}

	var rows []AttendanceReportRow
	for _, emp := range employees {
		records, err := s.store.ListAttendance(ctx, emp.ID, from, to)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			continue
		}

		row := AttendanceReportRow{Employee: emp, Records: records, TotalHours: decimal.Zero}
		for _, rec := range records {
			switch rec.Status {
			case AttendancePresent:
				row.Present++
			case AttendanceAbsent:
				row.Absent++
			case AttendanceLate:
				row.Late++
			}
			row.TotalHours = row.TotalHours.Add(rec.HoursWorked)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PayrollReport totals one month's salary records.
type PayrollReport struct {
	Month           time.Time
	Records         []Salary
	TotalGross      decimal.Decimal
	TotalBonus      decimal.Decimal
	TotalDeductions decimal.Decimal
	TotalTax        decimal.Decimal
	TotalNet        decimal.Decimal
	TotalPaid       decimal.Decimal
}

// MonthlyPayrollReport sums all salary records for the month.
func (s *Service) MonthlyPayrollReport(ctx context.Context, month time.Time) (*PayrollReport, error) {
	month = firstOfMonth(month)
	records, err := s.store.ListSalaries(ctx, month)
	if err != nil {
		return nil, err
	}

	report := &PayrollReport{
		Month:           month,
		Records:         records,
		TotalGross:      decimal.Zero,
		TotalBonus:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalTax:        decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalPaid:       decimal.Zero,
	}
	for _, rec := range records {
		report.TotalGross = report.TotalGross.Add(rec.GrossSalary)
		report.TotalBonus = report.TotalBonus.Add(rec.Bonus)
		report.TotalDeductions = report.TotalDeductions.Add(rec.Deductions)
		report.TotalTax = report.TotalTax.Add(rec.Tax)
		report.TotalNet = report.TotalNet.Add(rec.NetSalary)
		if rec.PaymentStatus == PaymentPaid {
			report.TotalPaid = report.TotalPaid.Add(rec.NetSalary)
		}
	}
	return report, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
