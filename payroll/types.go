/*
Package payroll manages employees, attendance and salary records.

PURPOSE:
  The people side of factory operations: employee master data, daily
  attendance (unique per employee and date, with hours derived from
  clock times), and monthly salary records with a deterministic net
  calculation. Reporting aggregates both over ranges.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Master data with employment type and status
  - Attendance: One row per employee per calendar day
  - Salary: One row per employee per month

SEE ALSO:
  - payroll.go: Service operations and reports
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmploymentType string

const (
	EmploymentPermanent EmploymentType = "permanent"
	EmploymentContract  EmploymentType = "contract"
	EmploymentTemporary EmploymentType = "temporary"
)

type EmployeeStatus string

const (
	StatusActive     EmployeeStatus = "active"
	StatusInactive   EmployeeStatus = "inactive"
	StatusTerminated EmployeeStatus = "terminated"
)

type Employee struct {
	ID             string
	EmployeeID     string // human-facing code, unique
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Department     string
	Position       string
	HireDate       time.Time
	BaseSalary     decimal.Decimal
	EmploymentType EmploymentType
	Status         EmployeeStatus
	Address        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// =============================================================================
// ATTENDANCE - One row per employee per day
// =============================================================================

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceHalfDay AttendanceStatus = "half-day"
	AttendanceSick    AttendanceStatus = "sick"
	AttendanceLeave   AttendanceStatus = "leave"
)

type Attendance struct {
	ID          string
	EmployeeID  string // Employee.ID
	Date        time.Time
	ClockIn     *time.Time
	ClockOut    *time.Time
	Status      AttendanceStatus
	HoursWorked decimal.Decimal
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComputeHours derives HoursWorked from clock times when both are set.
func (a *Attendance) ComputeHours() decimal.Decimal {
	if a.ClockIn != nil && a.ClockOut != nil {
		hours := a.ClockOut.Sub(*a.ClockIn).Hours()
		a.HoursWorked = decimal.NewFromFloat(hours).Round(2)
	}
	return a.HoursWorked
}

// =============================================================================
// SALARY - One row per employee per month
// =============================================================================

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
)

type Salary struct {
	ID            string
	EmployeeID    string    // Employee.ID
	Month         time.Time // first day of the month
	GrossSalary   decimal.Decimal
	Bonus         decimal.Decimal
	Deductions    decimal.Decimal
	Tax           decimal.Decimal
	NetSalary     decimal.Decimal
	PaymentStatus PaymentStatus
	PaymentDate   *time.Time
	PaymentMethod string
	AmountPaid    decimal.Decimal
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ComputeNet recalculates net salary: gross + bonus - deductions - tax,
// floored at zero.
func (s *Salary) ComputeNet() decimal.Decimal {
	net := s.GrossSalary.Add(s.Bonus).Sub(s.Deductions).Sub(s.Tax)
	if net.IsNegative() {
		net = decimal.Zero
	}
	s.NetSalary = net
	return net
}

// PendingAmount is what remains unpaid.
func (s Salary) PendingAmount() decimal.Decimal {
	pending := s.NetSalary.Sub(s.AmountPaid)
	if pending.IsNegative() {
		return decimal.Zero
	}
	return pending
}
