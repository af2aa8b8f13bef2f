package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ElementCategory enum
type ElementCategory string

const (
	ElementCategoryAllowance ElementCategory = "allowance"
	ElementCategoryDeduction ElementCategory = "deduction"
)

// Element - tenant-defined allowance or deduction assigned to an employee.
// IsTaxable is only meaningful for allowances.
type Element struct {
	ID            string
	EmployeeID    string
	CompanyID     string
	Name          string
	Category      ElementCategory
	Amount        decimal.Decimal
	IsTaxable     bool
	EffectiveDate time.Time
	EndDate       *time.Time
}

// ElementTotals - aggregated element buckets for one employee
type ElementTotals struct {
	TaxableAllowances    decimal.Decimal
	NonTaxableAllowances decimal.Decimal
	Deductions           decimal.Decimal
}

// Period - a payroll period. Open until closed; closed periods are immutable.
type Period struct {
	ID        string
	CompanyID string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxYear is the year whose bands apply to the period.
func (p Period) TaxYear() int {
	return p.EndDate.Year()
}

// Payslip - persisted result of one employee's calculation for one period
type Payslip struct {
	ID                   string
	EmployeeID           string
	CompanyID            string
	PayrollPeriodID      string
	GrossPay             decimal.Decimal
	TaxableAllowances    decimal.Decimal
	NonTaxableAllowances decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetPay               decimal.Decimal
	PayeAmount           decimal.Decimal
	EmployeeContribution decimal.Decimal
	EmployerContribution decimal.Decimal
	CreatedAt            time.Time

	// Joined fields
	EmployeeName *string
	EmployeeCode *string
}

// CalculationResult - full breakdown for one employee, not persisted as such.
type CalculationResult struct {
	EmployeeID           string
	GrossPay             decimal.Decimal
	TaxableAllowances    decimal.Decimal
	NonTaxableAllowances decimal.Decimal
	Deductions           decimal.Decimal
	EmployeeContribution decimal.Decimal
	EmployerContribution decimal.Decimal
	TaxableIncome        decimal.Decimal
	Paye                 decimal.Decimal
	TotalDeductions      decimal.Decimal
	NetPay               decimal.Decimal
	// FlatWithholding is set when PAYE came from a flat employment-type rate.
	FlatWithholding bool
}

// ToPayslip maps a calculation onto a new payslip row.
func (r CalculationResult) ToPayslip(id, companyID, periodID string, createdAt time.Time) Payslip {
	return Payslip{
		ID:                   id,
		EmployeeID:           r.EmployeeID,
		CompanyID:            companyID,
		PayrollPeriodID:      periodID,
		GrossPay:             r.GrossPay,
		TaxableAllowances:    r.TaxableAllowances,
		NonTaxableAllowances: r.NonTaxableAllowances,
		TotalDeductions:      r.TotalDeductions,
		NetPay:               r.NetPay,
		PayeAmount:           r.Paye,
		EmployeeContribution: r.EmployeeContribution,
		EmployerContribution: r.EmployerContribution,
		CreatedAt:            createdAt,
	}
}

// RunSummary - outcome of a successful payroll run
type RunSummary struct {
	CompanyID                 string
	PeriodID                  string
	EmployeeCount             int
	TotalGross                decimal.Decimal
	TotalDeductions           decimal.Decimal
	TotalNet                  decimal.Decimal
	TotalEmployerContribution decimal.Decimal
	PayslipIDs                []string
	Closed                    bool
	CompletedAt               time.Time
}
