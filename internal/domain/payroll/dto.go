package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

// RunPayrollRequest takes PeriodID from the URL; a body value is overwritten.
type RunPayrollRequest struct {
	PeriodID string `json:"period_id" validate:"required,uuid_rfc4122"`
	KeepOpen bool   `json:"keep_open"`
}

func (r *RunPayrollRequest) Validate() error {
	return validator.Struct(r)
}

type RunPayrollResponse struct {
	PeriodID                  string          `json:"period_id"`
	EmployeeCount             int             `json:"employee_count"`
	TotalGross                decimal.Decimal `json:"total_gross"`
	TotalDeductions           decimal.Decimal `json:"total_deductions"`
	TotalNet                  decimal.Decimal `json:"total_net"`
	TotalEmployerContribution decimal.Decimal `json:"total_employer_contribution"`
	Closed                    bool            `json:"closed"`
	CompletedAt               string          `json:"completed_at"`
}

type ClosePeriodRequest struct {
	PeriodID string `json:"period_id" validate:"required,uuid_rfc4122"`
}

func (r *ClosePeriodRequest) Validate() error {
	return validator.Struct(r)
}

type PeriodResponse struct {
	ID        string  `json:"id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	IsClosed  bool    `json:"is_closed"`
	ClosedAt  *string `json:"closed_at,omitempty"`
}

// ========== PAYSLIP DTOs ==========

type PayslipResponse struct {
	ID                   string          `json:"id"`
	EmployeeID           string          `json:"employee_id"`
	EmployeeName         string          `json:"employee_name"`
	EmployeeCode         string          `json:"employee_code"`
	PayrollPeriodID      string          `json:"payroll_period_id"`
	GrossPay             decimal.Decimal `json:"gross_pay"`
	TaxableAllowances    decimal.Decimal `json:"taxable_allowances"`
	NonTaxableAllowances decimal.Decimal `json:"non_taxable_allowances"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
	PayeAmount           decimal.Decimal `json:"paye_amount"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	CreatedAt            string          `json:"created_at"`
}

type ListPayslipsRequest struct {
	PeriodID string `json:"period_id" validate:"required,uuid_rfc4122"`
}

func (r *ListPayslipsRequest) Validate() error {
	return validator.Struct(r)
}

type ListPayslipResponse struct {
	Period   PeriodResponse    `json:"period"`
	Payslips []PayslipResponse `json:"payslips"`
}

// ========== PREVIEW DTOs ==========

type PreviewPayrollRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid_rfc4122"`
	PeriodID   string `json:"period_id" validate:"required,uuid_rfc4122"`
}

func (r *PreviewPayrollRequest) Validate() error {
	return validator.Struct(r)
}

type CalculationResponse struct {
	EmployeeID           string          `json:"employee_id"`
	GrossPay             decimal.Decimal `json:"gross_pay"`
	TaxableAllowances    decimal.Decimal `json:"taxable_allowances"`
	NonTaxableAllowances decimal.Decimal `json:"non_taxable_allowances"`
	Deductions           decimal.Decimal `json:"deductions"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	TaxableIncome        decimal.Decimal `json:"taxable_income"`
	Paye                 decimal.Decimal `json:"paye"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
	FlatWithholding      bool            `json:"flat_withholding"`
}

// RunRequest is the orchestrator's input: one tenant, one period, and the
// employees the caller resolved as payroll-eligible.
type RunRequest struct {
	CompanyID   string
	Period      Period
	Employees   []employee.Employee
	KeepOpen    bool
	RequestedBy string
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// NewPeriodResponse maps a period to its response.
func NewPeriodResponse(p Period) PeriodResponse {
	resp := PeriodResponse{
		ID:        p.ID,
		StartDate: formatDate(p.StartDate),
		EndDate:   formatDate(p.EndDate),
		IsClosed:  p.IsClosed,
	}
	if p.ClosedAt != nil {
		s := formatTime(*p.ClosedAt)
		resp.ClosedAt = &s
	}
	return resp
}

// NewRunPayrollResponse maps a run summary to its response.
func NewRunPayrollResponse(s RunSummary) RunPayrollResponse {
	return RunPayrollResponse{
		PeriodID:                  s.PeriodID,
		EmployeeCount:             s.EmployeeCount,
		TotalGross:                s.TotalGross,
		TotalDeductions:           s.TotalDeductions,
		TotalNet:                  s.TotalNet,
		TotalEmployerContribution: s.TotalEmployerContribution,
		Closed:                    s.Closed,
		CompletedAt:               formatTime(s.CompletedAt),
	}
}

// NewPayslipResponse maps a payslip to its response.
func NewPayslipResponse(p Payslip) PayslipResponse {
	employeeName := ""
	employeeCode := ""
	if p.EmployeeName != nil {
		employeeName = *p.EmployeeName
	}
	if p.EmployeeCode != nil {
		employeeCode = *p.EmployeeCode
	}

	return PayslipResponse{
		ID:                   p.ID,
		EmployeeID:           p.EmployeeID,
		EmployeeName:         employeeName,
		EmployeeCode:         employeeCode,
		PayrollPeriodID:      p.PayrollPeriodID,
		GrossPay:             p.GrossPay,
		TaxableAllowances:    p.TaxableAllowances,
		NonTaxableAllowances: p.NonTaxableAllowances,
		TotalDeductions:      p.TotalDeductions,
		NetPay:               p.NetPay,
		PayeAmount:           p.PayeAmount,
		EmployeeContribution: p.EmployeeContribution,
		EmployerContribution: p.EmployerContribution,
		CreatedAt:            formatTime(p.CreatedAt),
	}
}

// NewCalculationResponse maps a calculation to its response.
func NewCalculationResponse(r CalculationResult) CalculationResponse {
	return CalculationResponse{
		EmployeeID:           r.EmployeeID,
		GrossPay:             r.GrossPay,
		TaxableAllowances:    r.TaxableAllowances,
		NonTaxableAllowances: r.NonTaxableAllowances,
		Deductions:           r.Deductions,
		EmployeeContribution: r.EmployeeContribution,
		EmployerContribution: r.EmployerContribution,
		TaxableIncome:        r.TaxableIncome,
		Paye:                 r.Paye,
		TotalDeductions:      r.TotalDeductions,
		NetPay:               r.NetPay,
		FlatWithholding:      r.FlatWithholding,
	}
}
