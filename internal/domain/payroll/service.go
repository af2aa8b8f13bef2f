package payroll

import "context"

// PayrollService is the application-facing payroll API. The company and
// acting user are taken from the JWT claims carried by ctx.
type PayrollService interface {
	// RunPayroll recomputes every payslip of an open period in one transaction
	// and, unless KeepOpen is set, closes the period as the final step.
	RunPayroll(ctx context.Context, req RunPayrollRequest) (RunPayrollResponse, error)

	// ClosePeriod transitions an open period that already has payslips to closed.
	ClosePeriod(ctx context.Context, req ClosePeriodRequest) (PeriodResponse, error)

	ListPayslips(ctx context.Context, req ListPayslipsRequest) (ListPayslipResponse, error)

	// PreviewPayroll calculates one employee for a period without persisting anything.
	PreviewPayroll(ctx context.Context, req PreviewPayrollRequest) (CalculationResponse, error)
}
