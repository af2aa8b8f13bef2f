package payroll

import "context"

// ElementRepository reads element assignments active for an employee.
type ElementRepository interface {
	GetAssignedElements(ctx context.Context, employeeID string, companyID string) ([]Element, error)
}

// PeriodRepository defines data access for payroll periods.
type PeriodRepository interface {
	GetByID(ctx context.Context, periodID string, companyID string) (Period, error)
	// LockForRun reloads the period holding a row lock until the surrounding
	// transaction ends. Must be called inside Transactor.WithinTransaction.
	LockForRun(ctx context.Context, periodID string, companyID string) (Period, error)
	MarkClosed(ctx context.Context, periodID string, companyID string) error
}

// PayslipRepository defines data access for payslips.
type PayslipRepository interface {
	DeleteForPeriod(ctx context.Context, periodID string, companyID string) error
	Insert(ctx context.Context, payslip Payslip) error
	ListByPeriod(ctx context.Context, periodID string, companyID string) ([]Payslip, error)
	CountByPeriod(ctx context.Context, periodID string, companyID string) (int, error)
}

// PayrollRepository groups the tenant-scoped payroll stores.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	ElementRepository
	PeriodRepository
	PayslipRepository
}

// Transactor runs fn as one atomic unit of work. Repositories called with
// the context passed to fn participate in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
