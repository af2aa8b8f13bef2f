package employee

import "context"

// EmployeeRepository is the read side the payroll engine needs. Tenant
// isolation is enforced by the implementation through companyID.
type EmployeeRepository interface {
	// GetPayrollEligible returns active, non-deleted employees with a base salary.
	GetPayrollEligible(ctx context.Context, companyID string) ([]Employee, error)
	GetProfile(ctx context.Context, companyID string, employeeID string) (Employee, error)
}
