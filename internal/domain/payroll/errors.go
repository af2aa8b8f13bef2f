package payroll

import (
	"errors"
	"fmt"
)

var (
	ErrPeriodNotFound         = errors.New("payroll period not found")
	ErrPeriodClosed           = errors.New("payroll period is closed")
	ErrPeriodHasNoPayslips    = errors.New("payroll period has no payslips, run payroll before closing")
	ErrInvalidElementCategory = errors.New("invalid payroll element category")
	ErrNoEligibleEmployees    = errors.New("no payroll-eligible employees for company")
	ErrPayrollRunFailed       = errors.New("payroll run failed")
)

// RunFailedError reports an aborted payroll run. The whole batch was rolled
// back; Err carries the underlying cause.
type RunFailedError struct {
	CompanyID string
	PeriodID  string
	Err       error
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("payroll run failed for period %s: %v", e.PeriodID, e.Err)
}

func (e *RunFailedError) Unwrap() error {
	return e.Err
}

// Is lets callers match with errors.Is(err, ErrPayrollRunFailed).
func (e *RunFailedError) Is(target error) bool {
	return target == ErrPayrollRunFailed
}
