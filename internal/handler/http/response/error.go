package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// A failed run is surfaced with its message unchanged; the status follows the cause.
	var runErr *payroll.RunFailedError
	if errors.As(err, &runErr) {
		writeError(w, runFailedStatus(runErr.Err), "PAYROLL_RUN_FAILED", runErr.Error())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company ID is required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeHasNoBaseSalary):
		Unprocessable(w, "MISSING_BASE_SALARY", "Employee has no base salary configured")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, payroll.ErrPeriodClosed):
		Conflict(w, "Payroll period is closed")
	case errors.Is(err, payroll.ErrPeriodHasNoPayslips):
		Conflict(w, "Payroll period has no payslips, run payroll before closing")
	case errors.Is(err, payroll.ErrInvalidElementCategory):
		Unprocessable(w, "INVALID_ELEMENT_CATEGORY", err.Error())
	case errors.Is(err, payroll.ErrNoEligibleEmployees):
		Unprocessable(w, "NO_ELIGIBLE_EMPLOYEES", "No payroll-eligible employees for company")

	// Statutory errors
	case errors.Is(err, statutory.ErrNoRateConfigured):
		Unprocessable(w, "MISSING_STATUTORY_RATE", "No statutory rate configured")
	case errors.Is(err, statutory.ErrNoBandsConfigured):
		Unprocessable(w, "MISSING_TAX_BANDS", err.Error())
	case errors.Is(err, statutory.ErrInvalidTaxBands):
		Unprocessable(w, "INVALID_TAX_BANDS", err.Error())

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func runFailedStatus(cause error) int {
	switch {
	case errors.Is(cause, payroll.ErrPeriodClosed):
		return http.StatusConflict
	case errors.Is(cause, payroll.ErrPeriodNotFound):
		return http.StatusNotFound
	case errors.Is(cause, statutory.ErrNoRateConfigured),
		errors.Is(cause, statutory.ErrNoBandsConfigured),
		errors.Is(cause, statutory.ErrInvalidTaxBands),
		errors.Is(cause, payroll.ErrInvalidElementCategory),
		errors.Is(cause, payroll.ErrNoEligibleEmployees),
		errors.Is(cause, employee.ErrEmployeeNotFound),
		errors.Is(cause, employee.ErrEmployeeHasNoBaseSalary):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
