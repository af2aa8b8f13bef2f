package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleError_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"period not found", payroll.ErrPeriodNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"period closed", payroll.ErrPeriodClosed, http.StatusConflict, "CONFLICT"},
		{"no payslips", payroll.ErrPeriodHasNoPayslips, http.StatusConflict, "CONFLICT"},
		{"employee not found", fmt.Errorf("lookup: %w", employee.ErrEmployeeNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"missing rate", statutory.ErrNoRateConfigured, http.StatusUnprocessableEntity, "MISSING_STATUTORY_RATE"},
		{"missing bands", statutory.ErrNoBandsConfigured, http.StatusUnprocessableEntity, "MISSING_TAX_BANDS"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestHandleError_RunFailedKeepsMessage(t *testing.T) {
	err := &payroll.RunFailedError{
		CompanyID: "company-1",
		PeriodID:  "period-1",
		Err:       fmt.Errorf("failed to get tax bands for 2025: %w", statutory.ErrNoBandsConfigured),
	}

	rec := httptest.NewRecorder()
	HandleError(rec, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "PAYROLL_RUN_FAILED", resp.Error.Code)
	assert.Equal(t, err.Error(), resp.Error.Message)
}

func TestHandleError_RunFailedUnknownCause(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, &payroll.RunFailedError{PeriodID: "p", Err: errors.New("connection reset")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "payroll run failed for period p: connection reset", decode(t, rec).Error.Message)
}

func TestHandleError_Validation(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, validator.ValidationErrors{{Field: "period_id", Message: "is required"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Details["period_id"])
}
