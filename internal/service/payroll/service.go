package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/go-chi/jwtauth/v5"
)

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	rates        statutory.RateProvider
	orchestrator *Orchestrator
	calculator   *EmployeeCalculator
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	rates statutory.RateProvider,
	orchestrator *Orchestrator,
	calculator *EmployeeCalculator,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		rates:        rates,
		orchestrator: orchestrator,
		calculator:   calculator,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// ========== RUN ==========

func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, req payroll.RunPayrollRequest) (payroll.RunPayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunPayrollResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunPayrollResponse{}, err
	}

	period, err := s.payrollRepo.GetByID(ctx, req.PeriodID, companyID)
	if err != nil {
		return payroll.RunPayrollResponse{}, err
	}
	if period.IsClosed {
		return payroll.RunPayrollResponse{}, payroll.ErrPeriodClosed
	}

	employees, err := s.employeeRepo.GetPayrollEligible(ctx, companyID)
	if err != nil {
		return payroll.RunPayrollResponse{}, fmt.Errorf("failed to get employees: %w", err)
	}

	summary, err := s.orchestrator.RunPayroll(ctx, payroll.RunRequest{
		CompanyID:   companyID,
		Period:      period,
		Employees:   employees,
		KeepOpen:    req.KeepOpen,
		RequestedBy: userID,
	})
	if err != nil {
		return payroll.RunPayrollResponse{}, err
	}

	return payroll.NewRunPayrollResponse(summary), nil
}

func (s *PayrollServiceImpl) ClosePeriod(ctx context.Context, req payroll.ClosePeriodRequest) (payroll.PeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PeriodResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	period, err := s.orchestrator.ClosePeriod(ctx, companyID, req.PeriodID)
	if err != nil {
		return payroll.PeriodResponse{}, err
	}

	return payroll.NewPeriodResponse(period), nil
}

// ========== PAYSLIPS ==========

func (s *PayrollServiceImpl) ListPayslips(ctx context.Context, req payroll.ListPayslipsRequest) (payroll.ListPayslipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ListPayslipResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListPayslipResponse{}, err
	}

	period, err := s.payrollRepo.GetByID(ctx, req.PeriodID, companyID)
	if err != nil {
		return payroll.ListPayslipResponse{}, err
	}

	payslips, err := s.payrollRepo.ListByPeriod(ctx, req.PeriodID, companyID)
	if err != nil {
		return payroll.ListPayslipResponse{}, err
	}

	result := make([]payroll.PayslipResponse, 0, len(payslips))
	for _, p := range payslips {
		result = append(result, payroll.NewPayslipResponse(p))
	}

	return payroll.ListPayslipResponse{
		Period:   payroll.NewPeriodResponse(period),
		Payslips: result,
	}, nil
}

// ========== PREVIEW ==========

func (s *PayrollServiceImpl) PreviewPayroll(ctx context.Context, req payroll.PreviewPayrollRequest) (payroll.CalculationResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CalculationResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	period, err := s.payrollRepo.GetByID(ctx, req.PeriodID, companyID)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	emp, err := s.employeeRepo.GetProfile(ctx, companyID, req.EmployeeID)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	elements, err := s.payrollRepo.GetAssignedElements(ctx, emp.ID, companyID)
	if err != nil {
		return payroll.CalculationResponse{}, fmt.Errorf("failed to get elements: %w", err)
	}

	rate, err := s.rates.GetCurrentStatutoryRate(ctx)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}
	bands, err := s.rates.GetTaxBands(ctx, period.TaxYear(), statutory.PeriodicityMonthly)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}
	withholding, err := s.rates.GetWithholdingRates(ctx)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	var opts []CalculationOption
	if flat, ok := withholding[string(emp.EmploymentType)]; ok {
		opts = append(opts, WithFlatWithholding(flat))
	}

	result, err := s.calculator.Calculate(emp, period.TaxYear(), elements, bands, &rate, opts...)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	return payroll.NewCalculationResponse(result), nil
}
