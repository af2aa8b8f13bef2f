package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// CalculationOption adjusts a single Calculate call.
type CalculationOption func(*calculationOptions)

type calculationOptions struct {
	flatRate *decimal.Decimal
}

// WithFlatWithholding replaces progressive PAYE with taxableIncome × rate.
func WithFlatWithholding(rate decimal.Decimal) CalculationOption {
	return func(o *calculationOptions) {
		o.flatRate = &rate
	}
}

// EmployeeCalculator computes one employee's payslip figures for a period.
// It performs no I/O; all inputs are resolved by the caller.
type EmployeeCalculator struct {
	aggregator *ElementAggregator
	tax        *TaxCalculator
}

func NewEmployeeCalculator(aggregator *ElementAggregator, tax *TaxCalculator) *EmployeeCalculator {
	return &EmployeeCalculator{
		aggregator: aggregator,
		tax:        tax,
	}
}

func (c *EmployeeCalculator) Calculate(
	emp employee.Employee,
	periodYear int,
	elements []payroll.Element,
	bands statutory.TaxBandTable,
	rate *statutory.StatutoryRate,
	opts ...CalculationOption,
) (payroll.CalculationResult, error) {
	var options calculationOptions
	for _, opt := range opts {
		opt(&options)
	}

	if !emp.Resolved() {
		return payroll.CalculationResult{}, employee.ErrEmployeeNotFound
	}
	if rate == nil {
		return payroll.CalculationResult{}, statutory.ErrNoRateConfigured
	}

	yearBands := bandsForYear(bands, periodYear)
	if len(yearBands) == 0 {
		return payroll.CalculationResult{}, fmt.Errorf("tax year %d: %w", periodYear, statutory.ErrNoBandsConfigured)
	}
	if emp.BaseSalary == nil {
		return payroll.CalculationResult{}, fmt.Errorf("employee %s: %w", emp.ID, employee.ErrEmployeeHasNoBaseSalary)
	}

	// 1. Gross salary
	grossSalary := *emp.BaseSalary

	// 2. Elements
	totals, err := c.aggregator.Aggregate(elements)
	if err != nil {
		return payroll.CalculationResult{}, err
	}

	// 3. Gross pay; non-taxable allowances are reported but never paid through gross
	grossPay := grossSalary.Add(totals.TaxableAllowances)

	// 4. Contributions on base salary only, each leg capped on its own
	employeeContribution := contribution(grossSalary, rate.EmployeeRate, *rate)
	employerContribution := contribution(grossSalary, rate.EmployerRate, *rate)

	// 5. Taxable income
	taxableIncome := grossPay.Sub(employeeContribution)

	// 6. PAYE on the monthly figure, no annualisation
	var paye decimal.Decimal
	if options.flatRate != nil {
		paye = flatWithholding(taxableIncome, *options.flatRate)
	} else {
		paye = c.tax.ComputeTax(taxableIncome, yearBands)
	}

	// 7. Total deductions
	totalDeductions := totals.Deductions.Add(employeeContribution).Add(paye)

	// 8. Net pay
	netPay := grossPay.Sub(employeeContribution).Sub(paye).Sub(totals.Deductions)

	return payroll.CalculationResult{
		EmployeeID:           emp.ID,
		GrossPay:             grossPay,
		TaxableAllowances:    totals.TaxableAllowances,
		NonTaxableAllowances: totals.NonTaxableAllowances,
		Deductions:           totals.Deductions,
		EmployeeContribution: employeeContribution,
		EmployerContribution: employerContribution,
		TaxableIncome:        taxableIncome,
		Paye:                 paye,
		TotalDeductions:      totalDeductions,
		NetPay:               netPay,
		FlatWithholding:      options.flatRate != nil,
	}, nil
}

func contribution(base, legRate decimal.Decimal, rate statutory.StatutoryRate) decimal.Decimal {
	amount := base.Mul(legRate).Round(2)
	if rate.Capped() {
		amount = decimal.Min(amount, rate.MaxContributionCap)
	}
	return amount
}

func flatWithholding(taxableIncome, rate decimal.Decimal) decimal.Decimal {
	if !taxableIncome.IsPositive() {
		return decimal.Zero
	}
	return taxableIncome.Mul(rate).Round(2)
}

// bandsForYear keeps the bands of the requested tax year.
func bandsForYear(bands statutory.TaxBandTable, year int) statutory.TaxBandTable {
	out := make(statutory.TaxBandTable, 0, len(bands))
	for _, b := range bands {
		if b.TaxYear == year {
			out = append(out, b)
		}
	}
	return out
}
