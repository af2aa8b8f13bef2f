package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// ElementAggregator sums element assignments into taxable allowances,
// non-taxable allowances and deductions.
type ElementAggregator struct{}

func NewElementAggregator() *ElementAggregator {
	return &ElementAggregator{}
}

func (a *ElementAggregator) Aggregate(elements []payroll.Element) (payroll.ElementTotals, error) {
	totals := payroll.ElementTotals{
		TaxableAllowances:    decimal.Zero,
		NonTaxableAllowances: decimal.Zero,
		Deductions:           decimal.Zero,
	}

	for _, el := range elements {
		switch el.Category {
		case payroll.ElementCategoryAllowance:
			if el.IsTaxable {
				totals.TaxableAllowances = totals.TaxableAllowances.Add(el.Amount)
			} else {
				totals.NonTaxableAllowances = totals.NonTaxableAllowances.Add(el.Amount)
			}
		case payroll.ElementCategoryDeduction:
			totals.Deductions = totals.Deductions.Add(el.Amount)
		default:
			return payroll.ElementTotals{}, fmt.Errorf("element %s (%q): %w", el.ID, el.Category, payroll.ErrInvalidElementCategory)
		}
	}

	return totals, nil
}
