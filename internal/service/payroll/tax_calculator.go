package payroll

import (
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// BandSlice is the portion of taxable income that fell into one band.
type BandSlice struct {
	Band   statutory.TaxBand
	Income decimal.Decimal
	Tax    decimal.Decimal // unrounded
}

// TaxCalculator applies progressive bands to taxable income.
type TaxCalculator struct{}

func NewTaxCalculator() *TaxCalculator {
	return &TaxCalculator{}
}

// ComputeTax returns the tax owed on taxableIncome, rounded half-up to two
// decimal places once at the end. Bands must be ordered by BandStart.
func (c *TaxCalculator) ComputeTax(taxableIncome decimal.Decimal, bands statutory.TaxBandTable) decimal.Decimal {
	tax := decimal.Zero
	for _, slice := range c.Breakdown(taxableIncome, bands) {
		tax = tax.Add(slice.Tax)
	}
	return tax.Round(2)
}

// Breakdown walks the bands marginally and reports the income and tax
// attributed to each band that received income.
func (c *TaxCalculator) Breakdown(taxableIncome decimal.Decimal, bands statutory.TaxBandTable) []BandSlice {
	var slices []BandSlice

	previousThreshold := decimal.Zero
	remaining := taxableIncome

	for _, band := range bands {
		if !remaining.IsPositive() {
			break
		}

		// A nil BandEnd is unbounded, so everything left falls into it.
		incomeInBand := remaining
		if band.BandEnd != nil {
			bandWidth := band.BandEnd.Sub(previousThreshold)
			incomeInBand = decimal.Min(remaining, bandWidth)
		}

		if incomeInBand.IsPositive() {
			slices = append(slices, BandSlice{
				Band:   band,
				Income: incomeInBand,
				Tax:    incomeInBand.Mul(band.Rate),
			})
			remaining = remaining.Sub(incomeInBand)
		}

		if band.BandEnd == nil {
			break
		}
		previousThreshold = *band.BandEnd
	}

	return slices
}
