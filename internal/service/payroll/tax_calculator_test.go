package payroll

import (
	"testing"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func twoBandTable() statutory.TaxBandTable {
	return statutory.TaxBandTable{
		{BandStart: dec("0"), BandEnd: decPtr("1000"), Rate: dec("0.05")},
		{BandStart: dec("1000"), Rate: dec("0.10")},
	}
}

func TestTaxCalculator_ComputeTax(t *testing.T) {
	calc := NewTaxCalculator()

	tests := []struct {
		name   string
		income string
		bands  statutory.TaxBandTable
		want   string
	}{
		{"zero income", "0", twoBandTable(), "0"},
		{"negative income", "-250", twoBandTable(), "0"},
		{"no bands", "5000", nil, "0"},
		{"at first boundary", "1000", twoBandTable(), "50.00"},
		{"into second band", "1500", twoBandTable(), "100.00"},
		{"inside first band", "999.99", twoBandTable(), "50.00"},
		{"zero-rate first band", "3035", standardBands(), "253.50"},
		{"rounds half up once", "500.05", standardBands(), "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ComputeTax(dec(tt.income), tt.bands)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTaxCalculator_Breakdown_PartitionsIncome(t *testing.T) {
	calc := NewTaxCalculator()
	bands := statutory.TaxBandTable{
		{BandStart: dec("0"), BandEnd: decPtr("300"), Rate: dec("0")},
		{BandStart: dec("300"), BandEnd: decPtr("700"), Rate: dec("0.05")},
		{BandStart: dec("700"), BandEnd: decPtr("2000"), Rate: dec("0.15")},
		{BandStart: dec("2000"), Rate: dec("0.25")},
	}

	for _, income := range []string{"0", "1", "300", "300.01", "699.99", "700", "1999.5", "2000", "12345.67"} {
		t.Run(income, func(t *testing.T) {
			sum := decimal.Zero
			for _, slice := range calc.Breakdown(dec(income), bands) {
				assert.True(t, slice.Income.IsPositive())
				sum = sum.Add(slice.Income)
			}
			assert.True(t, sum.Equal(dec(income)), "sum %s income %s", sum, income)
		})
	}
}

func TestTaxCalculator_Breakdown_Slices(t *testing.T) {
	calc := NewTaxCalculator()

	slices := calc.Breakdown(dec("1500"), twoBandTable())

	if assert.Len(t, slices, 2) {
		assert.True(t, slices[0].Income.Equal(dec("1000")))
		assert.True(t, slices[0].Tax.Equal(dec("50")))
		assert.True(t, slices[1].Income.Equal(dec("500")))
		assert.True(t, slices[1].Tax.Equal(dec("50")))
	}
}
