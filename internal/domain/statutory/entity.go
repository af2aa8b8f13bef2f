package statutory

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Periodicity of a tax band set
type Periodicity string

const (
	PeriodicityMonthly Periodicity = "monthly"
	PeriodicityAnnual  Periodicity = "annual"
)

// TaxBand - one progressive band. A nil BandEnd marks the unbounded top band.
type TaxBand struct {
	ID          string
	BandStart   decimal.Decimal
	BandEnd     *decimal.Decimal
	Rate        decimal.Decimal
	TaxYear     int
	Periodicity Periodicity
}

// Unbounded reports whether the band has no upper limit.
func (b TaxBand) Unbounded() bool {
	return b.BandEnd == nil
}

// TaxBandTable - bands for one (tax year, periodicity), ascending by BandStart.
type TaxBandTable []TaxBand

// Sorted returns a copy ordered ascending by BandStart.
func (t TaxBandTable) Sorted() TaxBandTable {
	out := make(TaxBandTable, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BandStart.LessThan(out[j].BandStart)
	})
	return out
}

// Validate checks the table partitions [0, ∞): first band starts at zero,
// bands are contiguous, widths are positive, rates are within [0, 1] and
// only the last band is unbounded. Callers are expected to pass a sorted table.
func (t TaxBandTable) Validate() error {
	if len(t) == 0 {
		return ErrNoBandsConfigured
	}
	if !t[0].BandStart.IsZero() {
		return fmt.Errorf("%w: first band starts at %s, expected 0", ErrInvalidTaxBands, t[0].BandStart)
	}

	for i, band := range t {
		if band.Rate.IsNegative() || band.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: band %d rate %s outside [0, 1]", ErrInvalidTaxBands, i, band.Rate)
		}
		last := i == len(t)-1
		if band.Unbounded() {
			if !last {
				return fmt.Errorf("%w: band %d is unbounded but not last", ErrInvalidTaxBands, i)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: top band must be unbounded", ErrInvalidTaxBands)
		}
		if !band.BandEnd.GreaterThan(band.BandStart) {
			return fmt.Errorf("%w: band %d has non-positive width", ErrInvalidTaxBands, i)
		}
		if !t[i+1].BandStart.Equal(*band.BandEnd) {
			return fmt.Errorf("%w: gap or overlap between band %d and %d", ErrInvalidTaxBands, i, i+1)
		}
	}
	return nil
}

// StatutoryRate - social-security contribution rates. A zero
// MaxContributionCap means contributions are not capped.
type StatutoryRate struct {
	ID                 string
	EmployeeRate       decimal.Decimal
	EmployerRate       decimal.Decimal
	MaxContributionCap decimal.Decimal
	EffectiveDate      time.Time
}

// Capped reports whether a contribution cap applies.
func (r StatutoryRate) Capped() bool {
	return r.MaxContributionCap.IsPositive()
}

// WithholdingRate - flat withholding-tax rate for one employment type.
type WithholdingRate struct {
	EmploymentType string
	Rate           decimal.Decimal
	EffectiveDate  time.Time
}
