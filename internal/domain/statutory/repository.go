package statutory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository reads jurisdiction-wide statutory data. It is shared across
// tenants and never written by the payroll engine.
type Repository interface {
	GetBandsForYear(ctx context.Context, year int, periodicity Periodicity) (TaxBandTable, error)
	GetCurrentRate(ctx context.Context, asOf time.Time) (StatutoryRate, error)
	GetWithholdingRates(ctx context.Context, asOf time.Time) ([]WithholdingRate, error)
}

// RateProvider resolves the values a payroll calculation consumes.
type RateProvider interface {
	GetCurrentStatutoryRate(ctx context.Context) (StatutoryRate, error)
	GetTaxBands(ctx context.Context, year int, periodicity Periodicity) (TaxBandTable, error)
	// GetWithholdingRates returns flat rates keyed by employment type; it may be empty.
	GetWithholdingRates(ctx context.Context) (map[string]decimal.Decimal, error)
}
