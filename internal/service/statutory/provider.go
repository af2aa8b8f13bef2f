package statutory

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// Provider serves statutory values straight from the repository on every
// call. Nothing is cached, so a run always sees the data current at its start.
type Provider struct {
	repo statutory.Repository
	now  func() time.Time
}

func NewProvider(repo statutory.Repository, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{repo: repo, now: now}
}

func (p *Provider) GetCurrentStatutoryRate(ctx context.Context) (statutory.StatutoryRate, error) {
	return p.repo.GetCurrentRate(ctx, p.now())
}

// GetTaxBands returns the bands sorted by BandStart after checking they form
// a contiguous table.
func (p *Provider) GetTaxBands(ctx context.Context, year int, periodicity statutory.Periodicity) (statutory.TaxBandTable, error) {
	bands, err := p.repo.GetBandsForYear(ctx, year, periodicity)
	if err != nil {
		return nil, err
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("%s bands for %d: %w", periodicity, year, statutory.ErrNoBandsConfigured)
	}

	sorted := bands.Sorted()
	if err := sorted.Validate(); err != nil {
		return nil, fmt.Errorf("%s bands for %d: %w", periodicity, year, err)
	}
	return sorted, nil
}

// GetWithholdingRates keeps the most recent effective rate per employment type.
func (p *Provider) GetWithholdingRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	rates, err := p.repo.GetWithholdingRates(ctx, p.now())
	if err != nil {
		return nil, err
	}

	latest := make(map[string]statutory.WithholdingRate, len(rates))
	for _, r := range rates {
		if cur, ok := latest[r.EmploymentType]; !ok || r.EffectiveDate.After(cur.EffectiveDate) {
			latest[r.EmploymentType] = r
		}
	}

	result := make(map[string]decimal.Decimal, len(latest))
	for employmentType, r := range latest {
		result[employmentType] = r.Rate
	}
	return result, nil
}
