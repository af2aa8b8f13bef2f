package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type statutoryRepository struct {
	db *database.DB
}

func NewStatutoryRepository(db *database.DB) statutory.Repository {
	return &statutoryRepository{db: db}
}

func (r *statutoryRepository) GetBandsForYear(ctx context.Context, year int, periodicity statutory.Periodicity) (statutory.TaxBandTable, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, band_start, band_end, rate, tax_year, periodicity
		FROM tax_bands
		WHERE tax_year = $1 AND periodicity = $2
		ORDER BY band_start ASC
	`

	rows, err := q.Query(ctx, query, year, periodicity)
	if err != nil {
		return nil, fmt.Errorf("failed to get tax bands: %w", err)
	}
	defer rows.Close()

	var bands statutory.TaxBandTable
	for rows.Next() {
		var b statutory.TaxBand
		if err := rows.Scan(&b.ID, &b.BandStart, &b.BandEnd, &b.Rate, &b.TaxYear, &b.Periodicity); err != nil {
			return nil, fmt.Errorf("failed to scan tax band: %w", err)
		}
		bands = append(bands, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tax bands: %w", err)
	}

	return bands, nil
}

func (r *statutoryRepository) GetCurrentRate(ctx context.Context, asOf time.Time) (statutory.StatutoryRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_rate, employer_rate, max_contribution_cap, effective_date
		FROM statutory_rates
		WHERE effective_date <= $1
		ORDER BY effective_date DESC
		LIMIT 1
	`

	var rate statutory.StatutoryRate
	err := q.QueryRow(ctx, query, asOf).Scan(
		&rate.ID, &rate.EmployeeRate, &rate.EmployerRate, &rate.MaxContributionCap, &rate.EffectiveDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return statutory.StatutoryRate{}, statutory.ErrNoRateConfigured
		}
		return statutory.StatutoryRate{}, fmt.Errorf("failed to get statutory rate: %w", err)
	}

	return rate, nil
}

func (r *statutoryRepository) GetWithholdingRates(ctx context.Context, asOf time.Time) ([]statutory.WithholdingRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT ON (employment_type) employment_type, rate, effective_date
		FROM withholding_rates
		WHERE effective_date <= $1
		ORDER BY employment_type, effective_date DESC
	`

	rows, err := q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get withholding rates: %w", err)
	}
	defer rows.Close()

	var rates []statutory.WithholdingRate
	for rows.Next() {
		var w statutory.WithholdingRate
		if err := rows.Scan(&w.EmploymentType, &w.Rate, &w.EffectiveDate); err != nil {
			return nil, fmt.Errorf("failed to scan withholding rate: %w", err)
		}
		rates = append(rates, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withholding rates: %w", err)
	}

	return rates, nil
}
