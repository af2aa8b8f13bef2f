package postgresql_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	payrollService "github.com/cmlabs-hris/payroll-engine-go/internal/service/payroll"
	statutoryService "github.com/cmlabs-hris/payroll-engine-go/internal/service/statutory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runFixture struct {
	seed
	orchestrator *payrollService.Orchestrator
	payrollRepo  payroll.PayrollRepository
	request      func(t *testing.T, keepOpen bool) payroll.RunRequest
}

func newRunFixture(t *testing.T, s *TestDatabaseSetup) runFixture {
	t.Helper()
	ctx := context.Background()
	sd := seedPayrollData(t, s)

	_, err := s.DB.Exec(ctx, `
		INSERT INTO employees (id, company_id, employee_code, full_name, hire_date, employment_type, employment_status, base_salary)
		VALUES ($1, $3, 'EMP-003', 'Yaw Asante', '2024-02-01', 'permanent', 'active', 2800.00),
			   ($2, $3, 'EMP-004', 'Efua Owusu', '2024-06-15', 'contract', 'active', 2200.00)
	`, newID(t), newID(t), sd.companyID)
	require.NoError(t, err)

	_, err = s.DB.Exec(ctx, `
		INSERT INTO tax_bands (id, band_start, band_end, rate, tax_year, periodicity) VALUES
			($1, 0, 500, 0, 2025, 'monthly'),
			($2, 500, NULL, 0.10, 2025, 'monthly')
	`, newID(t), newID(t))
	require.NoError(t, err)

	_, err = s.DB.Exec(ctx, `
		INSERT INTO statutory_rates (id, employee_rate, employer_rate, max_contribution_cap, effective_date)
		VALUES ($1, 0.055, 0.105, 0, '2024-01-01')
	`, newID(t))
	require.NoError(t, err)

	employeeRepo := postgresql.NewEmployeeRepository(s.DB)
	payrollRepo := postgresql.NewPayrollRepository(s.DB)
	orchestrator := payrollService.NewOrchestrator(payrollService.OrchestratorDeps{
		Transactor: postgresql.NewTransactor(s.DB),
		Employees:  employeeRepo,
		Payroll:    payrollRepo,
		Rates:      statutoryService.NewProvider(postgresql.NewStatutoryRepository(s.DB), time.Now),
		Outbox:     postgresql.NewOutboxRepository(s.DB),
	},
		payrollService.WithWorkers(2),
		payrollService.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	return runFixture{
		seed:         sd,
		orchestrator: orchestrator,
		payrollRepo:  payrollRepo,
		request: func(t *testing.T, keepOpen bool) payroll.RunRequest {
			t.Helper()
			period, err := payrollRepo.GetByID(ctx, sd.periodID, sd.companyID)
			require.NoError(t, err)
			employees, err := employeeRepo.GetPayrollEligible(ctx, sd.companyID)
			require.NoError(t, err)
			require.Len(t, employees, 3)
			return payroll.RunRequest{
				CompanyID:   sd.companyID,
				Period:      period,
				Employees:   employees,
				KeepOpen:    keepOpen,
				RequestedBy: "user-1",
			}
		},
	}
}

// runConcurrently starts every request at once and returns the errors in order.
func runConcurrently(o *payrollService.Orchestrator, reqs ...payroll.RunRequest) []error {
	errs := make([]error, len(reqs))
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req payroll.RunRequest) {
			defer wg.Done()
			<-start
			_, errs[i] = o.RunPayroll(context.Background(), req)
		}(i, req)
	}
	close(start)
	wg.Wait()

	return errs
}

func payslipsPerEmployee(t *testing.T, s *TestDatabaseSetup, periodID string) map[string]int {
	t.Helper()
	rows, err := s.DB.Query(context.Background(), `
		SELECT employee_id, COUNT(*) FROM payslips WHERE payroll_period_id = $1 GROUP BY employee_id
	`, periodID)
	require.NoError(t, err)
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var employeeID string
		var n int
		require.NoError(t, rows.Scan(&employeeID, &n))
		counts[employeeID] = n
	}
	require.NoError(t, rows.Err())
	return counts
}

func TestOrchestrator_ConcurrentRunsOnOpenPeriod(t *testing.T) {
	s := NewTestDatabase(t)
	f := newRunFixture(t, s)

	errs := runConcurrently(f.orchestrator, f.request(t, true), f.request(t, true))
	for _, err := range errs {
		require.NoError(t, err)
	}

	counts := payslipsPerEmployee(t, s, f.periodID)
	assert.Len(t, counts, 3)
	for employeeID, n := range counts {
		assert.Equal(t, 1, n, employeeID)
	}

	period, err := f.payrollRepo.GetByID(context.Background(), f.periodID, f.companyID)
	require.NoError(t, err)
	assert.False(t, period.IsClosed)

	var events int
	require.NoError(t, s.DB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM outbox_events WHERE aggregate_id = $1`, f.periodID).Scan(&events))
	assert.Equal(t, 2, events)
}

func TestOrchestrator_ConcurrentClosingRuns(t *testing.T) {
	s := NewTestDatabase(t)
	f := newRunFixture(t, s)

	errs := runConcurrently(f.orchestrator, f.request(t, false), f.request(t, false))

	var succeeded, closed int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, payroll.ErrPeriodClosed):
			closed++
			assert.ErrorIs(t, err, payroll.ErrPayrollRunFailed)
		default:
			t.Fatalf("unexpected run error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, closed)

	counts := payslipsPerEmployee(t, s, f.periodID)
	assert.Len(t, counts, 3)
	for employeeID, n := range counts {
		assert.Equal(t, 1, n, employeeID)
	}

	period, err := f.payrollRepo.GetByID(context.Background(), f.periodID, f.companyID)
	require.NoError(t, err)
	assert.True(t, period.IsClosed)
}
