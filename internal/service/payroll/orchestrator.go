package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/outbox"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/cmlabs-hris/payroll-engine-go/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// OrchestratorDeps are the collaborators of a payroll run.
type OrchestratorDeps struct {
	Transactor payroll.Transactor
	Employees  employee.EmployeeRepository
	Payroll    payroll.PayrollRepository
	Rates      statutory.RateProvider
	Outbox     outbox.Repository
	Calculator *EmployeeCalculator
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWorkers bounds how many employees are calculated concurrently.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithTopic sets the Kafka topic recorded on run-completed outbox events.
func WithTopic(topic string) OrchestratorOption {
	return func(o *Orchestrator) {
		if topic != "" {
			o.topic = topic
		}
	}
}

func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides payslip and event id generation.
func WithIDGenerator(newID func() (string, error)) OrchestratorOption {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// Orchestrator runs payroll for a whole period as one atomic batch.
type Orchestrator struct {
	tx         payroll.Transactor
	employees  employee.EmployeeRepository
	repo       payroll.PayrollRepository
	rates      statutory.RateProvider
	outbox     outbox.Repository
	calculator *EmployeeCalculator

	workers int
	topic   string
	logger  *slog.Logger
	now     func() time.Time
	newID   func() (string, error)
}

func NewOrchestrator(deps OrchestratorDeps, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		tx:         deps.Transactor,
		employees:  deps.Employees,
		repo:       deps.Payroll,
		rates:      deps.Rates,
		outbox:     deps.Outbox,
		calculator: deps.Calculator,
		workers:    4,
		topic:      events.PayrollRunCompletedTopic,
		logger:     slog.Default(),
		now:        time.Now,
		newID:      newUUIDv7,
	}
	if o.calculator == nil {
		o.calculator = NewEmployeeCalculator(NewElementAggregator(), NewTaxCalculator())
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type employeeInput struct {
	employee employee.Employee
	elements []payroll.Element
}

// RunPayroll deletes and recreates every payslip of the period. The period
// row stays locked for the whole transaction, so concurrent runs for the same
// period serialize. Any failure rolls the batch back and is reported as a
// *payroll.RunFailedError.
func (o *Orchestrator) RunPayroll(ctx context.Context, req payroll.RunRequest) (payroll.RunSummary, error) {
	summary, err := o.run(ctx, req)
	if err != nil {
		o.logger.ErrorContext(ctx, "Payroll run failed",
			slog.String("company_id", req.CompanyID),
			slog.String("period_id", req.Period.ID),
			slog.Int("employee_count", len(req.Employees)),
			slog.Any("error", err),
		)
		return payroll.RunSummary{}, &payroll.RunFailedError{
			CompanyID: req.CompanyID,
			PeriodID:  req.Period.ID,
			Err:       err,
		}
	}

	o.logger.InfoContext(ctx, "Payroll run completed",
		slog.String("company_id", summary.CompanyID),
		slog.String("period_id", summary.PeriodID),
		slog.Int("employee_count", summary.EmployeeCount),
		slog.Bool("closed", summary.Closed),
	)
	return summary, nil
}

func (o *Orchestrator) run(ctx context.Context, req payroll.RunRequest) (payroll.RunSummary, error) {
	if req.Period.IsClosed {
		return payroll.RunSummary{}, payroll.ErrPeriodClosed
	}
	if len(req.Employees) == 0 {
		return payroll.RunSummary{}, payroll.ErrNoEligibleEmployees
	}

	var summary payroll.RunSummary
	err := o.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		period, err := o.repo.LockForRun(ctx, req.Period.ID, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to lock payroll period: %w", err)
		}
		if period.IsClosed {
			return payroll.ErrPeriodClosed
		}

		rate, err := o.rates.GetCurrentStatutoryRate(ctx)
		if err != nil {
			return fmt.Errorf("failed to get statutory rate: %w", err)
		}
		bands, err := o.rates.GetTaxBands(ctx, period.TaxYear(), statutory.PeriodicityMonthly)
		if err != nil {
			return fmt.Errorf("failed to get tax bands for %d: %w", period.TaxYear(), err)
		}
		withholding, err := o.rates.GetWithholdingRates(ctx)
		if err != nil {
			return fmt.Errorf("failed to get withholding rates: %w", err)
		}

		if err := o.repo.DeleteForPeriod(ctx, period.ID, req.CompanyID); err != nil {
			return fmt.Errorf("failed to delete existing payslips: %w", err)
		}

		inputs := make([]employeeInput, 0, len(req.Employees))
		for _, emp := range req.Employees {
			profile, err := o.employees.GetProfile(ctx, req.CompanyID, emp.ID)
			if err != nil {
				return fmt.Errorf("failed to resolve employee %s: %w", emp.ID, err)
			}
			elements, err := o.repo.GetAssignedElements(ctx, emp.ID, req.CompanyID)
			if err != nil {
				return fmt.Errorf("failed to get elements for employee %s: %w", emp.ID, err)
			}
			inputs = append(inputs, employeeInput{employee: profile, elements: elements})
		}

		results, err := o.calculateAll(ctx, inputs, period.TaxYear(), bands, rate, withholding)
		if err != nil {
			return err
		}

		now := o.now()
		summary = payroll.RunSummary{
			CompanyID:                 req.CompanyID,
			PeriodID:                  period.ID,
			EmployeeCount:             len(results),
			TotalGross:                decimal.Zero,
			TotalDeductions:           decimal.Zero,
			TotalNet:                  decimal.Zero,
			TotalEmployerContribution: decimal.Zero,
			PayslipIDs:                make([]string, 0, len(results)),
			Closed:                    !req.KeepOpen,
			CompletedAt:               now,
		}

		// pgx.Tx is not safe for concurrent use, so inserts stay sequential.
		for _, result := range results {
			id, err := o.newID()
			if err != nil {
				return fmt.Errorf("failed to generate payslip id: %w", err)
			}
			if err := o.repo.Insert(ctx, result.ToPayslip(id, req.CompanyID, period.ID, now)); err != nil {
				return fmt.Errorf("failed to insert payslip for employee %s: %w", result.EmployeeID, err)
			}
			summary.PayslipIDs = append(summary.PayslipIDs, id)
			summary.TotalGross = summary.TotalGross.Add(result.GrossPay)
			summary.TotalDeductions = summary.TotalDeductions.Add(result.TotalDeductions)
			summary.TotalNet = summary.TotalNet.Add(result.NetPay)
			summary.TotalEmployerContribution = summary.TotalEmployerContribution.Add(result.EmployerContribution)
		}

		if err := o.recordCompleted(ctx, summary, req.RequestedBy); err != nil {
			return err
		}

		if !req.KeepOpen {
			if err := o.repo.MarkClosed(ctx, period.ID, req.CompanyID); err != nil {
				return fmt.Errorf("failed to close payroll period: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return payroll.RunSummary{}, err
	}
	return summary, nil
}

func (o *Orchestrator) calculateAll(
	ctx context.Context,
	inputs []employeeInput,
	taxYear int,
	bands statutory.TaxBandTable,
	rate statutory.StatutoryRate,
	withholding map[string]decimal.Decimal,
) ([]payroll.CalculationResult, error) {
	results := make([]payroll.CalculationResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var opts []CalculationOption
			if flat, ok := withholding[string(in.employee.EmploymentType)]; ok {
				opts = append(opts, WithFlatWithholding(flat))
			}

			result, err := o.calculator.Calculate(in.employee, taxYear, in.elements, bands, &rate, opts...)
			if err != nil {
				return fmt.Errorf("failed to calculate employee %s: %w", in.employee.ID, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) recordCompleted(ctx context.Context, summary payroll.RunSummary, requestedBy string) error {
	payload, err := json.Marshal(events.PayrollRunCompletedEvent{
		EventType:     events.PayrollRunCompletedType,
		CompanyID:     summary.CompanyID,
		PeriodID:      summary.PeriodID,
		PayslipIDs:    summary.PayslipIDs,
		EmployeeCount: summary.EmployeeCount,
		PeriodClosed:  summary.Closed,
		RequestedBy:   requestedBy,
		OccurredAt:    summary.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode run event: %w", err)
	}

	id, err := o.newID()
	if err != nil {
		return fmt.Errorf("failed to generate event id: %w", err)
	}

	event := outbox.Event{
		ID:            id,
		AggregateType: events.PayrollRunAggregateType,
		AggregateID:   summary.PeriodID,
		EventType:     events.PayrollRunCompletedType,
		Topic:         o.topic,
		Payload:       payload,
		Status:        outbox.StatusPending,
		NextRetryAt:   summary.CompletedAt,
		CreatedAt:     summary.CompletedAt,
	}
	if err := event.Validate(); err != nil {
		return err
	}
	if err := o.outbox.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to record run event: %w", err)
	}
	return nil
}

// ClosePeriod moves an open period with payslips to closed.
func (o *Orchestrator) ClosePeriod(ctx context.Context, companyID, periodID string) (payroll.Period, error) {
	var closed payroll.Period
	err := o.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		period, err := o.repo.LockForRun(ctx, periodID, companyID)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return payroll.ErrPeriodClosed
		}

		count, err := o.repo.CountByPeriod(ctx, periodID, companyID)
		if err != nil {
			return fmt.Errorf("failed to count payslips: %w", err)
		}
		if count == 0 {
			return payroll.ErrPeriodHasNoPayslips
		}

		if err := o.repo.MarkClosed(ctx, periodID, companyID); err != nil {
			return fmt.Errorf("failed to close payroll period: %w", err)
		}

		now := o.now()
		period.IsClosed = true
		period.ClosedAt = &now
		closed = period
		return nil
	})
	if err != nil {
		if !errors.Is(err, payroll.ErrPeriodClosed) && !errors.Is(err, payroll.ErrPeriodHasNoPayslips) && !errors.Is(err, payroll.ErrPeriodNotFound) {
			o.logger.ErrorContext(ctx, "Failed to close payroll period",
				slog.String("company_id", companyID),
				slog.String("period_id", periodID),
				slog.Any("error", err),
			)
		}
		return payroll.Period{}, err
	}
	return closed, nil
}
