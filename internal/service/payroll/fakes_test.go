package payroll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/outbox"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// memStore is an in-memory payroll database. Its transactor snapshots
// payslips, periods and outbox events and restores them when fn fails.
type memStore struct {
	mu sync.Mutex

	periods   map[string]payroll.Period
	payslips  []payroll.Payslip
	elements  map[string][]payroll.Element
	employees map[string]employee.Employee
	events    []outbox.Event

	// failInsertOn makes Insert fail for the given employee id.
	failInsertOn string
	// profileErr makes GetProfile fail for the given employee id.
	profileErr map[string]error

	lockCalls   int
	deleteCalls int
}

func newMemStore() *memStore {
	return &memStore{
		periods:    map[string]payroll.Period{},
		elements:   map[string][]payroll.Element{},
		employees:  map[string]employee.Employee{},
		profileErr: map[string]error{},
	}
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	periods := make(map[string]payroll.Period, len(m.periods))
	for k, v := range m.periods {
		periods[k] = v
	}
	payslips := append([]payroll.Payslip(nil), m.payslips...)
	events := append([]outbox.Event(nil), m.events...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.periods = periods
		m.payslips = payslips
		m.events = events
		m.mu.Unlock()
		return err
	}
	return nil
}

// employee.EmployeeRepository

func (m *memStore) GetPayrollEligible(ctx context.Context, companyID string) ([]employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []employee.Employee
	for _, e := range m.employees {
		if e.CompanyID == companyID && e.EmploymentStatus == employee.EmploymentStatusActive && e.BaseSalary != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) GetProfile(ctx context.Context, companyID string, employeeID string) (employee.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.profileErr[employeeID]; ok {
		return employee.Employee{}, err
	}
	e, ok := m.employees[employeeID]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// payroll.PayrollRepository

func (m *memStore) GetAssignedElements(ctx context.Context, employeeID string, companyID string) ([]payroll.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elements[employeeID], nil
}

func (m *memStore) GetByID(ctx context.Context, periodID string, companyID string) (payroll.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[periodID]
	if !ok || p.CompanyID != companyID {
		return payroll.Period{}, payroll.ErrPeriodNotFound
	}
	return p, nil
}

func (m *memStore) LockForRun(ctx context.Context, periodID string, companyID string) (payroll.Period, error) {
	m.mu.Lock()
	m.lockCalls++
	m.mu.Unlock()
	return m.GetByID(ctx, periodID, companyID)
}

func (m *memStore) MarkClosed(ctx context.Context, periodID string, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[periodID]
	if !ok || p.CompanyID != companyID {
		return payroll.ErrPeriodNotFound
	}
	now := time.Now()
	p.IsClosed = true
	p.ClosedAt = &now
	m.periods[periodID] = p
	return nil
}

func (m *memStore) DeleteForPeriod(ctx context.Context, periodID string, companyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	kept := m.payslips[:0:0]
	for _, p := range m.payslips {
		if p.PayrollPeriodID == periodID && p.CompanyID == companyID {
			continue
		}
		kept = append(kept, p)
	}
	m.payslips = kept
	return nil
}

func (m *memStore) Insert(ctx context.Context, payslip payroll.Payslip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertOn != "" && payslip.EmployeeID == m.failInsertOn {
		return errors.New("insert rejected")
	}
	m.payslips = append(m.payslips, payslip)
	return nil
}

func (m *memStore) ListByPeriod(ctx context.Context, periodID string, companyID string) ([]payroll.Payslip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range m.payslips {
		if p.PayrollPeriodID == periodID && p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CountByPeriod(ctx context.Context, periodID string, companyID string) (int, error) {
	list, err := m.ListByPeriod(ctx, periodID, companyID)
	return len(list), err
}

// outbox.Repository

func (m *memStore) Create(ctx context.Context, event outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) ListPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	return nil, nil
}

func (m *memStore) MarkSent(ctx context.Context, id string) error { return nil }

func (m *memStore) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

func (m *memStore) payslipsFor(periodID string) []payroll.Payslip {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range m.payslips {
		if p.PayrollPeriodID == periodID {
			out = append(out, p)
		}
	}
	return out
}

// fakeRates is a statutory.RateProvider with fixed values.
type fakeRates struct {
	rate        *statutory.StatutoryRate
	bands       statutory.TaxBandTable
	withholding map[string]decimal.Decimal
	bandYears   []int
}

func (f *fakeRates) GetCurrentStatutoryRate(ctx context.Context) (statutory.StatutoryRate, error) {
	if f.rate == nil {
		return statutory.StatutoryRate{}, statutory.ErrNoRateConfigured
	}
	return *f.rate, nil
}

func (f *fakeRates) GetTaxBands(ctx context.Context, year int, periodicity statutory.Periodicity) (statutory.TaxBandTable, error) {
	f.bandYears = append(f.bandYears, year)
	if len(f.bands) == 0 {
		return nil, statutory.ErrNoBandsConfigured
	}
	return f.bands, nil
}

func (f *fakeRates) GetWithholdingRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	if f.withholding == nil {
		return map[string]decimal.Decimal{}, nil
	}
	return f.withholding, nil
}

// standardBands is 0-500 @ 0%, 500+ @ 10% for 2025.
func standardBands() statutory.TaxBandTable {
	return statutory.TaxBandTable{
		{ID: "band-1", BandStart: dec("0"), BandEnd: decPtr("500"), Rate: dec("0"), TaxYear: 2025, Periodicity: statutory.PeriodicityMonthly},
		{ID: "band-2", BandStart: dec("500"), Rate: dec("0.10"), TaxYear: 2025, Periodicity: statutory.PeriodicityMonthly},
	}
}

func standardRate() *statutory.StatutoryRate {
	return &statutory.StatutoryRate{ID: "rate-1", EmployeeRate: dec("0.055"), EmployerRate: dec("0.105")}
}

const (
	testCompany = "company-1"
	testPeriod  = "0195c1a2-3b4c-7d5e-8f60-0123456789ab"
)

func openPeriod() payroll.Period {
	return payroll.Period{
		ID:        testPeriod,
		CompanyID: testCompany,
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func activeEmployee(id, salary string) employee.Employee {
	return employee.Employee{
		ID:               id,
		CompanyID:        testCompany,
		EmployeeCode:     "EMP-" + id,
		FullName:         "Employee " + id,
		EmploymentType:   employee.EmploymentTypePermanent,
		EmploymentStatus: employee.EmploymentStatusActive,
		BaseSalary:       decPtr(salary),
	}
}
