package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== ELEMENTS ==========

func (r *payrollRepository) GetAssignedElements(ctx context.Context, employeeID string, companyID string) ([]payroll.Element, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT epe.id, epe.employee_id, pe.company_id, pe.name, pe.category,
			   epe.amount, pe.is_taxable, epe.effective_date, epe.end_date
		FROM employee_payroll_elements epe
		JOIN payroll_elements pe ON epe.payroll_element_id = pe.id
		JOIN employees e ON epe.employee_id = e.id
		WHERE epe.employee_id = $1 AND e.company_id = $2 AND pe.company_id = $2
			AND pe.is_active = true
			AND epe.effective_date <= CURRENT_DATE
			AND (epe.end_date IS NULL OR epe.end_date >= CURRENT_DATE)
		ORDER BY pe.category, pe.name
	`

	rows, err := q.Query(ctx, query, employeeID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll elements: %w", err)
	}
	defer rows.Close()

	var elements []payroll.Element
	for rows.Next() {
		var el payroll.Element
		if err := rows.Scan(
			&el.ID, &el.EmployeeID, &el.CompanyID, &el.Name, &el.Category,
			&el.Amount, &el.IsTaxable, &el.EffectiveDate, &el.EndDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll element: %w", err)
		}
		elements = append(elements, el)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll elements: %w", err)
	}

	return elements, nil
}

// ========== PERIODS ==========

const periodColumns = `id, company_id, start_date, end_date, is_closed, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (payroll.Period, error) {
	var p payroll.Period
	err := row.Scan(&p.ID, &p.CompanyID, &p.StartDate, &p.EndDate, &p.IsClosed, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Period{}, payroll.ErrPeriodNotFound
		}
		return payroll.Period{}, fmt.Errorf("failed to get payroll period: %w", err)
	}
	return p, nil
}

func (r *payrollRepository) GetByID(ctx context.Context, periodID string, companyID string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE id = $1 AND company_id = $2`

	return scanPeriod(q.QueryRow(ctx, query, periodID, companyID))
}

func (r *payrollRepository) LockForRun(ctx context.Context, periodID string, companyID string) (payroll.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE id = $1 AND company_id = $2 FOR UPDATE`

	return scanPeriod(q.QueryRow(ctx, query, periodID, companyID))
}

func (r *payrollRepository) MarkClosed(ctx context.Context, periodID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_periods
		SET is_closed = true, closed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND is_closed = false
	`

	result, err := q.Exec(ctx, query, periodID, companyID)
	if err != nil {
		return fmt.Errorf("failed to close payroll period: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payroll.ErrPeriodClosed
	}

	return nil
}

// ========== PAYSLIPS ==========

func (r *payrollRepository) DeleteForPeriod(ctx context.Context, periodID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM payslips WHERE payroll_period_id = $1 AND company_id = $2`

	if _, err := q.Exec(ctx, query, periodID, companyID); err != nil {
		return fmt.Errorf("failed to delete payslips: %w", err)
	}

	return nil
}

func (r *payrollRepository) Insert(ctx context.Context, p payroll.Payslip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payslips (
			id, employee_id, company_id, payroll_period_id, gross_pay,
			taxable_allowances, non_taxable_allowances, total_deductions, net_pay,
			paye_amount, employee_contribution, employer_contribution, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		p.ID, p.EmployeeID, p.CompanyID, p.PayrollPeriodID, p.GrossPay,
		p.TaxableAllowances, p.NonTaxableAllowances, p.TotalDeductions, p.NetPay,
		p.PayeAmount, p.EmployeeContribution, p.EmployerContribution, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payslip: %w", err)
	}

	return nil
}

func (r *payrollRepository) ListByPeriod(ctx context.Context, periodID string, companyID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ps.id, ps.employee_id, ps.company_id, ps.payroll_period_id, ps.gross_pay,
			   ps.taxable_allowances, ps.non_taxable_allowances, ps.total_deductions, ps.net_pay,
			   ps.paye_amount, ps.employee_contribution, ps.employer_contribution, ps.created_at,
			   e.full_name as employee_name, e.employee_code
		FROM payslips ps
		JOIN employees e ON ps.employee_id = e.id
		WHERE ps.payroll_period_id = $1 AND ps.company_id = $2
		ORDER BY e.full_name ASC
	`

	rows, err := q.Query(ctx, query, periodID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	var payslips []payroll.Payslip
	for rows.Next() {
		var p payroll.Payslip
		if err := rows.Scan(
			&p.ID, &p.EmployeeID, &p.CompanyID, &p.PayrollPeriodID, &p.GrossPay,
			&p.TaxableAllowances, &p.NonTaxableAllowances, &p.TotalDeductions, &p.NetPay,
			&p.PayeAmount, &p.EmployeeContribution, &p.EmployerContribution, &p.CreatedAt,
			&p.EmployeeName, &p.EmployeeCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payslips: %w", err)
	}

	return payslips, nil
}

func (r *payrollRepository) CountByPeriod(ctx context.Context, periodID string, companyID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM payslips WHERE payroll_period_id = $1 AND company_id = $2`,
		periodID, companyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payslips: %w", err)
	}

	return count, nil
}
