package events

import "time"

const (
	PayrollRunCompletedType  = "payroll.run.completed"
	PayrollRunAggregateType  = "payroll_period"
	PayrollRunCompletedTopic = "hr.payroll.run.completed.v1"
)

// PayrollRunCompletedEvent tells downstream consumers (payslip documents,
// notifications) that every payslip of the period was replaced. Payslip IDs
// from earlier runs of the same period no longer exist.
type PayrollRunCompletedEvent struct {
	EventType     string    `json:"event_type"`
	CompanyID     string    `json:"company_id"`
	PeriodID      string    `json:"period_id"`
	PayslipIDs    []string  `json:"payslip_ids"`
	EmployeeCount int       `json:"employee_count"`
	PeriodClosed  bool      `json:"period_closed"`
	RequestedBy   string    `json:"requested_by,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
