package payroll

import (
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeSalaryGenerated      = "SalaryGenerated"
	EventTypeSalaryStatusChanged  = "SalaryStatusChanged"
	EventTypeSalaryPaymentApplied = "SalaryPaymentApplied"
)

// SalaryEvent is implemented by every payroll event so subscribers can
// invalidate per-teacher state without switching on concrete types.
type SalaryEvent interface {
	shared.DomainEvent
	Teacher() uuid.UUID
}

// SalaryGeneratedEvent is raised when a record is created or recomputed
type SalaryGeneratedEvent struct {
	shared.EventHeader
	TeacherID uuid.UUID       `json:"teacher_id"`
	Period    shared.Period   `json:"period"`
	NetSalary decimal.Decimal `json:"net_salary"`
}

// NewSalaryGeneratedEvent creates a SalaryGeneratedEvent
func NewSalaryGeneratedEvent(r *SalaryRecord) *SalaryGeneratedEvent {
	return &SalaryGeneratedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSalaryGenerated, shared.AggregateSalaryRecord, r.ID, r.TenantID),
		TeacherID:   r.TeacherID,
		Period:      r.Period(),
		NetSalary:   r.NetSalary,
	}
}

func (e *SalaryGeneratedEvent) Teacher() uuid.UUID { return e.TeacherID }

// BillingPeriod implements shared.PeriodEvent
func (e *SalaryGeneratedEvent) BillingPeriod() shared.Period { return e.Period }

// SalaryStatusChangedEvent is raised on approve and mark-paid
type SalaryStatusChangedEvent struct {
	shared.EventHeader
	TeacherID uuid.UUID    `json:"teacher_id"`
	From      SalaryStatus `json:"from"`
	To        SalaryStatus `json:"to"`
}

// NewSalaryStatusChangedEvent creates a SalaryStatusChangedEvent
func NewSalaryStatusChangedEvent(r *SalaryRecord, from SalaryStatus) *SalaryStatusChangedEvent {
	return &SalaryStatusChangedEvent{
		EventHeader: shared.NewEventHeader(EventTypeSalaryStatusChanged, shared.AggregateSalaryRecord, r.ID, r.TenantID),
		TeacherID:   r.TeacherID,
		From:        from,
		To:          r.Status,
	}
}

func (e *SalaryStatusChangedEvent) Teacher() uuid.UUID { return e.TeacherID }

// SalaryPaymentAppliedEvent is raised when cash or credit is applied
type SalaryPaymentAppliedEvent struct {
	shared.EventHeader
	TeacherID     uuid.UUID       `json:"teacher_id"`
	Cash          decimal.Decimal `json:"cash"`
	Credit        decimal.Decimal `json:"credit"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
}

// NewSalaryPaymentAppliedEvent creates a SalaryPaymentAppliedEvent
func NewSalaryPaymentAppliedEvent(r *SalaryRecord, cash, credit decimal.Decimal) *SalaryPaymentAppliedEvent {
	return &SalaryPaymentAppliedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeSalaryPaymentApplied, shared.AggregateSalaryRecord, r.ID, r.TenantID),
		TeacherID:     r.TeacherID,
		Cash:          cash,
		Credit:        credit,
		PendingAmount: r.PendingAmount,
	}
}

func (e *SalaryPaymentAppliedEvent) Teacher() uuid.UUID { return e.TeacherID }
