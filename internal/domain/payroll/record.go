package payroll

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SalaryStatus is the approval state of a salary record
type SalaryStatus string

const (
	SalaryStatusPending  SalaryStatus = "pending"
	SalaryStatusApproved SalaryStatus = "approved"
	SalaryStatusPaid     SalaryStatus = "paid"
)

// IsValid checks if the status is known
func (s SalaryStatus) IsValid() bool {
	switch s {
	case SalaryStatusPending, SalaryStatusApproved, SalaryStatusPaid:
		return true
	}
	return false
}

// SalaryRecord is the snapshot of one teacher's pay for one month.
// There is at most one record per teacher and period.
type SalaryRecord struct {
	shared.TenantAggregateRoot
	TeacherID   uuid.UUID
	StructureID uuid.UUID
	Month       int
	Year        int
	PeriodStart time.Time
	PeriodEnd   time.Time
	SalaryComponents
	SalaryComputation
	PaidAmount    decimal.Decimal
	CreditApplied decimal.Decimal
	PendingAmount decimal.Decimal
	Status        SalaryStatus
	ApprovedAt    *time.Time
	PaymentDate   *time.Time
}

// NewSalaryRecord creates a pending record from a computation
func NewSalaryRecord(tenantID uuid.UUID, period shared.Period, s *SalaryStructure, comp SalaryComputation) *SalaryRecord {
	r := &SalaryRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TeacherID:           s.TeacherID,
		Month:               period.Month,
		Year:                period.Year,
		PeriodStart:         period.Start(),
		PeriodEnd:           period.End(),
		PaidAmount:          decimal.Zero,
		CreditApplied:       decimal.Zero,
		Status:              SalaryStatusPending,
	}
	r.snapshot(s, comp)
	r.AddDomainEvent(NewSalaryGeneratedEvent(r))
	return r
}

// Period returns the record's month
func (r *SalaryRecord) Period() shared.Period {
	return shared.Period{Month: r.Month, Year: r.Year}
}

// Regenerate refreshes the computed fields after a structure or attendance
// change. Payment fields are kept; a paid record is frozen.
func (r *SalaryRecord) Regenerate(s *SalaryStructure, comp SalaryComputation) error {
	if r.Status == SalaryStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState, "A paid salary record cannot be regenerated")
	}
	if comp.NetSalary.LessThan(r.EffectivePaid()) {
		return shared.NewDomainError(shared.CodeOverpaymentRejected,
			fmt.Sprintf("Recomputed net salary %s is below the %s already paid", comp.NetSalary.StringFixed(2), r.EffectivePaid().StringFixed(2)))
	}
	r.snapshot(s, comp)
	r.IncrementVersion()
	r.AddDomainEvent(NewSalaryGeneratedEvent(r))
	return nil
}

func (r *SalaryRecord) snapshot(s *SalaryStructure, comp SalaryComputation) {
	r.StructureID = s.ID
	r.SalaryComponents = s.SalaryComponents
	r.SalaryComputation = comp
	r.PendingAmount = comp.NetSalary.Sub(r.EffectivePaid())
}

// EffectivePaid is cash paid plus credit applied
func (r *SalaryRecord) EffectivePaid() decimal.Decimal {
	return r.PaidAmount.Add(r.CreditApplied)
}

// Approve moves a pending record to approved
func (r *SalaryRecord) Approve(at time.Time) error {
	if r.Status != SalaryStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Only pending salary records can be approved, current status is %s", r.Status))
	}
	r.Status = SalaryStatusApproved
	r.ApprovedAt = &at
	r.IncrementVersion()
	r.AddDomainEvent(NewSalaryStatusChangedEvent(r, SalaryStatusPending))
	return nil
}

// MarkPaid moves an approved record to paid
func (r *SalaryRecord) MarkPaid(paymentDate time.Time) error {
	if r.Status != SalaryStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Only approved salary records can be marked paid, current status is %s", r.Status))
	}
	if paymentDate.IsZero() {
		return shared.NewValidationError("payment date is required")
	}
	d := shared.DateOf(paymentDate)
	r.Status = SalaryStatusPaid
	r.PaymentDate = &d
	r.IncrementVersion()
	r.AddDomainEvent(NewSalaryStatusChangedEvent(r, SalaryStatusApproved))
	return nil
}

// ApplyPayment records cash and credit against an approved record
func (r *SalaryRecord) ApplyPayment(cash, credit decimal.Decimal) error {
	if cash.IsNegative() || credit.IsNegative() {
		return shared.NewValidationError("cash and credit amounts cannot be negative")
	}
	total := cash.Add(credit)
	if !total.IsPositive() {
		return shared.NewValidationError("payment must be greater than zero")
	}
	if r.Status != SalaryStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Only approved salary records can take payments, current status is %s", r.Status))
	}
	if total.GreaterThan(r.PendingAmount) {
		return shared.NewDomainError(shared.CodeOverpaymentRejected,
			fmt.Sprintf("Payment of %s exceeds the pending amount of %s", total.StringFixed(2), r.PendingAmount.StringFixed(2)))
	}
	r.PaidAmount = r.PaidAmount.Add(cash)
	r.CreditApplied = r.CreditApplied.Add(credit)
	r.PendingAmount = r.NetSalary.Sub(r.EffectivePaid())
	r.IncrementVersion()
	r.AddDomainEvent(NewSalaryPaymentAppliedEvent(r, cash, credit))
	return nil
}

// IsUnpaid reports whether anything is still pending
func (r *SalaryRecord) IsUnpaid() bool {
	return r.PendingAmount.IsPositive()
}
