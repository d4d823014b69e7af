package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeFeeHikeApplied     = "FeeHikeApplied"
	EventTypeFeeBillGenerated   = "FeeBillGenerated"
	EventTypeFeePaymentRecorded = "FeePaymentRecorded"
	EventTypeFeeBillPaid        = "FeeBillPaid"
)

// ComponentKind names a versioned catalog component
type ComponentKind string

const (
	ComponentClassFee     ComponentKind = "class_fee"
	ComponentTransportFee ComponentKind = "transport_fee"
	ComponentOptionalFee  ComponentKind = "optional_fee"
)

// FeeHikeAppliedEvent is raised when a component gets a new version
type FeeHikeAppliedEvent struct {
	shared.EventHeader
	Component      ComponentKind   `json:"component"`
	PreviousID     uuid.UUID       `json:"previous_id"`
	VersionGroupID uuid.UUID       `json:"version_group_id"`
	OldAmount      decimal.Decimal `json:"old_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	VersionNumber  int             `json:"version_number"`
	EffectiveFrom  time.Time       `json:"effective_from"`
}

// NewFeeHikeAppliedEvent creates a FeeHikeAppliedEvent
func NewFeeHikeAppliedEvent(kind ComponentKind, previousID, newID, groupID, tenantID uuid.UUID, oldAmount, newAmount decimal.Decimal, versionNumber int, from time.Time) *FeeHikeAppliedEvent {
	return &FeeHikeAppliedEvent{
		EventHeader:    shared.NewEventHeader(EventTypeFeeHikeApplied, string(kind), newID, tenantID),
		Component:      kind,
		PreviousID:     previousID,
		VersionGroupID: groupID,
		OldAmount:      oldAmount,
		NewAmount:      newAmount,
		VersionNumber:  versionNumber,
		EffectiveFrom:  from,
	}
}

// FeeBillGeneratedEvent is raised when a bill is created or regenerated.
// It carries the full snapshot so subscribers can archive it.
type FeeBillGeneratedEvent struct {
	shared.EventHeader
	BillNumber string          `json:"bill_number"`
	StudentID  uuid.UUID       `json:"student_id"`
	Period     shared.Period   `json:"period"`
	NetAmount  decimal.Decimal `json:"net_amount"`
	Items      BillItems       `json:"items"`
}

// NewFeeBillGeneratedEvent creates a FeeBillGeneratedEvent
func NewFeeBillGeneratedEvent(b *FeeBill) *FeeBillGeneratedEvent {
	return &FeeBillGeneratedEvent{
		EventHeader: shared.NewEventHeader(EventTypeFeeBillGenerated, shared.AggregateFeeBill, b.ID, b.TenantID),
		BillNumber:  b.BillNumber,
		StudentID:   b.StudentID,
		Period:      b.Period(),
		NetAmount:   b.NetAmount,
		Items:       b.Items,
	}
}

// BillingPeriod implements shared.PeriodEvent
func (e *FeeBillGeneratedEvent) BillingPeriod() shared.Period { return e.Period }

// FeePaymentRecordedEvent is raised for every payment applied to a bill
type FeePaymentRecordedEvent struct {
	shared.EventHeader
	PaymentID   uuid.UUID       `json:"payment_id"`
	StudentID   uuid.UUID       `json:"student_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	Balance     decimal.Decimal `json:"balance"`
}

// NewFeePaymentRecordedEvent creates a FeePaymentRecordedEvent
func NewFeePaymentRecordedEvent(b *FeeBill, p *FeePayment) *FeePaymentRecordedEvent {
	return &FeePaymentRecordedEvent{
		EventHeader: shared.NewEventHeader(EventTypeFeePaymentRecorded, shared.AggregateFeeBill, b.ID, b.TenantID),
		PaymentID:   p.ID,
		StudentID:   b.StudentID,
		AmountPaid:  p.AmountPaid,
		PaymentMode: p.PaymentMode,
		Balance:     b.Balance,
	}
}

// FeeBillPaidEvent is raised when a bill's balance reaches zero
type FeeBillPaidEvent struct {
	shared.EventHeader
	BillNumber string          `json:"bill_number"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
}

// NewFeeBillPaidEvent creates a FeeBillPaidEvent
func NewFeeBillPaidEvent(b *FeeBill) *FeeBillPaidEvent {
	return &FeeBillPaidEvent{
		EventHeader: shared.NewEventHeader(EventTypeFeeBillPaid, shared.AggregateFeeBill, b.ID, b.TenantID),
		BillNumber:  b.BillNumber,
		TotalPaid:   b.TotalPaid,
	}
}
