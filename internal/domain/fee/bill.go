package fee

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillStatus is the payment state of a bill
type BillStatus string

const (
	BillStatusPending       BillStatus = "pending"
	BillStatusPartiallyPaid BillStatus = "partially_paid"
	BillStatusPaid          BillStatus = "paid"
	// BillStatusOverdue is never persisted; it is reported by EffectiveStatus
	// for unpaid bills past their due date.
	BillStatusOverdue BillStatus = "overdue"
)

// IsValid checks if the status is known
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPartiallyPaid, BillStatusPaid, BillStatusOverdue:
		return true
	}
	return false
}

// rank orders the persisted statuses so transitions can be checked for regression
func (s BillStatus) rank() int {
	switch s {
	case BillStatusPartiallyPaid:
		return 1
	case BillStatusPaid:
		return 2
	}
	return 0
}

// ItemSource names the catalog table a bill line came from
type ItemSource string

const (
	SourceClassFee     ItemSource = "class_fee"
	SourceTransportFee ItemSource = "transport_fee"
	SourceOptionalFee  ItemSource = "optional_fee"
	SourceCustomFee    ItemSource = "custom_fee"
)

// BillItem is one line of a bill. Amount is signed.
type BillItem struct {
	Name     string          `json:"item_name"`
	Amount   decimal.Decimal `json:"amount"`
	Source   ItemSource      `json:"source"`
	SourceID uuid.UUID       `json:"source_id"`
	Kind     string          `json:"kind,omitempty"`
}

// BillItems is stored as JSONB
type BillItems []BillItem

// Value implements driver.Valuer
func (items BillItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (items *BillItems) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*items = BillItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan BillItems: unsupported type")
	}
	if len(raw) == 0 {
		*items = BillItems{}
		return nil
	}
	return json.Unmarshal(raw, items)
}

// FeeBill is the immutable snapshot of what a student owes for one period.
// Only TotalPaid, Balance, Status and PaidAt change after generation.
type FeeBill struct {
	shared.TenantAggregateRoot
	StudentID         uuid.UUID
	ClassGroupID      uuid.UUID
	RouteID           *uuid.UUID
	BillNumber        string
	BillDate          time.Time
	PeriodMonth       int
	PeriodYear        int
	PeriodStart       time.Time
	PeriodEnd         time.Time
	DueDate           time.Time
	Items             BillItems
	ClassFeesTotal    decimal.Decimal
	TransportFeeTotal decimal.Decimal
	OptionalFeesTotal decimal.Decimal
	CustomFeesTotal   decimal.Decimal
	FineTotal         decimal.Decimal
	GrossAmount       decimal.Decimal
	DiscountAmount    decimal.Decimal
	ScholarshipAmount decimal.Decimal
	NetAmount         decimal.Decimal
	TotalPaid         decimal.Decimal
	Balance           decimal.Decimal
	Status            BillStatus
	PaidAt            *time.Time
}

// NewFeeBill creates a pending bill from a composition
func NewFeeBill(tenantID, studentID, classGroupID uuid.UUID, routeID *uuid.UUID, billNumber string, comp *BillComposition, billDate time.Time) (*FeeBill, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("student is required")
	}
	if comp == nil {
		return nil, shared.NewValidationError("bill composition is required")
	}
	b := &FeeBill{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StudentID:           studentID,
		ClassGroupID:        classGroupID,
		RouteID:             routeID,
		BillNumber:          billNumber,
		Status:              BillStatusPending,
		TotalPaid:           decimal.Zero,
	}
	b.applyComposition(comp, billDate)
	b.AddDomainEvent(NewFeeBillGeneratedEvent(b))
	return b, nil
}

// Regenerate replaces the snapshot with a fresh composition. Only bills
// without payments may be regenerated.
func (b *FeeBill) Regenerate(comp *BillComposition, routeID *uuid.UUID, billDate time.Time) error {
	if b.TotalPaid.IsPositive() {
		return ErrBillHasPayments
	}
	b.RouteID = routeID
	b.Status = BillStatusPending
	b.PaidAt = nil
	b.applyComposition(comp, billDate)
	b.IncrementVersion()
	b.AddDomainEvent(NewFeeBillGeneratedEvent(b))
	return nil
}

func (b *FeeBill) applyComposition(comp *BillComposition, billDate time.Time) {
	b.BillDate = shared.DateOf(billDate)
	b.PeriodMonth = comp.Period.Month
	b.PeriodYear = comp.Period.Year
	b.PeriodStart = comp.Period.Start()
	b.PeriodEnd = comp.Period.End()
	b.DueDate = comp.DueDate
	b.Items = comp.Items
	b.ClassFeesTotal = comp.ClassFeesTotal
	b.TransportFeeTotal = comp.TransportFeeTotal
	b.OptionalFeesTotal = comp.OptionalFeesTotal
	b.CustomFeesTotal = comp.CustomFeesTotal
	b.FineTotal = comp.FineTotal
	b.GrossAmount = comp.GrossAmount
	b.DiscountAmount = comp.DiscountAmount
	b.ScholarshipAmount = comp.ScholarshipAmount
	b.NetAmount = comp.NetAmount
	b.Balance = b.NetAmount.Sub(b.TotalPaid)
	// nothing to collect on a fully waived bill
	if b.NetAmount.IsZero() {
		paidAt := b.BillDate
		b.Status = BillStatusPaid
		b.PaidAt = &paidAt
	}
}

// Period returns the billing period
func (b *FeeBill) Period() shared.Period {
	return shared.Period{Month: b.PeriodMonth, Year: b.PeriodYear}
}

// ApplyPayment adds amount to TotalPaid and moves the status forward.
// Amounts above the balance are rejected and leave the bill unchanged.
func (b *FeeBill) ApplyPayment(payment *FeePayment) error {
	if payment == nil {
		return shared.NewValidationError("payment is required")
	}
	amount := payment.AmountPaid
	if !amount.IsPositive() {
		return shared.NewValidationError("payment amount must be positive")
	}
	if amount.GreaterThan(b.Balance) {
		return shared.NewDomainError(shared.CodeOverpaymentRejected,
			fmt.Sprintf("Payment of %s exceeds the outstanding balance of %s", amount.StringFixed(2), b.Balance.StringFixed(2)))
	}

	b.TotalPaid = b.TotalPaid.Add(amount)
	b.Balance = b.NetAmount.Sub(b.TotalPaid)
	b.advanceStatus(payment.PaymentDate)
	b.IncrementVersion()

	b.AddDomainEvent(NewFeePaymentRecordedEvent(b, payment))
	if b.Status == BillStatusPaid {
		b.AddDomainEvent(NewFeeBillPaidEvent(b))
	}
	return nil
}

// advanceStatus recomputes the status from TotalPaid without ever regressing
func (b *FeeBill) advanceStatus(paidOn time.Time) {
	next := BillStatusPending
	switch {
	case b.TotalPaid.GreaterThanOrEqual(b.NetAmount):
		next = BillStatusPaid
	case b.TotalPaid.IsPositive():
		next = BillStatusPartiallyPaid
	}
	if next.rank() < b.Status.rank() {
		return
	}
	if next == BillStatusPaid && b.Status != BillStatusPaid {
		t := paidOn
		b.PaidAt = &t
	}
	b.Status = next
}

// IsOverdue reports whether the bill is unpaid and past its due date
func (b *FeeBill) IsOverdue(now time.Time) bool {
	if b.Status == BillStatusPaid {
		return false
	}
	return shared.DateOf(now).After(b.DueDate)
}

// EffectiveStatus layers overdue on top of the persisted status
func (b *FeeBill) EffectiveStatus(now time.Time) BillStatus {
	if b.IsOverdue(now) {
		return BillStatusOverdue
	}
	return b.Status
}

// DaysOverdue returns how many days past due the bill is, or 0
func (b *FeeBill) DaysOverdue(now time.Time) int {
	if !b.IsOverdue(now) {
		return 0
	}
	return int(shared.DateOf(now).Sub(b.DueDate).Hours() / 24)
}
