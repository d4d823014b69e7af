package fee

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomFeeType classifies a per-student adjustment
type CustomFeeType string

const (
	CustomFeeAdditional  CustomFeeType = "additional"
	CustomFeeDiscount    CustomFeeType = "discount"
	CustomFeeScholarship CustomFeeType = "scholarship"
	CustomFeeConcession  CustomFeeType = "concession"
	CustomFeeFine        CustomFeeType = "fine"
	CustomFeeLateFee     CustomFeeType = "late_fee"
	CustomFeeWaiver      CustomFeeType = "waiver"
)

// IsValid checks if the type is known
func (t CustomFeeType) IsValid() bool {
	switch t {
	case CustomFeeAdditional, CustomFeeDiscount, CustomFeeScholarship, CustomFeeConcession,
		CustomFeeFine, CustomFeeLateFee, CustomFeeWaiver:
		return true
	}
	return false
}

// Reduces reports whether the type lowers the bill
func (t CustomFeeType) Reduces() bool {
	switch t {
	case CustomFeeDiscount, CustomFeeScholarship, CustomFeeConcession, CustomFeeWaiver:
		return true
	}
	return false
}

// ParseCustomFeeType accepts both snake_case and hyphenated spellings
func ParseCustomFeeType(s string) (CustomFeeType, error) {
	t := CustomFeeType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("unknown custom fee type %q", s))
	}
	return t, nil
}

// CustomFee is an ad-hoc adjustment layered onto every bill of one student
// while its cycle matches. Amount is signed: reducing types are stored
// negative, the rest positive.
//
// A one-time custom fee lands on the next bill generated for the student,
// whatever period that bill covers. AppliedBillID records that bill.
type CustomFee struct {
	shared.TenantAggregateRoot
	StudentID     uuid.UUID
	FeeType       CustomFeeType
	Description   string
	Amount        decimal.Decimal
	FeeCycle      FeeCycle
	Notes         string
	AppliedBillID *uuid.UUID
}

// AppliesToBill reports whether a one-time fee belongs on the bill being
// composed. billID is uuid.Nil for a bill that does not exist yet; a fee
// already taken by a bill stays with that bill when it is regenerated.
func (f *CustomFee) AppliesToBill(billID uuid.UUID) bool {
	if f.AppliedBillID == nil {
		return true
	}
	return billID != uuid.Nil && *f.AppliedBillID == billID
}

// NewCustomFee creates a custom fee, normalising the sign of amount by type
func NewCustomFee(
	tenantID, studentID uuid.UUID,
	feeType CustomFeeType,
	description string,
	amount decimal.Decimal,
	cycle FeeCycle,
	notes string,
) (*CustomFee, error) {
	if studentID == uuid.Nil {
		return nil, shared.NewValidationError("student is required")
	}
	if !feeType.IsValid() {
		return nil, shared.NewValidationError("invalid custom fee type")
	}
	if !cycle.IsValid() {
		return nil, shared.NewValidationError("invalid fee cycle")
	}
	if amount.IsZero() {
		return nil, shared.NewValidationError("custom fee amount cannot be zero")
	}
	amount = amount.Abs()
	if feeType.Reduces() {
		amount = amount.Neg()
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = string(feeType)
	}
	return &CustomFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StudentID:           studentID,
		FeeType:             feeType,
		Description:         description,
		Amount:              amount,
		FeeCycle:            cycle,
		Notes:               notes,
	}, nil
}
