package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClassFee is one version of the amount charged to a class group for a category
type ClassFee struct {
	shared.TenantAggregateRoot
	Versioning
	ClassGroupID  uuid.UUID
	FeeCategoryID uuid.UUID
	Amount        decimal.Decimal
	FeeCycle      FeeCycle
	DueDay        int
	Notes         string
}

// NewClassFee creates version 1 of a class fee
func NewClassFee(
	tenantID, classGroupID, categoryID uuid.UUID,
	amount decimal.Decimal,
	cycle FeeCycle,
	dueDay int,
	effectiveFrom time.Time,
	notes string,
) (*ClassFee, error) {
	if classGroupID == uuid.Nil {
		return nil, shared.NewValidationError("class group is required")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewValidationError("fee category is required")
	}
	if err := validateAmount(amount, "amount"); err != nil {
		return nil, err
	}
	if !cycle.IsValidForComponent() {
		return nil, shared.NewValidationError("invalid fee cycle for a class fee")
	}
	if dueDay < 1 || dueDay > 28 {
		return nil, shared.NewValidationError("due day must be between 1 and 28")
	}
	return &ClassFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Versioning:          NewVersioning(effectiveFrom),
		ClassGroupID:        classGroupID,
		FeeCategoryID:       categoryID,
		Amount:              amount,
		FeeCycle:            cycle,
		DueDay:              dueDay,
		Notes:               notes,
	}, nil
}

// Hike closes this version at effectiveFrom and returns the next version
// carrying newAmount. The receiver's aggregate version is incremented so the
// repository can detect a concurrent hike.
func (f *ClassFee) Hike(newAmount decimal.Decimal, effectiveFrom time.Time, notes string) (*ClassFee, error) {
	if err := validateAmount(newAmount, "new amount"); err != nil {
		return nil, err
	}
	next, err := f.successor(effectiveFrom)
	if err != nil {
		return nil, err
	}
	f.IncrementVersion()

	hiked := &ClassFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.TenantID),
		Versioning:          next,
		ClassGroupID:        f.ClassGroupID,
		FeeCategoryID:       f.FeeCategoryID,
		Amount:              newAmount,
		FeeCycle:            f.FeeCycle,
		DueDay:              f.DueDay,
		Notes:               notes,
	}
	hiked.AddDomainEvent(NewFeeHikeAppliedEvent(ComponentClassFee, f.ID, hiked.ID, f.VersionGroupID, f.TenantID,
		f.Amount, newAmount, hiked.VersionNumber, hiked.EffectiveFrom))
	return hiked, nil
}

func validateAmount(amount decimal.Decimal, field string) error {
	if amount.IsNegative() {
		return shared.NewValidationError(field + " cannot be negative")
	}
	return nil
}
