package fee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OptionalFee is a school-wide fee students opt into (clubs, excursions...).
// Opt-ins reference the VersionGroupID so they survive hikes.
type OptionalFee struct {
	shared.TenantAggregateRoot
	Versioning
	Name          string
	DefaultAmount decimal.Decimal
	FeeCycle      FeeCycle
	Notes         string
}

// NewOptionalFee creates version 1 of an optional fee
func NewOptionalFee(tenantID uuid.UUID, name string, amount decimal.Decimal, cycle FeeCycle, effectiveFrom time.Time, notes string) (*OptionalFee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("optional fee name is required")
	}
	if err := validateAmount(amount, "default amount"); err != nil {
		return nil, err
	}
	if !cycle.IsValidForComponent() {
		return nil, shared.NewValidationError("invalid fee cycle for an optional fee")
	}
	return &OptionalFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Versioning:          NewVersioning(effectiveFrom),
		Name:                name,
		DefaultAmount:       amount,
		FeeCycle:            cycle,
		Notes:               notes,
	}, nil
}

// Hike closes this version and returns the next one
func (f *OptionalFee) Hike(newAmount decimal.Decimal, effectiveFrom time.Time, notes string) (*OptionalFee, error) {
	if err := validateAmount(newAmount, "new amount"); err != nil {
		return nil, err
	}
	next, err := f.successor(effectiveFrom)
	if err != nil {
		return nil, err
	}
	f.IncrementVersion()

	hiked := &OptionalFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.TenantID),
		Versioning:          next,
		Name:                f.Name,
		DefaultAmount:       newAmount,
		FeeCycle:            f.FeeCycle,
		Notes:               notes,
	}
	hiked.AddDomainEvent(NewFeeHikeAppliedEvent(ComponentOptionalFee, f.ID, hiked.ID, f.VersionGroupID, f.TenantID,
		f.DefaultAmount, newAmount, hiked.VersionNumber, hiked.EffectiveFrom))
	return hiked, nil
}
