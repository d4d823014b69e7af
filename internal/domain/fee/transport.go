package fee

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransportRoute is a bus route students can be assigned to
type TransportRoute struct {
	shared.TenantAggregateRoot
	RouteName  string
	BusNumber  string
	Zone       string
	DistanceKM decimal.Decimal
}

// NewTransportRoute creates a new transport route
func NewTransportRoute(tenantID uuid.UUID, routeName, busNumber, zone string, distanceKM decimal.Decimal) (*TransportRoute, error) {
	routeName = strings.TrimSpace(routeName)
	if routeName == "" {
		return nil, shared.NewValidationError("route name is required")
	}
	if distanceKM.IsNegative() {
		return nil, shared.NewValidationError("distance cannot be negative")
	}
	return &TransportRoute{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RouteName:           routeName,
		BusNumber:           strings.TrimSpace(busNumber),
		Zone:                strings.TrimSpace(zone),
		DistanceKM:          distanceKM,
	}, nil
}

// TransportCharges are the three parts of a transport fee
type TransportCharges struct {
	BaseFee       decimal.Decimal
	EscortFee     decimal.Decimal
	FuelSurcharge decimal.Decimal
}

// Total sums the charges
func (c TransportCharges) Total() decimal.Decimal {
	return c.BaseFee.Add(c.EscortFee).Add(c.FuelSurcharge)
}

func (c TransportCharges) validate() error {
	if c.BaseFee.IsNegative() || c.EscortFee.IsNegative() || c.FuelSurcharge.IsNegative() {
		return shared.NewValidationError("transport charges cannot be negative")
	}
	return nil
}

// TransportFee is one version of the charge for a route
type TransportFee struct {
	shared.TenantAggregateRoot
	Versioning
	TransportCharges
	RouteID  uuid.UUID
	FeeCycle FeeCycle
	Notes    string
}

// NewTransportFee creates version 1 of a route's transport fee
func NewTransportFee(tenantID, routeID uuid.UUID, charges TransportCharges, cycle FeeCycle, effectiveFrom time.Time, notes string) (*TransportFee, error) {
	if routeID == uuid.Nil {
		return nil, shared.NewValidationError("route is required")
	}
	if err := charges.validate(); err != nil {
		return nil, err
	}
	if !cycle.IsValidForComponent() {
		return nil, shared.NewValidationError("invalid fee cycle for a transport fee")
	}
	return &TransportFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Versioning:          NewVersioning(effectiveFrom),
		TransportCharges:    charges,
		RouteID:             routeID,
		FeeCycle:            cycle,
		Notes:               notes,
	}, nil
}

// TransportHike holds the revised parts; nil parts carry over unchanged
type TransportHike struct {
	BaseFee       *decimal.Decimal
	EscortFee     *decimal.Decimal
	FuelSurcharge *decimal.Decimal
}

// Hike closes this version and returns the next one
func (f *TransportFee) Hike(h TransportHike, effectiveFrom time.Time, notes string) (*TransportFee, error) {
	charges := f.TransportCharges
	if h.BaseFee != nil {
		charges.BaseFee = *h.BaseFee
	}
	if h.EscortFee != nil {
		charges.EscortFee = *h.EscortFee
	}
	if h.FuelSurcharge != nil {
		charges.FuelSurcharge = *h.FuelSurcharge
	}
	if err := charges.validate(); err != nil {
		return nil, err
	}
	next, err := f.successor(effectiveFrom)
	if err != nil {
		return nil, err
	}
	f.IncrementVersion()

	hiked := &TransportFee{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.TenantID),
		Versioning:          next,
		TransportCharges:    charges,
		RouteID:             f.RouteID,
		FeeCycle:            f.FeeCycle,
		Notes:               notes,
	}
	hiked.AddDomainEvent(NewFeeHikeAppliedEvent(ComponentTransportFee, f.ID, hiked.ID, f.VersionGroupID, f.TenantID,
		f.Total(), charges.Total(), hiked.VersionNumber, hiked.EffectiveFrom))
	return hiked, nil
}
