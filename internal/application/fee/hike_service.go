package fee

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HikeService applies fee hikes. A hike closes the group's open version and
// inserts its successor in one transaction; a lost race is retried against
// the freshly loaded open version.
type HikeService struct {
	serviceBase
	classFees     fee.ClassFeeRepository
	transportFees fee.TransportFeeRepository
	optionalFees  fee.OptionalFeeRepository
}

// NewHikeService creates a new HikeService
func NewHikeService(
	classFees fee.ClassFeeRepository,
	transportFees fee.TransportFeeRepository,
	optionalFees fee.OptionalFeeRepository,
	opts ...ServiceOption,
) *HikeService {
	return &HikeService{
		serviceBase:   newServiceBase(opts),
		classFees:     classFees,
		transportFees: transportFees,
		optionalFees:  optionalFees,
	}
}

// HikeClassFee applies a hike to the class fee group containing id
func (s *HikeService) HikeClassFee(ctx context.Context, tenantID, id uuid.UUID, req HikeRequest) (*ClassFeeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_hike", "class_fee")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrComponentID, id.String(),
		telemetry.SpanAttrEffectiveFrom, req.EffectiveFrom,
	)

	from, err := shared.ParseDate(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	selected, err := s.classFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var hiked *fee.ClassFee
	err = s.retry(ctx, span, fee.ComponentClassFee, func() error {
		open, err := s.classFees.FindOpen(ctx, tenantID, selected.VersionGroupID)
		if err != nil {
			return err
		}
		next, err := open.Hike(amountOf(req.NewAmount), from, req.Notes)
		if err != nil {
			return err
		}
		if err := s.classFees.ApplyHike(ctx, open, next); err != nil {
			return err
		}
		hiked = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hikeApplied(ctx, tenantID, fee.ComponentClassFee, hiked.VersionGroupID, hiked.VersionNumber)
	s.publish(ctx, hiked)
	resp := ToClassFeeResponse(hiked)
	return &resp, nil
}

// HikeTransportFee applies a hike to the transport fee group containing id.
// Charges omitted from the request carry over.
func (s *HikeService) HikeTransportFee(ctx context.Context, tenantID, id uuid.UUID, req TransportHikeRequest) (*TransportFeeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_hike", "transport_fee")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrComponentID, id.String(),
		telemetry.SpanAttrEffectiveFrom, req.EffectiveFrom,
	)

	if req.BaseFee == nil && req.EscortFee == nil && req.FuelSurcharge == nil {
		return nil, shared.NewValidationError("at least one of base_fee, escort_fee or fuel_surcharge is required")
	}
	from, err := shared.ParseDate(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	selected, err := s.transportFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	change := fee.TransportHike{BaseFee: req.BaseFee, EscortFee: req.EscortFee, FuelSurcharge: req.FuelSurcharge}
	var hiked *fee.TransportFee
	err = s.retry(ctx, span, fee.ComponentTransportFee, func() error {
		open, err := s.transportFees.FindOpen(ctx, tenantID, selected.VersionGroupID)
		if err != nil {
			return err
		}
		next, err := open.Hike(change, from, req.Notes)
		if err != nil {
			return err
		}
		if err := s.transportFees.ApplyHike(ctx, open, next); err != nil {
			return err
		}
		hiked = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hikeApplied(ctx, tenantID, fee.ComponentTransportFee, hiked.VersionGroupID, hiked.VersionNumber)
	s.publish(ctx, hiked)
	resp := ToTransportFeeResponse(hiked)
	return &resp, nil
}

// HikeOptionalFee applies a hike to the optional fee group containing id
func (s *HikeService) HikeOptionalFee(ctx context.Context, tenantID, id uuid.UUID, req HikeRequest) (*OptionalFeeResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fee_hike", "optional_fee")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrComponentID, id.String(),
		telemetry.SpanAttrEffectiveFrom, req.EffectiveFrom,
	)

	from, err := shared.ParseDate(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	selected, err := s.optionalFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var hiked *fee.OptionalFee
	err = s.retry(ctx, span, fee.ComponentOptionalFee, func() error {
		open, err := s.optionalFees.FindOpen(ctx, tenantID, selected.VersionGroupID)
		if err != nil {
			return err
		}
		next, err := open.Hike(amountOf(req.NewAmount), from, req.Notes)
		if err != nil {
			return err
		}
		if err := s.optionalFees.ApplyHike(ctx, open, next); err != nil {
			return err
		}
		hiked = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hikeApplied(ctx, tenantID, fee.ComponentOptionalFee, hiked.VersionGroupID, hiked.VersionNumber)
	s.publish(ctx, hiked)
	resp := ToOptionalFeeResponse(hiked)
	return &resp, nil
}

func (s *HikeService) retry(ctx context.Context, span trace.Span, kind fee.ComponentKind, attempt func() error) error {
	err := shared.RetryOnConflict(ctx, s.retries, func(n int) error {
		telemetry.SetAttribute(span, telemetry.SpanAttrAttempt, n+1)
		err := attempt()
		if shared.IsDomainCode(err, shared.CodeConcurrentModification) {
			s.metrics.RecordConflict(ctx, "hike_"+string(kind))
			s.logger.Debug("Hike lost a concurrent update, retrying", zap.Int("attempt", n+1))
		}
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

func (s *HikeService) hikeApplied(ctx context.Context, tenantID uuid.UUID, kind fee.ComponentKind, groupID uuid.UUID, version int) {
	s.metrics.RecordHike(ctx, tenantID, string(kind))
	s.logger.Info("Fee hike applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("component", string(kind)),
		zap.String("version_group_id", groupID.String()),
		zap.Int("version_number", version))
}
