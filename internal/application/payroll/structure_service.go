package payroll

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StructureService maintains versioned salary structures
type StructureService struct {
	serviceBase
	structures payroll.SalaryStructureRepository
	teachers   directory.TeacherRepository
}

// NewStructureService creates a new StructureService
func NewStructureService(structures payroll.SalaryStructureRepository, teachers directory.TeacherRepository, opts ...ServiceOption) *StructureService {
	return &StructureService{
		serviceBase: newServiceBase(opts),
		structures:  structures,
		teachers:    teachers,
	}
}

// UpsertStructure sets the teacher's structure from effective_from on.
// The same date as the current version corrects it in place, a later date
// closes it and opens the next version, an earlier date is rejected.
func (s *StructureService) UpsertStructure(ctx context.Context, tenantID uuid.UUID, req UpsertStructureRequest) (*StructureResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary_structure", "upsert")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrTeacherID, req.TeacherID.String(),
	)

	if _, err := s.teachers.FindByIDForTenant(ctx, tenantID, req.TeacherID); err != nil {
		return nil, err
	}
	cycle, err := payroll.ParseSalaryCycle(req.SalaryCycle)
	if err != nil {
		return nil, err
	}
	effectiveFrom := s.today()
	if req.EffectiveFrom != "" {
		if effectiveFrom, err = shared.ParseDate(req.EffectiveFrom); err != nil {
			return nil, err
		}
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrEffectiveFrom, effectiveFrom.Format(shared.DateLayout))
	comps := req.components()

	var result *payroll.SalaryStructure
	err = shared.RetryOnConflict(ctx, s.retries, func(attempt int) error {
		current, err := s.structures.FindCurrent(ctx, tenantID, req.TeacherID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			created, err := payroll.NewSalaryStructure(tenantID, req.TeacherID, comps, cycle, req.AttendanceBasedDeduction, effectiveFrom)
			if err != nil {
				return err
			}
			if err := s.structures.Create(ctx, created); err != nil {
				return err
			}
			result = created
			return nil
		case err != nil:
			return err
		}

		if current.EffectiveFrom.Equal(effectiveFrom) {
			if err := current.Correct(comps, cycle, req.AttendanceBasedDeduction); err != nil {
				return err
			}
			if err := s.structures.SaveWithLock(ctx, current); err != nil {
				return s.conflict(ctx, err, attempt)
			}
			result = current
			return nil
		}

		next, err := current.Supersede(comps, cycle, req.AttendanceBasedDeduction, effectiveFrom)
		if err != nil {
			return err
		}
		if err := s.structures.Supersede(ctx, current, next); err != nil {
			return s.conflict(ctx, err, attempt)
		}
		result = next
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Salary structure saved",
		zap.String("tenant_id", tenantID.String()),
		zap.String("teacher_id", req.TeacherID.String()),
		zap.Int("version_number", result.VersionNumber),
		zap.String("effective_from", result.EffectiveFrom.Format(shared.DateLayout)))

	resp := ToStructureResponse(result)
	return &resp, nil
}

func (s *StructureService) conflict(ctx context.Context, err error, attempt int) error {
	if errors.Is(err, shared.ErrConcurrentModification) {
		s.metrics.RecordConflict(ctx, "upsert_salary_structure")
		s.logger.Debug("Salary structure lost a concurrent update, retrying", zap.Int("attempt", attempt+1))
	}
	return err
}

// GetCurrentStructure returns the teacher's open structure version
func (s *StructureService) GetCurrentStructure(ctx context.Context, tenantID, teacherID uuid.UUID) (*StructureResponse, error) {
	current, err := s.structures.FindCurrent(ctx, tenantID, teacherID)
	if err != nil {
		return nil, err
	}
	resp := ToStructureResponse(current)
	return &resp, nil
}

// ListStructureVersions returns every version of the teacher's structure, oldest first
func (s *StructureService) ListStructureVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]StructureResponse, error) {
	versions, err := s.structures.ListVersions(ctx, tenantID, teacherID)
	if err != nil {
		return nil, err
	}
	responses := make([]StructureResponse, len(versions))
	for i := range versions {
		responses[i] = ToStructureResponse(&versions[i])
	}
	return responses, nil
}
