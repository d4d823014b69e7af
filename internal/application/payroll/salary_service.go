package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SalaryRepositories groups the repositories SalaryService reads and writes
type SalaryRepositories struct {
	Structures payroll.SalaryStructureRepository
	Records    payroll.SalaryRecordRepository
	Teachers   directory.TeacherRepository
	Attendance directory.AttendanceRepository
}

// SalaryService generates monthly salary records and moves them through
// approval and payment
type SalaryService struct {
	serviceBase
	repos SalaryRepositories
}

// NewSalaryService creates a new SalaryService
func NewSalaryService(repos SalaryRepositories, opts ...ServiceOption) *SalaryService {
	return &SalaryService{
		serviceBase: newServiceBase(opts),
		repos:       repos,
	}
}

// GenerateSalary computes one teacher's record for the period. Running it
// again recomputes the record in place and keeps what was already paid.
func (s *SalaryService) GenerateSalary(ctx context.Context, tenantID, teacherID uuid.UUID, month, year int) (*SalaryRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary", "generate")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrTeacherID, teacherID.String(),
	)

	period, err := shared.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPeriod, period.String())

	if _, err := s.repos.Teachers.FindByIDForTenant(ctx, tenantID, teacherID); err != nil {
		return nil, err
	}
	record, err := s.generate(ctx, tenantID, teacherID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidateReports(ctx, tenantID)

	resp := ToSalaryRecordResponse(record)
	return &resp, nil
}

// GenerateSalaries generates the period's record for every active teacher.
// Each teacher is processed on its own; failures are collected and do not
// stop the run.
func (s *SalaryService) GenerateSalaries(ctx context.Context, tenantID uuid.UUID, month, year int) (*GenerateSalariesResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary", "generate_batch")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())
	started := time.Now()

	period, err := shared.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrPeriod, period.String())

	teachers, err := s.repos.Teachers.FindActive(ctx, tenantID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &GenerateSalariesResult{Period: period.String(), Failures: []GenerationFailure{}}
	for i := range teachers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		teacher := &teachers[i]
		if _, err := s.generate(ctx, tenantID, teacher.ID, period); err != nil {
			result.Failures = append(result.Failures, toGenerationFailure(teacher.ID, err))
			s.metrics.RecordSalary(ctx, tenantID, telemetry.OutcomeFailed)
			s.logger.Warn("Salary generation failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("teacher_id", teacher.ID.String()),
				zap.String("period", period.String()),
				zap.Error(err))
			continue
		}
		result.RecordsGenerated++
	}
	if result.RecordsGenerated > 0 {
		s.invalidateReports(ctx, tenantID)
	}

	s.metrics.RecordBatch(ctx, "generate_salaries", time.Since(started))
	s.logger.Info("Salary generation finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.String()),
		zap.Int("teachers", len(teachers)),
		zap.Int("generated", result.RecordsGenerated),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}

// generate upserts the (teacher, period) record from the structure effective
// at the period start and the teacher's attendance
func (s *SalaryService) generate(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*payroll.SalaryRecord, error) {
	structure, err := s.repos.Structures.FindEffective(ctx, tenantID, teacherID, period.Start())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "No salary structure is effective for "+period.String())
		}
		return nil, err
	}

	att := payroll.Attendance{}
	summary, err := s.repos.Attendance.Find(ctx, tenantID, teacherID, period)
	switch {
	case err == nil:
		att = payroll.Attendance{WorkingDays: summary.WorkingDays, AbsentDays: summary.AbsentDays}
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	comp := payroll.ComputeSalary(structure, att)

	var record *payroll.SalaryRecord
	outcome := telemetry.OutcomeCreated
	err = shared.RetryOnConflict(ctx, s.retries, func(attempt int) error {
		existing, err := s.repos.Records.FindByTeacherPeriod(ctx, tenantID, teacherID, period)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing == nil {
			created := payroll.NewSalaryRecord(tenantID, period, structure, comp)
			if err := s.repos.Records.Create(ctx, created); err != nil {
				// lost the insert race; the next attempt regenerates the winner
				if errors.Is(err, payroll.ErrRecordAlreadyExists) {
					return shared.ErrConcurrentModification
				}
				return err
			}
			record = created
			return nil
		}

		if err := existing.Regenerate(structure, comp); err != nil {
			return err
		}
		if err := s.repos.Records.SaveWithLock(ctx, existing); err != nil {
			return s.conflict(ctx, "generate_salary", err, attempt)
		}
		record, outcome = existing, telemetry.OutcomeRegenerated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSalary(ctx, tenantID, outcome)
	s.publish(ctx, record)
	return record, nil
}

// Approve moves a pending record to approved
func (s *SalaryService) Approve(ctx context.Context, tenantID, id uuid.UUID) (*SalaryRecordResponse, error) {
	return s.transition(ctx, tenantID, id, "approve", func(r *payroll.SalaryRecord) error {
		return r.Approve(s.now())
	})
}

// MarkPaid moves an approved record to paid
func (s *SalaryService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID, req MarkPaidRequest) (*SalaryRecordResponse, error) {
	if req.PaymentDate == "" {
		return nil, shared.NewValidationError("payment date is required")
	}
	paymentDate, err := shared.ParseDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, tenantID, id, "mark_paid", func(r *payroll.SalaryRecord) error {
		return r.MarkPaid(paymentDate)
	})
}

func (s *SalaryService) transition(ctx context.Context, tenantID, id uuid.UUID, op string, apply func(*payroll.SalaryRecord) error) (*SalaryRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary", op)
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrRecordID, id.String(),
	)

	var record *payroll.SalaryRecord
	err := shared.RetryOnConflict(ctx, s.retries, func(attempt int) error {
		r, err := s.repos.Records.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := apply(r); err != nil {
			return err
		}
		if err := s.repos.Records.SaveWithLock(ctx, r); err != nil {
			return s.conflict(ctx, op, err, attempt)
		}
		record = r
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Salary record status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("record_id", id.String()),
		zap.String("status", string(record.Status)))
	s.publish(ctx, record)

	resp := ToSalaryRecordResponse(record)
	return &resp, nil
}

// ApplyPayment applies cash and adjusted credit against the record's pending amount
func (s *SalaryService) ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, req SalaryPaymentRequest) (*SalaryRecordResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary", "apply_payment")
	defer span.End()
	cash, credit := amountOf(req.CashAmount), amountOf(req.CreditAmount)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrRecordID, id.String(),
		telemetry.SpanAttrAmount, cash.Add(credit).String(),
	)

	var record *payroll.SalaryRecord
	err := shared.RetryOnConflict(ctx, s.retries, func(attempt int) error {
		telemetry.SetAttribute(span, telemetry.SpanAttrAttempt, attempt+1)
		r, err := s.repos.Records.FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := r.ApplyPayment(cash, credit); err != nil {
			return err
		}
		if err := s.repos.Records.SaveWithLock(ctx, r); err != nil {
			return s.conflict(ctx, "apply_salary_payment", err, attempt)
		}
		record = r
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSalaryPayment(ctx, tenantID)
	s.logger.Info("Salary payment applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("record_id", id.String()),
		zap.String("cash", cash.StringFixed(2)),
		zap.String("credit", credit.StringFixed(2)),
		zap.String("pending", record.PendingAmount.StringFixed(2)))
	s.invalidateReports(ctx, tenantID)
	s.publish(ctx, record)

	resp := ToSalaryRecordResponse(record)
	return &resp, nil
}

func (s *SalaryService) conflict(ctx context.Context, op string, err error, attempt int) error {
	if errors.Is(err, shared.ErrConcurrentModification) {
		s.metrics.RecordConflict(ctx, op)
		s.logger.Debug("Salary record lost a concurrent update, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1))
	}
	return err
}

// GetRecord retrieves a salary record
func (s *SalaryService) GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*SalaryRecordResponse, error) {
	r, err := s.repos.Records.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalaryRecordResponse(r)
	return &resp, nil
}

// ListRecords lists salary records matching the filter
func (s *SalaryService) ListRecords(ctx context.Context, tenantID uuid.UUID, filter RecordListFilter) ([]SalaryRecordResponse, int64, error) {
	domainFilter := filter.toDomain()
	records, err := s.repos.Records.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Records.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]SalaryRecordResponse, len(records))
	for i := range records {
		responses[i] = ToSalaryRecordResponse(&records[i])
	}
	return responses, total, nil
}

func toGenerationFailure(id uuid.UUID, err error) GenerationFailure {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return GenerationFailure{TeacherID: id, Code: de.Code, Reason: de.Message}
	}
	return GenerationFailure{TeacherID: id, Code: "INTERNAL_ERROR", Reason: "internal error"}
}
