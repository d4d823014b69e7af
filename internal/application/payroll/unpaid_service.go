package payroll

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// UnpaidService reports outstanding salary per teacher
type UnpaidService struct {
	serviceBase
	records  payroll.SalaryRecordRepository
	teachers directory.TeacherRepository
}

// NewUnpaidService creates a new UnpaidService. Configure the cache with
// WithReportCache; without one every call hits the database.
func NewUnpaidService(records payroll.SalaryRecordRepository, teachers directory.TeacherRepository, opts ...ServiceOption) *UnpaidService {
	return &UnpaidService{
		serviceBase: newServiceBase(opts),
		records:     records,
		teachers:    teachers,
	}
}

// ListUnpaid returns one page of teachers with pending salary in the scope's window
func (s *UnpaidService) ListUnpaid(ctx context.Context, tenantID uuid.UUID, query UnpaidQuery) (*payroll.UnpaidReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "salary", "list_unpaid")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTenantID, tenantID.String())

	scope, err := payroll.ParseTimeScope(query.TimeScope)
	if err != nil {
		return nil, err
	}
	page := shared.Filter{Page: query.Page, PageSize: query.PageSize}.Normalize()
	today := s.today()
	// the window moves with the calendar month, so it is part of the key
	key := fmt.Sprintf("unpaid:%s:%s:%d:%d", scope, shared.PeriodOf(today), page.Page, page.PageSize)

	if report, ok := s.cached(ctx, tenantID, key); ok {
		return report, nil
	}

	from, to := scope.Window(today, s.academicYearStart)
	records, err := s.records.FindUnpaidInWindow(ctx, tenantID, from, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	names, err := s.teacherNames(ctx, tenantID, records)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	teachers, summary := payroll.AggregateUnpaid(records, names, today)

	report := &payroll.UnpaidReport{
		Scope:    scope,
		From:     from,
		To:       to,
		Summary:  summary,
		Teachers: pageOf(teachers, page),
		Total:    int64(len(teachers)),
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	s.store(ctx, tenantID, key, report)
	return report, nil
}

func (s *UnpaidService) teacherNames(ctx context.Context, tenantID uuid.UUID, records []payroll.SalaryRecord) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for i := range records {
		id := records[i].TeacherID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	return s.teachers.FindNames(ctx, tenantID, ids)
}

func pageOf(teachers []payroll.UnpaidTeacher, f shared.Filter) []payroll.UnpaidTeacher {
	start := f.Offset()
	if start >= len(teachers) {
		return []payroll.UnpaidTeacher{}
	}
	end := min(start+f.PageSize, len(teachers))
	return teachers[start:end]
}

// cached reads a report from the cache. Cache failures fall through to the
// database.
func (s *UnpaidService) cached(ctx context.Context, tenantID uuid.UUID, key string) (*payroll.UnpaidReport, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, tenantID, key)
	if err != nil {
		s.logger.Warn("Unpaid report cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var report payroll.UnpaidReport
	if err := json.Unmarshal(raw, &report); err != nil {
		s.logger.Warn("Discarding undecodable cached unpaid report", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &report, true
}

func (s *UnpaidService) store(ctx context.Context, tenantID uuid.UUID, key string, report *payroll.UnpaidReport) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("Failed to encode unpaid report", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, tenantID, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("Unpaid report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
