// Package directory loads the student and teacher records that billing and
// payroll read. It keeps only the fields those engines need.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DirectoryService maintains students, teachers and attendance summaries
type DirectoryService struct {
	students   directory.StudentRepository
	teachers   directory.TeacherRepository
	attendance directory.AttendanceRepository
	logger     *zap.Logger
	// reports holds unpaid salary reports, which embed teacher names
	reports shared.TenantCache
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	students directory.StudentRepository,
	teachers directory.TeacherRepository,
	attendance directory.AttendanceRepository,
	logger *zap.Logger,
) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		students:   students,
		teachers:   teachers,
		attendance: attendance,
		logger:     logger,
	}
}

// SetReportCache sets the cache dropped when a teacher changes
func (s *DirectoryService) SetReportCache(cache shared.TenantCache) {
	s.reports = cache
}

// UpsertStudent creates the student or replaces its fields
func (s *DirectoryService) UpsertStudent(ctx context.Context, tenantID, id uuid.UUID, req UpsertStudentRequest) (*StudentResponse, error) {
	student, err := s.students.FindByIDForTenant(ctx, tenantID, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if student, err = directory.NewStudent(tenantID, id, req.Name, req.ClassGroupID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := student.Update(req.Name, req.ClassGroupID, req.RouteID, dedupe(req.OptionalFeeIDs), activeOr(req.Active, student.Active)); err != nil {
		return nil, err
	}
	if err := s.students.Save(ctx, student); err != nil {
		return nil, err
	}

	s.logger.Debug("Student upserted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("student_id", id.String()),
		zap.Bool("active", student.Active))
	resp := ToStudentResponse(student)
	return &resp, nil
}

// GetStudent retrieves a student
func (s *DirectoryService) GetStudent(ctx context.Context, tenantID, id uuid.UUID) (*StudentResponse, error) {
	student, err := s.students.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToStudentResponse(student)
	return &resp, nil
}

// UpsertTeacher creates the teacher or replaces its fields
func (s *DirectoryService) UpsertTeacher(ctx context.Context, tenantID, id uuid.UUID, req UpsertTeacherRequest) (*TeacherResponse, error) {
	teacher, err := s.teachers.FindByIDForTenant(ctx, tenantID, id)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if teacher, err = directory.NewTeacher(tenantID, id, req.Name); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := teacher.Update(req.Name, activeOr(req.Active, teacher.Active)); err != nil {
		return nil, err
	}
	if err := s.teachers.Save(ctx, teacher); err != nil {
		return nil, err
	}
	if s.reports != nil {
		if err := s.reports.InvalidateTenant(ctx, tenantID); err != nil {
			s.logger.Warn("Failed to invalidate unpaid salary report cache",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
	}
	resp := ToTeacherResponse(teacher)
	return &resp, nil
}

// GetTeacher retrieves a teacher
func (s *DirectoryService) GetTeacher(ctx context.Context, tenantID, id uuid.UUID) (*TeacherResponse, error) {
	teacher, err := s.teachers.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTeacherResponse(teacher)
	return &resp, nil
}

// UpsertAttendance records the teacher's attendance summary for one month
func (s *DirectoryService) UpsertAttendance(ctx context.Context, tenantID, teacherID uuid.UUID, req UpsertAttendanceRequest) (*AttendanceResponse, error) {
	if _, err := s.teachers.FindByIDForTenant(ctx, tenantID, teacherID); err != nil {
		return nil, err
	}
	a := &directory.TeacherAttendance{
		TenantID:    tenantID,
		TeacherID:   teacherID,
		Month:       req.Month,
		Year:        req.Year,
		WorkingDays: req.WorkingDays,
		AbsentDays:  req.AbsentDays,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.attendance.Save(ctx, a); err != nil {
		return nil, err
	}
	return &AttendanceResponse{
		TeacherID:   teacherID,
		Month:       a.Month,
		Year:        a.Year,
		WorkingDays: a.WorkingDays,
		AbsentDays:  a.AbsentDays,
	}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
