// Package directory holds the slice of student and staff records the billing
// and payroll engines read. The directories themselves are maintained by
// other systems; this service only keeps the fields it needs.
package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// Student is an enrolled student as seen by billing
type Student struct {
	shared.TenantAggregateRoot
	Name         string
	ClassGroupID uuid.UUID
	RouteID      *uuid.UUID
	// OptionalFeeGroupIDs are the version groups of optional fees the student opted into
	OptionalFeeGroupIDs []uuid.UUID
	Active              bool
}

// NewStudent creates an active student record with a caller-supplied id
func NewStudent(tenantID, id uuid.UUID, name string, classGroupID uuid.UUID) (*Student, error) {
	s := &Student{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID), Active: true}
	s.ID = id
	if err := s.Update(name, classGroupID, nil, nil, true); err != nil {
		return nil, err
	}
	s.Version = 1
	return s, nil
}

// Update replaces the billing-relevant fields
func (s *Student) Update(name string, classGroupID uuid.UUID, routeID *uuid.UUID, optionalFeeGroupIDs []uuid.UUID, active bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("student name is required")
	}
	if classGroupID == uuid.Nil {
		return shared.NewValidationError("class group is required")
	}
	s.Name = name
	s.ClassGroupID = classGroupID
	s.RouteID = routeID
	s.OptionalFeeGroupIDs = optionalFeeGroupIDs
	s.Active = active
	s.IncrementVersion()
	return nil
}

// Teacher is a staff member as seen by payroll
type Teacher struct {
	shared.TenantAggregateRoot
	Name   string
	Active bool
}

// NewTeacher creates an active teacher record with a caller-supplied id
func NewTeacher(tenantID, id uuid.UUID, name string) (*Teacher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("teacher name is required")
	}
	t := &Teacher{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID), Name: name, Active: true}
	t.ID = id
	return t, nil
}

// Update replaces the payroll-relevant fields
func (t *Teacher) Update(name string, active bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("teacher name is required")
	}
	t.Name = name
	t.Active = active
	t.IncrementVersion()
	return nil
}

// TeacherAttendance is the monthly absence summary from the attendance system
type TeacherAttendance struct {
	TenantID    uuid.UUID
	TeacherID   uuid.UUID
	Month       int
	Year        int
	WorkingDays int
	AbsentDays  int
}

// Validate checks the day counts
func (a TeacherAttendance) Validate() error {
	if a.WorkingDays < 0 || a.AbsentDays < 0 {
		return shared.NewValidationError("day counts cannot be negative")
	}
	if a.AbsentDays > a.WorkingDays {
		return shared.NewValidationError("absent days cannot exceed working days")
	}
	_, err := shared.NewPeriod(a.Month, a.Year)
	return err
}

// StudentRepository reads and maintains student records
type StudentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Student, error)
	// FindActive lists active students, optionally limited to one class group
	FindActive(ctx context.Context, tenantID uuid.UUID, classGroupID *uuid.UUID) ([]Student, error)
	Save(ctx context.Context, s *Student) error
}

// TeacherRepository reads and maintains teacher records
type TeacherRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Teacher, error)
	FindActive(ctx context.Context, tenantID uuid.UUID) ([]Teacher, error)
	FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Save(ctx context.Context, t *Teacher) error
}

// AttendanceRepository stores monthly attendance summaries
type AttendanceRepository interface {
	// Find returns the summary for the period or ErrNotFound
	Find(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*TeacherAttendance, error)
	Save(ctx context.Context, a *TeacherAttendance) error
}

// SchoolProvider enumerates the schools that have billing data
type SchoolProvider interface {
	ListSchoolIDs(ctx context.Context) ([]uuid.UUID, error)
}
