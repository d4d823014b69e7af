package directory

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
)

// UpsertStudentRequest carries the billing-relevant fields of a student.
// OptionalFeeIDs are optional fee version groups (version_group_id), so an
// opt-in survives fee hikes.
type UpsertStudentRequest struct {
	Name           string      `json:"name" binding:"required,min=1,max=200"`
	ClassGroupID   uuid.UUID   `json:"class_group_id" binding:"required"`
	RouteID        *uuid.UUID  `json:"route_id"`
	OptionalFeeIDs []uuid.UUID `json:"optional_fee_ids"`
	Active         *bool       `json:"active"`
}

// StudentResponse represents a student record
type StudentResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	ClassGroupID   uuid.UUID   `json:"class_group_id"`
	RouteID        *uuid.UUID  `json:"route_id,omitempty"`
	OptionalFeeIDs []uuid.UUID `json:"optional_fee_ids"`
	Active         bool        `json:"active"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ToStudentResponse converts a domain student to a response
func ToStudentResponse(s *directory.Student) StudentResponse {
	ids := s.OptionalFeeGroupIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return StudentResponse{
		ID:             s.ID,
		Name:           s.Name,
		ClassGroupID:   s.ClassGroupID,
		RouteID:        s.RouteID,
		OptionalFeeIDs: ids,
		Active:         s.Active,
		UpdatedAt:      s.UpdatedAt,
	}
}

// UpsertTeacherRequest carries the payroll-relevant fields of a teacher
type UpsertTeacherRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=200"`
	Active *bool  `json:"active"`
}

// TeacherResponse represents a teacher record
type TeacherResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToTeacherResponse converts a domain teacher to a response
func ToTeacherResponse(t *directory.Teacher) TeacherResponse {
	return TeacherResponse{ID: t.ID, Name: t.Name, Active: t.Active, UpdatedAt: t.UpdatedAt}
}

// UpsertAttendanceRequest is a monthly attendance summary
type UpsertAttendanceRequest struct {
	Month       int `json:"month" binding:"required,min=1,max=12"`
	Year        int `json:"year" binding:"required,min=2000,max=2200"`
	WorkingDays int `json:"working_days" binding:"min=0,max=31"`
	AbsentDays  int `json:"absent_days" binding:"min=0,max=31"`
}

// AttendanceResponse represents a monthly attendance summary
type AttendanceResponse struct {
	TeacherID   uuid.UUID `json:"teacher_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	WorkingDays int       `json:"working_days"`
	AbsentDays  int       `json:"absent_days"`
}

func activeOr(active *bool, fallback bool) bool {
	if active == nil {
		return fallback
	}
	return *active
}
