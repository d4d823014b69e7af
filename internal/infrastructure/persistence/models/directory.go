package models

import (
	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
)

// StudentModel is the billing view of a student
type StudentModel struct {
	TenantAggregateModel
	Name                string     `gorm:"type:varchar(200);not null"`
	ClassGroupID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	RouteID             *uuid.UUID `gorm:"type:uuid;index"`
	OptionalFeeGroupIDs UUIDList   `gorm:"column:optional_fee_group_ids;type:jsonb;not null"`
	Active              bool       `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (StudentModel) TableName() string {
	return "students"
}

// ToDomain converts the persistence model to a domain Student
func (m *StudentModel) ToDomain() *directory.Student {
	ids := []uuid.UUID(m.OptionalFeeGroupIDs)
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &directory.Student{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		ClassGroupID:        m.ClassGroupID,
		RouteID:             m.RouteID,
		OptionalFeeGroupIDs: ids,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain Student
func (m *StudentModel) FromDomain(s *directory.Student) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.ClassGroupID = s.ClassGroupID
	m.RouteID = s.RouteID
	m.OptionalFeeGroupIDs = UUIDList(s.OptionalFeeGroupIDs)
	m.Active = s.Active
}

// StudentModelFromDomain creates a new persistence model from a domain Student
func StudentModelFromDomain(s *directory.Student) *StudentModel {
	m := &StudentModel{}
	m.FromDomain(s)
	return m
}

// TeacherModel is the payroll view of a teacher
type TeacherModel struct {
	TenantAggregateModel
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (TeacherModel) TableName() string {
	return "teachers"
}

// ToDomain converts the persistence model to a domain Teacher
func (m *TeacherModel) ToDomain() *directory.Teacher {
	return &directory.Teacher{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain Teacher
func (m *TeacherModel) FromDomain(t *directory.Teacher) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.Name = t.Name
	m.Active = t.Active
}

// TeacherModelFromDomain creates a new persistence model from a domain Teacher
func TeacherModelFromDomain(t *directory.Teacher) *TeacherModel {
	m := &TeacherModel{}
	m.FromDomain(t)
	return m
}

// TeacherAttendanceModel stores one month of a teacher's attendance summary
type TeacherAttendanceModel struct {
	TeacherID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year        int       `gorm:"primaryKey;autoIncrement:false"`
	Month       int       `gorm:"primaryKey;autoIncrement:false"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	WorkingDays int       `gorm:"not null"`
	AbsentDays  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TeacherAttendanceModel) TableName() string {
	return "teacher_attendance"
}

// ToDomain converts the persistence model to a domain TeacherAttendance
func (m *TeacherAttendanceModel) ToDomain() *directory.TeacherAttendance {
	return &directory.TeacherAttendance{
		TenantID:    m.TenantID,
		TeacherID:   m.TeacherID,
		Month:       m.Month,
		Year:        m.Year,
		WorkingDays: m.WorkingDays,
		AbsentDays:  m.AbsentDays,
	}
}

// TeacherAttendanceModelFromDomain creates a new persistence model from a domain TeacherAttendance
func TeacherAttendanceModelFromDomain(a *directory.TeacherAttendance) *TeacherAttendanceModel {
	return &TeacherAttendanceModel{
		TeacherID:   a.TeacherID,
		Year:        a.Year,
		Month:       a.Month,
		TenantID:    a.TenantID,
		WorkingDays: a.WorkingDays,
		AbsentDays:  a.AbsentDays,
	}
}
