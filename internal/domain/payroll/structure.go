package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SalaryCycle is the pay frequency of a structure
type SalaryCycle string

const (
	SalaryCycleMonthly  SalaryCycle = "monthly"
	SalaryCycleWeekly   SalaryCycle = "weekly"
	SalaryCycleBiweekly SalaryCycle = "biweekly"
)

// IsValid checks if the cycle is known
func (c SalaryCycle) IsValid() bool {
	switch c {
	case SalaryCycleMonthly, SalaryCycleWeekly, SalaryCycleBiweekly:
		return true
	}
	return false
}

// ParseSalaryCycle parses a salary cycle, defaulting to monthly when empty
func ParseSalaryCycle(s string) (SalaryCycle, error) {
	if strings.TrimSpace(s) == "" {
		return SalaryCycleMonthly, nil
	}
	c := SalaryCycle(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ""))
	if !c.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("unknown salary cycle %q", s))
	}
	return c, nil
}

// SalaryComponents are the monetary parts of a structure
type SalaryComponents struct {
	BaseSalary      decimal.Decimal
	HRA             decimal.Decimal
	OtherAllowances decimal.Decimal
	FixedDeductions decimal.Decimal
}

// Gross is base + HRA + allowances
func (c SalaryComponents) Gross() decimal.Decimal {
	return c.BaseSalary.Add(c.HRA).Add(c.OtherAllowances)
}

func (c SalaryComponents) validate() error {
	if !c.BaseSalary.IsPositive() {
		return shared.NewValidationError("base salary must be greater than zero")
	}
	if c.HRA.IsNegative() || c.OtherAllowances.IsNegative() || c.FixedDeductions.IsNegative() {
		return shared.NewValidationError("salary components cannot be negative")
	}
	return nil
}

// SalaryStructure is one version of a teacher's pay. Versions of a teacher
// chain like fee components: each EffectiveTo is the next EffectiveFrom.
type SalaryStructure struct {
	shared.TenantAggregateRoot
	SalaryComponents
	TeacherID                uuid.UUID
	SalaryCycle              SalaryCycle
	AttendanceBasedDeduction bool
	EffectiveFrom            time.Time
	EffectiveTo              *time.Time
	VersionNumber            int
}

// NewSalaryStructure creates a teacher's first structure
func NewSalaryStructure(tenantID, teacherID uuid.UUID, comps SalaryComponents, cycle SalaryCycle, attendanceBased bool, effectiveFrom time.Time) (*SalaryStructure, error) {
	if teacherID == uuid.Nil {
		return nil, shared.NewValidationError("teacher is required")
	}
	if err := comps.validate(); err != nil {
		return nil, err
	}
	if !cycle.IsValid() {
		return nil, shared.NewValidationError("invalid salary cycle")
	}
	return &SalaryStructure{
		TenantAggregateRoot:      shared.NewTenantAggregateRoot(tenantID),
		SalaryComponents:         comps,
		TeacherID:                teacherID,
		SalaryCycle:              cycle,
		AttendanceBasedDeduction: attendanceBased,
		EffectiveFrom:            shared.DateOf(effectiveFrom),
		VersionNumber:            1,
	}, nil
}

// Correct overwrites the current version in place
func (s *SalaryStructure) Correct(comps SalaryComponents, cycle SalaryCycle, attendanceBased bool) error {
	if err := comps.validate(); err != nil {
		return err
	}
	if !cycle.IsValid() {
		return shared.NewValidationError("invalid salary cycle")
	}
	s.SalaryComponents = comps
	s.SalaryCycle = cycle
	s.AttendanceBasedDeduction = attendanceBased
	s.IncrementVersion()
	return nil
}

// Supersede closes this version at effectiveFrom and returns the next one
func (s *SalaryStructure) Supersede(comps SalaryComponents, cycle SalaryCycle, attendanceBased bool, effectiveFrom time.Time) (*SalaryStructure, error) {
	if s.EffectiveTo != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Only the current salary structure can be superseded")
	}
	effectiveFrom = shared.DateOf(effectiveFrom)
	if !effectiveFrom.After(s.EffectiveFrom) {
		return nil, shared.ErrInvalidEffectiveDate
	}
	next, err := NewSalaryStructure(s.TenantID, s.TeacherID, comps, cycle, attendanceBased, effectiveFrom)
	if err != nil {
		return nil, err
	}
	next.VersionNumber = s.VersionNumber + 1

	closedAt := effectiveFrom
	s.EffectiveTo = &closedAt
	s.IncrementVersion()
	return next, nil
}

// Covers is the half-open test from <= d < to
func (s *SalaryStructure) Covers(d time.Time) bool {
	d = shared.DateOf(d)
	if d.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || d.Before(*s.EffectiveTo)
}
