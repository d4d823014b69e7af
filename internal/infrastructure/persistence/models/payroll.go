package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// SalaryStructureModel stores one version of a teacher's pay
type SalaryStructureModel struct {
	TenantAggregateModel
	TeacherID                uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_salary_structures_open,where:effective_to IS NULL"`
	BaseSalary               decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	HRA                      decimal.Decimal     `gorm:"column:hra;type:decimal(18,4);not null;default:0"`
	OtherAllowances          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	FixedDeductions          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	SalaryCycle              payroll.SalaryCycle `gorm:"type:varchar(20);not null;default:'monthly'"`
	AttendanceBasedDeduction bool                `gorm:"not null;default:false"`
	EffectiveFrom            time.Time           `gorm:"type:date;not null"`
	EffectiveTo              *time.Time          `gorm:"type:date"`
	VersionNumber            int                 `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (SalaryStructureModel) TableName() string {
	return "salary_structures"
}

// ToDomain converts the persistence model to a domain SalaryStructure
func (m *SalaryStructureModel) ToDomain() *payroll.SalaryStructure {
	return &payroll.SalaryStructure{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		SalaryComponents: payroll.SalaryComponents{
			BaseSalary:      m.BaseSalary,
			HRA:             m.HRA,
			OtherAllowances: m.OtherAllowances,
			FixedDeductions: m.FixedDeductions,
		},
		TeacherID:                m.TeacherID,
		SalaryCycle:              m.SalaryCycle,
		AttendanceBasedDeduction: m.AttendanceBasedDeduction,
		EffectiveFrom:            utcDate(m.EffectiveFrom),
		EffectiveTo:              utcDatePtr(m.EffectiveTo),
		VersionNumber:            m.VersionNumber,
	}
}

// FromDomain populates the persistence model from a domain SalaryStructure
func (m *SalaryStructureModel) FromDomain(s *payroll.SalaryStructure) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.TeacherID = s.TeacherID
	m.BaseSalary = s.BaseSalary
	m.HRA = s.HRA
	m.OtherAllowances = s.OtherAllowances
	m.FixedDeductions = s.FixedDeductions
	m.SalaryCycle = s.SalaryCycle
	m.AttendanceBasedDeduction = s.AttendanceBasedDeduction
	m.EffectiveFrom = s.EffectiveFrom
	m.EffectiveTo = s.EffectiveTo
	m.VersionNumber = s.VersionNumber
}

// SalaryStructureModelFromDomain creates a new persistence model from a domain SalaryStructure
func SalaryStructureModelFromDomain(s *payroll.SalaryStructure) *SalaryStructureModel {
	m := &SalaryStructureModel{}
	m.FromDomain(s)
	return m
}

// SalaryRecordModel is the persistence model for the SalaryRecord aggregate root.
// teacher ids are unique across schools, so (teacher, year, month) is the key.
type SalaryRecordModel struct {
	TenantAggregateModel
	TeacherID           uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_salary_records_teacher_period,priority:1"`
	StructureID         uuid.UUID            `gorm:"type:uuid;not null"`
	Month               int                  `gorm:"not null;uniqueIndex:idx_salary_records_teacher_period,priority:3;index:idx_salary_records_period,priority:2"`
	Year                int                  `gorm:"not null;uniqueIndex:idx_salary_records_teacher_period,priority:2;index:idx_salary_records_period,priority:1"`
	PeriodStart         time.Time            `gorm:"type:date;not null"`
	PeriodEnd           time.Time            `gorm:"type:date;not null"`
	BaseSalary          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	HRA                 decimal.Decimal      `gorm:"column:hra;type:decimal(18,4);not null"`
	OtherAllowances     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	FixedDeductions     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	GrossSalary         decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AttendanceDeduction decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalDeductions     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	NetSalary           decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	WorkingDays         int                  `gorm:"not null;default:0"`
	AbsentDays          int                  `gorm:"not null;default:0"`
	PaidAmount          decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	CreditApplied       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PendingAmount       decimal.Decimal      `gorm:"type:decimal(18,4);not null;index"`
	Status              payroll.SalaryStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovedAt          *time.Time
	PaymentDate         *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (SalaryRecordModel) TableName() string {
	return "salary_records"
}

// ToDomain converts the persistence model to a domain SalaryRecord
func (m *SalaryRecordModel) ToDomain() *payroll.SalaryRecord {
	return &payroll.SalaryRecord{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		TeacherID:           m.TeacherID,
		StructureID:         m.StructureID,
		Month:               m.Month,
		Year:                m.Year,
		PeriodStart:         utcDate(m.PeriodStart),
		PeriodEnd:           utcDate(m.PeriodEnd),
		SalaryComponents: payroll.SalaryComponents{
			BaseSalary:      m.BaseSalary,
			HRA:             m.HRA,
			OtherAllowances: m.OtherAllowances,
			FixedDeductions: m.FixedDeductions,
		},
		SalaryComputation: payroll.SalaryComputation{
			GrossSalary:         m.GrossSalary,
			AttendanceDeduction: m.AttendanceDeduction,
			TotalDeductions:     m.TotalDeductions,
			NetSalary:           m.NetSalary,
			WorkingDays:         m.WorkingDays,
			AbsentDays:          m.AbsentDays,
		},
		PaidAmount:    m.PaidAmount,
		CreditApplied: m.CreditApplied,
		PendingAmount: m.PendingAmount,
		Status:        m.Status,
		ApprovedAt:    m.ApprovedAt,
		PaymentDate:   utcDatePtr(m.PaymentDate),
	}
}

// FromDomain populates the persistence model from a domain SalaryRecord
func (m *SalaryRecordModel) FromDomain(r *payroll.SalaryRecord) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.TeacherID = r.TeacherID
	m.StructureID = r.StructureID
	m.Month = r.Month
	m.Year = r.Year
	m.PeriodStart = r.PeriodStart
	m.PeriodEnd = r.PeriodEnd
	m.BaseSalary = r.BaseSalary
	m.HRA = r.HRA
	m.OtherAllowances = r.OtherAllowances
	m.FixedDeductions = r.FixedDeductions
	m.GrossSalary = r.GrossSalary
	m.AttendanceDeduction = r.AttendanceDeduction
	m.TotalDeductions = r.TotalDeductions
	m.NetSalary = r.NetSalary
	m.WorkingDays = r.WorkingDays
	m.AbsentDays = r.AbsentDays
	m.PaidAmount = r.PaidAmount
	m.CreditApplied = r.CreditApplied
	m.PendingAmount = r.PendingAmount
	m.Status = r.Status
	m.ApprovedAt = r.ApprovedAt
	m.PaymentDate = r.PaymentDate
}

// SalaryRecordModelFromDomain creates a new persistence model from a domain SalaryRecord
func SalaryRecordModelFromDomain(r *payroll.SalaryRecord) *SalaryRecordModel {
	m := &SalaryRecordModel{}
	m.FromDomain(r)
	return m
}
