package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UpsertStructureRequest sets a teacher's salary structure from effective_from on
type UpsertStructureRequest struct {
	TeacherID                uuid.UUID        `json:"teacher_id" binding:"required"`
	BaseSalary               *decimal.Decimal `json:"base_salary" binding:"required"`
	HRA                      *decimal.Decimal `json:"hra"`
	OtherAllowances          *decimal.Decimal `json:"other_allowances"`
	FixedDeductions          *decimal.Decimal `json:"fixed_deductions"`
	SalaryCycle              string           `json:"salary_cycle" binding:"omitempty,oneof=monthly weekly biweekly"`
	AttendanceBasedDeduction bool             `json:"attendance_based_deduction"`
	EffectiveFrom            string           `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
}

func (r UpsertStructureRequest) components() payroll.SalaryComponents {
	return payroll.SalaryComponents{
		BaseSalary:      amountOf(r.BaseSalary),
		HRA:             amountOf(r.HRA),
		OtherAllowances: amountOf(r.OtherAllowances),
		FixedDeductions: amountOf(r.FixedDeductions),
	}
}

// StructureResponse represents one version of a salary structure
type StructureResponse struct {
	ID                       uuid.UUID       `json:"id"`
	TeacherID                uuid.UUID       `json:"teacher_id"`
	BaseSalary               decimal.Decimal `json:"base_salary"`
	HRA                      decimal.Decimal `json:"hra"`
	OtherAllowances          decimal.Decimal `json:"other_allowances"`
	FixedDeductions          decimal.Decimal `json:"fixed_deductions"`
	GrossSalary              decimal.Decimal `json:"gross_salary"`
	SalaryCycle              string          `json:"salary_cycle"`
	AttendanceBasedDeduction bool            `json:"attendance_based_deduction"`
	EffectiveFrom            string          `json:"effective_from"`
	EffectiveTo              *string         `json:"effective_to"`
	VersionNumber            int             `json:"version_number"`
	IsCurrent                bool            `json:"is_current"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// ToStructureResponse converts a domain structure to a response
func ToStructureResponse(s *payroll.SalaryStructure) StructureResponse {
	resp := StructureResponse{
		ID:                       s.ID,
		TeacherID:                s.TeacherID,
		BaseSalary:               s.BaseSalary,
		HRA:                      s.HRA,
		OtherAllowances:          s.OtherAllowances,
		FixedDeductions:          s.FixedDeductions,
		GrossSalary:              s.Gross(),
		SalaryCycle:              string(s.SalaryCycle),
		AttendanceBasedDeduction: s.AttendanceBasedDeduction,
		EffectiveFrom:            s.EffectiveFrom.Format(shared.DateLayout),
		VersionNumber:            s.VersionNumber,
		IsCurrent:                s.EffectiveTo == nil,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
	}
	if s.EffectiveTo != nil {
		to := s.EffectiveTo.Format(shared.DateLayout)
		resp.EffectiveTo = &to
	}
	return resp
}

// GenerateSalaryRequest generates one teacher's record, or every active
// teacher's when TeacherID is omitted
type GenerateSalaryRequest struct {
	TeacherID *uuid.UUID `json:"teacher_id"`
	Month     int        `json:"month" binding:"required,min=1,max=12"`
	Year      int        `json:"year" binding:"required,min=2000,max=2200"`
}

// GenerationFailure describes one teacher the batch could not process
type GenerationFailure struct {
	TeacherID uuid.UUID `json:"teacher_id"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}

// GenerateSalariesResult is the outcome of a batch run
type GenerateSalariesResult struct {
	Period           string              `json:"period"`
	RecordsGenerated int                 `json:"records_generated"`
	Failures         []GenerationFailure `json:"failures"`
}

// SalaryRecordResponse represents a monthly salary record
type SalaryRecordResponse struct {
	ID                  uuid.UUID       `json:"id"`
	TeacherID           uuid.UUID       `json:"teacher_id"`
	StructureID         uuid.UUID       `json:"structure_id"`
	Month               int             `json:"month"`
	Year                int             `json:"year"`
	PeriodStart         string          `json:"period_start"`
	PeriodEnd           string          `json:"period_end"`
	BaseSalary          decimal.Decimal `json:"base_salary"`
	HRA                 decimal.Decimal `json:"hra"`
	OtherAllowances     decimal.Decimal `json:"other_allowances"`
	FixedDeductions     decimal.Decimal `json:"fixed_deductions"`
	GrossSalary         decimal.Decimal `json:"gross_salary"`
	WorkingDays         int             `json:"working_days"`
	AbsentDays          int             `json:"absent_days"`
	AttendanceDeduction decimal.Decimal `json:"attendance_deduction"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	NetSalary           decimal.Decimal `json:"net_salary"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	CreditApplied       decimal.Decimal `json:"credit_applied"`
	PendingAmount       decimal.Decimal `json:"pending_amount"`
	Status              string          `json:"status"`
	ApprovedAt          *time.Time      `json:"approved_at,omitempty"`
	PaymentDate         *string         `json:"payment_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// ToSalaryRecordResponse converts a domain record to a response
func ToSalaryRecordResponse(r *payroll.SalaryRecord) SalaryRecordResponse {
	resp := SalaryRecordResponse{
		ID:                  r.ID,
		TeacherID:           r.TeacherID,
		StructureID:         r.StructureID,
		Month:               r.Month,
		Year:                r.Year,
		PeriodStart:         r.PeriodStart.Format(shared.DateLayout),
		PeriodEnd:           r.PeriodEnd.Format(shared.DateLayout),
		BaseSalary:          r.BaseSalary,
		HRA:                 r.HRA,
		OtherAllowances:     r.OtherAllowances,
		FixedDeductions:     r.FixedDeductions,
		GrossSalary:         r.GrossSalary,
		WorkingDays:         r.WorkingDays,
		AbsentDays:          r.AbsentDays,
		AttendanceDeduction: r.AttendanceDeduction,
		TotalDeductions:     r.TotalDeductions,
		NetSalary:           r.NetSalary,
		PaidAmount:          r.PaidAmount,
		CreditApplied:       r.CreditApplied,
		PendingAmount:       r.PendingAmount,
		Status:              string(r.Status),
		ApprovedAt:          r.ApprovedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		Version:             r.Version,
	}
	if r.PaymentDate != nil {
		d := r.PaymentDate.Format(shared.DateLayout)
		resp.PaymentDate = &d
	}
	return resp
}

// RecordListFilter filters salary record listings
type RecordListFilter struct {
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	TeacherID *uuid.UUID `form:"teacher_id"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending approved paid"`
	Month     *int       `form:"month" binding:"omitempty,min=1,max=12"`
	Year      *int       `form:"year" binding:"omitempty,min=2000,max=2200"`
}

func (f RecordListFilter) toDomain() payroll.SalaryRecordFilter {
	filter := payroll.SalaryRecordFilter{
		Filter:    shared.Filter{Page: f.Page, PageSize: f.PageSize, OrderBy: "period_start", OrderDir: "desc"}.Normalize(),
		TeacherID: f.TeacherID,
		Month:     f.Month,
		Year:      f.Year,
	}
	if f.Status != "" {
		status := payroll.SalaryStatus(f.Status)
		filter.Status = &status
	}
	return filter
}

// MarkPaidRequest closes an approved record
type MarkPaidRequest struct {
	PaymentDate string `json:"payment_date" binding:"required,datetime=2006-01-02"`
}

// SalaryPaymentRequest applies cash and/or adjusted credit to a record
type SalaryPaymentRequest struct {
	CashAmount   *decimal.Decimal `json:"cash_amount"`
	CreditAmount *decimal.Decimal `json:"credit_amount"`
}

// UnpaidQuery selects a page of the unpaid-salary report
type UnpaidQuery struct {
	TimeScope string `form:"time_scope"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func amountOf(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
