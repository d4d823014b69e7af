package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalaryRecordRepository implements SalaryRecordRepository using GORM
type GormSalaryRecordRepository struct {
	db *gorm.DB
}

// NewGormSalaryRecordRepository creates a new GormSalaryRecordRepository
func NewGormSalaryRecordRepository(db *gorm.DB) *GormSalaryRecordRepository {
	return &GormSalaryRecordRepository{db: db}
}

// FindByIDForTenant finds a record by ID within a school
func (r *GormSalaryRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.SalaryRecord, error) {
	var model models.SalaryRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByTeacherPeriod finds a teacher's record for a month
func (r *GormSalaryRecordRepository) FindByTeacherPeriod(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*payroll.SalaryRecord, error) {
	var model models.SalaryRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND teacher_id = ? AND year = ? AND month = ?", tenantID, teacherID, period.Year, period.Month).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists records matching the filter
func (r *GormSalaryRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter payroll.SalaryRecordFilter) ([]payroll.SalaryRecord, error) {
	var rows []models.SalaryRecordModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalaryRecordModel{}), tenantID, filter)
	if err := paginate(query, filter.Filter, SalaryRecordSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return salaryRecordsToDomain(rows), nil
}

// CountForTenant counts records matching the filter
func (r *GormSalaryRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter payroll.SalaryRecordFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SalaryRecordModel{}), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormSalaryRecordRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter payroll.SalaryRecordFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filter.TeacherID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	return query
}

// FindUnpaidInWindow returns records with a pending amount whose month lies
// within [from, to]
func (r *GormSalaryRecordRepository) FindUnpaidInWindow(ctx context.Context, tenantID uuid.UUID, from, to shared.Period) ([]payroll.SalaryRecord, error) {
	var rows []models.SalaryRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND pending_amount > 0", tenantID).
		Where("(year * 100 + month) BETWEEN ? AND ?", from.Year*100+from.Month, to.Year*100+to.Month).
		Order("year ASC, month ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return salaryRecordsToDomain(rows), nil
}

// Create inserts a new record
func (r *GormSalaryRecordRepository) Create(ctx context.Context, rec *payroll.SalaryRecord) error {
	if err := r.db.WithContext(ctx).Create(models.SalaryRecordModelFromDomain(rec)).Error; err != nil {
		if isDuplicate(err) {
			return payroll.ErrRecordAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock persists every mutable field guarded by Version
func (r *GormSalaryRecordRepository) SaveWithLock(ctx context.Context, rec *payroll.SalaryRecord) error {
	result := r.db.WithContext(ctx).Model(&models.SalaryRecordModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", rec.TenantID, rec.ID, rec.Version-1).
		Updates(map[string]any{
			"structure_id":         rec.StructureID,
			"base_salary":          rec.BaseSalary,
			"hra":                  rec.HRA,
			"other_allowances":     rec.OtherAllowances,
			"fixed_deductions":     rec.FixedDeductions,
			"gross_salary":         rec.GrossSalary,
			"attendance_deduction": rec.AttendanceDeduction,
			"total_deductions":     rec.TotalDeductions,
			"net_salary":           rec.NetSalary,
			"working_days":         rec.WorkingDays,
			"absent_days":          rec.AbsentDays,
			"paid_amount":          rec.PaidAmount,
			"credit_applied":       rec.CreditApplied,
			"pending_amount":       rec.PendingAmount,
			"status":               rec.Status,
			"approved_at":          rec.ApprovedAt,
			"payment_date":         rec.PaymentDate,
			"version":              rec.Version,
			"updated_at":           rec.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

func salaryRecordsToDomain(rows []models.SalaryRecordModel) []payroll.SalaryRecord {
	records := make([]payroll.SalaryRecord, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records
}

// Ensure GormSalaryRecordRepository implements SalaryRecordRepository
var _ payroll.SalaryRecordRepository = (*GormSalaryRecordRepository)(nil)
