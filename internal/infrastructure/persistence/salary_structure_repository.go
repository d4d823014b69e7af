package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSalaryStructureRepository implements SalaryStructureRepository using GORM
type GormSalaryStructureRepository struct {
	db *gorm.DB
}

// NewGormSalaryStructureRepository creates a new GormSalaryStructureRepository
func NewGormSalaryStructureRepository(db *gorm.DB) *GormSalaryStructureRepository {
	return &GormSalaryStructureRepository{db: db}
}

// FindByIDForTenant finds a structure version by ID within a school
func (r *GormSalaryStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.SalaryStructure, error) {
	var model models.SalaryStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindCurrent returns the teacher's open structure
func (r *GormSalaryStructureRepository) FindCurrent(ctx context.Context, tenantID, teacherID uuid.UUID) (*payroll.SalaryStructure, error) {
	var model models.SalaryStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND teacher_id = ? AND effective_to IS NULL", tenantID, teacherID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindEffective returns the structure covering asOf
func (r *GormSalaryStructureRepository) FindEffective(ctx context.Context, tenantID, teacherID uuid.UUID, asOf time.Time) (*payroll.SalaryStructure, error) {
	var model models.SalaryStructureModel
	if err := coveringVersions(r.db.WithContext(ctx), asOf).
		Where("tenant_id = ? AND teacher_id = ?", tenantID, teacherID).
		Order("effective_from DESC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ListVersions returns the teacher's structures, oldest first
func (r *GormSalaryStructureRepository) ListVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]payroll.SalaryStructure, error) {
	var rows []models.SalaryStructureModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND teacher_id = ?", tenantID, teacherID).
		Order("effective_from ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	structures := make([]payroll.SalaryStructure, len(rows))
	for i := range rows {
		structures[i] = *rows[i].ToDomain()
	}
	return structures, nil
}

// Create inserts a teacher's first structure
func (r *GormSalaryStructureRepository) Create(ctx context.Context, s *payroll.SalaryStructure) error {
	if err := r.db.WithContext(ctx).Create(models.SalaryStructureModelFromDomain(s)).Error; err != nil {
		if isDuplicate(err) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Teacher already has a current salary structure")
		}
		return err
	}
	return nil
}

// SaveWithLock writes a corrected structure guarded by Version
func (r *GormSalaryStructureRepository) SaveWithLock(ctx context.Context, s *payroll.SalaryStructure) error {
	result := r.db.WithContext(ctx).Model(&models.SalaryStructureModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", s.TenantID, s.ID, s.Version-1).
		Updates(map[string]any{
			"base_salary":                s.BaseSalary,
			"hra":                        s.HRA,
			"other_allowances":           s.OtherAllowances,
			"fixed_deductions":           s.FixedDeductions,
			"salary_cycle":               s.SalaryCycle,
			"attendance_based_deduction": s.AttendanceBasedDeduction,
			"effective_to":               s.EffectiveTo,
			"version":                    s.Version,
			"updated_at":                 s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// Supersede closes previous and inserts next in one transaction
func (r *GormSalaryStructureRepository) Supersede(ctx context.Context, previous, next *payroll.SalaryStructure) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeVersion(tx, &models.SalaryStructureModel{}, previous.TenantID, previous.ID,
			previous.Version, previous.EffectiveTo, previous.UpdatedAt); err != nil {
			return err
		}
		return insertVersion(tx, models.SalaryStructureModelFromDomain(next))
	})
}

// Ensure GormSalaryStructureRepository implements SalaryStructureRepository
var _ payroll.SalaryStructureRepository = (*GormSalaryStructureRepository)(nil)
