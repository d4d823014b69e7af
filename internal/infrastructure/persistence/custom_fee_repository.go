package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomFeeRepository implements CustomFeeRepository using GORM
type GormCustomFeeRepository struct {
	db *gorm.DB
}

// NewGormCustomFeeRepository creates a new GormCustomFeeRepository
func NewGormCustomFeeRepository(db *gorm.DB) *GormCustomFeeRepository {
	return &GormCustomFeeRepository{db: db}
}

// FindByIDForTenant finds a custom fee by ID within a school
func (r *GormCustomFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.CustomFee, error) {
	var model models.CustomFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByStudent lists a student's custom fees in creation order
func (r *GormCustomFeeRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]fee.CustomFee, error) {
	var rows []models.CustomFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND student_id = ?", tenantID, studentID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	fees := make([]fee.CustomFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees, nil
}

// Save creates or updates a custom fee
func (r *GormCustomFeeRepository) Save(ctx context.Context, f *fee.CustomFee) error {
	return r.db.WithContext(ctx).Save(models.CustomFeeModelFromDomain(f)).Error
}

// DeleteForTenant deletes a custom fee within a school. Bills already
// generated keep their snapshot lines.
func (r *GormCustomFeeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomFeeModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// MarkApplied records the bill that took the listed one-time fees. Fees
// already taken by another bill are left alone.
func (r *GormCustomFeeRepository) MarkApplied(ctx context.Context, tenantID, billID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CustomFeeModel{}).
		Where("tenant_id = ? AND id IN ? AND applied_bill_id IS NULL", tenantID, ids).
		Update("applied_bill_id", billID).Error
}

// Ensure GormCustomFeeRepository implements CustomFeeRepository
var _ fee.CustomFeeRepository = (*GormCustomFeeRepository)(nil)
