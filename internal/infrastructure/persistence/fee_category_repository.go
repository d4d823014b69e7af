package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFeeCategoryRepository implements FeeCategoryRepository using GORM
type GormFeeCategoryRepository struct {
	db *gorm.DB
}

// NewGormFeeCategoryRepository creates a new GormFeeCategoryRepository
func NewGormFeeCategoryRepository(db *gorm.DB) *GormFeeCategoryRepository {
	return &GormFeeCategoryRepository{db: db}
}

// FindByIDForTenant finds a category by ID within a school
func (r *GormFeeCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeeCategory, error) {
	var model models.FeeCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists a school's categories
func (r *GormFeeCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fee.FeeCategory, error) {
	var rows []models.FeeCategoryModel
	query := r.db.WithContext(ctx).Model(&models.FeeCategoryModel{}).Where("tenant_id = ?", tenantID)
	if err := paginate(query, filter, FeeCategorySortFields, "display_order").Find(&rows).Error; err != nil {
		return nil, err
	}
	categories := make([]fee.FeeCategory, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// CountForTenant counts a school's categories
func (r *GormFeeCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FeeCategoryModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindNames maps category ids to names
func (r *GormFeeCategoryRepository) FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.FeeCategoryModel
	if err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// ExistsByName checks for a case-insensitive name clash, optionally ignoring one category
func (r *GormFeeCategoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FeeCategoryModel{}).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a category
func (r *GormFeeCategoryRepository) Save(ctx context.Context, category *fee.FeeCategory) error {
	return r.db.WithContext(ctx).Save(models.FeeCategoryModelFromDomain(category)).Error
}

// IsReferenced reports whether any class fee version, open or closed, uses the category
func (r *GormFeeCategoryRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClassFeeModel{}).
		Where("tenant_id = ? AND fee_category_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteForTenant deletes a category within a school
func (r *GormFeeCategoryRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FeeCategoryModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormFeeCategoryRepository implements FeeCategoryRepository
var _ fee.FeeCategoryRepository = (*GormFeeCategoryRepository)(nil)
