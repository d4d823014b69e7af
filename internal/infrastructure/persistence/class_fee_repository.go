package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClassFeeRepository implements ClassFeeRepository using GORM
type GormClassFeeRepository struct {
	db *gorm.DB
}

// NewGormClassFeeRepository creates a new GormClassFeeRepository
func NewGormClassFeeRepository(db *gorm.DB) *GormClassFeeRepository {
	return &GormClassFeeRepository{db: db}
}

// FindByIDForTenant finds any version by ID within a school
func (r *GormClassFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.ClassFee, error) {
	var model models.ClassFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists class fee versions matching the filter
func (r *GormClassFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.ClassFee, error) {
	var rows []models.ClassFeeModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClassFeeModel{}), tenantID, filter)
	if err := paginate(query, filter.Filter, ClassFeeSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return classFeesToDomain(rows), nil
}

// CountForTenant counts class fee versions matching the filter
func (r *GormClassFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClassFeeModel{}), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormClassFeeRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter fee.ComponentFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.ClassGroupID != nil {
		query = query.Where("class_group_id = ?", *filter.ClassGroupID)
	}
	if filter.FeeCategoryID != nil {
		query = query.Where("fee_category_id = ?", *filter.FeeCategoryID)
	}
	if filter.CurrentOnly {
		query = query.Where("effective_to IS NULL")
	}
	return query
}

// FindOpen returns the current version of a group
func (r *GormClassFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.ClassFee, error) {
	var model models.ClassFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ? AND effective_to IS NULL", tenantID, versionGroupID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsOpen reports whether the class group already has an open fee for the category
func (r *GormClassFeeRepository) ExistsOpen(ctx context.Context, tenantID, classGroupID, categoryID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ClassFeeModel{}).
		Where("tenant_id = ? AND class_group_id = ? AND fee_category_id = ? AND effective_to IS NULL", tenantID, classGroupID, categoryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEffective returns the versions covering asOf, one per category.
// If a category somehow has overlapping groups the latest start wins.
func (r *GormClassFeeRepository) FindEffective(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]fee.ClassFee, error) {
	var rows []models.ClassFeeModel
	if err := coveringVersions(r.db.WithContext(ctx), asOf).
		Where("tenant_id = ? AND class_group_id = ?", tenantID, classGroupID).
		Order("fee_category_id ASC, effective_from DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(rows))
	fees := make([]fee.ClassFee, 0, len(rows))
	for i := range rows {
		if seen[rows[i].FeeCategoryID] {
			continue
		}
		seen[rows[i].FeeCategoryID] = true
		fees = append(fees, *rows[i].ToDomain())
	}
	return fees, nil
}

// ListVersions returns every version of a group, oldest first
func (r *GormClassFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.ClassFee, error) {
	var rows []models.ClassFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ?", tenantID, versionGroupID).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return classFeesToDomain(rows), nil
}

// Create inserts version 1 of a new class fee
func (r *GormClassFeeRepository) Create(ctx context.Context, f *fee.ClassFee) error {
	if err := r.db.WithContext(ctx).Create(models.ClassFeeModelFromDomain(f)).Error; err != nil {
		if isDuplicate(err) {
			return alreadyOpen("class fee")
		}
		return err
	}
	return nil
}

// ApplyHike closes previous and inserts next in one transaction
func (r *GormClassFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.ClassFee) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeVersion(tx, &models.ClassFeeModel{}, previous.TenantID, previous.ID,
			previous.Version, previous.EffectiveTo, previous.UpdatedAt); err != nil {
			return err
		}
		return insertVersion(tx, models.ClassFeeModelFromDomain(next))
	})
}

func classFeesToDomain(rows []models.ClassFeeModel) []fee.ClassFee {
	fees := make([]fee.ClassFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees
}

// Ensure GormClassFeeRepository implements ClassFeeRepository
var _ fee.ClassFeeRepository = (*GormClassFeeRepository)(nil)
