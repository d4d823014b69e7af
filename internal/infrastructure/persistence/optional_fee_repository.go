package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOptionalFeeRepository implements OptionalFeeRepository using GORM
type GormOptionalFeeRepository struct {
	db *gorm.DB
}

// NewGormOptionalFeeRepository creates a new GormOptionalFeeRepository
func NewGormOptionalFeeRepository(db *gorm.DB) *GormOptionalFeeRepository {
	return &GormOptionalFeeRepository{db: db}
}

// FindByIDForTenant finds any version by ID within a school
func (r *GormOptionalFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.OptionalFee, error) {
	var model models.OptionalFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists optional fee versions matching the filter
func (r *GormOptionalFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.OptionalFee, error) {
	var rows []models.OptionalFeeModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OptionalFeeModel{}), tenantID, filter)
	if err := paginate(query, filter.Filter, OptionalFeeSortFields, "name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return optionalFeesToDomain(rows), nil
}

// CountForTenant counts optional fee versions matching the filter
func (r *GormOptionalFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OptionalFeeModel{}), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOptionalFeeRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter fee.ComponentFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.CurrentOnly {
		query = query.Where("effective_to IS NULL")
	}
	return query
}

// FindOpen returns the current version of a group
func (r *GormOptionalFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.OptionalFee, error) {
	var model models.OptionalFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ? AND effective_to IS NULL", tenantID, versionGroupID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsOpenByName reports whether an open optional fee already uses the name
func (r *GormOptionalFeeRepository) ExistsOpenByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OptionalFeeModel{}).
		Where("tenant_id = ? AND LOWER(name) = ? AND effective_to IS NULL", tenantID, strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEffective returns the versions covering asOf. A nil groupIDs returns
// every optional fee; an empty one returns none.
func (r *GormOptionalFeeRepository) FindEffective(ctx context.Context, tenantID uuid.UUID, asOf time.Time, groupIDs []uuid.UUID) ([]fee.OptionalFee, error) {
	if groupIDs != nil && len(groupIDs) == 0 {
		return []fee.OptionalFee{}, nil
	}
	query := coveringVersions(r.db.WithContext(ctx), asOf).Where("tenant_id = ?", tenantID)
	if groupIDs != nil {
		query = query.Where("version_group_id IN ?", groupIDs)
	}
	var rows []models.OptionalFeeModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return optionalFeesToDomain(rows), nil
}

// ListVersions returns every version of a group, oldest first
func (r *GormOptionalFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.OptionalFee, error) {
	var rows []models.OptionalFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ?", tenantID, versionGroupID).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return optionalFeesToDomain(rows), nil
}

// Create inserts version 1 of an optional fee
func (r *GormOptionalFeeRepository) Create(ctx context.Context, f *fee.OptionalFee) error {
	if err := r.db.WithContext(ctx).Create(models.OptionalFeeModelFromDomain(f)).Error; err != nil {
		if isDuplicate(err) {
			return alreadyOpen("optional fee")
		}
		return err
	}
	return nil
}

// ApplyHike closes previous and inserts next in one transaction
func (r *GormOptionalFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.OptionalFee) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeVersion(tx, &models.OptionalFeeModel{}, previous.TenantID, previous.ID,
			previous.Version, previous.EffectiveTo, previous.UpdatedAt); err != nil {
			return err
		}
		return insertVersion(tx, models.OptionalFeeModelFromDomain(next))
	})
}

func optionalFeesToDomain(rows []models.OptionalFeeModel) []fee.OptionalFee {
	fees := make([]fee.OptionalFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees
}

// Ensure GormOptionalFeeRepository implements OptionalFeeRepository
var _ fee.OptionalFeeRepository = (*GormOptionalFeeRepository)(nil)
