package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransportRouteRepository implements TransportRouteRepository using GORM
type GormTransportRouteRepository struct {
	db *gorm.DB
}

// NewGormTransportRouteRepository creates a new GormTransportRouteRepository
func NewGormTransportRouteRepository(db *gorm.DB) *GormTransportRouteRepository {
	return &GormTransportRouteRepository{db: db}
}

// FindByIDForTenant finds a route by ID within a school
func (r *GormTransportRouteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.TransportRoute, error) {
	var model models.TransportRouteModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists a school's routes
func (r *GormTransportRouteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fee.TransportRoute, error) {
	var rows []models.TransportRouteModel
	query := r.db.WithContext(ctx).Model(&models.TransportRouteModel{}).Where("tenant_id = ?", tenantID)
	if err := paginate(query, filter, TransportRouteSortFields, "route_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	routes := make([]fee.TransportRoute, len(rows))
	for i := range rows {
		routes[i] = *rows[i].ToDomain()
	}
	return routes, nil
}

// CountForTenant counts a school's routes
func (r *GormTransportRouteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TransportRouteModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a route
func (r *GormTransportRouteRepository) Save(ctx context.Context, route *fee.TransportRoute) error {
	return r.db.WithContext(ctx).Save(models.TransportRouteModelFromDomain(route)).Error
}

// GormTransportFeeRepository implements TransportFeeRepository using GORM
type GormTransportFeeRepository struct {
	db *gorm.DB
}

// NewGormTransportFeeRepository creates a new GormTransportFeeRepository
func NewGormTransportFeeRepository(db *gorm.DB) *GormTransportFeeRepository {
	return &GormTransportFeeRepository{db: db}
}

// FindByIDForTenant finds any version by ID within a school
func (r *GormTransportFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.TransportFee, error) {
	var model models.TransportFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists transport fee versions matching the filter
func (r *GormTransportFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.TransportFee, error) {
	var rows []models.TransportFeeModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransportFeeModel{}), tenantID, filter)
	if err := paginate(query, filter.Filter, TransportFeeSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return transportFeesToDomain(rows), nil
}

// CountForTenant counts transport fee versions matching the filter
func (r *GormTransportFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.TransportFeeModel{}), tenantID, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransportFeeRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter fee.ComponentFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.RouteID != nil {
		query = query.Where("route_id = ?", *filter.RouteID)
	}
	if filter.CurrentOnly {
		query = query.Where("effective_to IS NULL")
	}
	return query
}

// FindOpen returns the current version of a group
func (r *GormTransportFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.TransportFee, error) {
	var model models.TransportFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ? AND effective_to IS NULL", tenantID, versionGroupID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ExistsOpen reports whether the route already has an open transport fee
func (r *GormTransportFeeRepository) ExistsOpen(ctx context.Context, tenantID, routeID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TransportFeeModel{}).
		Where("tenant_id = ? AND route_id = ? AND effective_to IS NULL", tenantID, routeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEffective returns the version covering asOf or ErrNotFound
func (r *GormTransportFeeRepository) FindEffective(ctx context.Context, tenantID, routeID uuid.UUID, asOf time.Time) (*fee.TransportFee, error) {
	var model models.TransportFeeModel
	if err := coveringVersions(r.db.WithContext(ctx), asOf).
		Where("tenant_id = ? AND route_id = ?", tenantID, routeID).
		Order("effective_from DESC").
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// ListVersions returns every version of a group, oldest first
func (r *GormTransportFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.TransportFee, error) {
	var rows []models.TransportFeeModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND version_group_id = ?", tenantID, versionGroupID).
		Order("version_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return transportFeesToDomain(rows), nil
}

// Create inserts version 1 of a route's transport fee
func (r *GormTransportFeeRepository) Create(ctx context.Context, f *fee.TransportFee) error {
	if err := r.db.WithContext(ctx).Create(models.TransportFeeModelFromDomain(f)).Error; err != nil {
		if isDuplicate(err) {
			return alreadyOpen("transport fee")
		}
		return err
	}
	return nil
}

// ApplyHike closes previous and inserts next in one transaction
func (r *GormTransportFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.TransportFee) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeVersion(tx, &models.TransportFeeModel{}, previous.TenantID, previous.ID,
			previous.Version, previous.EffectiveTo, previous.UpdatedAt); err != nil {
			return err
		}
		return insertVersion(tx, models.TransportFeeModelFromDomain(next))
	})
}

func transportFeesToDomain(rows []models.TransportFeeModel) []fee.TransportFee {
	fees := make([]fee.TransportFee, len(rows))
	for i := range rows {
		fees[i] = *rows[i].ToDomain()
	}
	return fees
}

var (
	_ fee.TransportRouteRepository = (*GormTransportRouteRepository)(nil)
	_ fee.TransportFeeRepository   = (*GormTransportFeeRepository)(nil)
)
