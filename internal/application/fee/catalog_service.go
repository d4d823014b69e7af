package fee

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CatalogRepositories groups the repositories behind the fee catalog
type CatalogRepositories struct {
	Categories    fee.FeeCategoryRepository
	ClassFees     fee.ClassFeeRepository
	Routes        fee.TransportRouteRepository
	TransportFees fee.TransportFeeRepository
	OptionalFees  fee.OptionalFeeRepository
	CustomFees    fee.CustomFeeRepository
}

// CatalogService maintains fee categories and the versioned fee components
type CatalogService struct {
	serviceBase
	repos CatalogRepositories
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repos CatalogRepositories, opts ...ServiceOption) *CatalogService {
	return &CatalogService{
		serviceBase: newServiceBase(opts),
		repos:       repos,
	}
}

// CreateCategory creates a fee category with a unique name
func (s *CatalogService) CreateCategory(ctx context.Context, tenantID uuid.UUID, req CreateCategoryRequest) (*CategoryResponse, error) {
	exists, err := s.repos.Categories.ExistsByName(ctx, tenantID, strings.TrimSpace(req.Name), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Fee category with this name already exists")
	}

	category, err := fee.NewFeeCategory(tenantID, req.Name, req.Description, req.DisplayOrder)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Categories.Save(ctx, category); err != nil {
		return nil, err
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetCategory retrieves a fee category by ID
func (s *CatalogService) GetCategory(ctx context.Context, tenantID, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.repos.Categories.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// ListCategories lists categories in display order
func (s *CatalogService) ListCategories(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]CategoryResponse, int64, error) {
	filter := shared.Filter{Page: page, PageSize: pageSize, OrderBy: "display_order", OrderDir: "asc"}.Normalize()

	categories, err := s.repos.Categories.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Categories.CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = ToCategoryResponse(&categories[i])
	}
	return responses, total, nil
}

// UpdateCategory renames or reorders a category
func (s *CatalogService) UpdateCategory(ctx context.Context, tenantID, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.repos.Categories.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repos.Categories.ExistsByName(ctx, tenantID, strings.TrimSpace(req.Name), &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Fee category with this name already exists")
	}

	if err := category.Update(req.Name, req.Description, req.DisplayOrder); err != nil {
		return nil, err
	}
	if err := s.repos.Categories.Save(ctx, category); err != nil {
		return nil, err
	}

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// DeleteCategory deletes a category no class fee version refers to
func (s *CatalogService) DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repos.Categories.FindByIDForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	referenced, err := s.repos.Categories.IsReferenced(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if referenced {
		return fee.ErrCategoryInUse
	}
	return s.repos.Categories.DeleteForTenant(ctx, tenantID, id)
}

// CreateClassFee creates version 1 of a class fee
func (s *CatalogService) CreateClassFee(ctx context.Context, tenantID uuid.UUID, req CreateClassFeeRequest) (*ClassFeeResponse, error) {
	cycle, err := fee.ParseFeeCycle(req.FeeCycle)
	if err != nil {
		return nil, err
	}
	from, err := s.dateOrToday(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Categories.FindByIDForTenant(ctx, tenantID, req.FeeCategoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("fee category does not exist")
		}
		return nil, err
	}

	exists, err := s.repos.ClassFees.ExistsOpen(ctx, tenantID, req.ClassGroupID, req.FeeCategoryID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			"A class fee for this class group and category already exists; apply a hike instead")
	}

	dueDay := req.DueDay
	if dueDay == 0 {
		dueDay = fee.DefaultBillingPolicy().DefaultDueDay
	}
	classFee, err := fee.NewClassFee(tenantID, req.ClassGroupID, req.FeeCategoryID, amountOf(req.Amount), cycle, dueDay, from, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repos.ClassFees.Create(ctx, classFee); err != nil {
		return nil, err
	}

	resp := ToClassFeeResponse(classFee)
	return &resp, nil
}

// GetClassFee retrieves one class fee version
func (s *CatalogService) GetClassFee(ctx context.Context, tenantID, id uuid.UUID) (*ClassFeeResponse, error) {
	f, err := s.repos.ClassFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToClassFeeResponse(f)
	return &resp, nil
}

// ListClassFees lists class fee versions
func (s *CatalogService) ListClassFees(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ClassFeeResponse, int64, error) {
	cf := filter.componentFilter()
	fees, err := s.repos.ClassFees.FindAllForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.ClassFees.CountForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]ClassFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToClassFeeResponse(&fees[i])
	}
	return responses, total, nil
}

// ClassFeeVersions returns every version in the component's group, oldest first
func (s *CatalogService) ClassFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]ClassFeeResponse, error) {
	f, err := s.repos.ClassFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repos.ClassFees.ListVersions(ctx, tenantID, f.VersionGroupID)
	if err != nil {
		return nil, err
	}
	responses := make([]ClassFeeResponse, len(versions))
	for i := range versions {
		responses[i] = ToClassFeeResponse(&versions[i])
	}
	return responses, nil
}

// ApplicableClassFees returns the versions covering asOf for a class group,
// one per category. A zero asOf means today.
func (s *CatalogService) ApplicableClassFees(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]ClassFeeResponse, error) {
	fees, err := s.repos.ClassFees.FindEffective(ctx, tenantID, classGroupID, s.asOf(asOf))
	if err != nil {
		return nil, err
	}
	responses := make([]ClassFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToClassFeeResponse(&fees[i])
	}
	return responses, nil
}

// CreateRoute creates a transport route
func (s *CatalogService) CreateRoute(ctx context.Context, tenantID uuid.UUID, req CreateRouteRequest) (*RouteResponse, error) {
	route, err := fee.NewTransportRoute(tenantID, req.RouteName, req.BusNumber, req.Zone, amountOf(req.DistanceKM))
	if err != nil {
		return nil, err
	}
	if err := s.repos.Routes.Save(ctx, route); err != nil {
		return nil, err
	}
	resp := ToRouteResponse(route)
	return &resp, nil
}

// GetRoute retrieves a transport route
func (s *CatalogService) GetRoute(ctx context.Context, tenantID, id uuid.UUID) (*RouteResponse, error) {
	route, err := s.repos.Routes.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRouteResponse(route)
	return &resp, nil
}

// ListRoutes lists transport routes by name
func (s *CatalogService) ListRoutes(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]RouteResponse, int64, error) {
	filter := shared.Filter{Page: page, PageSize: pageSize, OrderBy: "route_name", OrderDir: "asc"}.Normalize()
	routes, err := s.repos.Routes.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Routes.CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]RouteResponse, len(routes))
	for i := range routes {
		responses[i] = ToRouteResponse(&routes[i])
	}
	return responses, total, nil
}

// CreateTransportFee creates version 1 of a route's transport fee
func (s *CatalogService) CreateTransportFee(ctx context.Context, tenantID uuid.UUID, req CreateTransportFeeRequest) (*TransportFeeResponse, error) {
	cycle, err := fee.ParseFeeCycle(req.FeeCycle)
	if err != nil {
		return nil, err
	}
	from, err := s.dateOrToday(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Routes.FindByIDForTenant(ctx, tenantID, req.RouteID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("transport route does not exist")
		}
		return nil, err
	}

	exists, err := s.repos.TransportFees.ExistsOpen(ctx, tenantID, req.RouteID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			"A transport fee for this route already exists; apply a hike instead")
	}

	charges := fee.TransportCharges{
		BaseFee:       amountOf(req.BaseFee),
		EscortFee:     amountOf(req.EscortFee),
		FuelSurcharge: amountOf(req.FuelSurcharge),
	}
	transportFee, err := fee.NewTransportFee(tenantID, req.RouteID, charges, cycle, from, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repos.TransportFees.Create(ctx, transportFee); err != nil {
		return nil, err
	}

	resp := ToTransportFeeResponse(transportFee)
	return &resp, nil
}

// GetTransportFee retrieves one transport fee version
func (s *CatalogService) GetTransportFee(ctx context.Context, tenantID, id uuid.UUID) (*TransportFeeResponse, error) {
	f, err := s.repos.TransportFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransportFeeResponse(f)
	return &resp, nil
}

// ListTransportFees lists transport fee versions
func (s *CatalogService) ListTransportFees(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]TransportFeeResponse, int64, error) {
	cf := filter.componentFilter()
	fees, err := s.repos.TransportFees.FindAllForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.TransportFees.CountForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]TransportFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToTransportFeeResponse(&fees[i])
	}
	return responses, total, nil
}

// TransportFeeVersions returns every version in the component's group
func (s *CatalogService) TransportFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]TransportFeeResponse, error) {
	f, err := s.repos.TransportFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repos.TransportFees.ListVersions(ctx, tenantID, f.VersionGroupID)
	if err != nil {
		return nil, err
	}
	responses := make([]TransportFeeResponse, len(versions))
	for i := range versions {
		responses[i] = ToTransportFeeResponse(&versions[i])
	}
	return responses, nil
}

// ApplicableTransportFees returns the route's version covering asOf, if any
func (s *CatalogService) ApplicableTransportFees(ctx context.Context, tenantID, routeID uuid.UUID, asOf time.Time) ([]TransportFeeResponse, error) {
	f, err := s.repos.TransportFees.FindEffective(ctx, tenantID, routeID, s.asOf(asOf))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []TransportFeeResponse{}, nil
		}
		return nil, err
	}
	return []TransportFeeResponse{ToTransportFeeResponse(f)}, nil
}

// CreateOptionalFee creates version 1 of an optional fee
func (s *CatalogService) CreateOptionalFee(ctx context.Context, tenantID uuid.UUID, req CreateOptionalFeeRequest) (*OptionalFeeResponse, error) {
	cycle, err := fee.ParseFeeCycle(req.FeeCycle)
	if err != nil {
		return nil, err
	}
	from, err := s.dateOrToday(req.EffectiveFrom)
	if err != nil {
		return nil, err
	}

	exists, err := s.repos.OptionalFees.ExistsOpenByName(ctx, tenantID, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			"An optional fee with this name already exists; apply a hike instead")
	}

	optionalFee, err := fee.NewOptionalFee(tenantID, req.Name, amountOf(req.DefaultAmount), cycle, from, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repos.OptionalFees.Create(ctx, optionalFee); err != nil {
		return nil, err
	}

	resp := ToOptionalFeeResponse(optionalFee)
	return &resp, nil
}

// GetOptionalFee retrieves one optional fee version
func (s *CatalogService) GetOptionalFee(ctx context.Context, tenantID, id uuid.UUID) (*OptionalFeeResponse, error) {
	f, err := s.repos.OptionalFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToOptionalFeeResponse(f)
	return &resp, nil
}

// ListOptionalFees lists optional fee versions
func (s *CatalogService) ListOptionalFees(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]OptionalFeeResponse, int64, error) {
	cf := filter.componentFilter()
	fees, err := s.repos.OptionalFees.FindAllForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.OptionalFees.CountForTenant(ctx, tenantID, cf)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]OptionalFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToOptionalFeeResponse(&fees[i])
	}
	return responses, total, nil
}

// OptionalFeeVersions returns every version in the component's group
func (s *CatalogService) OptionalFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]OptionalFeeResponse, error) {
	f, err := s.repos.OptionalFees.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.repos.OptionalFees.ListVersions(ctx, tenantID, f.VersionGroupID)
	if err != nil {
		return nil, err
	}
	responses := make([]OptionalFeeResponse, len(versions))
	for i := range versions {
		responses[i] = ToOptionalFeeResponse(&versions[i])
	}
	return responses, nil
}

// ApplicableOptionalFees returns every optional fee version covering asOf
func (s *CatalogService) ApplicableOptionalFees(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]OptionalFeeResponse, error) {
	fees, err := s.repos.OptionalFees.FindEffective(ctx, tenantID, s.asOf(asOf), nil)
	if err != nil {
		return nil, err
	}
	responses := make([]OptionalFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToOptionalFeeResponse(&fees[i])
	}
	return responses, nil
}

// CreateCustomFee adds a per-student adjustment
func (s *CatalogService) CreateCustomFee(ctx context.Context, tenantID uuid.UUID, req CreateCustomFeeRequest) (*CustomFeeResponse, error) {
	feeType, err := fee.ParseCustomFeeType(req.FeeType)
	if err != nil {
		return nil, err
	}
	cycle, err := fee.ParseFeeCycle(req.FeeCycle)
	if err != nil {
		return nil, err
	}
	customFee, err := fee.NewCustomFee(tenantID, req.StudentID, feeType, req.Description, amountOf(req.Amount), cycle, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.repos.CustomFees.Save(ctx, customFee); err != nil {
		return nil, err
	}
	resp := ToCustomFeeResponse(customFee)
	return &resp, nil
}

// ListCustomFees lists a student's custom fees
func (s *CatalogService) ListCustomFees(ctx context.Context, tenantID, studentID uuid.UUID) ([]CustomFeeResponse, error) {
	fees, err := s.repos.CustomFees.FindByStudent(ctx, tenantID, studentID)
	if err != nil {
		return nil, err
	}
	responses := make([]CustomFeeResponse, len(fees))
	for i := range fees {
		responses[i] = ToCustomFeeResponse(&fees[i])
	}
	return responses, nil
}

// DeleteCustomFee removes a custom fee. Bills already generated keep their lines.
func (s *CatalogService) DeleteCustomFee(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repos.CustomFees.FindByIDForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repos.CustomFees.DeleteForTenant(ctx, tenantID, id)
}

func (s *CatalogService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.today()
	}
	return shared.DateOf(t)
}

// amountOf dereferences an optional request amount
func amountOf(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
