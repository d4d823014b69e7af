package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// CatalogService is the fee catalog surface used by CatalogHandler
type CatalogService interface {
	CreateCategory(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateCategoryRequest) (*feeapp.CategoryResponse, error)
	GetCategory(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.CategoryResponse, error)
	ListCategories(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]feeapp.CategoryResponse, int64, error)
	UpdateCategory(ctx context.Context, tenantID, id uuid.UUID, req feeapp.UpdateCategoryRequest) (*feeapp.CategoryResponse, error)
	DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error

	CreateClassFee(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateClassFeeRequest) (*feeapp.ClassFeeResponse, error)
	GetClassFee(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.ClassFeeResponse, error)
	ListClassFees(ctx context.Context, tenantID uuid.UUID, filter feeapp.ListFilter) ([]feeapp.ClassFeeResponse, int64, error)
	ClassFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]feeapp.ClassFeeResponse, error)
	ApplicableClassFees(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]feeapp.ClassFeeResponse, error)

	CreateRoute(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateRouteRequest) (*feeapp.RouteResponse, error)
	GetRoute(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.RouteResponse, error)
	ListRoutes(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]feeapp.RouteResponse, int64, error)

	CreateTransportFee(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateTransportFeeRequest) (*feeapp.TransportFeeResponse, error)
	GetTransportFee(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.TransportFeeResponse, error)
	ListTransportFees(ctx context.Context, tenantID uuid.UUID, filter feeapp.ListFilter) ([]feeapp.TransportFeeResponse, int64, error)
	TransportFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]feeapp.TransportFeeResponse, error)
	ApplicableTransportFees(ctx context.Context, tenantID, routeID uuid.UUID, asOf time.Time) ([]feeapp.TransportFeeResponse, error)

	CreateOptionalFee(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateOptionalFeeRequest) (*feeapp.OptionalFeeResponse, error)
	GetOptionalFee(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.OptionalFeeResponse, error)
	ListOptionalFees(ctx context.Context, tenantID uuid.UUID, filter feeapp.ListFilter) ([]feeapp.OptionalFeeResponse, int64, error)
	OptionalFeeVersions(ctx context.Context, tenantID, id uuid.UUID) ([]feeapp.OptionalFeeResponse, error)
	ApplicableOptionalFees(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]feeapp.OptionalFeeResponse, error)

	CreateCustomFee(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateCustomFeeRequest) (*feeapp.CustomFeeResponse, error)
	ListCustomFees(ctx context.Context, tenantID, studentID uuid.UUID) ([]feeapp.CustomFeeResponse, error)
	DeleteCustomFee(ctx context.Context, tenantID, id uuid.UUID) error
}

// HikeService applies fee hikes
type HikeService interface {
	HikeClassFee(ctx context.Context, tenantID, id uuid.UUID, req feeapp.HikeRequest) (*feeapp.ClassFeeResponse, error)
	HikeTransportFee(ctx context.Context, tenantID, id uuid.UUID, req feeapp.TransportHikeRequest) (*feeapp.TransportFeeResponse, error)
	HikeOptionalFee(ctx context.Context, tenantID, id uuid.UUID, req feeapp.HikeRequest) (*feeapp.OptionalFeeResponse, error)
}

// CatalogHandler serves categories, fee components, routes and custom fees
type CatalogHandler struct {
	BaseHandler
	catalog CatalogService
	hikes   HikeService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogService, hikes HikeService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, hikes: hikes}
}

// componentListQuery filters catalog component listings
type componentListQuery struct {
	pageQuery
	ClassGroupID string `form:"class_group_id" binding:"omitempty,uuid"`
	CategoryID   string `form:"fee_category_id" binding:"omitempty,uuid"`
	RouteID      string `form:"route_id" binding:"omitempty,uuid"`
	CurrentOnly  bool   `form:"current_only"`
}

func (q componentListQuery) toFilter() feeapp.ListFilter {
	return feeapp.ListFilter{
		Page:         q.Page,
		PageSize:     q.PageSize,
		ClassGroupID: optionalUUID(q.ClassGroupID),
		CategoryID:   optionalUUID(q.CategoryID),
		RouteID:      optionalUUID(q.RouteID),
		CurrentOnly:  q.CurrentOnly,
	}
}

// applicableQuery selects the versions in force on as_of (today when omitted)
type applicableQuery struct {
	ClassGroupID string `form:"class_group_id" binding:"omitempty,uuid"`
	RouteID      string `form:"route_id" binding:"omitempty,uuid"`
	AsOf         string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}

func (q applicableQuery) asOf() time.Time {
	if q.AsOf == "" {
		return time.Time{}
	}
	t, _ := shared.ParseDate(q.AsOf)
	return t
}

// ---- categories ----

// CreateCategory handles POST /fees/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// ListCategories handles GET /fees/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	categories, total, err := h.catalog.ListCategories(c.Request.Context(), tenantID, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, categories, total, page.Page, page.PageSize)
}

// GetCategory handles GET /fees/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalog.GetCategory(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// UpdateCategory handles PUT /fees/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req feeapp.UpdateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// DeleteCategory handles DELETE /fees/categories/:id. A category still
// referenced by a fee component answers 409 CATEGORY_IN_USE.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ---- class fees ----

// CreateClassFee handles POST /fees/class-fees
func (h *CatalogHandler) CreateClassFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateClassFeeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	classFee, err := h.catalog.CreateClassFee(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, classFee)
}

// ListClassFees handles GET /fees/class-fees
func (h *CatalogHandler) ListClassFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q componentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	fees, total, err := h.catalog.ListClassFees(c.Request.Context(), tenantID, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, fees, total, page.Page, page.PageSize)
}

// GetClassFee handles GET /fees/class-fees/:id
func (h *CatalogHandler) GetClassFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	classFee, err := h.catalog.GetClassFee(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, classFee)
}

// HikeClassFee handles POST /fees/class-fees/:id/hike
func (h *CatalogHandler) HikeClassFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req feeapp.HikeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	next, err := h.hikes.HikeClassFee(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, next)
}

// ClassFeeVersions handles GET /fees/class-fees/:id/versions
func (h *CatalogHandler) ClassFeeVersions(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.catalog.ClassFeeVersions(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, versions)
}

// ApplicableClassFees handles GET /fees/class-fees/applicable
func (h *CatalogHandler) ApplicableClassFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q applicableQuery
	if !h.bindQuery(c, &q) {
		return
	}
	classGroupID := optionalUUID(q.ClassGroupID)
	if classGroupID == nil {
		h.ValidationError(c, requiredField("class_group_id"))
		return
	}
	fees, err := h.catalog.ApplicableClassFees(c.Request.Context(), tenantID, *classGroupID, q.asOf())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// ---- transport ----

// CreateRoute handles POST /fees/transport-routes
func (h *CatalogHandler) CreateRoute(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateRouteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	route, err := h.catalog.CreateRoute(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, route)
}

// ListRoutes handles GET /fees/transport-routes
func (h *CatalogHandler) ListRoutes(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q pageQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	routes, total, err := h.catalog.ListRoutes(c.Request.Context(), tenantID, page.Page, page.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, routes, total, page.Page, page.PageSize)
}

// GetRoute handles GET /fees/transport-routes/:id
func (h *CatalogHandler) GetRoute(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	route, err := h.catalog.GetRoute(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, route)
}

// CreateTransportFee handles POST /fees/transport-fees
func (h *CatalogHandler) CreateTransportFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateTransportFeeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transportFee, err := h.catalog.CreateTransportFee(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, transportFee)
}

// ListTransportFees handles GET /fees/transport-fees
func (h *CatalogHandler) ListTransportFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q componentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	fees, total, err := h.catalog.ListTransportFees(c.Request.Context(), tenantID, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, fees, total, page.Page, page.PageSize)
}

// GetTransportFee handles GET /fees/transport-fees/:id
func (h *CatalogHandler) GetTransportFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	transportFee, err := h.catalog.GetTransportFee(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transportFee)
}

// HikeTransportFee handles POST /fees/transport-fees/:id/hike
func (h *CatalogHandler) HikeTransportFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req feeapp.TransportHikeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	next, err := h.hikes.HikeTransportFee(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, next)
}

// TransportFeeVersions handles GET /fees/transport-fees/:id/versions
func (h *CatalogHandler) TransportFeeVersions(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.catalog.TransportFeeVersions(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, versions)
}

// ApplicableTransportFees handles GET /fees/transport-fees/applicable
func (h *CatalogHandler) ApplicableTransportFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q applicableQuery
	if !h.bindQuery(c, &q) {
		return
	}
	routeID := optionalUUID(q.RouteID)
	if routeID == nil {
		h.ValidationError(c, requiredField("route_id"))
		return
	}
	fees, err := h.catalog.ApplicableTransportFees(c.Request.Context(), tenantID, *routeID, q.asOf())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// ---- optional fees ----

// CreateOptionalFee handles POST /fees/optional-fees
func (h *CatalogHandler) CreateOptionalFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateOptionalFeeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	optional, err := h.catalog.CreateOptionalFee(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, optional)
}

// ListOptionalFees handles GET /fees/optional-fees
func (h *CatalogHandler) ListOptionalFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q componentListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	fees, total, err := h.catalog.ListOptionalFees(c.Request.Context(), tenantID, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, fees, total, page.Page, page.PageSize)
}

// GetOptionalFee handles GET /fees/optional-fees/:id
func (h *CatalogHandler) GetOptionalFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	optional, err := h.catalog.GetOptionalFee(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, optional)
}

// HikeOptionalFee handles POST /fees/optional-fees/:id/hike
func (h *CatalogHandler) HikeOptionalFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req feeapp.HikeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	next, err := h.hikes.HikeOptionalFee(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, next)
}

// OptionalFeeVersions handles GET /fees/optional-fees/:id/versions
func (h *CatalogHandler) OptionalFeeVersions(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	versions, err := h.catalog.OptionalFeeVersions(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, versions)
}

// ApplicableOptionalFees handles GET /fees/optional-fees/applicable
func (h *CatalogHandler) ApplicableOptionalFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q applicableQuery
	if !h.bindQuery(c, &q) {
		return
	}
	fees, err := h.catalog.ApplicableOptionalFees(c.Request.Context(), tenantID, q.asOf())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// ---- custom fees ----

// CreateCustomFee handles POST /fees/custom-fees
func (h *CatalogHandler) CreateCustomFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.CreateCustomFeeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	custom, err := h.catalog.CreateCustomFee(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, custom)
}

// ListCustomFees handles GET /fees/custom-fees?student_id=
func (h *CatalogHandler) ListCustomFees(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q struct {
		StudentID string `form:"student_id" binding:"required,uuid"`
	}
	if !h.bindQuery(c, &q) {
		return
	}
	fees, err := h.catalog.ListCustomFees(c.Request.Context(), tenantID, uuid.MustParse(q.StudentID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// DeleteCustomFee handles DELETE /fees/custom-fees/:id
func (h *CatalogHandler) DeleteCustomFee(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCustomFee(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
