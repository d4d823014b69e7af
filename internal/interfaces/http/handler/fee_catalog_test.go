package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalogService struct {
	CatalogService
	mock.Mock
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateCategoryRequest) (*feeapp.CategoryResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feeapp.CategoryResponse), args.Error(1)
}

func (m *mockCatalogService) ListCategories(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]feeapp.CategoryResponse, int64, error) {
	args := m.Called(ctx, tenantID, page, pageSize)
	return args.Get(0).([]feeapp.CategoryResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *mockCatalogService) CreateClassFee(ctx context.Context, tenantID uuid.UUID, req feeapp.CreateClassFeeRequest) (*feeapp.ClassFeeResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feeapp.ClassFeeResponse), args.Error(1)
}

func (m *mockCatalogService) ListClassFees(ctx context.Context, tenantID uuid.UUID, filter feeapp.ListFilter) ([]feeapp.ClassFeeResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]feeapp.ClassFeeResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockCatalogService) ApplicableClassFees(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]feeapp.ClassFeeResponse, error) {
	args := m.Called(ctx, tenantID, classGroupID, asOf)
	return args.Get(0).([]feeapp.ClassFeeResponse), args.Error(1)
}

func (m *mockCatalogService) ListCustomFees(ctx context.Context, tenantID, studentID uuid.UUID) ([]feeapp.CustomFeeResponse, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).([]feeapp.CustomFeeResponse), args.Error(1)
}

type mockHikeService struct {
	HikeService
	mock.Mock
}

func (m *mockHikeService) HikeClassFee(ctx context.Context, tenantID, id uuid.UUID, req feeapp.HikeRequest) (*feeapp.ClassFeeResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feeapp.ClassFeeResponse), args.Error(1)
}

func newCatalogEngine(tenantID uuid.UUID, catalog *mockCatalogService, hikes *mockHikeService) *gin.Engine {
	h := NewCatalogHandler(catalog, hikes)
	engine := newTestEngine(tenantID)
	fees := engine.Group("/api/v1/fees")
	fees.POST("/categories", h.CreateCategory)
	fees.GET("/categories", h.ListCategories)
	fees.DELETE("/categories/:id", h.DeleteCategory)
	fees.POST("/class-fees", h.CreateClassFee)
	fees.GET("/class-fees", h.ListClassFees)
	fees.GET("/class-fees/applicable", h.ApplicableClassFees)
	fees.POST("/class-fees/:id/hike", h.HikeClassFee)
	fees.GET("/custom-fees", h.ListCustomFees)
	return engine
}

func TestCatalogHandler_CreateCategory(t *testing.T) {
	tenantID := uuid.New()

	t.Run("created", func(t *testing.T) {
		catalog := new(mockCatalogService)
		engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
		req := feeapp.CreateCategoryRequest{Name: "Tuition", DisplayOrder: 1}
		catalog.On("CreateCategory", mock.Anything, tenantID, req).
			Return(&feeapp.CategoryResponse{ID: uuid.New(), Name: "Tuition"}, nil)

		w := doJSON(engine, http.MethodPost, "/api/v1/fees/categories", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp, data := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Contains(t, string(data), `"name":"Tuition"`)
		catalog.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		catalog := new(mockCatalogService)
		engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))

		w := doJSON(engine, http.MethodPost, "/api/v1/fees/categories", `{"description":"x"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		require.NotEmpty(t, resp.Error.Details)
		assert.Equal(t, "name", resp.Error.Details[0].Field)
		catalog.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		catalog := new(mockCatalogService)
		engine := newCatalogEngine(uuid.Nil, catalog, new(mockHikeService))

		w := doJSON(engine, http.MethodPost, "/api/v1/fees/categories", `{"name":"Tuition"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCatalogHandler_ListCategoriesPaging(t *testing.T) {
	tenantID := uuid.New()
	catalog := new(mockCatalogService)
	engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
	catalog.On("ListCategories", mock.Anything, tenantID, 2, 10).
		Return([]feeapp.CategoryResponse{{ID: uuid.New(), Name: "Lab"}}, int64(11), nil)

	w := doJSON(engine, http.MethodGet, "/api/v1/fees/categories?page=2&page_size=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp, _ := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}

func TestCatalogHandler_DeleteCategoryInUse(t *testing.T) {
	tenantID := uuid.New()
	id := uuid.New()
	catalog := new(mockCatalogService)
	engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
	catalog.On("DeleteCategory", mock.Anything, tenantID, id).Return(fee.ErrCategoryInUse)

	w := doJSON(engine, http.MethodDelete, "/api/v1/fees/categories/"+id.String(), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp, _ := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, fee.CodeCategoryInUse, resp.Error.Code)
}

func TestCatalogHandler_CreateClassFeeRejectsUnknownCycle(t *testing.T) {
	catalog := new(mockCatalogService)
	engine := newCatalogEngine(uuid.New(), catalog, new(mockHikeService))

	body := map[string]any{
		"class_group_id":  uuid.NewString(),
		"fee_category_id": uuid.NewString(),
		"amount":          "1500",
		"fee_cycle":       "fortnightly",
	}
	w := doJSON(engine, http.MethodPost, "/api/v1/fees/class-fees", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "fee_cycle", resp.Error.Details[0].Field)
}

func TestCatalogHandler_ListClassFeesFilter(t *testing.T) {
	tenantID := uuid.New()
	classGroupID := uuid.New()
	catalog := new(mockCatalogService)
	engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
	catalog.On("ListClassFees", mock.Anything, tenantID, mock.MatchedBy(func(f feeapp.ListFilter) bool {
		return f.ClassGroupID != nil && *f.ClassGroupID == classGroupID && f.CurrentOnly && f.CategoryID == nil
	})).Return([]feeapp.ClassFeeResponse{}, int64(0), nil)

	w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees?class_group_id="+classGroupID.String()+"&current_only=true", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	catalog.AssertExpectations(t)

	t.Run("malformed id", func(t *testing.T) {
		w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees?class_group_id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCatalogHandler_ApplicableClassFees(t *testing.T) {
	tenantID := uuid.New()
	classGroupID := uuid.New()

	t.Run("as_of parsed", func(t *testing.T) {
		catalog := new(mockCatalogService)
		engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
		asOf := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		catalog.On("ApplicableClassFees", mock.Anything, tenantID, classGroupID, mock.MatchedBy(func(t time.Time) bool {
			return t.Equal(asOf)
		})).Return([]feeapp.ClassFeeResponse{{ID: uuid.New(), Amount: decimal.NewFromInt(1200)}}, nil)

		w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees/applicable?class_group_id="+classGroupID.String()+"&as_of=2026-04-01", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		catalog.AssertExpectations(t)
	})

	t.Run("defaults to today", func(t *testing.T) {
		catalog := new(mockCatalogService)
		engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))
		catalog.On("ApplicableClassFees", mock.Anything, tenantID, classGroupID, time.Time{}).
			Return([]feeapp.ClassFeeResponse{}, nil)

		w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees/applicable?class_group_id="+classGroupID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		catalog.AssertExpectations(t)
	})

	t.Run("class group required", func(t *testing.T) {
		engine := newCatalogEngine(tenantID, new(mockCatalogService), new(mockHikeService))

		w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees/applicable", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "class_group_id", resp.Error.Details[0].Field)
	})

	t.Run("bad date", func(t *testing.T) {
		engine := newCatalogEngine(tenantID, new(mockCatalogService), new(mockHikeService))

		w := doJSON(engine, http.MethodGet, "/api/v1/fees/class-fees/applicable?class_group_id="+classGroupID.String()+"&as_of=01-04-2026", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCatalogHandler_HikeClassFee(t *testing.T) {
	tenantID := uuid.New()
	id := uuid.New()

	t.Run("new version", func(t *testing.T) {
		hikes := new(mockHikeService)
		engine := newCatalogEngine(tenantID, new(mockCatalogService), hikes)
		hikes.On("HikeClassFee", mock.Anything, tenantID, id, mock.MatchedBy(func(r feeapp.HikeRequest) bool {
			return r.NewAmount != nil && r.NewAmount.Equal(decimal.NewFromInt(1650)) && r.EffectiveFrom == "2026-06-01"
		})).Return(&feeapp.ClassFeeResponse{ID: uuid.New(), Amount: decimal.NewFromInt(1650)}, nil)

		w := doJSON(engine, http.MethodPost, "/api/v1/fees/class-fees/"+id.String()+"/hike",
			`{"new_amount":"1650","effective_from":"2026-06-01"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		hikes.AssertExpectations(t)
	})

	t.Run("effective date not after current", func(t *testing.T) {
		hikes := new(mockHikeService)
		engine := newCatalogEngine(tenantID, new(mockCatalogService), hikes)
		hikes.On("HikeClassFee", mock.Anything, tenantID, id, mock.Anything).Return(nil, shared.ErrInvalidEffectiveDate)

		w := doJSON(engine, http.MethodPost, "/api/v1/fees/class-fees/"+id.String()+"/hike",
			`{"new_amount":"1650","effective_from":"2020-01-01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp, _ := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeInvalidEffectiveDate, resp.Error.Code)
	})
}

func TestCatalogHandler_ListCustomFeesRequiresStudent(t *testing.T) {
	tenantID := uuid.New()
	catalog := new(mockCatalogService)
	engine := newCatalogEngine(tenantID, catalog, new(mockHikeService))

	w := doJSON(engine, http.MethodGet, "/api/v1/fees/custom-fees", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	studentID := uuid.New()
	catalog.On("ListCustomFees", mock.Anything, tenantID, studentID).Return([]feeapp.CustomFeeResponse{}, nil)
	w = doJSON(engine, http.MethodGet, "/api/v1/fees/custom-fees?student_id="+studentID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	catalog.AssertExpectations(t)
}
