package fee

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type catalogMocks struct {
	categories    *MockCategoryRepository
	classFees     *MockClassFeeRepository
	routes        *MockRouteRepository
	transportFees *MockTransportFeeRepository
	optionalFees  *MockOptionalFeeRepository
	customFees    *MockCustomFeeRepository
}

var catalogToday = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

func newCatalogService() (*CatalogService, catalogMocks) {
	m := catalogMocks{
		categories:    new(MockCategoryRepository),
		classFees:     new(MockClassFeeRepository),
		routes:        new(MockRouteRepository),
		transportFees: new(MockTransportFeeRepository),
		optionalFees:  new(MockOptionalFeeRepository),
		customFees:    new(MockCustomFeeRepository),
	}
	svc := NewCatalogService(CatalogRepositories{
		Categories:    m.categories,
		ClassFees:     m.classFees,
		Routes:        m.routes,
		TransportFees: m.transportFees,
		OptionalFees:  m.optionalFees,
		CustomFees:    m.customFees,
	}, fixedClock(catalogToday))
	return svc, m
}

func TestCatalogService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates category", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("ExistsByName", ctx, tenantID, "Tuition", (*uuid.UUID)(nil)).Return(false, nil)
		m.categories.On("Save", ctx, mock.AnythingOfType("*fee.FeeCategory")).Return(nil)

		resp, err := svc.CreateCategory(ctx, tenantID, CreateCategoryRequest{Name: " Tuition ", DisplayOrder: 1})
		require.NoError(t, err)
		assert.Equal(t, "Tuition", resp.Name)
		assert.Equal(t, 1, resp.DisplayOrder)
		m.categories.AssertExpectations(t)
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("ExistsByName", ctx, tenantID, "Tuition", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.CreateCategory(ctx, tenantID, CreateCategoryRequest{Name: "Tuition"})
		assert.True(t, shared.IsDomainCode(err, shared.CodeAlreadyExists))
		m.categories.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCatalogService_UpdateCategory(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	category, err := fee.NewFeeCategory(tenantID, "Lab", "", 2)
	require.NoError(t, err)

	svc, m := newCatalogService()
	m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(category, nil)
	m.categories.On("ExistsByName", ctx, tenantID, "Science Lab", &category.ID).Return(false, nil)
	m.categories.On("Save", ctx, category).Return(nil)

	resp, err := svc.UpdateCategory(ctx, tenantID, category.ID, UpdateCategoryRequest{Name: "Science Lab", DisplayOrder: 3})
	require.NoError(t, err)
	assert.Equal(t, "Science Lab", resp.Name)
	assert.Equal(t, 3, resp.DisplayOrder)
	assert.Equal(t, 2, category.Version)
}

func TestCatalogService_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	category, err := fee.NewFeeCategory(tenantID, "Library", "", 0)
	require.NoError(t, err)

	t.Run("blocked while referenced", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(category, nil)
		m.categories.On("IsReferenced", ctx, tenantID, category.ID).Return(true, nil)

		err := svc.DeleteCategory(ctx, tenantID, category.ID)
		assert.ErrorIs(t, err, fee.ErrCategoryInUse)
		m.categories.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deletes unreferenced category", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(category, nil)
		m.categories.On("IsReferenced", ctx, tenantID, category.ID).Return(false, nil)
		m.categories.On("DeleteForTenant", ctx, tenantID, category.ID).Return(nil)

		require.NoError(t, svc.DeleteCategory(ctx, tenantID, category.ID))
		m.categories.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newCatalogService()
		id := uuid.New()
		m.categories.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, shared.ErrNotFound)

		assert.ErrorIs(t, svc.DeleteCategory(ctx, tenantID, id), shared.ErrNotFound)
	})
}

func TestCatalogService_CreateClassFee(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	classGroupID := uuid.New()
	category, err := fee.NewFeeCategory(tenantID, "Tuition", "", 0)
	require.NoError(t, err)

	req := CreateClassFeeRequest{
		ClassGroupID:  classGroupID,
		FeeCategoryID: category.ID,
		Amount:        decPtr("3000"),
		FeeCycle:      "monthly",
	}

	t.Run("creates version 1 effective today", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(category, nil)
		m.classFees.On("ExistsOpen", ctx, tenantID, classGroupID, category.ID).Return(false, nil)
		m.classFees.On("Create", ctx, mock.AnythingOfType("*fee.ClassFee")).Return(nil)

		resp, err := svc.CreateClassFee(ctx, tenantID, req)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.VersionNumber)
		assert.Equal(t, "2024-03-12", resp.EffectiveFrom)
		assert.Nil(t, resp.EffectiveTo)
		assert.True(t, resp.IsCurrent)
		assert.Equal(t, 10, resp.DueDay)
		assert.True(t, dec("3000").Equal(resp.Amount))
	})

	t.Run("rejects a second open version", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(category, nil)
		m.classFees.On("ExistsOpen", ctx, tenantID, classGroupID, category.ID).Return(true, nil)

		_, err := svc.CreateClassFee(ctx, tenantID, req)
		assert.True(t, shared.IsDomainCode(err, shared.CodeAlreadyExists))
		m.classFees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc, m := newCatalogService()
		m.categories.On("FindByIDForTenant", ctx, tenantID, category.ID).Return(nil, shared.ErrNotFound)

		_, err := svc.CreateClassFee(ctx, tenantID, req)
		assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))
	})

	t.Run("rejects invalid cycle", func(t *testing.T) {
		svc, _ := newCatalogService()
		bad := req
		bad.FeeCycle = "per_bill"
		_, err := svc.CreateClassFee(ctx, tenantID, bad)
		assert.Error(t, err)
	})
}

func TestCatalogService_ClassFeeVersions(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	v1, err := fee.NewClassFee(tenantID, uuid.New(), uuid.New(), dec("3000"), fee.CycleMonthly, 10,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	v2, err := v1.Hike(dec("3500"), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "annual revision")
	require.NoError(t, err)

	svc, m := newCatalogService()
	m.classFees.On("FindByIDForTenant", ctx, tenantID, v2.ID).Return(v2, nil)
	m.classFees.On("ListVersions", ctx, tenantID, v1.VersionGroupID).Return([]fee.ClassFee{*v1, *v2}, nil)

	versions, err := svc.ClassFeeVersions(ctx, tenantID, v2.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].VersionNumber)
	require.NotNil(t, versions[0].EffectiveTo)
	assert.Equal(t, "2024-04-01", *versions[0].EffectiveTo)
	assert.False(t, versions[0].IsCurrent)
	assert.Equal(t, versions[0].VersionGroupID, versions[1].VersionGroupID)
	assert.True(t, versions[1].IsCurrent)
}

func TestCatalogService_Applicable(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	routeID := uuid.New()
	classGroupID := uuid.New()

	t.Run("no transport version covering the date is an empty list", func(t *testing.T) {
		svc, m := newCatalogService()
		m.transportFees.On("FindEffective", ctx, tenantID, routeID, catalogToday).Return(nil, shared.ErrNotFound)

		fees, err := svc.ApplicableTransportFees(ctx, tenantID, routeID, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, fees)
	})

	t.Run("class fees as of a given date", func(t *testing.T) {
		svc, m := newCatalogService()
		asOf := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
		f, err := fee.NewClassFee(tenantID, classGroupID, uuid.New(), dec("3500"), fee.CycleMonthly, 10, asOf, "")
		require.NoError(t, err)
		m.classFees.On("FindEffective", ctx, tenantID, classGroupID, asOf).Return([]fee.ClassFee{*f}, nil)

		fees, err := svc.ApplicableClassFees(ctx, tenantID, classGroupID, asOf.Add(9*time.Hour))
		require.NoError(t, err)
		require.Len(t, fees, 1)
		assert.True(t, dec("3500").Equal(fees[0].Amount))
	})

	t.Run("optional fees across all groups", func(t *testing.T) {
		svc, m := newCatalogService()
		m.optionalFees.On("FindEffective", ctx, tenantID, catalogToday, []uuid.UUID(nil)).Return([]fee.OptionalFee{}, nil)

		fees, err := svc.ApplicableOptionalFees(ctx, tenantID, time.Time{})
		require.NoError(t, err)
		assert.Empty(t, fees)
	})
}

func TestCatalogService_CreateTransportFee(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	route, err := fee.NewTransportRoute(tenantID, "North Loop", "KA-01-1234", "North", dec("12.5"))
	require.NoError(t, err)

	svc, m := newCatalogService()
	m.routes.On("FindByIDForTenant", ctx, tenantID, route.ID).Return(route, nil)
	m.transportFees.On("ExistsOpen", ctx, tenantID, route.ID).Return(false, nil)
	m.transportFees.On("Create", ctx, mock.AnythingOfType("*fee.TransportFee")).Return(nil)

	resp, err := svc.CreateTransportFee(ctx, tenantID, CreateTransportFeeRequest{
		RouteID:       route.ID,
		BaseFee:       decPtr("1200"),
		EscortFee:     decPtr("150"),
		FeeCycle:      "monthly",
		EffectiveFrom: "2024-04-01",
	})
	require.NoError(t, err)
	assert.True(t, dec("1350").Equal(resp.TotalFee))
	assert.True(t, resp.FuelSurcharge.IsZero())
	assert.Equal(t, "2024-04-01", resp.EffectiveFrom)
}

func TestCatalogService_CreateOptionalFee_Duplicate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	svc, m := newCatalogService()
	m.optionalFees.On("ExistsOpenByName", ctx, tenantID, "Swimming").Return(true, nil)

	_, err := svc.CreateOptionalFee(ctx, tenantID, CreateOptionalFeeRequest{
		Name:          "Swimming",
		DefaultAmount: decPtr("500"),
		FeeCycle:      "monthly",
	})
	assert.True(t, shared.IsDomainCode(err, shared.CodeAlreadyExists))
}

func TestCatalogService_CustomFees(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	studentID := uuid.New()

	t.Run("discount is stored negative", func(t *testing.T) {
		svc, m := newCatalogService()
		m.customFees.On("Save", ctx, mock.AnythingOfType("*fee.CustomFee")).Return(nil)

		resp, err := svc.CreateCustomFee(ctx, tenantID, CreateCustomFeeRequest{
			StudentID: studentID,
			FeeType:   "discount",
			Amount:    decPtr("500"),
			FeeCycle:  "monthly",
		})
		require.NoError(t, err)
		assert.True(t, dec("-500").Equal(resp.Amount))
		assert.Equal(t, "discount", resp.Description)
	})

	t.Run("fine is stored positive", func(t *testing.T) {
		svc, m := newCatalogService()
		m.customFees.On("Save", ctx, mock.AnythingOfType("*fee.CustomFee")).Return(nil)

		resp, err := svc.CreateCustomFee(ctx, tenantID, CreateCustomFeeRequest{
			StudentID:   studentID,
			FeeType:     "fine",
			Description: "Library fine",
			Amount:      decPtr("-50"),
			FeeCycle:    "one_time",
		})
		require.NoError(t, err)
		assert.True(t, dec("50").Equal(resp.Amount))
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		svc, _ := newCatalogService()
		_, err := svc.CreateCustomFee(ctx, tenantID, CreateCustomFeeRequest{
			StudentID: studentID,
			FeeType:   "additional",
			Amount:    decPtr("0"),
			FeeCycle:  "per_bill",
		})
		assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))
	})

	t.Run("delete checks ownership first", func(t *testing.T) {
		svc, m := newCatalogService()
		id := uuid.New()
		m.customFees.On("FindByIDForTenant", ctx, tenantID, id).Return(nil, shared.ErrNotFound)

		assert.ErrorIs(t, svc.DeleteCustomFee(ctx, tenantID, id), shared.ErrNotFound)
		m.customFees.AssertNotCalled(t, "DeleteForTenant", mock.Anything, mock.Anything, mock.Anything)
	})
}
