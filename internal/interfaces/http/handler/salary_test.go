package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payrollapp "github.com/schoolfee/backend/internal/application/payroll"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStructureService struct {
	mock.Mock
}

func (m *mockStructureService) UpsertStructure(ctx context.Context, tenantID uuid.UUID, req payrollapp.UpsertStructureRequest) (*payrollapp.StructureResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.StructureResponse), args.Error(1)
}

func (m *mockStructureService) GetCurrentStructure(ctx context.Context, tenantID, teacherID uuid.UUID) (*payrollapp.StructureResponse, error) {
	args := m.Called(ctx, tenantID, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.StructureResponse), args.Error(1)
}

func (m *mockStructureService) ListStructureVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]payrollapp.StructureResponse, error) {
	args := m.Called(ctx, tenantID, teacherID)
	return args.Get(0).([]payrollapp.StructureResponse), args.Error(1)
}

type mockSalaryService struct {
	SalaryService
	mock.Mock
}

func (m *mockSalaryService) GenerateSalary(ctx context.Context, tenantID, teacherID uuid.UUID, month, year int) (*payrollapp.SalaryRecordResponse, error) {
	args := m.Called(ctx, tenantID, teacherID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.SalaryRecordResponse), args.Error(1)
}

func (m *mockSalaryService) GenerateSalaries(ctx context.Context, tenantID uuid.UUID, month, year int) (*payrollapp.GenerateSalariesResult, error) {
	args := m.Called(ctx, tenantID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.GenerateSalariesResult), args.Error(1)
}

func (m *mockSalaryService) Approve(ctx context.Context, tenantID, id uuid.UUID) (*payrollapp.SalaryRecordResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.SalaryRecordResponse), args.Error(1)
}

func (m *mockSalaryService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID, req payrollapp.MarkPaidRequest) (*payrollapp.SalaryRecordResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.SalaryRecordResponse), args.Error(1)
}

func (m *mockSalaryService) ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, req payrollapp.SalaryPaymentRequest) (*payrollapp.SalaryRecordResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payrollapp.SalaryRecordResponse), args.Error(1)
}

func (m *mockSalaryService) ListRecords(ctx context.Context, tenantID uuid.UUID, filter payrollapp.RecordListFilter) ([]payrollapp.SalaryRecordResponse, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]payrollapp.SalaryRecordResponse), args.Get(1).(int64), args.Error(2)
}

type mockUnpaidService struct {
	mock.Mock
}

func (m *mockUnpaidService) ListUnpaid(ctx context.Context, tenantID uuid.UUID, query payrollapp.UnpaidQuery) (*payroll.UnpaidReport, error) {
	args := m.Called(ctx, tenantID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.UnpaidReport), args.Error(1)
}

type salaryMocks struct {
	structures *mockStructureService
	salaries   *mockSalaryService
	unpaid     *mockUnpaidService
}

func newSalaryEngine(tenantID uuid.UUID) (*gin.Engine, salaryMocks) {
	m := salaryMocks{
		structures: new(mockStructureService),
		salaries:   new(mockSalaryService),
		unpaid:     new(mockUnpaidService),
	}
	h := NewSalaryHandler(m.structures, m.salaries, m.unpaid)
	engine := newTestEngine(tenantID)
	salary := engine.Group("/api/v1/salary")
	salary.POST("/structure", h.UpsertStructure)
	salary.GET("/structure/:teacher_id", h.GetStructure)
	salary.GET("/structure/:teacher_id/versions", h.StructureVersions)
	salary.POST("/generate", h.Generate)
	salary.GET("/records", h.ListRecords)
	salary.PUT("/records/:id/approve", h.Approve)
	salary.PUT("/records/:id/mark-paid", h.MarkPaid)
	salary.POST("/records/:id/payments", h.ApplyPayment)
	salary.GET("/unpaid", h.Unpaid)
	return engine, m
}

func TestSalaryHandler_UpsertStructure(t *testing.T) {
	tenantID := uuid.New()
	teacherID := uuid.New()
	engine, m := newSalaryEngine(tenantID)
	m.structures.On("UpsertStructure", mock.Anything, tenantID, mock.MatchedBy(func(r payrollapp.UpsertStructureRequest) bool {
		return r.TeacherID == teacherID && r.BaseSalary.Equal(decimal.NewFromInt(30000)) && r.HRA.Equal(decimal.NewFromInt(5000))
	})).Return(&payrollapp.StructureResponse{
		ID:          uuid.New(),
		TeacherID:   teacherID,
		GrossSalary: decimal.NewFromInt(35000),
		IsCurrent:   true,
	}, nil)

	w := doJSON(engine, http.MethodPost, "/api/v1/salary/structure", map[string]any{
		"teacher_id":     teacherID,
		"base_salary":    "30000",
		"hra":            "5000",
		"effective_from": "2026-04-01",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gross_salary":"35000"`)
	m.structures.AssertExpectations(t)
}

func TestSalaryHandler_UpsertStructureRejectsBackdated(t *testing.T) {
	tenantID := uuid.New()
	engine, m := newSalaryEngine(tenantID)
	m.structures.On("UpsertStructure", mock.Anything, tenantID, mock.Anything).Return(nil, shared.ErrInvalidEffectiveDate)

	w := doJSON(engine, http.MethodPost, "/api/v1/salary/structure", map[string]any{
		"teacher_id":     uuid.New(),
		"base_salary":    "30000",
		"effective_from": "2020-01-01",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.CodeInvalidEffectiveDate, resp.Error.Code)
}

func TestSalaryHandler_GetStructureNotFound(t *testing.T) {
	tenantID := uuid.New()
	teacherID := uuid.New()
	engine, m := newSalaryEngine(tenantID)
	m.structures.On("GetCurrentStructure", mock.Anything, tenantID, teacherID).Return(nil, shared.ErrNotFound)

	w := doJSON(engine, http.MethodGet, "/api/v1/salary/structure/"+teacherID.String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalaryHandler_Generate(t *testing.T) {
	tenantID := uuid.New()

	t.Run("single teacher", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		teacherID := uuid.New()
		m.salaries.On("GenerateSalary", mock.Anything, tenantID, teacherID, 4, 2026).
			Return(&payrollapp.SalaryRecordResponse{ID: uuid.New(), TeacherID: teacherID}, nil)

		w := doJSON(engine, http.MethodPost, "/api/v1/salary/generate", map[string]any{
			"teacher_id": teacherID,
			"month":      4,
			"year":       2026,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		m.salaries.AssertExpectations(t)
	})

	t.Run("all teachers", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		m.salaries.On("GenerateSalaries", mock.Anything, tenantID, 4, 2026).
			Return(&payrollapp.GenerateSalariesResult{Period: "2026-04", RecordsGenerated: 7}, nil)

		w := doJSON(engine, http.MethodPost, "/api/v1/salary/generate", `{"month":4,"year":2026}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"records_generated":7`)
		m.salaries.AssertExpectations(t)
	})

	t.Run("existing record", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		m.salaries.On("GenerateSalary", mock.Anything, tenantID, mock.Anything, 4, 2026).Return(nil, payroll.ErrRecordAlreadyExists)

		w := doJSON(engine, http.MethodPost, "/api/v1/salary/generate", map[string]any{
			"teacher_id": uuid.New(),
			"month":      4,
			"year":       2026,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSalaryHandler_Lifecycle(t *testing.T) {
	tenantID := uuid.New()
	id := uuid.New()

	t.Run("approve twice", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		m.salaries.On("Approve", mock.Anything, tenantID, id).Return(nil, shared.ErrInvalidState)

		w := doJSON(engine, http.MethodPut, "/api/v1/salary/records/"+id.String()+"/approve", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("mark paid needs a date", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)

		w := doJSON(engine, http.MethodPut, "/api/v1/salary/records/"+id.String()+"/mark-paid", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.salaries.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mark paid", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		req := payrollapp.MarkPaidRequest{PaymentDate: "2026-05-02"}
		m.salaries.On("MarkPaid", mock.Anything, tenantID, id, req).
			Return(&payrollapp.SalaryRecordResponse{ID: id}, nil)

		w := doJSON(engine, http.MethodPut, "/api/v1/salary/records/"+id.String()+"/mark-paid", req)

		assert.Equal(t, http.StatusOK, w.Code)
		m.salaries.AssertExpectations(t)
	})

	t.Run("partial payment", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		m.salaries.On("ApplyPayment", mock.Anything, tenantID, id, mock.MatchedBy(func(r payrollapp.SalaryPaymentRequest) bool {
			return r.CashAmount != nil && r.CashAmount.Equal(decimal.NewFromInt(10000)) && r.CreditAmount == nil
		})).Return(&payrollapp.SalaryRecordResponse{ID: id}, nil)

		w := doJSON(engine, http.MethodPost, "/api/v1/salary/records/"+id.String()+"/payments", `{"cash_amount":"10000"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		m.salaries.AssertExpectations(t)
	})
}

func TestSalaryHandler_ListRecords(t *testing.T) {
	tenantID := uuid.New()
	teacherID := uuid.New()
	engine, m := newSalaryEngine(tenantID)
	m.salaries.On("ListRecords", mock.Anything, tenantID, mock.MatchedBy(func(f payrollapp.RecordListFilter) bool {
		return f.TeacherID != nil && *f.TeacherID == teacherID && f.Status == "approved" && f.Year != nil && *f.Year == 2026
	})).Return([]payrollapp.SalaryRecordResponse{}, int64(0), nil)

	w := doJSON(engine, http.MethodGet, "/api/v1/salary/records?teacher_id="+teacherID.String()+"&status=approved&year=2026", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	m.salaries.AssertExpectations(t)

	w = doJSON(engine, http.MethodGet, "/api/v1/salary/records?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalaryHandler_Unpaid(t *testing.T) {
	tenantID := uuid.New()
	engine, m := newSalaryEngine(tenantID)
	m.unpaid.On("ListUnpaid", mock.Anything, tenantID, payrollapp.UnpaidQuery{TimeScope: "last_6_months", Page: 1, PageSize: 20}).
		Return(&payroll.UnpaidReport{
			Scope:    payroll.TimeScope("last_6_months"),
			Summary:  payroll.UnpaidSummary{TotalTeachers: 1, TotalUnpaidAmount: decimal.NewFromInt(42000), TotalUnpaidMonths: 2},
			Teachers: []payroll.UnpaidTeacher{{TeacherID: uuid.New(), TeacherName: "R. Iyer", UnpaidMonthsCount: 2}},
			Total:    1,
			Page:     1,
			PageSize: 20,
		}, nil)

	w := doJSON(engine, http.MethodGet, "/api/v1/salary/unpaid?time_scope=last_6_months&page=1&page_size=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "R. Iyer")
	m.unpaid.AssertExpectations(t)

	t.Run("bad scope", func(t *testing.T) {
		engine, m := newSalaryEngine(tenantID)
		m.unpaid.On("ListUnpaid", mock.Anything, tenantID, mock.Anything).
			Return(nil, shared.NewValidationError("unsupported time scope"))

		w := doJSON(engine, http.MethodGet, "/api/v1/salary/unpaid?time_scope=last_forever", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
