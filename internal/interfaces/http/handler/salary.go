package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	payrollapp "github.com/schoolfee/backend/internal/application/payroll"
	"github.com/schoolfee/backend/internal/domain/payroll"
)

// StructureService manages teacher salary structures
type StructureService interface {
	UpsertStructure(ctx context.Context, tenantID uuid.UUID, req payrollapp.UpsertStructureRequest) (*payrollapp.StructureResponse, error)
	GetCurrentStructure(ctx context.Context, tenantID, teacherID uuid.UUID) (*payrollapp.StructureResponse, error)
	ListStructureVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]payrollapp.StructureResponse, error)
}

// SalaryService generates and settles monthly salary records
type SalaryService interface {
	GenerateSalary(ctx context.Context, tenantID, teacherID uuid.UUID, month, year int) (*payrollapp.SalaryRecordResponse, error)
	GenerateSalaries(ctx context.Context, tenantID uuid.UUID, month, year int) (*payrollapp.GenerateSalariesResult, error)
	Approve(ctx context.Context, tenantID, id uuid.UUID) (*payrollapp.SalaryRecordResponse, error)
	MarkPaid(ctx context.Context, tenantID, id uuid.UUID, req payrollapp.MarkPaidRequest) (*payrollapp.SalaryRecordResponse, error)
	ApplyPayment(ctx context.Context, tenantID, id uuid.UUID, req payrollapp.SalaryPaymentRequest) (*payrollapp.SalaryRecordResponse, error)
	GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*payrollapp.SalaryRecordResponse, error)
	ListRecords(ctx context.Context, tenantID uuid.UUID, filter payrollapp.RecordListFilter) ([]payrollapp.SalaryRecordResponse, int64, error)
}

// UnpaidService reports outstanding salary
type UnpaidService interface {
	ListUnpaid(ctx context.Context, tenantID uuid.UUID, query payrollapp.UnpaidQuery) (*payroll.UnpaidReport, error)
}

// SalaryHandler serves salary structures, records and the unpaid report
type SalaryHandler struct {
	BaseHandler
	structures StructureService
	salaries   SalaryService
	unpaid     UnpaidService
}

// NewSalaryHandler creates a new SalaryHandler
func NewSalaryHandler(structures StructureService, salaries SalaryService, unpaid UnpaidService) *SalaryHandler {
	return &SalaryHandler{structures: structures, salaries: salaries, unpaid: unpaid}
}

// recordListQuery filters salary record listings
type recordListQuery struct {
	pageQuery
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=pending approved paid"`
	Month     *int   `form:"month" binding:"omitempty,min=1,max=12"`
	Year      *int   `form:"year" binding:"omitempty,min=2000,max=2200"`
}

// UpsertStructure handles POST /salary/structure
func (h *SalaryHandler) UpsertStructure(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req payrollapp.UpsertStructureRequest
	if !h.bindJSON(c, &req) {
		return
	}
	structure, err := h.structures.UpsertStructure(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, structure)
}

// GetStructure handles GET /salary/structure/:teacher_id
func (h *SalaryHandler) GetStructure(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	teacherID, ok := h.uuidParam(c, "teacher_id")
	if !ok {
		return
	}
	structure, err := h.structures.GetCurrentStructure(c.Request.Context(), tenantID, teacherID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, structure)
}

// StructureVersions handles GET /salary/structure/:teacher_id/versions
func (h *SalaryHandler) StructureVersions(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	teacherID, ok := h.uuidParam(c, "teacher_id")
	if !ok {
		return
	}
	versions, err := h.structures.ListStructureVersions(c.Request.Context(), tenantID, teacherID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, versions)
}

// Generate handles POST /salary/generate. With teacher_id one record is
// generated, otherwise every active teacher is processed.
func (h *SalaryHandler) Generate(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req payrollapp.GenerateSalaryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if req.TeacherID != nil {
		record, err := h.salaries.GenerateSalary(c.Request.Context(), tenantID, *req.TeacherID, req.Month, req.Year)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, record)
		return
	}

	result, err := h.salaries.GenerateSalaries(c.Request.Context(), tenantID, req.Month, req.Year)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListRecords handles GET /salary/records
func (h *SalaryHandler) ListRecords(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q recordListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	records, total, err := h.salaries.ListRecords(c.Request.Context(), tenantID, payrollapp.RecordListFilter{
		Page:      q.Page,
		PageSize:  q.PageSize,
		TeacherID: optionalUUID(q.TeacherID),
		Status:    q.Status,
		Month:     q.Month,
		Year:      q.Year,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, page.Page, page.PageSize)
}

// GetRecord handles GET /salary/records/:id
func (h *SalaryHandler) GetRecord(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	record, err := h.salaries.GetRecord(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Approve handles PUT /salary/records/:id/approve
func (h *SalaryHandler) Approve(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	record, err := h.salaries.Approve(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// MarkPaid handles PUT /salary/records/:id/mark-paid
func (h *SalaryHandler) MarkPaid(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req payrollapp.MarkPaidRequest
	if !h.bindJSON(c, &req) {
		return
	}
	record, err := h.salaries.MarkPaid(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// ApplyPayment handles POST /salary/records/:id/payments
func (h *SalaryHandler) ApplyPayment(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req payrollapp.SalaryPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	record, err := h.salaries.ApplyPayment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Unpaid handles GET /salary/unpaid?time_scope=
func (h *SalaryHandler) Unpaid(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q payrollapp.UnpaidQuery
	if !h.bindQuery(c, &q) {
		return
	}
	report, err := h.unpaid.ListUnpaid(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
