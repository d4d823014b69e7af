package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
)

// BillService is the billing surface used by BillHandler
type BillService interface {
	GenerateBill(ctx context.Context, tenantID uuid.UUID, req feeapp.GenerateBillRequest) (*feeapp.BillResponse, error)
	GenerateBills(ctx context.Context, tenantID uuid.UUID, req feeapp.GenerateBillsRequest) (*feeapp.GenerateBillsResult, error)
	GetBill(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.BillDetailResponse, error)
	ListBills(ctx context.Context, tenantID uuid.UUID, filter feeapp.BillListFilter) ([]feeapp.BillResponse, int64, error)
	Summary(ctx context.Context, tenantID uuid.UUID, filter feeapp.BillListFilter) (*feeapp.BillSummaryResponse, error)
}

// BillPayments lists the payment ledger of a bill
type BillPayments interface {
	ListByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]feeapp.PaymentResponse, error)
}

// BillHandler serves bill generation and bill queries
type BillHandler struct {
	BaseHandler
	bills    BillService
	payments BillPayments
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(bills BillService, payments BillPayments) *BillHandler {
	return &BillHandler{bills: bills, payments: payments}
}

// generateBillsBody is the body of POST /fees/bills/generate. A student_id
// bills that student only; without one every active student is billed,
// optionally narrowed to class_group_id.
type generateBillsBody struct {
	StudentID      *uuid.UUID  `json:"student_id"`
	ClassGroupID   *uuid.UUID  `json:"class_group_id"`
	Month          int         `json:"month" binding:"required,min=1,max=12"`
	Year           int         `json:"year" binding:"required,min=2000,max=2200"`
	Regenerate     bool        `json:"regenerate"`
	OptionalFeeIDs []uuid.UUID `json:"optional_fee_ids"`
	BillDate       string      `json:"bill_date" binding:"omitempty,datetime=2006-01-02"`
}

// billListQuery filters bill listings and summaries
type billListQuery struct {
	pageQuery
	StudentID    string `form:"student_id" binding:"omitempty,uuid"`
	ClassGroupID string `form:"class_group_id" binding:"omitempty,uuid"`
	Status       string `form:"status" binding:"omitempty,oneof=pending partially_paid paid overdue"`
	Month        *int   `form:"month" binding:"omitempty,min=1,max=12"`
	Year         *int   `form:"year" binding:"omitempty,min=2000,max=2200"`
	Overdue      bool   `form:"overdue"`
	SortBy       string `form:"sort_by" binding:"omitempty,oneof=bill_date due_date net_amount balance bill_number created_at period_year"`
	SortDesc     bool   `form:"sort_desc"`
}

func (q billListQuery) toFilter() feeapp.BillListFilter {
	return feeapp.BillListFilter{
		Page:         q.Page,
		PageSize:     q.PageSize,
		StudentID:    optionalUUID(q.StudentID),
		ClassGroupID: optionalUUID(q.ClassGroupID),
		Status:       q.Status,
		Month:        q.Month,
		Year:         q.Year,
		Overdue:      q.Overdue,
		SortBy:       q.SortBy,
		SortDesc:     q.SortDesc,
	}
}

// Generate handles POST /fees/bills/generate
func (h *BillHandler) Generate(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var body generateBillsBody
	if !h.bindJSON(c, &body) {
		return
	}

	if body.StudentID != nil {
		bill, err := h.bills.GenerateBill(c.Request.Context(), tenantID, feeapp.GenerateBillRequest{
			StudentID:      *body.StudentID,
			Month:          body.Month,
			Year:           body.Year,
			Regenerate:     body.Regenerate,
			OptionalFeeIDs: body.OptionalFeeIDs,
			BillDate:       body.BillDate,
		})
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, bill)
		return
	}

	result, err := h.bills.GenerateBills(c.Request.Context(), tenantID, feeapp.GenerateBillsRequest{
		ClassGroupID: body.ClassGroupID,
		Month:        body.Month,
		Year:         body.Year,
		Regenerate:   body.Regenerate,
		BillDate:     body.BillDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List handles GET /fees/bills
func (h *BillHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q billListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page := q.normalized()
	bills, total, err := h.bills.ListBills(c.Request.Context(), tenantID, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, bills, total, page.Page, page.PageSize)
}

// Summary handles GET /fees/bills/summary
func (h *BillHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var q billListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	summary, err := h.bills.Summary(c.Request.Context(), tenantID, q.toFilter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get handles GET /fees/bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	bill, err := h.bills.GetBill(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Payments handles GET /fees/bills/:id/payments
func (h *BillHandler) Payments(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.payments.ListByBill(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}
