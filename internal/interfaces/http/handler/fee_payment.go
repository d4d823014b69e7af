package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	feeapp "github.com/schoolfee/backend/internal/application/fee"
)

// PaymentService records and reads fee payments
type PaymentService interface {
	BillPayments
	RecordPayment(ctx context.Context, tenantID uuid.UUID, req feeapp.RecordPaymentRequest) (*feeapp.RecordPaymentResponse, error)
	GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*feeapp.PaymentResponse, error)
}

// PaymentHandler serves the fee payment ledger
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record handles POST /fees/payments. Payments above the bill balance are
// refused with OVERPAYMENT_REJECTED.
func (h *PaymentHandler) Record(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	var req feeapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.payments.RecordPayment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Get handles GET /fees/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetPayment(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}
