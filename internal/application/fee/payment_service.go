package fee

import (
	"context"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentService records payments against bills
type PaymentService struct {
	serviceBase
	bills    fee.FeeBillRepository
	payments fee.FeePaymentRepository
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(bills fee.FeeBillRepository, payments fee.FeePaymentRepository, opts ...ServiceOption) *PaymentService {
	return &PaymentService{
		serviceBase: newServiceBase(opts),
		bills:       bills,
		payments:    payments,
	}
}

// RecordPayment appends a payment to the bill's ledger and advances its
// status. The bill is reloaded and the payment re-validated on every retry,
// so an amount that fit the balance before a concurrent payment can still be
// rejected as an overpayment afterwards.
func (s *PaymentService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*RecordPaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrBillID, req.BillID.String(),
		telemetry.SpanAttrAmount, amountOf(req.AmountPaid).String(),
		telemetry.SpanAttrPaymentMode, req.PaymentMode,
	)

	mode, err := fee.ParsePaymentMode(req.PaymentMode)
	if err != nil {
		return nil, err
	}
	paymentDate, err := s.dateOrToday(req.PaymentDate)
	if err != nil {
		return nil, err
	}
	details := fee.PaymentDetails{
		TransactionID: req.TransactionID,
		ChequeNumber:  req.ChequeNumber,
		BankName:      req.BankName,
		Notes:         req.Notes,
	}

	var (
		bill    *fee.FeeBill
		payment *fee.FeePayment
	)
	err = shared.RetryOnConflict(ctx, s.retries, func(attempt int) error {
		telemetry.SetAttribute(span, telemetry.SpanAttrAttempt, attempt+1)
		b, err := s.bills.FindByIDForTenant(ctx, tenantID, req.BillID)
		if err != nil {
			return err
		}
		p, err := fee.NewFeePayment(b, amountOf(req.AmountPaid), mode, details, paymentDate)
		if err != nil {
			return err
		}
		if err := b.ApplyPayment(p); err != nil {
			return err
		}
		if err := s.bills.RecordPayment(ctx, b, p); err != nil {
			if shared.IsDomainCode(err, shared.CodeConcurrentModification) {
				s.metrics.RecordConflict(ctx, "record_payment")
				s.logger.Debug("Payment lost a concurrent update, retrying",
					zap.String("bill_id", req.BillID.String()),
					zap.Int("attempt", attempt+1))
			}
			return err
		}
		bill, payment = b, p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrBillNumber, bill.BillNumber)
	s.metrics.RecordPayment(ctx, tenantID, string(mode), payment.AmountPaid)
	s.logger.Info("Fee payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("amount", payment.AmountPaid.StringFixed(2)),
		zap.String("status", string(bill.Status)))
	s.publish(ctx, bill)

	return &RecordPaymentResponse{
		Payment: ToPaymentResponse(payment),
		Bill:    ToBillResponse(bill, s.now()),
	}, nil
}

// GetPayment retrieves one ledger entry
func (s *PaymentService) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*PaymentResponse, error) {
	p, err := s.payments.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p)
	return &resp, nil
}

// ListByBill lists a bill's payments in the order they were recorded
func (s *PaymentService) ListByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.bills.FindByIDForTenant(ctx, tenantID, billID); err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByBill(ctx, tenantID, billID)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses, nil
}
