package fee

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMode is how a fee payment was made
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeOnline       PaymentMode = "online"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeCheque       PaymentMode = "cheque"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
)

// IsValid checks if the mode is known
func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeOnline, PaymentModeUPI, PaymentModeCard,
		PaymentModeCheque, PaymentModeBankTransfer:
		return true
	}
	return false
}

// RequiresTransactionID reports whether the mode is electronic
func (m PaymentMode) RequiresTransactionID() bool {
	switch m {
	case PaymentModeOnline, PaymentModeUPI, PaymentModeCard, PaymentModeBankTransfer:
		return true
	}
	return false
}

// ParsePaymentMode accepts both snake_case and hyphenated spellings
func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !m.IsValid() {
		return "", shared.NewValidationError(fmt.Sprintf("unknown payment mode %q", s))
	}
	return m, nil
}

// PaymentDetails is the mode-dependent metadata of a payment
type PaymentDetails struct {
	TransactionID string
	ChequeNumber  string
	BankName      string
	Notes         string
}

// FeePayment is an append-only ledger entry against one bill
type FeePayment struct {
	shared.TenantAggregateRoot
	BillID        uuid.UUID
	StudentID     uuid.UUID
	PaymentNumber string
	AmountPaid    decimal.Decimal
	PaymentMode   PaymentMode
	TransactionID string
	ChequeNumber  string
	BankName      string
	PaymentDate   time.Time
	Notes         string
}

// NewFeePayment validates a payment against its bill. The payment number is
// assigned by the repository when the payment is recorded.
func NewFeePayment(bill *FeeBill, amount decimal.Decimal, mode PaymentMode, details PaymentDetails, paymentDate time.Time) (*FeePayment, error) {
	if bill == nil {
		return nil, shared.NewValidationError("bill is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount paid must be greater than zero")
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationError("invalid payment mode")
	}
	details.TransactionID = strings.TrimSpace(details.TransactionID)
	details.ChequeNumber = strings.TrimSpace(details.ChequeNumber)
	details.BankName = strings.TrimSpace(details.BankName)
	switch {
	case mode == PaymentModeCheque && (details.ChequeNumber == "" || details.BankName == ""):
		return nil, shared.NewValidationError("cheque payments require cheque_number and bank_name")
	case mode.RequiresTransactionID() && details.TransactionID == "":
		return nil, shared.NewValidationError(fmt.Sprintf("%s payments require transaction_id", mode))
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}
	return &FeePayment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(bill.TenantID),
		BillID:              bill.ID,
		StudentID:           bill.StudentID,
		AmountPaid:          amount,
		PaymentMode:         mode,
		TransactionID:       details.TransactionID,
		ChequeNumber:        details.ChequeNumber,
		BankName:            details.BankName,
		PaymentDate:         shared.DateOf(paymentDate),
		Notes:               details.Notes,
	}, nil
}
