package fee

import "github.com/schoolfee/backend/internal/domain/shared"

// Error codes specific to fee billing
const (
	CodeBillAlreadyExists = "BILL_ALREADY_EXISTS"
	CodeBillHasPayments   = "BILL_HAS_PAYMENTS"
	CodeCategoryInUse     = "CATEGORY_IN_USE"
)

var (
	ErrBillAlreadyExists = shared.NewDomainError(CodeBillAlreadyExists, "A bill already exists for this student and period")
	ErrBillHasPayments   = shared.NewDomainError(CodeBillHasPayments, "A bill with recorded payments cannot be regenerated")
	ErrCategoryInUse     = shared.NewDomainError(CodeCategoryInUse, "Fee category is referenced by class fees and cannot be deleted")
)
