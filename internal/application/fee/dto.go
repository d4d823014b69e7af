package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest represents a request to create a fee category
type CreateCategoryRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=500"`
	DisplayOrder int    `json:"display_order" binding:"min=0"`
}

// UpdateCategoryRequest represents a request to update a fee category
type UpdateCategoryRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	Description  string `json:"description" binding:"max=500"`
	DisplayOrder int    `json:"display_order" binding:"min=0"`
}

// CategoryResponse represents a fee category in API responses
type CategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category to a response
func ToCategoryResponse(c *fee.FeeCategory) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ListFilter carries paging for catalog listings
type ListFilter struct {
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	ClassGroupID *uuid.UUID `form:"class_group_id"`
	CategoryID   *uuid.UUID `form:"fee_category_id"`
	RouteID      *uuid.UUID `form:"route_id"`
	CurrentOnly  bool       `form:"current_only"`
}

func (f ListFilter) componentFilter() fee.ComponentFilter {
	return fee.ComponentFilter{
		Filter:        shared.Filter{Page: f.Page, PageSize: f.PageSize}.Normalize(),
		ClassGroupID:  f.ClassGroupID,
		FeeCategoryID: f.CategoryID,
		RouteID:       f.RouteID,
		CurrentOnly:   f.CurrentOnly,
	}
}

// VersionInfo is the versioning block shared by catalog responses
type VersionInfo struct {
	VersionGroupID uuid.UUID `json:"version_group_id"`
	VersionNumber  int       `json:"version_number"`
	EffectiveFrom  string    `json:"effective_from"`
	EffectiveTo    *string   `json:"effective_to"`
	IsCurrent      bool      `json:"is_current"`
	CreatedAt      time.Time `json:"created_at"`
}

func toVersionInfo(v fee.Versioning, createdAt time.Time) VersionInfo {
	info := VersionInfo{
		VersionGroupID: v.VersionGroupID,
		VersionNumber:  v.VersionNumber,
		EffectiveFrom:  v.EffectiveFrom.Format(shared.DateLayout),
		IsCurrent:      v.IsOpen(),
		CreatedAt:      createdAt,
	}
	if v.EffectiveTo != nil {
		to := v.EffectiveTo.Format(shared.DateLayout)
		info.EffectiveTo = &to
	}
	return info
}

// CreateClassFeeRequest represents a request to create a class fee
type CreateClassFeeRequest struct {
	ClassGroupID  uuid.UUID        `json:"class_group_id" binding:"required"`
	FeeCategoryID uuid.UUID        `json:"fee_category_id" binding:"required"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	FeeCycle      string           `json:"fee_cycle" binding:"required,fee_cycle"`
	DueDay        int              `json:"due_day" binding:"omitempty,min=1,max=28"`
	EffectiveFrom string           `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// ClassFeeResponse represents one class fee version
type ClassFeeResponse struct {
	ID            uuid.UUID       `json:"id"`
	ClassGroupID  uuid.UUID       `json:"class_group_id"`
	FeeCategoryID uuid.UUID       `json:"fee_category_id"`
	Amount        decimal.Decimal `json:"amount"`
	FeeCycle      string          `json:"fee_cycle"`
	DueDay        int             `json:"due_day"`
	Notes         string          `json:"notes"`
	VersionInfo
}

// ToClassFeeResponse converts a domain class fee to a response
func ToClassFeeResponse(f *fee.ClassFee) ClassFeeResponse {
	return ClassFeeResponse{
		ID:            f.ID,
		ClassGroupID:  f.ClassGroupID,
		FeeCategoryID: f.FeeCategoryID,
		Amount:        f.Amount,
		FeeCycle:      string(f.FeeCycle),
		DueDay:        f.DueDay,
		Notes:         f.Notes,
		VersionInfo:   toVersionInfo(f.Versioning, f.CreatedAt),
	}
}

// CreateRouteRequest represents a request to create a transport route
type CreateRouteRequest struct {
	RouteName  string           `json:"route_name" binding:"required,min=1,max=100"`
	BusNumber  string           `json:"bus_number" binding:"max=50"`
	Zone       string           `json:"zone" binding:"max=100"`
	DistanceKM *decimal.Decimal `json:"distance_km"`
}

// RouteResponse represents a transport route
type RouteResponse struct {
	ID         uuid.UUID       `json:"id"`
	RouteName  string          `json:"route_name"`
	BusNumber  string          `json:"bus_number"`
	Zone       string          `json:"zone"`
	DistanceKM decimal.Decimal `json:"distance_km"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToRouteResponse converts a domain route to a response
func ToRouteResponse(r *fee.TransportRoute) RouteResponse {
	return RouteResponse{
		ID:         r.ID,
		RouteName:  r.RouteName,
		BusNumber:  r.BusNumber,
		Zone:       r.Zone,
		DistanceKM: r.DistanceKM,
		CreatedAt:  r.CreatedAt,
	}
}

// CreateTransportFeeRequest represents a request to create a transport fee
type CreateTransportFeeRequest struct {
	RouteID       uuid.UUID        `json:"route_id" binding:"required"`
	BaseFee       *decimal.Decimal `json:"base_fee" binding:"required"`
	EscortFee     *decimal.Decimal `json:"escort_fee"`
	FuelSurcharge *decimal.Decimal `json:"fuel_surcharge"`
	FeeCycle      string           `json:"fee_cycle" binding:"required,fee_cycle"`
	EffectiveFrom string           `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// TransportFeeResponse represents one transport fee version
type TransportFeeResponse struct {
	ID            uuid.UUID       `json:"id"`
	RouteID       uuid.UUID       `json:"route_id"`
	BaseFee       decimal.Decimal `json:"base_fee"`
	EscortFee     decimal.Decimal `json:"escort_fee"`
	FuelSurcharge decimal.Decimal `json:"fuel_surcharge"`
	TotalFee      decimal.Decimal `json:"total_fee"`
	FeeCycle      string          `json:"fee_cycle"`
	Notes         string          `json:"notes"`
	VersionInfo
}

// ToTransportFeeResponse converts a domain transport fee to a response
func ToTransportFeeResponse(f *fee.TransportFee) TransportFeeResponse {
	return TransportFeeResponse{
		ID:            f.ID,
		RouteID:       f.RouteID,
		BaseFee:       f.BaseFee,
		EscortFee:     f.EscortFee,
		FuelSurcharge: f.FuelSurcharge,
		TotalFee:      f.Total(),
		FeeCycle:      string(f.FeeCycle),
		Notes:         f.Notes,
		VersionInfo:   toVersionInfo(f.Versioning, f.CreatedAt),
	}
}

// CreateOptionalFeeRequest represents a request to create an optional fee
type CreateOptionalFeeRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	DefaultAmount *decimal.Decimal `json:"default_amount" binding:"required"`
	FeeCycle      string           `json:"fee_cycle" binding:"required,fee_cycle"`
	EffectiveFrom string           `json:"effective_from" binding:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// OptionalFeeResponse represents one optional fee version
type OptionalFeeResponse struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	DefaultAmount decimal.Decimal `json:"default_amount"`
	FeeCycle      string          `json:"fee_cycle"`
	Notes         string          `json:"notes"`
	VersionInfo
}

// ToOptionalFeeResponse converts a domain optional fee to a response
func ToOptionalFeeResponse(f *fee.OptionalFee) OptionalFeeResponse {
	return OptionalFeeResponse{
		ID:            f.ID,
		Name:          f.Name,
		DefaultAmount: f.DefaultAmount,
		FeeCycle:      string(f.FeeCycle),
		Notes:         f.Notes,
		VersionInfo:   toVersionInfo(f.Versioning, f.CreatedAt),
	}
}

// CreateCustomFeeRequest represents a request to add a per-student adjustment.
// The sign of Amount is ignored; it follows FeeType.
type CreateCustomFeeRequest struct {
	StudentID   uuid.UUID        `json:"student_id" binding:"required"`
	FeeType     string           `json:"fee_type" binding:"required,oneof=additional discount scholarship concession fine late_fee waiver"`
	Description string           `json:"description" binding:"max=200"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	FeeCycle    string           `json:"fee_cycle" binding:"required,fee_cycle"`
	Notes       string           `json:"notes" binding:"max=500"`
}

// CustomFeeResponse represents a custom fee
type CustomFeeResponse struct {
	ID            uuid.UUID       `json:"id"`
	StudentID     uuid.UUID       `json:"student_id"`
	FeeType       string          `json:"fee_type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	FeeCycle      string          `json:"fee_cycle"`
	Notes         string          `json:"notes"`
	AppliedBillID *uuid.UUID      `json:"applied_bill_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToCustomFeeResponse converts a domain custom fee to a response
func ToCustomFeeResponse(f *fee.CustomFee) CustomFeeResponse {
	return CustomFeeResponse{
		ID:            f.ID,
		StudentID:     f.StudentID,
		FeeType:       string(f.FeeType),
		Description:   f.Description,
		Amount:        f.Amount,
		FeeCycle:      string(f.FeeCycle),
		Notes:         f.Notes,
		AppliedBillID: f.AppliedBillID,
		CreatedAt:     f.CreatedAt,
	}
}

// HikeRequest represents a fee hike on a class or optional fee
type HikeRequest struct {
	NewAmount     *decimal.Decimal `json:"new_amount" binding:"required"`
	EffectiveFrom string           `json:"effective_from" binding:"required,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// TransportHikeRequest represents a hike on a transport fee. Omitted parts
// are carried over from the current version.
type TransportHikeRequest struct {
	BaseFee       *decimal.Decimal `json:"base_fee"`
	EscortFee     *decimal.Decimal `json:"escort_fee"`
	FuelSurcharge *decimal.Decimal `json:"fuel_surcharge"`
	EffectiveFrom string           `json:"effective_from" binding:"required,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// GenerateBillRequest represents a request to generate one student's bill
type GenerateBillRequest struct {
	StudentID      uuid.UUID   `json:"student_id" binding:"required"`
	Month          int         `json:"month" binding:"required,min=1,max=12"`
	Year           int         `json:"year" binding:"required,min=2000,max=2200"`
	Regenerate     bool        `json:"regenerate"`
	OptionalFeeIDs []uuid.UUID `json:"optional_fee_ids"`
	BillDate       string      `json:"bill_date" binding:"omitempty,datetime=2006-01-02"`
}

// GenerateBillsRequest represents a batch run over active students
type GenerateBillsRequest struct {
	ClassGroupID *uuid.UUID `json:"class_group_id"`
	Month        int        `json:"month" binding:"required,min=1,max=12"`
	Year         int        `json:"year" binding:"required,min=2000,max=2200"`
	Regenerate   bool       `json:"regenerate"`
	BillDate     string     `json:"bill_date" binding:"omitempty,datetime=2006-01-02"`
}

// GenerationFailure describes one student the batch could not bill
type GenerationFailure struct {
	StudentID uuid.UUID `json:"student_id"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
}

// GenerateBillsResult summarises a batch run
type GenerateBillsResult struct {
	Period          string              `json:"period"`
	BillsGenerated  int                 `json:"bills_generated"`
	SkippedExisting int                 `json:"skipped_existing"`
	Failures        []GenerationFailure `json:"failures"`
}

// BillItemResponse is one bill line
type BillItemResponse struct {
	ItemName string          `json:"item_name"`
	Amount   decimal.Decimal `json:"amount"`
	Source   string          `json:"source"`
	SourceID uuid.UUID       `json:"source_id"`
	Kind     string          `json:"kind,omitempty"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID                uuid.UUID          `json:"id"`
	BillNumber        string             `json:"bill_number"`
	StudentID         uuid.UUID          `json:"student_id"`
	ClassGroupID      uuid.UUID          `json:"class_group_id"`
	RouteID           *uuid.UUID         `json:"route_id,omitempty"`
	BillDate          string             `json:"bill_date"`
	PeriodMonth       int                `json:"bill_period_month"`
	PeriodYear        int                `json:"bill_period_year"`
	PeriodStart       string             `json:"bill_period_start"`
	PeriodEnd         string             `json:"bill_period_end"`
	DueDate           string             `json:"due_date"`
	Items             []BillItemResponse `json:"items"`
	ClassFeesTotal    decimal.Decimal    `json:"class_fees_total"`
	TransportFeeTotal decimal.Decimal    `json:"transport_fee_total"`
	OptionalFeesTotal decimal.Decimal    `json:"optional_fees_total"`
	CustomFeesTotal   decimal.Decimal    `json:"custom_fees_total"`
	FineTotal         decimal.Decimal    `json:"fine_total"`
	GrossAmount       decimal.Decimal    `json:"gross_amount"`
	DiscountAmount    decimal.Decimal    `json:"discount_amount"`
	ScholarshipAmount decimal.Decimal    `json:"scholarship_amount"`
	NetAmount         decimal.Decimal    `json:"net_amount"`
	TotalPaid         decimal.Decimal    `json:"total_paid"`
	Balance           decimal.Decimal    `json:"balance"`
	Status            string             `json:"status"`
	EffectiveStatus   string             `json:"effective_status"`
	IsOverdue         bool               `json:"is_overdue"`
	DaysOverdue       int                `json:"days_overdue"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Version           int                `json:"version"`
}

// ToBillResponse converts a domain bill to a response, evaluating overdue at now
func ToBillResponse(b *fee.FeeBill, now time.Time) BillResponse {
	items := make([]BillItemResponse, len(b.Items))
	for i, it := range b.Items {
		items[i] = BillItemResponse{
			ItemName: it.Name,
			Amount:   it.Amount,
			Source:   string(it.Source),
			SourceID: it.SourceID,
			Kind:     it.Kind,
		}
	}
	return BillResponse{
		ID:                b.ID,
		BillNumber:        b.BillNumber,
		StudentID:         b.StudentID,
		ClassGroupID:      b.ClassGroupID,
		RouteID:           b.RouteID,
		BillDate:          b.BillDate.Format(shared.DateLayout),
		PeriodMonth:       b.PeriodMonth,
		PeriodYear:        b.PeriodYear,
		PeriodStart:       b.PeriodStart.Format(shared.DateLayout),
		PeriodEnd:         b.PeriodEnd.Format(shared.DateLayout),
		DueDate:           b.DueDate.Format(shared.DateLayout),
		Items:             items,
		ClassFeesTotal:    b.ClassFeesTotal,
		TransportFeeTotal: b.TransportFeeTotal,
		OptionalFeesTotal: b.OptionalFeesTotal,
		CustomFeesTotal:   b.CustomFeesTotal,
		FineTotal:         b.FineTotal,
		GrossAmount:       b.GrossAmount,
		DiscountAmount:    b.DiscountAmount,
		ScholarshipAmount: b.ScholarshipAmount,
		NetAmount:         b.NetAmount,
		TotalPaid:         b.TotalPaid,
		Balance:           b.Balance,
		Status:            string(b.Status),
		EffectiveStatus:   string(b.EffectiveStatus(now)),
		IsOverdue:         b.IsOverdue(now),
		DaysOverdue:       b.DaysOverdue(now),
		PaidAt:            b.PaidAt,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		Version:           b.Version,
	}
}

// BillDetailResponse is a bill with its payment ledger
type BillDetailResponse struct {
	BillResponse
	Payments []PaymentResponse `json:"payments"`
}

// BillListFilter filters bill listings
type BillListFilter struct {
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	StudentID    *uuid.UUID `form:"student_id"`
	ClassGroupID *uuid.UUID `form:"class_group_id"`
	Status       string     `form:"status" binding:"omitempty,oneof=pending partially_paid paid overdue"`
	Month        *int       `form:"month" binding:"omitempty,min=1,max=12"`
	Year         *int       `form:"year" binding:"omitempty,min=2000,max=2200"`
	Overdue      bool       `form:"overdue"`
	SortBy       string     `form:"sort_by"`
	SortDesc     bool       `form:"sort_desc"`
}

// BillSummaryResponse aggregates bills matching a filter
type BillSummaryResponse struct {
	TotalBills         int64           `json:"total_bills"`
	TotalNet           decimal.Decimal `json:"total_net_amount"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	PendingCount       int64           `json:"pending_count"`
	PartiallyPaidCount int64           `json:"partially_paid_count"`
	PaidCount          int64           `json:"paid_count"`
	OverdueCount       int64           `json:"overdue_count"`
}

// RecordPaymentRequest represents a payment against a bill
type RecordPaymentRequest struct {
	BillID        uuid.UUID        `json:"bill_id" binding:"required"`
	AmountPaid    *decimal.Decimal `json:"amount_paid" binding:"required"`
	PaymentMode   string           `json:"payment_mode" binding:"required,payment_mode"`
	TransactionID string           `json:"transaction_id" binding:"max=100"`
	ChequeNumber  string           `json:"cheque_number" binding:"max=50"`
	BankName      string           `json:"bank_name" binding:"max=100"`
	PaymentDate   string           `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes" binding:"max=500"`
}

// PaymentResponse represents a ledger entry
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	BillID        uuid.UUID       `json:"bill_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	PaymentNumber string          `json:"payment_number"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	PaymentMode   string          `json:"payment_mode"`
	TransactionID string          `json:"transaction_id,omitempty"`
	ChequeNumber  string          `json:"cheque_number,omitempty"`
	BankName      string          `json:"bank_name,omitempty"`
	PaymentDate   string          `json:"payment_date"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *fee.FeePayment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		BillID:        p.BillID,
		StudentID:     p.StudentID,
		PaymentNumber: p.PaymentNumber,
		AmountPaid:    p.AmountPaid,
		PaymentMode:   string(p.PaymentMode),
		TransactionID: p.TransactionID,
		ChequeNumber:  p.ChequeNumber,
		BankName:      p.BankName,
		PaymentDate:   p.PaymentDate.Format(shared.DateLayout),
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

// RecordPaymentResponse is the payment plus the bill's new state
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Bill    BillResponse    `json:"bill"`
}
