package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/shopspring/decimal"
)

func versioningFromDomain(v fee.Versioning) VersioningModel {
	return VersioningModel{
		VersionGroupID: v.VersionGroupID,
		VersionNumber:  v.VersionNumber,
		EffectiveFrom:  v.EffectiveFrom,
		EffectiveTo:    v.EffectiveTo,
		GroupStart:     v.GroupStart,
	}
}

func (m *VersioningModel) toDomain() fee.Versioning {
	return fee.Versioning{
		VersionGroupID: m.VersionGroupID,
		VersionNumber:  m.VersionNumber,
		EffectiveFrom:  utcDate(m.EffectiveFrom),
		EffectiveTo:    utcDatePtr(m.EffectiveTo),
		GroupStart:     utcDate(m.GroupStart),
	}
}

// utcDate normalises a date column read back from the driver
func utcDate(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func utcDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := utcDate(*t)
	return &d
}

// FeeCategoryModel is the persistence model for fee categories
type FeeCategoryModel struct {
	TenantAggregateModel
	Name         string `gorm:"type:varchar(100);not null"`
	Description  string `gorm:"type:text"`
	DisplayOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (FeeCategoryModel) TableName() string {
	return "fee_categories"
}

// ToDomain converts the persistence model to a domain FeeCategory
func (m *FeeCategoryModel) ToDomain() *fee.FeeCategory {
	return &fee.FeeCategory{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
		DisplayOrder:        m.DisplayOrder,
	}
}

// FromDomain populates the persistence model from a domain FeeCategory
func (m *FeeCategoryModel) FromDomain(c *fee.FeeCategory) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Description = c.Description
	m.DisplayOrder = c.DisplayOrder
}

// FeeCategoryModelFromDomain creates a new persistence model from a domain FeeCategory
func FeeCategoryModelFromDomain(c *fee.FeeCategory) *FeeCategoryModel {
	m := &FeeCategoryModel{}
	m.FromDomain(c)
	return m
}

// ClassFeeModel stores one version of a class fee. At most one open version
// exists per (class group, category).
type ClassFeeModel struct {
	TenantAggregateModel
	VersioningModel
	ClassGroupID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_class_fees_lookup,priority:1;uniqueIndex:idx_class_fees_open,priority:1,where:effective_to IS NULL"`
	FeeCategoryID uuid.UUID       `gorm:"type:uuid;not null;index:idx_class_fees_lookup,priority:2;uniqueIndex:idx_class_fees_open,priority:2,where:effective_to IS NULL"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FeeCycle      fee.FeeCycle    `gorm:"type:varchar(20);not null"`
	DueDay        int             `gorm:"not null;default:10"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClassFeeModel) TableName() string {
	return "class_fees"
}

// ToDomain converts the persistence model to a domain ClassFee
func (m *ClassFeeModel) ToDomain() *fee.ClassFee {
	return &fee.ClassFee{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Versioning:          m.VersioningModel.toDomain(),
		ClassGroupID:        m.ClassGroupID,
		FeeCategoryID:       m.FeeCategoryID,
		Amount:              m.Amount,
		FeeCycle:            m.FeeCycle,
		DueDay:              m.DueDay,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain ClassFee
func (m *ClassFeeModel) FromDomain(f *fee.ClassFee) {
	m.FromDomainTenantAggregateRoot(f.TenantAggregateRoot)
	m.VersioningModel = versioningFromDomain(f.Versioning)
	m.ClassGroupID = f.ClassGroupID
	m.FeeCategoryID = f.FeeCategoryID
	m.Amount = f.Amount
	m.FeeCycle = f.FeeCycle
	m.DueDay = f.DueDay
	m.Notes = f.Notes
}

// ClassFeeModelFromDomain creates a new persistence model from a domain ClassFee
func ClassFeeModelFromDomain(f *fee.ClassFee) *ClassFeeModel {
	m := &ClassFeeModel{}
	m.FromDomain(f)
	return m
}

// TransportRouteModel is the persistence model for bus routes
type TransportRouteModel struct {
	TenantAggregateModel
	RouteName  string          `gorm:"type:varchar(100);not null"`
	BusNumber  string          `gorm:"type:varchar(50)"`
	Zone       string          `gorm:"type:varchar(100)"`
	DistanceKM decimal.Decimal `gorm:"column:distance_km;type:decimal(10,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (TransportRouteModel) TableName() string {
	return "transport_routes"
}

// ToDomain converts the persistence model to a domain TransportRoute
func (m *TransportRouteModel) ToDomain() *fee.TransportRoute {
	return &fee.TransportRoute{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		RouteName:           m.RouteName,
		BusNumber:           m.BusNumber,
		Zone:                m.Zone,
		DistanceKM:          m.DistanceKM,
	}
}

// FromDomain populates the persistence model from a domain TransportRoute
func (m *TransportRouteModel) FromDomain(r *fee.TransportRoute) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.RouteName = r.RouteName
	m.BusNumber = r.BusNumber
	m.Zone = r.Zone
	m.DistanceKM = r.DistanceKM
}

// TransportRouteModelFromDomain creates a new persistence model from a domain TransportRoute
func TransportRouteModelFromDomain(r *fee.TransportRoute) *TransportRouteModel {
	m := &TransportRouteModel{}
	m.FromDomain(r)
	return m
}

// TransportFeeModel stores one version of a route's transport fee
type TransportFeeModel struct {
	TenantAggregateModel
	VersioningModel
	RouteID       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_transport_fees_open,where:effective_to IS NULL"`
	BaseFee       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EscortFee     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FuelSurcharge decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	FeeCycle      fee.FeeCycle    `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransportFeeModel) TableName() string {
	return "transport_fees"
}

// ToDomain converts the persistence model to a domain TransportFee
func (m *TransportFeeModel) ToDomain() *fee.TransportFee {
	return &fee.TransportFee{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Versioning:          m.VersioningModel.toDomain(),
		TransportCharges: fee.TransportCharges{
			BaseFee:       m.BaseFee,
			EscortFee:     m.EscortFee,
			FuelSurcharge: m.FuelSurcharge,
		},
		RouteID:  m.RouteID,
		FeeCycle: m.FeeCycle,
		Notes:    m.Notes,
	}
}

// FromDomain populates the persistence model from a domain TransportFee
func (m *TransportFeeModel) FromDomain(f *fee.TransportFee) {
	m.FromDomainTenantAggregateRoot(f.TenantAggregateRoot)
	m.VersioningModel = versioningFromDomain(f.Versioning)
	m.RouteID = f.RouteID
	m.BaseFee = f.BaseFee
	m.EscortFee = f.EscortFee
	m.FuelSurcharge = f.FuelSurcharge
	m.FeeCycle = f.FeeCycle
	m.Notes = f.Notes
}

// TransportFeeModelFromDomain creates a new persistence model from a domain TransportFee
func TransportFeeModelFromDomain(f *fee.TransportFee) *TransportFeeModel {
	m := &TransportFeeModel{}
	m.FromDomain(f)
	return m
}

// OptionalFeeModel stores one version of an optional fee. The open-name
// uniqueness is per school, so tenant_id is declared here for the index.
type OptionalFeeModel struct {
	AggregateModel
	VersioningModel
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_optional_fees_open,priority:1,where:effective_to IS NULL"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_optional_fees_open,priority:2,where:effective_to IS NULL"`
	DefaultAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FeeCycle      fee.FeeCycle    `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OptionalFeeModel) TableName() string {
	return "optional_fees"
}

// ToDomain converts the persistence model to a domain OptionalFee
func (m *OptionalFeeModel) ToDomain() *fee.OptionalFee {
	return &fee.OptionalFee{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		Versioning:          m.VersioningModel.toDomain(),
		Name:                m.Name,
		DefaultAmount:       m.DefaultAmount,
		FeeCycle:            m.FeeCycle,
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain OptionalFee
func (m *OptionalFeeModel) FromDomain(f *fee.OptionalFee) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.VersioningModel = versioningFromDomain(f.Versioning)
	m.TenantID = f.TenantID
	m.CreatedBy = f.CreatedBy
	m.Name = f.Name
	m.DefaultAmount = f.DefaultAmount
	m.FeeCycle = f.FeeCycle
	m.Notes = f.Notes
}

// OptionalFeeModelFromDomain creates a new persistence model from a domain OptionalFee
func OptionalFeeModelFromDomain(f *fee.OptionalFee) *OptionalFeeModel {
	m := &OptionalFeeModel{}
	m.FromDomain(f)
	return m
}

// CustomFeeModel is the persistence model for per-student adjustments
type CustomFeeModel struct {
	TenantAggregateModel
	StudentID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	FeeType       fee.CustomFeeType `gorm:"type:varchar(20);not null"`
	Description   string            `gorm:"type:varchar(255);not null"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	FeeCycle      fee.FeeCycle      `gorm:"type:varchar(20);not null"`
	Notes         string            `gorm:"type:text"`
	AppliedBillID *uuid.UUID        `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CustomFeeModel) TableName() string {
	return "custom_fees"
}

// ToDomain converts the persistence model to a domain CustomFee
func (m *CustomFeeModel) ToDomain() *fee.CustomFee {
	return &fee.CustomFee{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		StudentID:           m.StudentID,
		FeeType:             m.FeeType,
		Description:         m.Description,
		Amount:              m.Amount,
		FeeCycle:            m.FeeCycle,
		Notes:               m.Notes,
		AppliedBillID:       m.AppliedBillID,
	}
}

// FromDomain populates the persistence model from a domain CustomFee
func (m *CustomFeeModel) FromDomain(f *fee.CustomFee) {
	m.FromDomainTenantAggregateRoot(f.TenantAggregateRoot)
	m.StudentID = f.StudentID
	m.FeeType = f.FeeType
	m.Description = f.Description
	m.Amount = f.Amount
	m.FeeCycle = f.FeeCycle
	m.Notes = f.Notes
	m.AppliedBillID = f.AppliedBillID
}

// CustomFeeModelFromDomain creates a new persistence model from a domain CustomFee
func CustomFeeModelFromDomain(f *fee.CustomFee) *CustomFeeModel {
	m := &CustomFeeModel{}
	m.FromDomain(f)
	return m
}

// FeeBillModel is the persistence model for the FeeBill aggregate root.
// One bill per student and period; bill numbers are unique per school.
type FeeBillModel struct {
	AggregateModel
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_fee_bills_tenant_period,priority:1;uniqueIndex:idx_fee_bills_tenant_number,priority:1"`
	CreatedBy         *uuid.UUID      `gorm:"type:uuid"`
	StudentID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_fee_bills_student_period,priority:1"`
	ClassGroupID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	RouteID           *uuid.UUID      `gorm:"type:uuid"`
	BillNumber        string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_fee_bills_tenant_number,priority:2"`
	BillDate          time.Time       `gorm:"type:date;not null"`
	PeriodMonth       int             `gorm:"not null;uniqueIndex:idx_fee_bills_student_period,priority:3;index:idx_fee_bills_tenant_period,priority:3"`
	PeriodYear        int             `gorm:"not null;uniqueIndex:idx_fee_bills_student_period,priority:2;index:idx_fee_bills_tenant_period,priority:2"`
	PeriodStart       time.Time       `gorm:"type:date;not null"`
	PeriodEnd         time.Time       `gorm:"type:date;not null"`
	DueDate           time.Time       `gorm:"type:date;not null;index"`
	Items             fee.BillItems   `gorm:"type:jsonb;not null"`
	ClassFeesTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TransportFeeTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OptionalFeesTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CustomFeesTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FineTotal         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GrossAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ScholarshipAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	NetAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPaid         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Balance           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status            fee.BillStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt            *time.Time      `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (FeeBillModel) TableName() string {
	return "fee_bills"
}

// ToDomain converts the persistence model to a domain FeeBill
func (m *FeeBillModel) ToDomain() *fee.FeeBill {
	items := m.Items
	if items == nil {
		items = fee.BillItems{}
	}
	return &fee.FeeBill{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		StudentID:           m.StudentID,
		ClassGroupID:        m.ClassGroupID,
		RouteID:             m.RouteID,
		BillNumber:          m.BillNumber,
		BillDate:            utcDate(m.BillDate),
		PeriodMonth:         m.PeriodMonth,
		PeriodYear:          m.PeriodYear,
		PeriodStart:         utcDate(m.PeriodStart),
		PeriodEnd:           utcDate(m.PeriodEnd),
		DueDate:             utcDate(m.DueDate),
		Items:               items,
		ClassFeesTotal:      m.ClassFeesTotal,
		TransportFeeTotal:   m.TransportFeeTotal,
		OptionalFeesTotal:   m.OptionalFeesTotal,
		CustomFeesTotal:     m.CustomFeesTotal,
		FineTotal:           m.FineTotal,
		GrossAmount:         m.GrossAmount,
		DiscountAmount:      m.DiscountAmount,
		ScholarshipAmount:   m.ScholarshipAmount,
		NetAmount:           m.NetAmount,
		TotalPaid:           m.TotalPaid,
		Balance:             m.Balance,
		Status:              m.Status,
		PaidAt:              utcDatePtr(m.PaidAt),
	}
}

// FromDomain populates the persistence model from a domain FeeBill
func (m *FeeBillModel) FromDomain(b *fee.FeeBill) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.TenantID = b.TenantID
	m.CreatedBy = b.CreatedBy
	m.StudentID = b.StudentID
	m.ClassGroupID = b.ClassGroupID
	m.RouteID = b.RouteID
	m.BillNumber = b.BillNumber
	m.BillDate = b.BillDate
	m.PeriodMonth = b.PeriodMonth
	m.PeriodYear = b.PeriodYear
	m.PeriodStart = b.PeriodStart
	m.PeriodEnd = b.PeriodEnd
	m.DueDate = b.DueDate
	m.Items = b.Items
	m.ClassFeesTotal = b.ClassFeesTotal
	m.TransportFeeTotal = b.TransportFeeTotal
	m.OptionalFeesTotal = b.OptionalFeesTotal
	m.CustomFeesTotal = b.CustomFeesTotal
	m.FineTotal = b.FineTotal
	m.GrossAmount = b.GrossAmount
	m.DiscountAmount = b.DiscountAmount
	m.ScholarshipAmount = b.ScholarshipAmount
	m.NetAmount = b.NetAmount
	m.TotalPaid = b.TotalPaid
	m.Balance = b.Balance
	m.Status = b.Status
	m.PaidAt = b.PaidAt
}

// FeeBillModelFromDomain creates a new persistence model from a domain FeeBill
func FeeBillModelFromDomain(b *fee.FeeBill) *FeeBillModel {
	m := &FeeBillModel{}
	m.FromDomain(b)
	return m
}

// FeePaymentModel is one append-only ledger row
type FeePaymentModel struct {
	AggregateModel
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_fee_payments_tenant_number,priority:1"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
	BillID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	StudentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentNumber string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_fee_payments_tenant_number,priority:2"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentMode   fee.PaymentMode `gorm:"type:varchar(20);not null"`
	TransactionID string          `gorm:"type:varchar(100)"`
	ChequeNumber  string          `gorm:"type:varchar(50)"`
	BankName      string          `gorm:"type:varchar(100)"`
	PaymentDate   time.Time       `gorm:"type:date;not null"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (FeePaymentModel) TableName() string {
	return "fee_payments"
}

// ToDomain converts the persistence model to a domain FeePayment
func (m *FeePaymentModel) ToDomain() *fee.FeePayment {
	return &fee.FeePayment{
		TenantAggregateRoot: m.tenantRoot(m.TenantID, m.CreatedBy),
		BillID:              m.BillID,
		StudentID:           m.StudentID,
		PaymentNumber:       m.PaymentNumber,
		AmountPaid:          m.AmountPaid,
		PaymentMode:         m.PaymentMode,
		TransactionID:       m.TransactionID,
		ChequeNumber:        m.ChequeNumber,
		BankName:            m.BankName,
		PaymentDate:         utcDate(m.PaymentDate),
		Notes:               m.Notes,
	}
}

// FromDomain populates the persistence model from a domain FeePayment
func (m *FeePaymentModel) FromDomain(p *fee.FeePayment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.CreatedBy = p.CreatedBy
	m.BillID = p.BillID
	m.StudentID = p.StudentID
	m.PaymentNumber = p.PaymentNumber
	m.AmountPaid = p.AmountPaid
	m.PaymentMode = p.PaymentMode
	m.TransactionID = p.TransactionID
	m.ChequeNumber = p.ChequeNumber
	m.BankName = p.BankName
	m.PaymentDate = p.PaymentDate
	m.Notes = p.Notes
}

// FeePaymentModelFromDomain creates a new persistence model from a domain FeePayment
func FeePaymentModelFromDomain(p *fee.FeePayment) *FeePaymentModel {
	m := &FeePaymentModel{}
	m.FromDomain(p)
	return m
}
