package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// FeeCategoryRepository persists fee categories
type FeeCategoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeCategory, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]FeeCategory, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// FindNames maps category ids to names for bill line labels
	FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
	ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	Save(ctx context.Context, category *FeeCategory) error
	// IsReferenced reports whether any class fee version uses the category
	IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// ComponentFilter filters catalog component listings
type ComponentFilter struct {
	shared.Filter
	ClassGroupID  *uuid.UUID
	FeeCategoryID *uuid.UUID
	RouteID       *uuid.UUID
	CurrentOnly   bool
}

// ClassFeeRepository persists class fee versions
type ClassFeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ClassFee, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) ([]ClassFee, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) (int64, error)
	// FindOpen returns the current version of a group
	FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*ClassFee, error)
	ExistsOpen(ctx context.Context, tenantID, classGroupID, categoryID uuid.UUID) (bool, error)
	// FindEffective returns the versions covering asOf, one per category
	FindEffective(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]ClassFee, error)
	ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]ClassFee, error)
	Create(ctx context.Context, fee *ClassFee) error
	// ApplyHike closes previous and inserts next atomically. A previous
	// version that is no longer open yields ErrConcurrentModification.
	ApplyHike(ctx context.Context, previous, next *ClassFee) error
}

// TransportRouteRepository persists routes
type TransportRouteRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TransportRoute, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]TransportRoute, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, route *TransportRoute) error
}

// TransportFeeRepository persists transport fee versions
type TransportFeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*TransportFee, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) ([]TransportFee, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) (int64, error)
	FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*TransportFee, error)
	ExistsOpen(ctx context.Context, tenantID, routeID uuid.UUID) (bool, error)
	// FindEffective returns the version covering asOf or ErrNotFound
	FindEffective(ctx context.Context, tenantID, routeID uuid.UUID, asOf time.Time) (*TransportFee, error)
	ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]TransportFee, error)
	Create(ctx context.Context, fee *TransportFee) error
	ApplyHike(ctx context.Context, previous, next *TransportFee) error
}

// OptionalFeeRepository persists optional fee versions
type OptionalFeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*OptionalFee, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) ([]OptionalFee, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ComponentFilter) (int64, error)
	FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*OptionalFee, error)
	ExistsOpenByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error)
	// FindEffective returns versions covering asOf; nil groupIDs means all groups
	FindEffective(ctx context.Context, tenantID uuid.UUID, asOf time.Time, groupIDs []uuid.UUID) ([]OptionalFee, error)
	ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]OptionalFee, error)
	Create(ctx context.Context, fee *OptionalFee) error
	ApplyHike(ctx context.Context, previous, next *OptionalFee) error
}

// CustomFeeRepository persists per-student adjustments
type CustomFeeRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CustomFee, error)
	FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]CustomFee, error)
	Save(ctx context.Context, fee *CustomFee) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
	// MarkApplied records billID on the listed one-time fees not yet taken
	// by another bill
	MarkApplied(ctx context.Context, tenantID, billID uuid.UUID, ids []uuid.UUID) error
}

// FeeBillFilter filters bill listings
type FeeBillFilter struct {
	shared.Filter
	StudentID    *uuid.UUID
	ClassGroupID *uuid.UUID
	Status       *BillStatus
	Month        *int
	Year         *int
	// OverdueAsOf restricts to unpaid bills due before this date
	OverdueAsOf *time.Time
}

// BillSummary aggregates bills matching a filter
type BillSummary struct {
	TotalBills         int64
	TotalNet           decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalBalance       decimal.Decimal
	PendingCount       int64
	PartiallyPaidCount int64
	PaidCount          int64
	OverdueCount       int64
}

// FeeBillRepository persists bills and the payment ledger
type FeeBillRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeBill, error)
	FindByStudentPeriod(ctx context.Context, tenantID, studentID uuid.UUID, period shared.Period) (*FeeBill, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeBillFilter) ([]FeeBill, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter FeeBillFilter) (int64, error)
	Summarize(ctx context.Context, tenantID uuid.UUID, filter FeeBillFilter, asOf time.Time) (*BillSummary, error)
	// Create assigns the bill number and inserts the bill. An existing bill
	// for the same student and period yields ErrBillAlreadyExists.
	Create(ctx context.Context, bill *FeeBill) error
	// SaveWithLock persists a regenerated snapshot guarded by Version
	SaveWithLock(ctx context.Context, bill *FeeBill) error
	// RecordPayment assigns the payment number, appends the payment and
	// saves the bill's payment fields in one transaction, guarded by Version.
	RecordPayment(ctx context.Context, bill *FeeBill, payment *FeePayment) error
}

// FeePaymentRepository reads the payment ledger
type FeePaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeePayment, error)
	FindByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]FeePayment, error)
	SumByBill(ctx context.Context, tenantID, billID uuid.UUID) (decimal.Decimal, error)
}
