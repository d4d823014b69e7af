package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCategoryRepository is a mock implementation of FeeCategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeeCategory, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.FeeCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fee.FeeCategory, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.FeeCategory), args.Error(1)
}

func (m *MockCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, tenantID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *fee.FeeCategory) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) IsReferenced(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockClassFeeRepository is a mock implementation of ClassFeeRepository
type MockClassFeeRepository struct {
	mock.Mock
}

func (m *MockClassFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.ClassFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.ClassFee), args.Error(1)
}

func (m *MockClassFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.ClassFee, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.ClassFee), args.Error(1)
}

func (m *MockClassFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClassFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.ClassFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.ClassFee), args.Error(1)
}

func (m *MockClassFeeRepository) ExistsOpen(ctx context.Context, tenantID, classGroupID, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, classGroupID, categoryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClassFeeRepository) FindEffective(ctx context.Context, tenantID, classGroupID uuid.UUID, asOf time.Time) ([]fee.ClassFee, error) {
	args := m.Called(ctx, tenantID, classGroupID, asOf)
	return args.Get(0).([]fee.ClassFee), args.Error(1)
}

func (m *MockClassFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.ClassFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	return args.Get(0).([]fee.ClassFee), args.Error(1)
}

func (m *MockClassFeeRepository) Create(ctx context.Context, f *fee.ClassFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockClassFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.ClassFee) error {
	args := m.Called(ctx, previous, next)
	return args.Error(0)
}

// MockRouteRepository is a mock implementation of TransportRouteRepository
type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.TransportRoute, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.TransportRoute), args.Error(1)
}

func (m *MockRouteRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]fee.TransportRoute, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.TransportRoute), args.Error(1)
}

func (m *MockRouteRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRouteRepository) Save(ctx context.Context, route *fee.TransportRoute) error {
	args := m.Called(ctx, route)
	return args.Error(0)
}

// MockTransportFeeRepository is a mock implementation of TransportFeeRepository
type MockTransportFeeRepository struct {
	mock.Mock
}

func (m *MockTransportFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.TransportFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.TransportFee), args.Error(1)
}

func (m *MockTransportFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.TransportFee, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.TransportFee), args.Error(1)
}

func (m *MockTransportFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransportFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.TransportFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.TransportFee), args.Error(1)
}

func (m *MockTransportFeeRepository) ExistsOpen(ctx context.Context, tenantID, routeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, routeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransportFeeRepository) FindEffective(ctx context.Context, tenantID, routeID uuid.UUID, asOf time.Time) (*fee.TransportFee, error) {
	args := m.Called(ctx, tenantID, routeID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.TransportFee), args.Error(1)
}

func (m *MockTransportFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.TransportFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	return args.Get(0).([]fee.TransportFee), args.Error(1)
}

func (m *MockTransportFeeRepository) Create(ctx context.Context, f *fee.TransportFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockTransportFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.TransportFee) error {
	args := m.Called(ctx, previous, next)
	return args.Error(0)
}

// MockOptionalFeeRepository is a mock implementation of OptionalFeeRepository
type MockOptionalFeeRepository struct {
	mock.Mock
}

func (m *MockOptionalFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.OptionalFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.OptionalFee), args.Error(1)
}

func (m *MockOptionalFeeRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) ([]fee.OptionalFee, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.OptionalFee), args.Error(1)
}

func (m *MockOptionalFeeRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.ComponentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOptionalFeeRepository) FindOpen(ctx context.Context, tenantID, versionGroupID uuid.UUID) (*fee.OptionalFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.OptionalFee), args.Error(1)
}

func (m *MockOptionalFeeRepository) ExistsOpenByName(ctx context.Context, tenantID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, tenantID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockOptionalFeeRepository) FindEffective(ctx context.Context, tenantID uuid.UUID, asOf time.Time, groupIDs []uuid.UUID) ([]fee.OptionalFee, error) {
	args := m.Called(ctx, tenantID, asOf, groupIDs)
	return args.Get(0).([]fee.OptionalFee), args.Error(1)
}

func (m *MockOptionalFeeRepository) ListVersions(ctx context.Context, tenantID, versionGroupID uuid.UUID) ([]fee.OptionalFee, error) {
	args := m.Called(ctx, tenantID, versionGroupID)
	return args.Get(0).([]fee.OptionalFee), args.Error(1)
}

func (m *MockOptionalFeeRepository) Create(ctx context.Context, f *fee.OptionalFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockOptionalFeeRepository) ApplyHike(ctx context.Context, previous, next *fee.OptionalFee) error {
	args := m.Called(ctx, previous, next)
	return args.Error(0)
}

// MockCustomFeeRepository is a mock implementation of CustomFeeRepository
type MockCustomFeeRepository struct {
	mock.Mock
}

func (m *MockCustomFeeRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.CustomFee, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.CustomFee), args.Error(1)
}

func (m *MockCustomFeeRepository) FindByStudent(ctx context.Context, tenantID, studentID uuid.UUID) ([]fee.CustomFee, error) {
	args := m.Called(ctx, tenantID, studentID)
	return args.Get(0).([]fee.CustomFee), args.Error(1)
}

func (m *MockCustomFeeRepository) Save(ctx context.Context, f *fee.CustomFee) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockCustomFeeRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockCustomFeeRepository) MarkApplied(ctx context.Context, tenantID, billID uuid.UUID, ids []uuid.UUID) error {
	args := m.Called(ctx, tenantID, billID, ids)
	return args.Error(0)
}

// MockBillRepository is a mock implementation of FeeBillRepository
type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeeBill, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.FeeBill), args.Error(1)
}

func (m *MockBillRepository) FindByStudentPeriod(ctx context.Context, tenantID, studentID uuid.UUID, period shared.Period) (*fee.FeeBill, error) {
	args := m.Called(ctx, tenantID, studentID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.FeeBill), args.Error(1)
}

func (m *MockBillRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter) ([]fee.FeeBill, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]fee.FeeBill), args.Error(1)
}

func (m *MockBillRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBillRepository) Summarize(ctx context.Context, tenantID uuid.UUID, filter fee.FeeBillFilter, asOf time.Time) (*fee.BillSummary, error) {
	args := m.Called(ctx, tenantID, filter, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.BillSummary), args.Error(1)
}

func (m *MockBillRepository) Create(ctx context.Context, bill *fee.FeeBill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) SaveWithLock(ctx context.Context, bill *fee.FeeBill) error {
	args := m.Called(ctx, bill)
	return args.Error(0)
}

func (m *MockBillRepository) RecordPayment(ctx context.Context, bill *fee.FeeBill, payment *fee.FeePayment) error {
	args := m.Called(ctx, bill, payment)
	return args.Error(0)
}

// MockPaymentRepository is a mock implementation of FeePaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*fee.FeePayment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fee.FeePayment), args.Error(1)
}

func (m *MockPaymentRepository) FindByBill(ctx context.Context, tenantID, billID uuid.UUID) ([]fee.FeePayment, error) {
	args := m.Called(ctx, tenantID, billID)
	return args.Get(0).([]fee.FeePayment), args.Error(1)
}

func (m *MockPaymentRepository) SumByBill(ctx context.Context, tenantID, billID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, billID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockStudentRepository is a mock implementation of StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Student, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Student), args.Error(1)
}

func (m *MockStudentRepository) FindActive(ctx context.Context, tenantID uuid.UUID, classGroupID *uuid.UUID) ([]directory.Student, error) {
	args := m.Called(ctx, tenantID, classGroupID)
	return args.Get(0).([]directory.Student), args.Error(1)
}

func (m *MockStudentRepository) Save(ctx context.Context, s *directory.Student) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// eventTypes extracts the types of every event passed to Publish
func (m *MockEventPublisher) eventTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

func fixedClock(t time.Time) ServiceOption {
	return WithClock(func() time.Time { return t })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
