package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/directory"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockStructureRepository is a mock implementation of SalaryStructureRepository
type MockStructureRepository struct {
	mock.Mock
}

func (m *MockStructureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.SalaryStructure, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.SalaryStructure), args.Error(1)
}

func (m *MockStructureRepository) FindCurrent(ctx context.Context, tenantID, teacherID uuid.UUID) (*payroll.SalaryStructure, error) {
	args := m.Called(ctx, tenantID, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.SalaryStructure), args.Error(1)
}

func (m *MockStructureRepository) FindEffective(ctx context.Context, tenantID, teacherID uuid.UUID, asOf time.Time) (*payroll.SalaryStructure, error) {
	args := m.Called(ctx, tenantID, teacherID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.SalaryStructure), args.Error(1)
}

func (m *MockStructureRepository) ListVersions(ctx context.Context, tenantID, teacherID uuid.UUID) ([]payroll.SalaryStructure, error) {
	args := m.Called(ctx, tenantID, teacherID)
	return args.Get(0).([]payroll.SalaryStructure), args.Error(1)
}

func (m *MockStructureRepository) Create(ctx context.Context, s *payroll.SalaryStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStructureRepository) SaveWithLock(ctx context.Context, s *payroll.SalaryStructure) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStructureRepository) Supersede(ctx context.Context, previous, next *payroll.SalaryStructure) error {
	args := m.Called(ctx, previous, next)
	return args.Error(0)
}

// MockRecordRepository is a mock implementation of SalaryRecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payroll.SalaryRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.SalaryRecord), args.Error(1)
}

func (m *MockRecordRepository) FindByTeacherPeriod(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*payroll.SalaryRecord, error) {
	args := m.Called(ctx, tenantID, teacherID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payroll.SalaryRecord), args.Error(1)
}

func (m *MockRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter payroll.SalaryRecordFilter) ([]payroll.SalaryRecord, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]payroll.SalaryRecord), args.Error(1)
}

func (m *MockRecordRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter payroll.SalaryRecordFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) FindUnpaidInWindow(ctx context.Context, tenantID uuid.UUID, from, to shared.Period) ([]payroll.SalaryRecord, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]payroll.SalaryRecord), args.Error(1)
}

func (m *MockRecordRepository) Create(ctx context.Context, r *payroll.SalaryRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRecordRepository) SaveWithLock(ctx context.Context, r *payroll.SalaryRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockTeacherRepository is a mock implementation of TeacherRepository
type MockTeacherRepository struct {
	mock.Mock
}

func (m *MockTeacherRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*directory.Teacher, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) FindActive(ctx context.Context, tenantID uuid.UUID) ([]directory.Teacher, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]directory.Teacher), args.Error(1)
}

func (m *MockTeacherRepository) FindNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockTeacherRepository) Save(ctx context.Context, t *directory.Teacher) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockAttendanceRepository is a mock implementation of AttendanceRepository
type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Find(ctx context.Context, tenantID, teacherID uuid.UUID, period shared.Period) (*directory.TeacherAttendance, error) {
	args := m.Called(ctx, tenantID, teacherID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.TeacherAttendance), args.Error(1)
}

func (m *MockAttendanceRepository) Save(ctx context.Context, a *directory.TeacherAttendance) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// MockTenantCache is a mock implementation of TenantCache
type MockTenantCache struct {
	mock.Mock
}

func (m *MockTenantCache) Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockTenantCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, key, value, ttl)
	return args.Error(0)
}

func (m *MockTenantCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
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

func (m *MockEventPublisher) eventTypes() []string {
	var types []string
	for _, call := range m.Calls {
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

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}
