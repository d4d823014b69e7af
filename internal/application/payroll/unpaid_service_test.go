package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var unpaidToday = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

func newUnpaidService() (*UnpaidService, *MockRecordRepository, *MockTeacherRepository, *MockTenantCache) {
	records := new(MockRecordRepository)
	teachers := new(MockTeacherRepository)
	cache := new(MockTenantCache)
	svc := NewUnpaidService(records, teachers, fixedClock(unpaidToday), WithReportCache(cache, 2*time.Minute), WithAcademicYearStart(4))
	return svc, records, teachers, cache
}

func unpaidRecord(tenantID, teacherID uuid.UUID, period shared.Period, pending string) payroll.SalaryRecord {
	r := payroll.SalaryRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TeacherID:           teacherID,
		Month:               period.Month,
		Year:                period.Year,
		PendingAmount:       dec(pending),
	}
	return r
}

func TestUnpaidService_ListUnpaid_ComputesAndCaches(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, records, teachers, cache := newUnpaidService()

	meera, arjun, kavya := uuid.New(), uuid.New(), uuid.New()
	feb, mar, apr := shared.Period{Month: 2, Year: 2024}, shared.Period{Month: 3, Year: 2024}, shared.Period{Month: 4, Year: 2024}
	rows := []payroll.SalaryRecord{
		unpaidRecord(tenantID, meera, feb, "27600"),
		unpaidRecord(tenantID, arjun, mar, "10000"),
		unpaidRecord(tenantID, meera, apr, "30000"),
		unpaidRecord(tenantID, kavya, apr, "10000"),
	}

	key := "unpaid:last_3_months:2024-05:1:2"
	cache.On("Get", mock.Anything, tenantID, key).Return(nil, false, nil)
	records.On("FindUnpaidInWindow", mock.Anything, tenantID, feb, apr).Return(rows, nil)
	teachers.On("FindNames", mock.Anything, tenantID, []uuid.UUID{meera, arjun, kavya}).Return(map[uuid.UUID]string{
		meera: "Meera Iyer",
		arjun: "Arjun Das",
		kavya: "Kavya Nair",
	}, nil)
	cache.On("Set", mock.Anything, tenantID, key, mock.AnythingOfType("[]uint8"), 2*time.Minute).Return(nil)

	report, err := svc.ListUnpaid(ctx, tenantID, UnpaidQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, payroll.DefaultTimeScope, report.Scope)
	assert.Equal(t, feb, report.From)
	assert.Equal(t, apr, report.To)
	assert.Equal(t, 3, report.Summary.TotalTeachers)
	assert.Equal(t, 4, report.Summary.TotalUnpaidMonths)
	assert.True(t, dec("77600").Equal(report.Summary.TotalUnpaidAmount))
	assert.Equal(t, int64(3), report.Total)

	require.Len(t, report.Teachers, 2)
	first := report.Teachers[0]
	assert.Equal(t, "Meera Iyer", first.TeacherName)
	assert.Equal(t, 2, first.UnpaidMonthsCount)
	assert.True(t, dec("57600").Equal(first.TotalUnpaidAmount))
	assert.Equal(t, feb, first.OldestUnpaidMonth)
	assert.Equal(t, apr, first.LatestUnpaidMonth)
	assert.Equal(t, 104, first.DaysSincePeriodStart)
	// equal totals fall back to name order
	assert.Equal(t, "Arjun Das", report.Teachers[1].TeacherName)

	cached := cache.Calls[len(cache.Calls)-1].Arguments.Get(3).([]byte)
	var decoded payroll.UnpaidReport
	require.NoError(t, json.Unmarshal(cached, &decoded))
	assert.Len(t, decoded.Teachers, 2)
}

func TestUnpaidService_ListUnpaid_CacheHit(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, records, _, cache := newUnpaidService()

	hit, err := json.Marshal(payroll.UnpaidReport{Scope: "last_month", Page: 1, PageSize: 20, Teachers: []payroll.UnpaidTeacher{}})
	require.NoError(t, err)
	cache.On("Get", mock.Anything, tenantID, "unpaid:last_month:2024-05:1:20").Return(hit, true, nil)

	report, err := svc.ListUnpaid(ctx, tenantID, UnpaidQuery{TimeScope: "last_month"})
	require.NoError(t, err)
	assert.Equal(t, payroll.TimeScope("last_month"), report.Scope)
	records.AssertNotCalled(t, "FindUnpaidInWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnpaidService_ListUnpaid_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	svc, records, _, cache := newUnpaidService()

	apr := shared.Period{Month: 4, Year: 2024}
	cache.On("Get", mock.Anything, tenantID, mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	records.On("FindUnpaidInWindow", mock.Anything, tenantID, shared.Period{Month: 4, Year: 2024}, shared.Period{Month: 5, Year: 2024}).
		Return([]payroll.SalaryRecord{}, nil)

	report, err := svc.ListUnpaid(ctx, tenantID, UnpaidQuery{TimeScope: "current_academic_year"})
	require.NoError(t, err)
	assert.Equal(t, apr, report.From)
	assert.Empty(t, report.Teachers)
	assert.Zero(t, report.Summary.TotalTeachers)
}

func TestUnpaidService_ListUnpaid_PageBeyondEnd(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	records := new(MockRecordRepository)
	teachers := new(MockTeacherRepository)
	svc := NewUnpaidService(records, teachers, fixedClock(unpaidToday))

	teacherID := uuid.New()
	apr := shared.Period{Month: 4, Year: 2024}
	records.On("FindUnpaidInWindow", mock.Anything, tenantID, apr, apr).
		Return([]payroll.SalaryRecord{unpaidRecord(tenantID, teacherID, apr, "100")}, nil)
	teachers.On("FindNames", mock.Anything, tenantID, []uuid.UUID{teacherID}).Return(map[uuid.UUID]string{teacherID: "Meera Iyer"}, nil)

	report, err := svc.ListUnpaid(ctx, tenantID, UnpaidQuery{TimeScope: "last_month", Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Total)
	assert.Empty(t, report.Teachers)
	assert.Equal(t, 3, report.Page)
}

func TestUnpaidService_ListUnpaid_InvalidScope(t *testing.T) {
	svc, records, _, cache := newUnpaidService()
	_, err := svc.ListUnpaid(context.Background(), uuid.New(), UnpaidQuery{TimeScope: "last_13_months"})
	assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "FindUnpaidInWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
