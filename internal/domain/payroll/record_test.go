package payroll

import (
	"testing"
	"time"

	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T) (*SalaryRecord, *SalaryStructure) {
	t.Helper()
	s := newTestStructure(t, true)
	period := shared.Period{Month: 3, Year: 2024}
	r := NewSalaryRecord(s.TenantID, period, s, ComputeSalary(s, Attendance{WorkingDays: 25, AbsentDays: 2}))
	return r, s
}

func TestNewSalaryRecord(t *testing.T) {
	r, s := newTestRecord(t)

	assert.Equal(t, SalaryStatusPending, r.Status)
	assert.Equal(t, s.ID, r.StructureID)
	assert.True(t, r.NetSalary.Equal(dec(27600)))
	assert.True(t, r.PendingAmount.Equal(dec(27600)))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.PeriodStart)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), r.PeriodEnd)
	assert.True(t, r.IsUnpaid())
	require.Len(t, r.GetDomainEvents(), 1)
}

func TestSalaryRecord_StateMachine(t *testing.T) {
	r, _ := newTestRecord(t)
	now := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

	err := r.MarkPaid(now)
	assert.True(t, shared.IsDomainCode(err, shared.CodeInvalidState), "pending cannot jump to paid")

	require.NoError(t, r.Approve(now))
	assert.Equal(t, SalaryStatusApproved, r.Status)
	require.NotNil(t, r.ApprovedAt)

	err = r.Approve(now)
	assert.True(t, shared.IsDomainCode(err, shared.CodeInvalidState))

	err = r.MarkPaid(time.Time{})
	assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))

	require.NoError(t, r.MarkPaid(now))
	assert.Equal(t, SalaryStatusPaid, r.Status)
	require.NotNil(t, r.PaymentDate)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), *r.PaymentDate)
}

func TestSalaryRecord_ApplyPayment(t *testing.T) {
	r, _ := newTestRecord(t)

	err := r.ApplyPayment(dec(1000), dec(0))
	assert.True(t, shared.IsDomainCode(err, shared.CodeInvalidState), "pending records must be approved first")
	assert.True(t, r.PaidAmount.IsZero())

	require.NoError(t, r.Approve(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, r.ApplyPayment(dec(20000), dec(0)))
	assert.True(t, r.PendingAmount.Equal(dec(7600)))

	require.NoError(t, r.ApplyPayment(dec(0), dec(600)))
	assert.True(t, r.CreditApplied.Equal(dec(600)))
	assert.True(t, r.PendingAmount.Equal(dec(7000)))

	err = r.ApplyPayment(dec(7001), dec(0))
	assert.ErrorIs(t, err, shared.ErrOverpaymentRejected)

	err = r.ApplyPayment(dec(0), dec(0))
	assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))

	err = r.ApplyPayment(dec(-1), dec(5))
	assert.True(t, shared.IsDomainCode(err, shared.CodeValidation))

	require.NoError(t, r.ApplyPayment(dec(7000), dec(0)))
	assert.False(t, r.IsUnpaid())
	assert.Equal(t, SalaryStatusApproved, r.Status, "settling the amount does not change status")

	require.NoError(t, r.MarkPaid(time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)))
	err = r.ApplyPayment(dec(1), dec(0))
	assert.True(t, shared.IsDomainCode(err, shared.CodeInvalidState))
}

func TestSalaryRecord_Regenerate(t *testing.T) {
	r, s := newTestRecord(t)
	require.NoError(t, r.Approve(time.Now()))
	require.NoError(t, r.ApplyPayment(dec(10000), dec(0)))

	require.NoError(t, r.Regenerate(s, ComputeSalary(s, Attendance{WorkingDays: 25, AbsentDays: 0})))
	assert.True(t, r.NetSalary.Equal(dec(30000)))
	assert.True(t, r.PaidAmount.Equal(dec(10000)), "payments survive regeneration")
	assert.True(t, r.PendingAmount.Equal(dec(20000)))

	err := r.Regenerate(s, ComputeSalary(s, Attendance{WorkingDays: 25, AbsentDays: 25}))
	assert.ErrorIs(t, err, shared.ErrOverpaymentRejected)

	assert.Equal(t, SalaryStatusApproved, r.Status, "regeneration keeps the approval")
	require.NoError(t, r.MarkPaid(time.Now()))
	err = r.Regenerate(s, ComputeSalary(s, Attendance{}))
	assert.True(t, shared.IsDomainCode(err, shared.CodeInvalidState))
}
