package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Outcomes recorded on batch counters
const (
	OutcomeCreated     = "created"
	OutcomeRegenerated = "regenerated"
	OutcomeSkipped     = "skipped"
	OutcomeFailed      = "failed"
)

// SchoolMetrics are the billing and payroll business counters. All methods
// are safe on a nil receiver so services can run without metrics.
type SchoolMetrics struct {
	billsGenerated   *Counter
	paymentsRecorded *Counter
	amountCollected  *Counter
	hikesApplied     *Counter
	salaries         *Counter
	salaryPayments   *Counter
	conflicts        *Counter
	batchDuration    *Histogram
}

// NewSchoolMetrics registers the instruments on meter.
func NewSchoolMetrics(meter metric.Meter) (*SchoolMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &SchoolMetrics{}
	var err error
	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&m.billsGenerated, "schoolfee.bills.generated", "Fee bills generated by outcome", "{bill}"},
		{&m.paymentsRecorded, "schoolfee.payments.recorded", "Fee payments recorded", "{payment}"},
		{&m.amountCollected, "schoolfee.payments.amount", "Fee amount collected in minor units", "{minor_unit}"},
		{&m.hikesApplied, "schoolfee.fee_hikes.applied", "Fee hikes applied by component", "{hike}"},
		{&m.salaries, "schoolfee.salaries.generated", "Salary records generated by outcome", "{record}"},
		{&m.salaryPayments, "schoolfee.salary_payments.applied", "Salary payments applied", "{payment}"},
		{&m.conflicts, "schoolfee.concurrent_modifications", "Optimistic lock conflicts by operation", "{conflict}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}
	m.batchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "schoolfee.batch.duration",
		Description: "Duration of bill and salary batch runs",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordBill counts one bill generation outcome
func (m *SchoolMetrics) RecordBill(ctx context.Context, tenantID uuid.UUID, outcome string) {
	if m == nil {
		return
	}
	m.billsGenerated.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome))
}

// RecordPayment counts a fee payment and its amount
func (m *SchoolMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, mode string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrTenantID.String(tenantID.String()), AttrPaymentMode.String(mode)}
	m.paymentsRecorded.Inc(ctx, attrs...)
	m.amountCollected.Add(ctx, amount.Shift(2).Round(0).IntPart(), attrs...)
}

// RecordHike counts a fee hike
func (m *SchoolMetrics) RecordHike(ctx context.Context, tenantID uuid.UUID, component string) {
	if m == nil {
		return
	}
	m.hikesApplied.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrComponent.String(component))
}

// RecordSalary counts one salary generation outcome
func (m *SchoolMetrics) RecordSalary(ctx context.Context, tenantID uuid.UUID, outcome string) {
	if m == nil {
		return
	}
	m.salaries.Inc(ctx, AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome))
}

// RecordSalaryPayment counts a salary payment
func (m *SchoolMetrics) RecordSalaryPayment(ctx context.Context, tenantID uuid.UUID) {
	if m == nil {
		return
	}
	m.salaryPayments.Inc(ctx, AttrTenantID.String(tenantID.String()))
}

// RecordConflict counts a lost optimistic-lock race
func (m *SchoolMetrics) RecordConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(ctx, AttrJobType.String(operation))
}

// RecordBatch records how long a batch run took
func (m *SchoolMetrics) RecordBatch(ctx context.Context, jobType string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.RecordDuration(ctx, d, AttrJobType.String(jobType))
}
