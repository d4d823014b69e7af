package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ServiceOption configures the ambient collaborators of a payroll service
type ServiceOption func(*serviceBase)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(b *serviceBase) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records business metrics for the service
func WithMetrics(m *telemetry.SchoolMetrics) ServiceOption {
	return func(b *serviceBase) { b.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) ServiceOption {
	return func(b *serviceBase) {
		if now != nil {
			b.now = now
		}
	}
}

// WithConflictRetries sets how many times a lost optimistic-lock race is retried
func WithConflictRetries(n int) ServiceOption {
	return func(b *serviceBase) {
		if n >= 0 {
			b.retries = n
		}
	}
}

// WithReportCache caches unpaid-salary reports per school. Services that
// change pending amounts drop the school's entries through the same cache.
func WithReportCache(cache shared.TenantCache, ttl time.Duration) ServiceOption {
	return func(b *serviceBase) {
		b.cache = cache
		if ttl > 0 {
			b.cacheTTL = ttl
		}
	}
}

// WithAcademicYearStart sets the month current_academic_year reports start in
func WithAcademicYearStart(month int) ServiceOption {
	return func(b *serviceBase) {
		if month >= 1 && month <= 12 {
			b.academicYearStart = month
		}
	}
}

type serviceBase struct {
	logger            *zap.Logger
	metrics           *telemetry.SchoolMetrics
	now               func() time.Time
	retries           int
	cache             shared.TenantCache
	cacheTTL          time.Duration
	academicYearStart int
	eventPublisher    shared.EventPublisher
}

func newServiceBase(opts []ServiceOption) serviceBase {
	b := serviceBase{
		logger:            zap.NewNop(),
		now:               time.Now,
		retries:           shared.DefaultConflictRetries,
		cacheTTL:          5 * time.Minute,
		academicYearStart: 4,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// SetEventPublisher sets the event publisher for domain events
func (b *serviceBase) SetEventPublisher(publisher shared.EventPublisher) {
	b.eventPublisher = publisher
}

func (b *serviceBase) today() time.Time {
	return shared.DateOf(b.now())
}

func (b *serviceBase) publish(ctx context.Context, agg shared.AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if b.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := b.eventPublisher.Publish(ctx, events...); err != nil {
		b.logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("event_type", events[0].EventType()),
			zap.Error(err))
	}
}

// invalidateReports drops the school's cached unpaid reports. A failure
// leaves stale entries until their TTL runs out, so it is only logged.
func (b *serviceBase) invalidateReports(ctx context.Context, tenantID uuid.UUID) {
	if b.cache == nil {
		return
	}
	if err := b.cache.InvalidateTenant(ctx, tenantID); err != nil {
		b.logger.Warn("Failed to invalidate unpaid salary report cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}
