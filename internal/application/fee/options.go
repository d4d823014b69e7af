package fee

import (
	"context"
	"time"

	"github.com/schoolfee/backend/internal/domain/shared"
	"github.com/schoolfee/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ServiceOption configures the ambient collaborators of a fee service
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

// WithClock overrides the time source used for default dates
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

type serviceBase struct {
	logger         *zap.Logger
	metrics        *telemetry.SchoolMetrics
	now            func() time.Time
	retries        int
	eventPublisher shared.EventPublisher
}

func newServiceBase(opts []ServiceOption) serviceBase {
	b := serviceBase{
		logger:  zap.NewNop(),
		now:     time.Now,
		retries: shared.DefaultConflictRetries,
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

// dateOrToday parses an optional YYYY-MM-DD request field
func (b *serviceBase) dateOrToday(s string) (time.Time, error) {
	if s == "" {
		return b.today(), nil
	}
	return shared.ParseDate(s)
}

// publish hands the aggregate's pending events to the publisher. Delivery
// failures are logged and do not fail the operation.
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
