package shared

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate type names carried on events
const (
	AggregateFeeBill      = "FeeBill"
	AggregateSalaryRecord = "SalaryRecord"
)

// DomainEvent is a fact raised by an aggregate. Services publish it after
// the aggregate is saved.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// PeriodEvent is raised by an aggregate that belongs to one billing month:
// a fee bill or a salary record.
type PeriodEvent interface {
	DomainEvent
	BillingPeriod() Period
}

// EventPeriod returns the billing month of a period-scoped event
func EventPeriod(e DomainEvent) (Period, bool) {
	pe, ok := e.(PeriodEvent)
	if !ok {
		return Period{}, false
	}
	return pe.BillingPeriod(), true
}

// EventHeader is embedded by every event. It is serialized with the event
// so archived snapshots can be traced back to their school and aggregate.
type EventHeader struct {
	ID       uuid.UUID `json:"event_id"`
	Type     string    `json:"event_type"`
	RaisedAt time.Time `json:"raised_at"`
	Source   string    `json:"aggregate_type"`
	SourceID uuid.UUID `json:"aggregate_id"`
	School   uuid.UUID `json:"tenant_id"`
}

// NewEventHeader stamps a new event raised now by the given aggregate
func NewEventHeader(eventType, aggregateType string, aggregateID, tenantID uuid.UUID) EventHeader {
	return EventHeader{
		ID:       uuid.New(),
		Type:     eventType,
		RaisedAt: time.Now().UTC(),
		Source:   aggregateType,
		SourceID: aggregateID,
		School:   tenantID,
	}
}

func (h *EventHeader) EventID() uuid.UUID     { return h.ID }
func (h *EventHeader) EventType() string      { return h.Type }
func (h *EventHeader) OccurredAt() time.Time  { return h.RaisedAt }
func (h *EventHeader) AggregateID() uuid.UUID { return h.SourceID }
func (h *EventHeader) AggregateType() string  { return h.Source }
func (h *EventHeader) TenantID() uuid.UUID    { return h.School }
