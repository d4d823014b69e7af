// Package event delivers domain events to in-process subscribers.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/schoolfee/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Publish when the delivery queue is full
var ErrQueueFull = errors.New("event queue is full")

// InMemoryEventBus fans events out to subscribed handlers. Once started,
// Publish only enqueues and a background worker delivers in order; before
// Start or after Stop delivery happens inline. Handler failures are logged,
// never returned to the publisher.
type InMemoryEventBus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler

	queue   chan queued
	running bool
	wg      sync.WaitGroup
}

type queued struct {
	ctx   context.Context
	event shared.DomainEvent
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, queueSize int) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &InMemoryEventBus{
		logger:   logger,
		handlers: make(map[string][]shared.EventHandler),
		queue:    make(chan queued, queueSize),
	}
}

// Subscribe registers a handler for the types it reports; an empty list
// subscribes it to every event
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := handler.EventTypes()
	if len(types) == 0 {
		b.wildcard = append(b.wildcard, handler)
	}
	for _, t := range types {
		b.handlers[t] = append(b.handlers[t], handler)
	}
	b.logger.Debug("handler subscribed", zap.Strings("event_types", types))
}

// Publish delivers or enqueues the events
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	running := b.running
	b.mu.RUnlock()

	if !running {
		for _, event := range events {
			b.deliver(ctx, event)
		}
		return nil
	}

	// delivery outlives the request that published
	detached := context.WithoutCancel(ctx)
	for _, event := range events {
		select {
		case b.queue <- queued{ctx: detached, event: event}:
		default:
			b.logger.Warn("event queue full, dropping event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()))
			return ErrQueueFull
		}
	}
	return nil
}

// Start starts background delivery
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	b.running = true
	b.wg.Add(1)
	go b.loop()
	b.logger.Info("event bus started")
	return nil
}

// Stop stops accepting queued events and waits until the queue is drained
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	b.mu.Unlock()

	b.queue <- queued{}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) loop() {
	defer b.wg.Done()
	for item := range b.queue {
		if item.event == nil {
			return
		}
		b.deliver(item.ctx, item.event)
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, event shared.DomainEvent) {
	b.mu.RLock()
	targets := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.wildcard))
	targets = append(targets, b.handlers[event.EventType()]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, handler := range targets {
		if err := b.dispatch(ctx, handler, event); err != nil {
			fields := []zap.Field{
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("tenant_id", event.TenantID().String()),
				zap.Error(err),
			}
			if period, ok := shared.EventPeriod(event); ok {
				fields = append(fields, zap.String("period", period.String()))
			}
			b.logger.Error("handler failed to process event", fields...)
		}
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
