// Package event delivers domain events to in-process handlers after the
// publishing transaction has committed.
package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InMemoryEventBus dispatches events synchronously, in subscription order.
// Every handler sees every event of its types even when an earlier one fails.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	wildcard []shared.EventHandler
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// Publish runs the handlers of each event and joins their errors
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, event := range events {
		for _, handler := range b.handlersFor(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventTypes, or for the handler's own types when none are
// given. A handler with no types at all receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
	}
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
	b.logger.Debug("event handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler from every event type
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	isTarget := func(h shared.EventHandler) bool { return h == handler }
	b.wildcard = slices.DeleteFunc(b.wildcard, isTarget)
	for t, hs := range b.handlers {
		hs = slices.DeleteFunc(hs, isTarget)
		if len(hs) == 0 {
			delete(b.handlers, t)
			continue
		}
		b.handlers[t] = hs
	}
}

// HandlerCount returns how many handlers would receive an event of eventType
func (b *InMemoryEventBus) HandlerCount(eventType string) int {
	return len(b.handlersFor(eventType))
}

func (b *InMemoryEventBus) handlersFor(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]shared.EventHandler, 0, len(b.handlers[eventType])+len(b.wildcard))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.wildcard...)
}

// dispatch runs one handler inside a span and turns a panic into an error
func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "event."+event.EventType(),
		telemetry.WithAttribute("event_id", event.EventID().String()),
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, event.TenantID().String()),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for %s panicked: %v", event.EventType(), r)
		}
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
