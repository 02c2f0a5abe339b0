package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/metrics"
)

type EventHandler interface {
	Handle(ctx context.Context, event domain.DomainEvent) error
}

type EventHandlerFunc func(ctx context.Context, event domain.DomainEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event domain.DomainEvent) error {
	return f(ctx, event)
}

// DomainEventDispatcher forwards events drained from aggregates to the
// handlers subscribed to their type. It must only be called once the state
// that raised the events is committed. A failing handler never stops the
// rest of the batch and never surfaces to the caller.
type DomainEventDispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	metrics  *metrics.DispatchMetrics
	log      *slog.Logger
}

func NewDomainEventDispatcher(m *metrics.DispatchMetrics, log *slog.Logger) *DomainEventDispatcher {
	return &DomainEventDispatcher{
		handlers: make(map[string][]EventHandler),
		metrics:  m,
		log:      log,
	}
}

func (d *DomainEventDispatcher) Subscribe(eventType string, h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// Dispatch drains every source and delivers the events in the order they
// were raised. It returns the number of handler failures.
func (d *DomainEventDispatcher) Dispatch(ctx context.Context, sources ...domain.EventSource) int {
	failures := 0
	for _, src := range sources {
		for _, event := range src.DrainEvents() {
			d.mu.RLock()
			handlers := d.handlers[event.EventType()]
			d.mu.RUnlock()

			for _, h := range handlers {
				if err := d.deliver(ctx, h, event); err != nil {
					failures++
					d.metrics.Failed(event.EventType())
					d.log.ErrorContext(ctx, "domain event handler failed",
						"event_type", event.EventType(), "event_id", event.EventID(), "err", err)
				}
			}
		}
	}
	return failures
}

func (d *DomainEventDispatcher) deliver(ctx context.Context, h EventHandler, event domain.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, event)
}
