package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderDeleted       = "order.deleted"
)

type DomainEvent interface {
	EventID() uuid.UUID
	OccurredAt() time.Time
	EventType() string
}

// EventSource is anything that accumulates domain events until drained.
type EventSource interface {
	DrainEvents() []DomainEvent
}

type eventMeta struct {
	id         uuid.UUID
	occurredAt time.Time
}

func newEventMeta() eventMeta {
	return eventMeta{id: uuid.New(), occurredAt: time.Now().UTC()}
}

func (m eventMeta) EventID() uuid.UUID    { return m.id }
func (m eventMeta) OccurredAt() time.Time { return m.occurredAt }

type OrderCreated struct {
	eventMeta
	Order *Order
}

func newOrderCreated(o *Order) OrderCreated {
	return OrderCreated{eventMeta: newEventMeta(), Order: o}
}

func (OrderCreated) EventType() string { return EventTypeOrderCreated }

type OrderStatusChanged struct {
	eventMeta
	Order     *Order
	OldStatus OrderStatus
	NewStatus OrderStatus
}

func newOrderStatusChanged(o *Order, from, to OrderStatus) OrderStatusChanged {
	return OrderStatusChanged{eventMeta: newEventMeta(), Order: o, OldStatus: from, NewStatus: to}
}

func (OrderStatusChanged) EventType() string { return EventTypeOrderStatusChanged }

type OrderDeleted struct {
	eventMeta
	Order *Order
}

func newOrderDeleted(o *Order) OrderDeleted {
	return OrderDeleted{eventMeta: newEventMeta(), Order: o}
}

func (OrderDeleted) EventType() string { return EventTypeOrderDeleted }
