package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvalidOrderDetails     = errors.New("invalid order details")
)

var statusRank = map[OrderStatus]int{
	OrderStatusNew:       1,
	OrderStatusPending:   2,
	OrderStatusPaid:      3,
	OrderStatusShipping:  4,
	OrderStatusFulfilled: 5,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if status == OrderStatusCancelled {
		return status, nil
	}
	if _, ok := statusRank[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusCancelled
}

// MaxTotalPrice is the first total that no longer fits orders.total_price.
var MaxTotalPrice = decimal.New(1, 17)

// OrderDetails are the customer-facing fields of an order.
type OrderDetails struct {
	UserName        string
	TotalPrice      decimal.Decimal
	FirstName       string
	LastName        string
	EmailAddress    string
	ShippingAddress string
	InvoiceAddress  string
}

// Validate checks the rules an order must satisfy before it can be stored.
// Checkout runs the same check before publishing so that an accepted
// checkout never turns into an order the consumer has to reject.
func (d OrderDetails) Validate() error {
	switch {
	case d.UserName == "" || len(d.UserName) > 50:
		return fmt.Errorf("%w: userName is required and must not exceed 50 characters", ErrInvalidOrderDetails)
	case d.FirstName == "" || len(d.FirstName) > 50:
		return fmt.Errorf("%w: firstName is required and must not exceed 50 characters", ErrInvalidOrderDetails)
	case d.LastName == "" || len(d.LastName) > 250:
		return fmt.Errorf("%w: lastName is required and must not exceed 250 characters", ErrInvalidOrderDetails)
	case !validEmail(d.EmailAddress):
		return fmt.Errorf("%w: emailAddress must be a valid email address", ErrInvalidOrderDetails)
	case !d.TotalPrice.IsPositive():
		return fmt.Errorf("%w: totalPrice must be greater than 0", ErrInvalidOrderDetails)
	case !HasCents(d.TotalPrice):
		return fmt.Errorf("%w: totalPrice must have at most 2 decimal places", ErrInvalidOrderDetails)
	case d.TotalPrice.GreaterThanOrEqual(MaxTotalPrice):
		return fmt.Errorf("%w: totalPrice must be less than %s", ErrInvalidOrderDetails, MaxTotalPrice)
	}
	return nil
}

// HasCents reports whether v is a whole number of cents.
func HasCents(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(2))
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Order is the aggregate root of the ordering service. State changes go
// through its methods, which append domain events that stay pending until
// the dispatcher drains them after commit.
type Order struct {
	id         int64
	checkoutID string
	details    OrderDetails
	status     OrderStatus
	createdAt  time.Time
	updatedAt  time.Time

	events []DomainEvent
}

// NewOrder creates an order in status New and raises OrderCreated.
func NewOrder(details OrderDetails, checkoutID string) *Order {
	now := time.Now().UTC()
	o := &Order{
		checkoutID: checkoutID,
		details:    details,
		status:     OrderStatusNew,
		createdAt:  now,
		updatedAt:  now,
	}
	o.raise(newOrderCreated(o))
	return o
}

// RehydrateOrder rebuilds an order loaded from storage. No events are raised.
func RehydrateOrder(id int64, checkoutID string, details OrderDetails, status OrderStatus, createdAt, updatedAt time.Time) *Order {
	return &Order{
		id:         id,
		checkoutID: checkoutID,
		details:    details,
		status:     status,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (o *Order) ID() int64             { return o.id }
func (o *Order) CheckoutID() string    { return o.checkoutID }
func (o *Order) Details() OrderDetails { return o.details }
func (o *Order) Status() OrderStatus   { return o.status }
func (o *Order) CreatedAt() time.Time  { return o.createdAt }
func (o *Order) UpdatedAt() time.Time  { return o.updatedAt }

// AssignID is called by the repository once the row has been inserted.
func (o *Order) AssignID(id int64) {
	o.id = id
}

// SetStatus moves the order to status. Setting the current status is a
// no-op. Otherwise exactly one OrderStatusChanged is raised. Statuses only
// move forward, except that any non-terminal order may be cancelled.
func (o *Order) SetStatus(status OrderStatus) error {
	if status == o.status {
		return nil
	}
	if !o.canTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.status, status)
	}

	old := o.status
	o.raise(newOrderStatusChanged(o, old, status))
	o.status = status
	o.updatedAt = time.Now().UTC()
	return nil
}

func (o *Order) canTransition(to OrderStatus) bool {
	if o.status.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > statusRank[o.status]
}

func (o *Order) UpdateDetails(details OrderDetails) {
	o.details = details
	o.updatedAt = time.Now().UTC()
}

// Delete raises OrderDeleted. Removing the row is up to the repository.
func (o *Order) Delete() {
	o.raise(newOrderDeleted(o))
}

func (o *Order) raise(e DomainEvent) {
	o.events = append(o.events, e)
}

// PendingEvents returns a copy of the events raised since the last drain.
func (o *Order) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

// DrainEvents returns the pending events in the order they were raised and
// clears them.
func (o *Order) DrainEvents() []DomainEvent {
	out := o.events
	o.events = nil
	return out
}
