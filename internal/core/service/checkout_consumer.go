package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

// OrderCreationConsumer turns a delivered CheckoutEvent into an order. It is
// safe to call again with the same event: a checkout that already produced
// an order is acknowledged without creating another one.
type OrderCreationConsumer struct {
	orders *OrderService
	log    *slog.Logger
}

func NewOrderCreationConsumer(orders *OrderService, log *slog.Logger) *OrderCreationConsumer {
	return &OrderCreationConsumer{orders: orders, log: log}
}

func (c *OrderCreationConsumer) Handle(ctx context.Context, event domain.CheckoutEvent) error {
	c.log.InfoContext(ctx, "checkout event consumed, creating order", "user_name", event.UserName, "checkout_id", event.CheckoutID)

	id, err := c.orders.CreateOrder(ctx, commandFromCheckout(event))
	if errors.Is(err, ErrDuplicateRequest) {
		c.log.InfoContext(ctx, "checkout already processed, skipping", "checkout_id", event.CheckoutID)
		return nil
	}
	if err != nil {
		return err
	}

	c.log.InfoContext(ctx, "order created", "order_id", id, "user_name", event.UserName, "checkout_id", event.CheckoutID)
	return nil
}

// IsPermanent reports whether retrying the same message can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidOrder)
}

func commandFromCheckout(e domain.CheckoutEvent) CreateOrderCommand {
	return CreateOrderCommand{
		CheckoutID:      e.CheckoutID,
		UserName:        e.UserName,
		TotalPrice:      e.TotalPrice,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		EmailAddress:    e.EmailAddress,
		ShippingAddress: e.ShippingAddress,
		InvoiceAddress:  e.InvoiceAddress,
	}
}
