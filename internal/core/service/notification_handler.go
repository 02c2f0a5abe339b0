package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/port"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Order Confirmation</h1>
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Thank you for your order! We're processing it now.</p>
    <h3>Order Details</h3>
    <p><strong>Order ID:</strong> #{{.OrderID}}</p>
    <p><strong>Order Date:</strong> {{.OrderDate}}</p>
    <p><strong>Total Amount:</strong> ${{.Total}}</p>
    <p><strong>Status:</strong> {{.Status}}</p>
    <h3>Shipping Address</h3>
    <p>{{.ShippingAddress}}</p>
    <p>Best regards,<br/>Order Service Team</p>
  </div>
</body>
</html>`))

type confirmationView struct {
	FirstName       string
	LastName        string
	OrderID         int64
	OrderDate       string
	Total           string
	Status          domain.OrderStatus
	ShippingAddress string
}

// NotificationHandler emails a confirmation when an order is created and
// logs the other order lifecycle events. Mail failures are logged only.
type NotificationHandler struct {
	sender port.EmailSender
	log    *slog.Logger
}

func NewNotificationHandler(sender port.EmailSender, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sender: sender, log: log}
}

// Register subscribes the handler to every order event it reacts to.
func (h *NotificationHandler) Register(d *DomainEventDispatcher) {
	d.Subscribe(domain.EventTypeOrderCreated, h)
	d.Subscribe(domain.EventTypeOrderStatusChanged, h)
	d.Subscribe(domain.EventTypeOrderDeleted, h)
}

func (h *NotificationHandler) Handle(ctx context.Context, event domain.DomainEvent) error {
	switch e := event.(type) {
	case domain.OrderCreated:
		h.orderCreated(ctx, e)
	case domain.OrderStatusChanged:
		h.statusChanged(ctx, e)
	case domain.OrderDeleted:
		h.log.InfoContext(ctx, "order deleted", "order_id", e.Order.ID(), "user_name", e.Order.Details().UserName)
	}
	return nil
}

func (h *NotificationHandler) orderCreated(ctx context.Context, e domain.OrderCreated) {
	order := e.Order
	h.log.InfoContext(ctx, "domain event handled", "event_type", e.EventType(), "order_id", order.ID())

	body, err := renderConfirmation(order)
	if err != nil {
		h.log.ErrorContext(ctx, "render order confirmation failed", "order_id", order.ID(), "err", err)
		return
	}

	msg := port.EmailMessage{
		To:      order.Details().EmailAddress,
		Subject: fmt.Sprintf("Order Confirmation - Order #%d", order.ID()),
		Body:    body,
		IsHTML:  true,
	}
	if err := h.sender.Send(ctx, msg); err != nil {
		h.log.WarnContext(ctx, "failed to send order confirmation email", "order_id", order.ID(), "to", msg.To, "err", err)
		return
	}
	h.log.InfoContext(ctx, "order confirmation email sent", "order_id", order.ID())
}

func (h *NotificationHandler) statusChanged(ctx context.Context, e domain.OrderStatusChanged) {
	id := e.Order.ID()
	h.log.InfoContext(ctx, "order status changed", "order_id", id, "old_status", e.OldStatus, "new_status", e.NewStatus)

	switch e.NewStatus {
	case domain.OrderStatusPaid:
		h.log.InfoContext(ctx, "order paid, proceeding to fulfillment", "order_id", id)
	case domain.OrderStatusShipping:
		h.log.InfoContext(ctx, "order shipped", "order_id", id)
	case domain.OrderStatusCancelled:
		h.log.InfoContext(ctx, "order cancelled", "order_id", id)
	}
}

func renderConfirmation(order *domain.Order) (string, error) {
	d := order.Details()
	view := confirmationView{
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		OrderID:         order.ID(),
		OrderDate:       order.CreatedAt().Format("2006-01-02 15:04"),
		Total:           d.TotalPrice.StringFixed(2),
		Status:          order.Status(),
		ShippingAddress: d.ShippingAddress,
	}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
