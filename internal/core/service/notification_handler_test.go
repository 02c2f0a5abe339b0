package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

func TestNotification_SendsConfirmation(t *testing.T) {
	mailer := &mockEmailSender{}
	h := NewNotificationHandler(mailer, testLogger())

	order := newTestOrder()
	order.AssignID(7)
	events := order.DrainEvents()

	if err := h.Handle(context.Background(), events[0]); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "alice@example.com" {
		t.Errorf("expected recipient alice@example.com, got %s", msg.To)
	}
	if !msg.IsHTML {
		t.Error("expected html body")
	}
	for _, want := range []string{"Dear Alice Liddell", "#7", "$20.00"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestNotification_SendFailureSwallowed(t *testing.T) {
	mailer := &mockEmailSender{err: errors.New("smtp: 535 authentication failed")}
	h := NewNotificationHandler(mailer, testLogger())

	order := newTestOrder()
	if err := h.Handle(context.Background(), order.DrainEvents()[0]); err != nil {
		t.Errorf("expected send failure to be swallowed, got: %v", err)
	}
}

func TestNotification_StatusChangeSendsNothing(t *testing.T) {
	mailer := &mockEmailSender{}
	h := NewNotificationHandler(mailer, testLogger())

	order := newTestOrder()
	order.DrainEvents()
	order.SetStatus(domain.OrderStatusCancelled)

	for _, e := range order.DrainEvents() {
		h.Handle(context.Background(), e)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("expected no email, got %d", len(mailer.sent))
	}
}
