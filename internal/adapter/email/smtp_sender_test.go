package email

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rl1809/checkout-choreography/internal/port"
)

func testSender() *SMTPSender {
	return NewSMTPSender(SMTPConfig{
		Host:        "localhost",
		Port:        2525,
		From:        "orders@example.com",
		DisplayName: "Shop Orders",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s := testSender()

	m, err := s.buildMessage(port.EmailMessage{
		To:      "alice@example.com",
		Subject: "Order Confirmation - Order #7",
		Body:    "<p>Thanks</p>",
		IsHTML:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("failed to render message: %v", err)
	}
	raw := buf.String()

	for _, want := range []string{
		"alice@example.com",
		"orders@example.com",
		"Order Confirmation - Order #7",
		"text/html",
		"<p>Thanks</p>",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected rendered message to contain %q", want)
		}
	}
}

func TestSMTPSender_RejectsBadRecipient(t *testing.T) {
	s := testSender()

	if _, err := s.buildMessage(port.EmailMessage{To: "not an address", Subject: "x", Body: "y"}); err == nil {
		t.Error("expected an error for an invalid recipient")
	}
}

func TestLogSender_NeverFails(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := s.Send(context.Background(), port.EmailMessage{To: "bob@example.com", Subject: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "bob@example.com") {
		t.Error("expected recipient in log output")
	}
}
