// Package messaging moves checkout events over Kafka: the basket service
// publishes them and the ordering service consumes them.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
)

const (
	HeaderEventType = "event-type"
	HeaderError     = "x-error"
	HeaderAttempts  = "x-attempts"
	HeaderSource    = "x-original-topic"

	DeadLetterSuffix = ".dead-letter"
)

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer bound to topic. Messages are partitioned by key
// so every checkout of one user lands on the same partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

type CheckoutPublisher struct {
	writer MessageWriter
	log    *slog.Logger
}

func NewCheckoutPublisher(writer MessageWriter, log *slog.Logger) *CheckoutPublisher {
	return &CheckoutPublisher{writer: writer, log: log}
}

func (p *CheckoutPublisher) PublishCheckout(ctx context.Context, event domain.CheckoutEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal checkout event: %w", err)
	}

	headers := []kafka.Header{{Key: HeaderEventType, Value: []byte(domain.CheckoutEventType)}}
	msg := kafka.Message{
		Key:     []byte(event.UserName),
		Value:   payload,
		Headers: InjectKafkaHeaders(ctx, headers),
		Time:    time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write checkout %s: %w", event.CheckoutID, err)
	}

	p.log.InfoContext(ctx, "checkout event published", "checkout_id", event.CheckoutID, "user_name", event.UserName)
	return nil
}

func (p *CheckoutPublisher) Close() error {
	return p.writer.Close()
}
