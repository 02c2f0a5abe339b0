package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/checkout-choreography/internal/core/domain"
	"github.com/rl1809/checkout-choreography/internal/metrics"
)

const (
	DefaultMaxAttempts    = 5
	DefaultInitialBackoff = 200 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type CheckoutHandler interface {
	Handle(ctx context.Context, event domain.CheckoutEvent) error
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

type ConsumerConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// IsPermanent reports errors that retrying cannot fix. Those messages
	// go to the dead-letter topic right away.
	IsPermanent func(error) bool
}

// CheckoutConsumer feeds checkout events to a handler. A message is
// committed only once it was handled, found undecodable, or moved to the
// dead-letter topic. Failed attempts are retried in place with exponential
// backoff so the handler sees the same event again, as it would after a
// broker redelivery.
type CheckoutConsumer struct {
	reader     MessageReader
	deadLetter MessageWriter
	handler    CheckoutHandler
	cfg        ConsumerConfig
	metrics    *metrics.ConsumerMetrics
	log        *slog.Logger
	tracer     trace.Tracer
}

func NewCheckoutConsumer(
	reader MessageReader,
	deadLetter MessageWriter,
	handler CheckoutHandler,
	cfg ConsumerConfig,
	m *metrics.ConsumerMetrics,
	log *slog.Logger,
) *CheckoutConsumer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.InitialBackoff)
	}
	if cfg.IsPermanent == nil {
		cfg.IsPermanent = func(error) bool { return false }
	}

	return &CheckoutConsumer{
		reader:     reader,
		deadLetter: deadLetter,
		handler:    handler,
		cfg:        cfg,
		metrics:    m,
		log:        log,
		tracer:     otel.Tracer("ordering-consumer"),
	}
}

// Run consumes until ctx is cancelled, which is not reported as an error.
// The reader is closed on return.
func (c *CheckoutConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if !c.process(ctx, msg) {
			// Shutting down mid-retry; leave the offset for the next owner.
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("commit failed", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
		}
	}
}

// process returns false when ctx ended before the message was settled.
func (c *CheckoutConsumer) process(ctx context.Context, msg kafka.Message) bool {
	msgCtx := ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeCheckout", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.destination.name", msg.Topic),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	)

	if t := headerValue(msg.Headers, HeaderEventType); t != "" && t != domain.CheckoutEventType {
		c.log.WarnContext(msgCtx, "unexpected event type, skipping", "event_type", t, "offset", msg.Offset)
		c.metrics.Result("skipped")
		return true
	}

	var event domain.CheckoutEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.log.ErrorContext(msgCtx, "undecodable checkout message", "offset", msg.Offset, "err", err)
		c.metrics.Result("undecodable")
		return c.sendToDeadLetter(msgCtx, msg, err, 0)
	}

	backoff := c.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(msgCtx, event)
		if err == nil {
			c.metrics.Result("processed")
			return true
		}
		span.RecordError(err)

		if c.cfg.IsPermanent(err) || attempt >= c.cfg.MaxAttempts {
			c.log.ErrorContext(msgCtx, "checkout message failed, dead-lettering",
				"checkout_id", event.CheckoutID, "attempts", attempt, "err", err)
			c.metrics.Result("dead_lettered")
			return c.sendToDeadLetter(msgCtx, msg, err, attempt)
		}

		c.log.WarnContext(msgCtx, "checkout message failed, retrying",
			"checkout_id", event.CheckoutID, "attempt", attempt, "backoff", backoff, "err", err)
		if !sleep(ctx, backoff) {
			return false
		}
		c.metrics.Redelivered()
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

// sendToDeadLetter keeps trying until the write succeeds or ctx ends.
func (c *CheckoutConsumer) sendToDeadLetter(ctx context.Context, msg kafka.Message, cause error, attempts int) bool {
	if c.deadLetter == nil {
		c.log.ErrorContext(ctx, "no dead-letter topic configured, dropping message", "offset", msg.Offset)
		return true
	}

	headers := append([]kafka.Header(nil), msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderError, Value: []byte(cause.Error())},
		kafka.Header{Key: HeaderAttempts, Value: []byte(strconv.Itoa(attempts))},
		kafka.Header{Key: HeaderSource, Value: []byte(msg.Topic)},
	)
	dl := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers, Time: time.Now().UTC()}

	backoff := c.cfg.InitialBackoff
	for {
		err := c.deadLetter.WriteMessages(ctx, dl)
		if err == nil {
			return true
		}
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return false
		}
		c.log.ErrorContext(ctx, "dead-letter write failed", "offset", msg.Offset, "err", err)
		if !sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, c.cfg.MaxBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
