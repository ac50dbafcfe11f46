package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Handler processes one consumed message. Returning an error asks for a
// redelivery attempt.
type Handler func(ctx context.Context, msg Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// Consumer reads one topic as a member of a consumer group. A failing
// message is retried with linear backoff; once attempts run out it is
// logged and committed so the partition keeps moving.
type Consumer struct {
	reader   messageReader
	topic    string
	group    string
	handler  Handler
	logger   *slog.Logger
	tracer   trace.Tracer
	attempts int
	backoff  time.Duration
}

// ConsumerOption customizes a Consumer.
type ConsumerOption func(*Consumer)

// WithRetry sets how many times a message is handed to the handler and the
// base delay between tries.
func WithRetry(attempts int, backoff time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.attempts = max(attempts, 1)
		c.backoff = backoff
	}
}

func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	rc := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10 << 20,
		MaxWait:  time.Second,
	}
	if d := cfg.dialer(); d != nil {
		rc.Dialer = d
	}
	return newConsumer(kafkago.NewReader(rc), topic, cfg.ConsumerGroup, handler, logger, opts...)
}

func newConsumer(r messageReader, topic, group string, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		reader:   r,
		topic:    topic,
		group:    group,
		handler:  handler,
		logger:   logger.With("topic", topic, "group", group),
		tracer:   otel.Tracer("github.com/l3hautikpatel/credwise-sub000/pkg/kafka"),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes until ctx is canceled, which is not an error.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting")

	for {
		rec, err := c.reader.FetchMessage(ctx)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			c.logger.Info("consumer stopped")
			return nil
		case err != nil:
			return fmt.Errorf("fetch from %s: %w", c.topic, err)
		}

		if err := c.process(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("dropping message after retries",
				"partition", rec.Partition, "offset", rec.Offset, "attempts", c.attempts, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("commit failed", "partition", rec.Partition, "offset", rec.Offset, "error", err)
		}
	}
}

// process hands rec to the handler inside a consumer span linked to the
// producer's trace, retrying on error.
func (c *Consumer) process(ctx context.Context, rec kafkago.Message) error {
	msg := Message{
		Key:       rec.Key,
		Value:     rec.Value,
		Headers:   make(map[string]string, len(rec.Headers)),
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
	}
	for _, h := range rec.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Headers))
	ctx, span := c.tracer.Start(ctx, c.topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", c.topic),
			attribute.Int("messaging.kafka.partition", rec.Partition),
			attribute.Int64("messaging.kafka.offset", rec.Offset),
		),
	)
	defer span.End()

	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == c.attempts {
			break
		}
		c.logger.Warn("handler failed, retrying",
			"partition", rec.Partition, "offset", rec.Offset, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
