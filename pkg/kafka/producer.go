package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Message is a record as seen by producers and handlers. Topic, Partition
// and Offset are filled in on consumption only.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string

	Topic     string
	Partition int
	Offset    int64
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes to any topic through a single kafka-go writer. Records
// with the same key land on the same partition.
type Producer struct {
	writer messageWriter
}

func NewProducer(cfg Config) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireAll,
	}
	if t := cfg.transport(); t != nil {
		w.Transport = t
	}
	return &Producer{writer: w}
}

// Publish writes messages to topic. The trace context of ctx travels in
// the record headers.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	trace := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, trace)

	records := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		records[i] = kafkago.Message{Topic: topic, Key: m.Key, Value: m.Value}
		records[i].Headers = appendHeaders(records[i].Headers, m.Headers)
		records[i].Headers = appendHeaders(records[i].Headers, trace)
	}

	if err := p.writer.WriteMessages(ctx, records...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}
	return nil
}

func appendHeaders(dst []kafkago.Header, src map[string]string) []kafkago.Header {
	for k, v := range src {
		dst = append(dst, kafkago.Header{Key: k, Value: []byte(v)})
	}
	return dst
}
