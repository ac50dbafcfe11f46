package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	pkgkafka "github.com/l3hautikpatel/credwise-sub000/pkg/kafka"
)

var _ port.EventPublisher = (*KafkaEventPublisher)(nil)

// MessageProducer is satisfied by *pkgkafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// KafkaEventPublisher writes evaluation events as JSON records keyed by
// evaluation ID, so one evaluation's events stay in order on a partition.
// Event types listed in routes go to their own topic; everything else goes
// to the default topic.
type KafkaEventPublisher struct {
	producer MessageProducer
	topic    string
	routes   map[string]string
	logger   *slog.Logger
}

func NewKafkaEventPublisher(producer MessageProducer, topic string, logger *slog.Logger) *KafkaEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaEventPublisher{producer: producer, topic: topic, routes: map[string]string{}, logger: logger}
}

// Route sends events of eventType to topic instead of the default topic.
func (p *KafkaEventPublisher) Route(eventType, topic string) *KafkaEventPublisher {
	p.routes[eventType] = topic
	return p
}

func (p *KafkaEventPublisher) topicFor(eventType string) string {
	if t, ok := p.routes[eventType]; ok {
		return t
	}
	return p.topic
}

// Publish encodes every event before sending any, then issues one producer
// call per destination topic in first-seen order.
func (p *KafkaEventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	var order []string
	batches := map[string][]pkgkafka.Message{}

	for _, evt := range events {
		msg, err := encodeEvent(evt)
		if err != nil {
			return err
		}
		topic := p.topicFor(evt.EventType())
		if _, seen := batches[topic]; !seen {
			order = append(order, topic)
		}
		batches[topic] = append(batches[topic], msg)
	}

	for _, topic := range order {
		if err := p.producer.Publish(ctx, topic, batches[topic]...); err != nil {
			return fmt.Errorf("publish %d event(s) to %s: %w", len(batches[topic]), topic, err)
		}
		p.logger.DebugContext(ctx, "events published", "topic", topic, "count", len(batches[topic]))
	}
	return nil
}

func encodeEvent(evt event.DomainEvent) (pkgkafka.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return pkgkafka.Message{}, fmt.Errorf("encode %s event %s: %w", evt.EventType(), evt.EventID(), err)
	}
	return pkgkafka.Message{
		Key:   []byte(evt.AggregateID()),
		Value: body,
		Headers: map[string]string{
			"event_id":       evt.EventID(),
			"event_type":     evt.EventType(),
			"aggregate_type": evt.AggregateType(),
			"occurred_at":    evt.OccurredAt().UTC().Format(time.RFC3339Nano),
			"content_type":   "application/json",
		},
	}, nil
}
