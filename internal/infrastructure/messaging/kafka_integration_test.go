package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/messaging"
	pkgkafka "github.com/l3hautikpatel/credwise-sub000/pkg/kafka"
	"github.com/l3hautikpatel/credwise-sub000/pkg/testutil"
)

func TestKafkaEventPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	const topic = "credit.evaluations"
	kc := testutil.NewKafkaContainer(ctx, t, topic)

	cfg := pkgkafka.Config{Brokers: kc.Brokers, ConsumerGroup: "integration-test"}
	producer := pkgkafka.NewProducer(cfg)
	defer producer.Close()

	publisher := messaging.NewKafkaEventPublisher(producer, topic, nil)
	completed := event.NewCreditEvaluated("eval-42", testutil.ApplicantReference, "PERSONAL_LOAN", 817, 100, "APPROVED",
		decimal.NewFromInt(10000), decimal.RequireFromString("0.0936"), false)
	require.NoError(t, publisher.Publish(ctx, completed))

	received := make(chan pkgkafka.Message, 1)
	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	consumer := pkgkafka.NewConsumer(cfg, topic, func(_ context.Context, msg pkgkafka.Message) error {
		received <- msg
		stop()
		return nil
	}, nil)
	defer consumer.Close()

	go func() { _ = consumer.Start(consumeCtx) }()

	select {
	case msg := <-received:
		assert.Equal(t, "eval-42", string(msg.Key))
		assert.Equal(t, event.EventTypeEvaluationCompleted, msg.Headers["event_type"])

		var body map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, "APPROVED", body["decision"])
	case <-ctx.Done():
		t.Fatal("timed out waiting for the published event")
	}
}
