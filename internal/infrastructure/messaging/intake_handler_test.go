package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/messaging"
	pkgkafka "github.com/l3hautikpatel/credwise-sub000/pkg/kafka"
)

type mockEvaluator struct {
	executeFunc func(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error)
	requests    []dto.EvaluateRequest
}

func (m *mockEvaluator) Execute(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error) {
	m.requests = append(m.requests, req)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, req)
	}
	return dto.EvaluationResponse{ID: "eval-1", Decision: "APPROVED"}, nil
}

func TestIntakeHandler_Handle(t *testing.T) {
	t.Run("wrapped submission", func(t *testing.T) {
		ev := &mockEvaluator{}
		h := messaging.NewIntakeHandler(ev, nil)

		err := h.Handle(context.Background(), pkgkafka.Message{
			Key:   []byte("app-001"),
			Value: []byte(`{"profile":{"income":5000.25,"loanType":"Auto Loan"},"prior":{"credit_score":700}}`),
		})

		require.NoError(t, err)
		require.Len(t, ev.requests, 1)
		assert.Equal(t, json.Number("5000.25"), ev.requests[0].Profile["income"])
		assert.Equal(t, json.Number("700"), ev.requests[0].Prior["credit_score"])
	})

	t.Run("bare profile", func(t *testing.T) {
		ev := &mockEvaluator{}
		h := messaging.NewIntakeHandler(ev, nil)

		err := h.Handle(context.Background(), pkgkafka.Message{Value: []byte(`{"income":4000}`)})

		require.NoError(t, err)
		require.Len(t, ev.requests, 1)
		assert.Nil(t, ev.requests[0].Prior)
		assert.Equal(t, json.Number("4000"), ev.requests[0].Profile["income"])
	})

	t.Run("undecodable and empty values are acknowledged", func(t *testing.T) {
		ev := &mockEvaluator{}
		h := messaging.NewIntakeHandler(ev, nil)

		assert.NoError(t, h.Handle(context.Background(), pkgkafka.Message{Value: []byte("not json")}))
		assert.NoError(t, h.Handle(context.Background(), pkgkafka.Message{Value: []byte("{}")}))
		assert.Empty(t, ev.requests)
	})

	t.Run("incomplete profile is acknowledged", func(t *testing.T) {
		ev := &mockEvaluator{
			executeFunc: func(context.Context, dto.EvaluateRequest) (dto.EvaluationResponse, error) {
				return dto.EvaluationResponse{}, &model.ProfileIncompleteError{Missing: []string{"income"}}
			},
		}
		h := messaging.NewIntakeHandler(ev, nil)

		assert.NoError(t, h.Handle(context.Background(), pkgkafka.Message{Value: []byte(`{"loanType":"Mortgage"}`)}))
	})

	t.Run("persistence failure is returned", func(t *testing.T) {
		ev := &mockEvaluator{
			executeFunc: func(context.Context, dto.EvaluateRequest) (dto.EvaluationResponse, error) {
				return dto.EvaluationResponse{}, errors.New("save evaluation: connection reset")
			},
		}
		h := messaging.NewIntakeHandler(ev, nil)

		err := h.Handle(context.Background(), pkgkafka.Message{Key: []byte("app-9"), Value: []byte(`{"income":1}`)})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "app-9")
	})
}
