package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	pkgkafka "github.com/l3hautikpatel/credwise-sub000/pkg/kafka"
)

// ApplicationEvaluator is satisfied by *usecase.EvaluateApplicationUseCase.
type ApplicationEvaluator interface {
	Execute(ctx context.Context, req dto.EvaluateRequest) (dto.EvaluationResponse, error)
}

// IntakeHandler evaluates applicant submissions consumed from Kafka. The
// message value is {"profile": {...}, "prior": {...}} or a bare profile.
type IntakeHandler struct {
	evaluator ApplicationEvaluator
	logger    *slog.Logger
}

// NewIntakeHandler creates the handler.
func NewIntakeHandler(evaluator ApplicationEvaluator, logger *slog.Logger) *IntakeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeHandler{evaluator: evaluator, logger: logger}
}

// Handle matches pkgkafka.Handler. Undecodable and incomplete submissions
// are logged and acknowledged. Any other failure is returned so the
// consumer retries the message.
func (h *IntakeHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	req, err := decodeSubmission(msg.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping undecodable submission",
			"key", string(msg.Key),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	resp, err := h.evaluator.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, model.ErrProfileIncomplete) {
			h.logger.WarnContext(ctx, "dropping incomplete submission",
				"key", string(msg.Key),
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("evaluate submission %s: %w", msg.Key, err)
	}

	h.logger.InfoContext(ctx, "submission evaluated",
		"key", string(msg.Key),
		"partition", msg.Partition,
		"offset", msg.Offset,
		"evaluation_id", resp.ID,
		"decision", resp.Decision,
	)
	return nil
}

func decodeSubmission(value []byte) (dto.EvaluateRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return dto.EvaluateRequest{}, err
	}
	if len(raw) == 0 {
		return dto.EvaluateRequest{}, errors.New("empty submission")
	}

	profile, wrapped := raw["profile"].(map[string]any)
	if !wrapped {
		return dto.EvaluateRequest{Profile: raw}, nil
	}
	prior, _ := raw["prior"].(map[string]any)
	return dto.EvaluateRequest{Profile: profile, Prior: prior}, nil
}
