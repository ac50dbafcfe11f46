package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// GetEvaluationUseCase retrieves an evaluation by ID, reading through the
// cache when one is configured.
type GetEvaluationUseCase struct {
	repo   port.EvaluationRepository
	cache  port.EvaluationCache
	logger *slog.Logger
}

// NewGetEvaluationUseCase wires dependencies. cache may be nil.
func NewGetEvaluationUseCase(repo port.EvaluationRepository, cache port.EvaluationCache, logger *slog.Logger) *GetEvaluationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetEvaluationUseCase{repo: repo, cache: cache, logger: logger}
}

// Execute returns the evaluation response for the given ID.
func (uc *GetEvaluationUseCase) Execute(
	ctx context.Context,
	req dto.GetEvaluationRequest,
) (dto.EvaluationResponse, error) {
	if resp, ok := uc.fromCache(ctx, req.EvaluationID); ok {
		return resp, nil
	}

	evaluation, err := uc.repo.FindByID(ctx, req.EvaluationID)
	if err != nil {
		return dto.EvaluationResponse{}, fmt.Errorf("find evaluation: %w", err)
	}
	resp := toEvaluationResponse(evaluation)

	if uc.cache != nil {
		payload, err := json.Marshal(resp)
		if err == nil {
			err = uc.cache.Set(ctx, req.EvaluationID, payload)
		}
		if err != nil {
			uc.logger.WarnContext(ctx, "failed to cache evaluation", "evaluation_id", req.EvaluationID, "error", err)
		}
	}
	return resp, nil
}

func (uc *GetEvaluationUseCase) fromCache(ctx context.Context, id string) (dto.EvaluationResponse, bool) {
	if uc.cache == nil {
		return dto.EvaluationResponse{}, false
	}
	payload, err := uc.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			uc.logger.WarnContext(ctx, "evaluation cache unavailable", "evaluation_id", id, "error", err)
		}
		return dto.EvaluationResponse{}, false
	}
	var resp dto.EvaluationResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		uc.logger.WarnContext(ctx, "discarding undecodable cache entry", "evaluation_id", id, "error", err)
		return dto.EvaluationResponse{}, false
	}
	return resp, true
}

// ListEvaluationsUseCase lists the recent evaluations of one applicant.
type ListEvaluationsUseCase struct {
	repo port.EvaluationRepository
}

// NewListEvaluationsUseCase wires dependencies.
func NewListEvaluationsUseCase(repo port.EvaluationRepository) *ListEvaluationsUseCase {
	return &ListEvaluationsUseCase{repo: repo}
}

// Execute returns up to req.Limit evaluations, newest first.
func (uc *ListEvaluationsUseCase) Execute(
	ctx context.Context,
	req dto.ListEvaluationsRequest,
) (dto.ListEvaluationsResponse, error) {
	if req.ApplicantReference == "" {
		return dto.ListEvaluationsResponse{}, errors.New("applicant reference is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	evaluations, err := uc.repo.FindByApplicant(ctx, req.ApplicantReference, limit)
	if err != nil {
		return dto.ListEvaluationsResponse{}, fmt.Errorf("find evaluations: %w", err)
	}

	out := dto.ListEvaluationsResponse{Evaluations: make([]dto.EvaluationResponse, 0, len(evaluations))}
	for _, e := range evaluations {
		out.Evaluations = append(out.Evaluations, toEvaluationResponse(e))
	}
	return out, nil
}
