package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/application/usecase"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/pkg/auth"
)

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	for _, role := range roles {
		if claims.HasRole(role) {
			return nil
		}
	}
	return status.Error(codes.PermissionDenied, "insufficient permissions")
}

// Compile-time assertion that EvaluationHandler implements CreditEvaluationServiceServer.
var _ CreditEvaluationServiceServer = (*EvaluationHandler)(nil)

// EvaluationHandler implements the gRPC CreditEvaluationServiceServer interface.
type EvaluationHandler struct {
	UnimplementedCreditEvaluationServiceServer
	evaluate        *usecase.EvaluateApplicationUseCase
	getEvaluation   *usecase.GetEvaluationUseCase
	listEvaluations *usecase.ListEvaluationsUseCase
	logger          *slog.Logger
}

// NewEvaluationHandler creates a new gRPC handler.
func NewEvaluationHandler(
	evaluate *usecase.EvaluateApplicationUseCase,
	getEvaluation *usecase.GetEvaluationUseCase,
	listEvaluations *usecase.ListEvaluationsUseCase,
	logger *slog.Logger,
) *EvaluationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{
		evaluate:        evaluate,
		getEvaluation:   getEvaluation,
		listEvaluations: listEvaluations,
		logger:          logger,
	}
}

// Proto-aligned request/response message types.

// EvaluateRequest carries the raw applicant profile and an optional prior
// evaluation or predictor reply.
type EvaluateRequest struct {
	Profile map[string]any `json:"profile"`
	Prior   map[string]any `json:"prior,omitempty"`
}

// DecisionFactorMsg represents the proto DecisionFactor message.
type DecisionFactorMsg struct {
	Factor      string `json:"factor"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// InstallmentMsg represents one amortization schedule entry.
type InstallmentMsg struct {
	Period           int32  `json:"period"`
	DueDate          string `json:"due_date"`
	Principal        string `json:"principal"`
	Interest         string `json:"interest"`
	Total            string `json:"total"`
	RemainingBalance string `json:"remaining_balance"`
}

// EvaluationMsg represents the proto CreditEvaluation message. Decimal
// amounts are carried as strings.
type EvaluationMsg struct {
	ID                 string               `json:"id"`
	ApplicantReference string               `json:"applicant_reference"`
	LoanType           string               `json:"loan_type"`
	RequestedAmount    string               `json:"requested_amount"`
	TenureMonths       int32                `json:"tenure_months"`
	CreditScore        int32                `json:"credit_score"`
	CreditScoreRating  string               `json:"credit_score_rating"`
	DTI                string               `json:"dti"`
	DTIRating          string               `json:"dti_rating"`
	EligibilityScore   int32                `json:"eligibility_score"`
	Decision           string               `json:"decision"`
	ApprovedAmount     string               `json:"approved_amount"`
	InterestRate       string               `json:"interest_rate"`
	EMI                string               `json:"emi"`
	DecisionFactors    []*DecisionFactorMsg `json:"decision_factors"`
	Schedule           []*InstallmentMsg    `json:"schedule,omitempty"`
	UsedFallback       bool                 `json:"used_fallback"`
	EvaluatedAt        string               `json:"evaluated_at"`
}

// EvaluateResponse represents the proto EvaluateResponse message.
type EvaluateResponse struct {
	Evaluation *EvaluationMsg `json:"evaluation"`
}

// GetEvaluationRequest represents the proto GetEvaluationRequest message.
type GetEvaluationRequest struct {
	ID string `json:"id"`
}

// GetEvaluationResponse represents the proto GetEvaluationResponse message.
type GetEvaluationResponse struct {
	Evaluation *EvaluationMsg `json:"evaluation"`
}

// ListEvaluationsRequest represents the proto ListEvaluationsRequest message.
type ListEvaluationsRequest struct {
	ApplicantReference string `json:"applicant_reference"`
	Limit              int32  `json:"limit"`
}

// ListEvaluationsResponse represents the proto ListEvaluationsResponse message.
type ListEvaluationsResponse struct {
	Evaluations []*EvaluationMsg `json:"evaluations"`
}

// Evaluate scores an applicant and returns the recorded evaluation.
func (h *EvaluationHandler) Evaluate(ctx context.Context, req *EvaluateRequest) (*EvaluateResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil || len(req.Profile) == 0 {
		return nil, status.Error(codes.InvalidArgument, "profile is required")
	}

	result, err := h.evaluate.Execute(ctx, dto.EvaluateRequest{Profile: req.Profile, Prior: req.Prior})
	if err != nil {
		return nil, h.toStatus(ctx, "evaluate applicant", err)
	}

	return &EvaluateResponse{Evaluation: toEvaluationMsg(result)}, nil
}

// GetEvaluation returns a stored evaluation.
func (h *EvaluationHandler) GetEvaluation(ctx context.Context, req *GetEvaluationRequest) (*GetEvaluationResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAnalyst, auth.RoleAPIClient); err != nil {
		return nil, err
	}

	if req == nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	result, err := h.getEvaluation.Execute(ctx, dto.GetEvaluationRequest{EvaluationID: req.ID})
	if err != nil {
		return nil, h.toStatus(ctx, "get evaluation", err)
	}

	return &GetEvaluationResponse{Evaluation: toEvaluationMsg(result)}, nil
}

// ListEvaluations returns the recent evaluations of an applicant.
func (h *EvaluationHandler) ListEvaluations(ctx context.Context, req *ListEvaluationsRequest) (*ListEvaluationsResponse, error) {
	if err := requireRole(ctx, auth.RoleAdmin, auth.RoleUnderwriter, auth.RoleAnalyst); err != nil {
		return nil, err
	}

	if req == nil || req.ApplicantReference == "" {
		return nil, status.Error(codes.InvalidArgument, "applicant_reference is required")
	}

	result, err := h.listEvaluations.Execute(ctx, dto.ListEvaluationsRequest{
		ApplicantReference: req.ApplicantReference,
		Limit:              int(req.Limit),
	})
	if err != nil {
		return nil, h.toStatus(ctx, "list evaluations", err)
	}

	out := &ListEvaluationsResponse{Evaluations: make([]*EvaluationMsg, 0, len(result.Evaluations))}
	for _, e := range result.Evaluations {
		out.Evaluations = append(out.Evaluations, toEvaluationMsg(e))
	}
	return out, nil
}

func (h *EvaluationHandler) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, model.ErrProfileIncomplete):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrEvaluationNotFound):
		return status.Error(codes.NotFound, "evaluation not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	h.logger.ErrorContext(ctx, "failed to "+op,
		slog.String("error", err.Error()),
	)
	return status.Error(codes.Internal, "internal error")
}

func toEvaluationMsg(r dto.EvaluationResponse) *EvaluationMsg {
	msg := &EvaluationMsg{
		ID:                 r.ID,
		ApplicantReference: r.ApplicantReference,
		LoanType:           r.LoanType,
		RequestedAmount:    r.RequestedAmount.StringFixed(2),
		TenureMonths:       int32(r.TenureMonths),
		CreditScore:        int32(r.CreditScore),
		CreditScoreRating:  r.CreditScoreRating,
		DTI:                r.DTI.String(),
		DTIRating:          r.DTIRating,
		EligibilityScore:   int32(r.EligibilityScore),
		Decision:           r.Decision,
		ApprovedAmount:     r.ApprovedAmount.StringFixed(2),
		InterestRate:       r.InterestRate.String(),
		EMI:                r.EMI.StringFixed(2),
		UsedFallback:       r.Prediction != nil && r.Prediction.Fallback,
		EvaluatedAt:        r.EvaluatedAt.UTC().Format(time.RFC3339),
	}

	msg.DecisionFactors = make([]*DecisionFactorMsg, 0, len(r.DecisionFactors))
	for _, f := range r.DecisionFactors {
		msg.DecisionFactors = append(msg.DecisionFactors, &DecisionFactorMsg{
			Factor:      f.Factor,
			Impact:      f.Impact,
			Description: f.Description,
		})
	}
	for _, s := range r.Schedule {
		msg.Schedule = append(msg.Schedule, &InstallmentMsg{
			Period:           int32(s.Period),
			DueDate:          s.DueDate.Format(time.DateOnly),
			Principal:        s.Principal.StringFixed(2),
			Interest:         s.Interest.StringFixed(2),
			Total:            s.Total.StringFixed(2),
			RemainingBalance: s.RemainingBalance.StringFixed(2),
		})
	}
	return msg
}
