package usecase

import (
	"github.com/l3hautikpatel/credwise-sub000/internal/application/dto"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
)

func toEvaluationResponse(e model.CreditEvaluation) dto.EvaluationResponse {
	r := e.Result()
	resp := dto.EvaluationResponse{
		ID:                 e.ID(),
		ApplicantReference: e.ApplicantReference(),
		LoanType:           e.LoanType().String(),
		RequestedAmount:    e.RequestedAmount(),
		TenureMonths:       e.TenureMonths(),
		CreditScore:        r.CreditScore(),
		CreditScoreRating:  r.CreditScoreRating().String(),
		DTI:                r.DTI().Round(4),
		DTIRating:          r.DTIRating().String(),
		EligibilityScore:   r.EligibilityScore(),
		Decision:           r.Decision().String(),
		ApprovedAmount:     r.ApprovedAmount(),
		InterestRate:       r.InterestRate(),
		EMI:                r.EMI(),
		EvaluatedAt:        e.EvaluatedAt(),
	}

	factors := r.DecisionFactors()
	resp.DecisionFactors = make([]dto.DecisionFactorResponse, 0, len(factors))
	for _, f := range factors {
		resp.DecisionFactors = append(resp.DecisionFactors, dto.DecisionFactorResponse{
			Factor:      f.Factor(),
			Impact:      f.Impact().String(),
			Description: f.Description(),
		})
	}

	for _, s := range r.Schedule() {
		resp.Schedule = append(resp.Schedule, dto.AmortizationEntryResponse{
			Period:           s.Period,
			DueDate:          s.DueDate,
			Principal:        s.Principal,
			Interest:         s.Interest,
			Total:            s.Total,
			RemainingBalance: s.RemainingBalance,
		})
	}

	if pred, ok := r.Prediction(); ok {
		resp.Prediction = &dto.PredictionResponse{
			Status:              string(pred.Status),
			ApprovalProbability: pred.ApprovalProbability,
			CreditScore:         pred.CreditScore,
			Fallback:            pred.Fallback,
			FailureReason:       pred.FailureReason,
		}
	}

	for _, w := range r.Warnings() {
		resp.Warnings = append(resp.Warnings, dto.WarningResponse{Field: w.Field, Reason: w.Reason, Default: w.Default})
	}
	return resp
}
