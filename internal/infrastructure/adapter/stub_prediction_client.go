package adapter

import (
	"context"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
)

// StubPredictionClient is a development adapter that answers from the
// request itself: approve when the supplied score is at least 660 and DTI
// (percent) is at most 40. It implements port.PredictionClient.
type StubPredictionClient struct{}

// NewStubPredictionClient creates a new stub adapter.
func NewStubPredictionClient() *StubPredictionClient {
	return &StubPredictionClient{}
}

// Predict never fails.
func (c *StubPredictionClient) Predict(_ context.Context, req model.PredictionRequest) (model.PredictionResponse, error) {
	score := 650
	if req.CreditScore != nil {
		score = *req.CreditScore
	}

	approved := score >= 660 && req.DTI <= 40
	probability := 0.3
	amount := 0.0
	rate := 0.07
	if approved {
		probability = 0.85
		amount = req.RequestedAmount
		rate = 0.06
	}
	predicted := float64(score)

	return model.PredictionResponse{
		IsApproved:           &approved,
		ApprovalProbability:  &probability,
		PredictedCreditScore: &predicted,
		ApprovedAmount:       &amount,
		InterestRate:         &rate,
	}, nil
}
