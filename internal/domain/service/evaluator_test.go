package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestEvaluator_ReferenceApplicantIsApproved(t *testing.T) {
	ev := service.NewEvaluator(service.WithClock(fixedClock))

	res, err := ev.Evaluate(context.Background(), referenceFields(), nil)

	require.NoError(t, err)
	assert.True(t, res.Decision().Equal(valueobject.DecisionApproved))
	assert.Equal(t, 817, res.CreditScore())
	assert.GreaterOrEqual(t, res.CreditScore(), service.ApprovalMinScore)
	assert.True(t, res.DTIRating().Equal(valueobject.ImpactPositive))
	assert.Equal(t, 100, res.EligibilityScore())
	assert.True(t, res.ApprovedAmount().Equal(decimal.NewFromInt(10000)))
	assert.True(t, res.InterestRate().Equal(decimal.RequireFromString("0.10")))
	assert.True(t, res.EMI().IsPositive())
	assert.Equal(t, "322.67", res.EMI().StringFixed(2))

	schedule := res.Schedule()
	require.Len(t, schedule, 36)
	assert.True(t, schedule[35].RemainingBalance.IsZero())

	_, consulted := res.Prediction()
	assert.False(t, consulted)

	assert.Equal(t, []string{
		service.FactorCreditScore,
		service.FactorDTI,
		service.FactorEmployment,
		service.FactorPaymentHistory,
		service.FactorUtilization,
	}, factorNames(res.DecisionFactors()))
}

func TestEvaluator_StudentRestriction(t *testing.T) {
	client := respond(model.PredictionResponse{IsApproved: ptr(true), ApprovalProbability: ptr(0.99)})
	ev := service.NewEvaluator(service.WithPredictor(client, time.Second))

	fields := referenceFields()
	fields["loanType"] = "Car Loan"
	fields["employmentStatus"] = "Student"
	fields["monthsEmployed"] = 3

	res, err := ev.Evaluate(context.Background(), fields, nil)

	require.NoError(t, err)
	assert.True(t, res.Decision().Equal(valueobject.DecisionDenied))
	assert.True(t, res.ApprovedAmount().IsZero())
	assert.True(t, res.EMI().IsZero())
	assert.Empty(t, res.Schedule())
}

func TestEvaluator_LatePaymentFactor(t *testing.T) {
	ev := service.NewEvaluator()

	fields := referenceFields()
	fields["paymentHistory"] = "Late < 30"
	fields["paymentHistoryRating"] = "Excellent"

	res, err := ev.Evaluate(context.Background(), fields, nil)

	require.NoError(t, err)
	f, ok := factorByName(res.DecisionFactors(), service.FactorPaymentHistory)
	require.True(t, ok)
	assert.True(t, f.Impact().Equal(valueobject.ImpactNegative))
	assert.False(t, res.Decision().IsApproved())
	assert.True(t, res.EMI().IsZero())
}

func TestEvaluator_MixedPaymentHistoryIsNotApproved(t *testing.T) {
	ev := service.NewEvaluator()

	for _, history := range []string{
		"Late, now on-time",
		"Not on time",
		"Missed payments, on time lately",
		"on-time (delinquent 2022)",
	} {
		t.Run(history, func(t *testing.T) {
			fields := referenceFields()
			fields["paymentHistory"] = history

			res, err := ev.Evaluate(context.Background(), fields, nil)

			require.NoError(t, err)
			assert.False(t, res.Decision().IsApproved())
			assert.Less(t, res.CreditScore(), 817, "the on-time payment weight is not granted")
			assert.True(t, res.EMI().IsZero())
		})
	}
}

func TestEvaluator_NilPredictorDecidesLocally(t *testing.T) {
	ev := service.NewEvaluator(service.WithPredictor(nil, time.Second))

	fields := referenceFields()
	fields["paymentHistory"] = "Late < 30"

	res, err := ev.Evaluate(context.Background(), fields, nil)

	require.NoError(t, err)
	assert.True(t, res.Decision().Equal(valueobject.DecisionReviewManually))
	assert.False(t, res.UsedFallback())
	_, consulted := res.Prediction()
	assert.False(t, consulted)
}

func TestEvaluator_PredictorFailureKeepsLocalDecision(t *testing.T) {
	ev := service.NewEvaluator(service.WithPredictor(failing(errors.New("503")), time.Second))

	res, err := ev.Evaluate(context.Background(), referenceFields(), nil)

	require.NoError(t, err)
	assert.True(t, res.Decision().IsApproved())
	assert.True(t, res.UsedFallback())
	pred, ok := res.Prediction()
	require.True(t, ok)
	assert.True(t, pred.IsApproved())
	assert.Equal(t, 817, pred.CreditScore)
}

func TestEvaluator_PredictionOverridesThresholds(t *testing.T) {
	t.Run("decisive denial", func(t *testing.T) {
		client := respond(model.PredictionResponse{IsApproved: ptr(false)})
		ev := service.NewEvaluator(service.WithPredictor(client, time.Second))

		res, err := ev.Evaluate(context.Background(), referenceFields(), nil)

		require.NoError(t, err)
		assert.True(t, res.Decision().Equal(valueobject.DecisionDenied))
		assert.True(t, res.EMI().IsZero())
		assert.False(t, res.UsedFallback())
	})

	t.Run("approval with amount and rate", func(t *testing.T) {
		client := respond(model.PredictionResponse{
			IsApproved:     ptr(true),
			ApprovedAmount: ptr(8000.0),
			InterestRate:   ptr(0.09),
		})
		ev := service.NewEvaluator(service.WithPredictor(client, time.Second))

		fields := referenceFields()
		fields["paymentHistory"] = "Late < 30"

		res, err := ev.Evaluate(context.Background(), fields, nil)

		require.NoError(t, err)
		assert.True(t, res.Decision().IsApproved())
		assert.True(t, res.ApprovedAmount().Equal(decimal.NewFromInt(8000)))
		assert.True(t, res.InterestRate().Equal(decimal.RequireFromString("0.09")))
		assert.True(t, res.EMI().IsPositive())
	})

	t.Run("low approval probability denies", func(t *testing.T) {
		client := respond(model.PredictionResponse{ApprovalProbability: ptr(0.20)})
		ev := service.NewEvaluator(service.WithPredictor(client, time.Second))

		res, err := ev.Evaluate(context.Background(), referenceFields(), nil)

		require.NoError(t, err)
		assert.True(t, res.Decision().Equal(valueobject.DecisionDenied))
		assert.True(t, res.ApprovedAmount().IsZero())
		assert.True(t, res.EMI().IsZero())
		assert.False(t, res.UsedFallback())
	})

	t.Run("ambiguous reply needs review", func(t *testing.T) {
		client := respond(model.PredictionResponse{})
		ev := service.NewEvaluator(service.WithPredictor(client, time.Second))

		res, err := ev.Evaluate(context.Background(), referenceFields(), nil)

		require.NoError(t, err)
		assert.True(t, res.Decision().Equal(valueobject.DecisionReviewManually))
		assert.True(t, res.EMI().IsZero())
	})
}

func TestEvaluator_PriorPrediction(t *testing.T) {
	ev := service.NewEvaluator()

	res, err := ev.Evaluate(context.Background(), referenceFields(), map[string]any{
		"is_approved":             false,
		"selfReportedCreditScore": 650,
	})

	require.NoError(t, err)
	assert.True(t, res.Decision().Equal(valueobject.DecisionDenied))
	_, ok := factorByName(res.DecisionFactors(), service.FactorScoreDiscrepancy)
	assert.True(t, ok)
}

func TestEvaluator_IncompleteProfile(t *testing.T) {
	ev := service.NewEvaluator()

	_, err := ev.Evaluate(context.Background(), map[string]any{"loanType": "Mortgage"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProfileIncomplete)
}

func TestEvaluator_ZeroIncome(t *testing.T) {
	ev := service.NewEvaluator()

	fields := referenceFields()
	fields["income"] = 0

	res, err := ev.Evaluate(context.Background(), fields, nil)

	require.NoError(t, err)
	assert.True(t, res.DTI().Equal(decimal.NewFromInt(1)))
	assert.True(t, res.DTIRating().Equal(valueobject.ImpactNegative))
	assert.True(t, res.Decision().Equal(valueobject.DecisionDenied))
}

func TestEvaluator_ResultsDoNotShareFactors(t *testing.T) {
	ev := service.NewEvaluator()

	a, err := ev.Evaluate(context.Background(), referenceFields(), nil)
	require.NoError(t, err)
	b, err := ev.Evaluate(context.Background(), referenceFields(), nil)
	require.NoError(t, err)

	fa := a.DecisionFactors()
	fa[0] = model.NewDecisionFactor("tampered", valueobject.ImpactNeutral, "")

	assert.Equal(t, service.FactorCreditScore, a.DecisionFactors()[0].Factor())
	assert.Equal(t, service.FactorCreditScore, b.DecisionFactors()[0].Factor())
}
