package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

func factorByName(factors []model.DecisionFactor, name string) (model.DecisionFactor, bool) {
	for _, f := range factors {
		if f.Factor() == name {
			return f, true
		}
	}
	return model.DecisionFactor{}, false
}

func factorNames(factors []model.DecisionFactor) []string {
	out := make([]string, 0, len(factors))
	for _, f := range factors {
		out = append(out, f.Factor())
	}
	return out
}

func TestDecisionFactorExtractor_FullSet(t *testing.T) {
	x := service.NewDecisionFactorExtractor(nil)

	factors := x.Extract(map[string]any{
		"creditScore":             720,
		"dti":                     decimal.RequireFromString("0.25"),
		"employmentStatus":        "Full-time",
		"monthsEmployed":          18,
		"paymentHistory":          "On-time",
		"selfReportedCreditScore": 800,
		"usedCredit":              500,
		"creditLimit":             1000,
	})

	assert.Equal(t, []string{
		service.FactorCreditScore,
		service.FactorDTI,
		service.FactorEmployment,
		service.FactorPaymentHistory,
		service.FactorScoreDiscrepancy,
		service.FactorUtilization,
	}, factorNames(factors))

	assert.True(t, factors[0].Impact().Equal(valueobject.ImpactPositive))
	assert.Equal(t, "Credit score of 720 (Good) is sufficient.", factors[0].Description())
	assert.Equal(t, "Debt-to-income ratio of 25.0% is within acceptable range.", factors[1].Description())
	assert.Equal(t, "Employment status indicates stability.", factors[2].Description())
	assert.True(t, factors[3].Impact().Equal(valueobject.ImpactPositive))
	assert.True(t, factors[4].Impact().Equal(valueobject.ImpactWarning))
	assert.Contains(t, factors[4].Description(), "by 80 points")
	assert.True(t, factors[5].Impact().Equal(valueobject.ImpactNeutral))
}

func TestDecisionFactorExtractor_NegativeFactors(t *testing.T) {
	x := service.NewDecisionFactorExtractor(nil)

	factors := x.Extract(map[string]any{
		"credit_score":       540,
		"debtToIncomeRatio":  0.55,
		"employment_status":  "Student",
		"months_employed":    3,
		"credit_utilization": 90,
	})

	cs, _ := factorByName(factors, service.FactorCreditScore)
	assert.True(t, cs.Impact().Equal(valueobject.ImpactNegative))
	assert.Equal(t, "Credit score of 540 (Poor) is below recommended minimum.", cs.Description())

	dti, _ := factorByName(factors, service.FactorDTI)
	assert.Equal(t, "Debt-to-income ratio of 55.0% exceeds recommended maximum.", dti.Description())

	emp, _ := factorByName(factors, service.FactorEmployment)
	assert.True(t, emp.Impact().Equal(valueobject.ImpactNegative))

	util, ok := factorByName(factors, service.FactorUtilization)
	require.True(t, ok)
	assert.True(t, util.Impact().Equal(valueobject.ImpactNegative))

	_, ok = factorByName(factors, service.FactorScoreDiscrepancy)
	assert.False(t, ok)
}

func TestDecisionFactorExtractor_PaymentHistoryPrecedence(t *testing.T) {
	x := service.NewDecisionFactorExtractor(nil)
	base := func(extra map[string]any) map[string]any {
		data := map[string]any{"creditScore": 700, "dti": 0.2}
		for k, v := range extra {
			data[k] = v
		}
		return data
	}

	tests := []struct {
		name   string
		extra  map[string]any
		impact valueobject.Impact
	}{
		{"late beats an excellent rating", map[string]any{"paymentHistoryRating": "Excellent", "payment_history": "Late < 30"}, valueobject.ImpactNegative},
		{"any case and position", map[string]any{"paymentHistory": "occasionally LATE"}, valueobject.ImpactNegative},
		{"default marker", map[string]any{"paymentHistory": "Default"}, valueobject.ImpactNegative},
		{"missed marker", map[string]any{"payment_history_rating": "missed two payments"}, valueobject.ImpactNegative},
		{"delinquent marker", map[string]any{"paymentHistory": "Delinquent"}, valueobject.ImpactNegative},
		{"on time", map[string]any{"paymentHistory": "On Time"}, valueobject.ImpactPositive},
		{"ambiguous is lenient", map[string]any{"paymentHistory": "mostly fine"}, valueobject.ImpactPositive},
		{"absent is lenient", nil, valueobject.ImpactPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := factorByName(x.Extract(base(tt.extra)), service.FactorPaymentHistory)
			require.True(t, ok)
			assert.True(t, f.Impact().Equal(tt.impact), f.Impact().String())
		})
	}
}

func TestDecisionFactorExtractor_FailuresYieldGenericFactor(t *testing.T) {
	x := service.NewDecisionFactorExtractor(nil)

	tests := []struct {
		name string
		data map[string]any
	}{
		{"missing credit score", map[string]any{"dti": 0.2}},
		{"unparseable dti", map[string]any{"creditScore": 700, "dti": "n/a"}},
		{"nil data", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factors := x.Extract(tt.data)
			require.Len(t, factors, 1)
			assert.Equal(t, service.FactorApplicationReview, factors[0].Factor())
			assert.True(t, factors[0].Impact().Equal(valueobject.ImpactNeutral))
		})
	}
}

func TestDecisionFactorExtractor_Panic(t *testing.T) {
	x := service.NewDecisionFactorExtractor(nil)

	factors := x.Extract(map[string]any{
		"creditScore":      700,
		"dti":              0.2,
		"employmentStatus": panicStringer{},
	})

	require.Len(t, factors, 1)
	assert.Equal(t, service.FactorApplicationReview, factors[0].Factor())
}

func TestIsStableEmployment(t *testing.T) {
	assert.True(t, service.IsStableEmployment("Full-time", 12))
	assert.True(t, service.IsStableEmployment("full time", 12))
	assert.False(t, service.IsStableEmployment("Full-time", 11))
	assert.True(t, service.IsStableEmployment("Part-time", 24))
	assert.False(t, service.IsStableEmployment("Student", 6))
}

type panicStringer struct{}

func (panicStringer) String() string { panic("broken value") }
