package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// Factor names, in output order.
const (
	FactorCreditScore       = "Credit Score"
	FactorDTI               = "Debt-to-Income Ratio"
	FactorEmployment        = "Employment Stability"
	FactorPaymentHistory    = "Payment History"
	FactorScoreDiscrepancy  = "Credit Score Discrepancy"
	FactorUtilization       = "Credit Utilization"
	FactorApplicationReview = "Application Review"
)

const (
	factorMinCreditScore      = 600
	scoreDiscrepancyTolerance = 50
	stableFullTimeMonths      = 12
	stableAnyMonths           = 24
	utilizationLowPercent     = 30.0
	utilizationHighPercent    = 75.0
)

// Factor data keys, in resolution order. Percent-valued payload keys carry a
// divisor of 100.
var (
	factorScoreKeys       = keys("creditScore", "credit_score", "systemCreditScore", "predicted_credit_score")
	factorDTIKeys         = []alias{{key: "dti"}, {key: "debtToIncomeRatio"}, {key: "dti_percent", divisor: 100}}
	factorEmploymentKeys  = keys("employmentStatus", "employment_status", "employmentType")
	factorMonthsKeys      = keys("monthsEmployed", "months_employed", "employmentDurationMonths")
	factorSelfScoreKeys   = keys("selfReportedCreditScore", "self_reported_credit_score", "userCreditScore")
	factorUsedCreditKeys  = keys("usedCredit", "creditTotalUsage", "currentCreditUsage", "credit_used")
	factorLimitKeys       = keys("creditLimit", "currentCreditLimit", "totalCreditLimit", "total_credit_limit")
	factorUtilizationKeys = []alias{{key: "creditUtilization"}, {key: "credit_utilization", divisor: 100}}

	negativeHistoryMarkers = []string{"late", "default", "missed", "delinquent"}

	errFactorMissing = errors.New("value missing")
)

// DecisionFactorExtractor explains an evaluation as an ordered list of
// factors. It never fails: any error or panic while building factors yields
// the single Neutral "Application Review" factor instead.
type DecisionFactorExtractor struct {
	logger *slog.Logger
}

// NewDecisionFactorExtractor creates an extractor. A nil logger uses slog.Default().
func NewDecisionFactorExtractor(logger *slog.Logger) *DecisionFactorExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DecisionFactorExtractor{logger: logger}
}

// Extract builds the factors from loosely keyed evaluation data, combining
// locally computed values and any predictor payload.
func (x *DecisionFactorExtractor) Extract(data map[string]any) (factors []model.DecisionFactor) {
	defer func() {
		if r := recover(); r != nil {
			err := &model.FactorExtractionError{Factor: "*", Cause: fmt.Errorf("panic: %v", r)}
			factors = x.generic(err)
		}
	}()

	factors, err := x.extract(data)
	if err != nil {
		return x.generic(err)
	}
	x.logger.Debug("decision factors extracted", "stage", "factors", "count", len(factors))
	return factors
}

func (x *DecisionFactorExtractor) extract(data map[string]any) ([]model.DecisionFactor, error) {
	factors := make([]model.DecisionFactor, 0, 6)

	score, err := requiredFactorNumber(FactorCreditScore, data, factorScoreKeys)
	if err != nil {
		return nil, err
	}
	creditScore := int(score)
	factors = append(factors, creditScoreFactor(creditScore))

	dti, err := requiredFactorNumber(FactorDTI, data, factorDTIKeys)
	if err != nil {
		return nil, err
	}
	factors = append(factors, dtiFactor(dti))

	months, _, err := strictNumber(data, factorMonthsKeys)
	if err != nil {
		return nil, &model.FactorExtractionError{Factor: FactorEmployment, Cause: err}
	}
	status, _, _ := resolveString(data, factorEmploymentKeys)
	factors = append(factors, employmentFactor(status, int(months)))

	factors = append(factors, x.paymentHistoryFactor(data))

	if selfScore, found, err := strictNumber(data, factorSelfScoreKeys); err == nil && found && selfScore > 0 {
		if f, ok := discrepancyFactor(int(selfScore), creditScore); ok {
			factors = append(factors, f)
		}
	}

	if percent, ok := utilizationPercent(data); ok {
		factors = append(factors, utilizationFactor(percent))
	}

	return factors, nil
}

func (x *DecisionFactorExtractor) generic(err error) []model.DecisionFactor {
	x.logger.Warn("decision factor extraction failed", "stage", "factors", "error", err)
	return []model.DecisionFactor{
		model.NewDecisionFactor(FactorApplicationReview, valueobject.ImpactNeutral,
			"Application was reviewed based on the submitted financial profile."),
	}
}

// ---------------------------------------------------------------------------
// Individual factors
// ---------------------------------------------------------------------------

func creditScoreFactor(score int) model.DecisionFactor {
	label := CreditScoreRating(score).Label()
	if score >= factorMinCreditScore {
		return model.NewDecisionFactor(FactorCreditScore, valueobject.ImpactPositive,
			fmt.Sprintf("Credit score of %d (%s) is sufficient.", score, label))
	}
	return model.NewDecisionFactor(FactorCreditScore, valueobject.ImpactNegative,
		fmt.Sprintf("Credit score of %d (%s) is below recommended minimum.", score, label))
}

func dtiFactor(dti float64) model.DecisionFactor {
	percent := dti * 100
	if dti < DTIPositiveLimit.InexactFloat64() {
		return model.NewDecisionFactor(FactorDTI, valueobject.ImpactPositive,
			fmt.Sprintf("Debt-to-income ratio of %.1f%% is within acceptable range.", percent))
	}
	return model.NewDecisionFactor(FactorDTI, valueobject.ImpactNegative,
		fmt.Sprintf("Debt-to-income ratio of %.1f%% exceeds recommended maximum.", percent))
}

// IsStableEmployment reports full-time work for at least a year, or any
// employment for at least two.
func IsStableEmployment(status string, monthsEmployed int) bool {
	fullTime := strings.Contains(squashStatus(status), "fulltime")
	return (fullTime && monthsEmployed >= stableFullTimeMonths) || monthsEmployed >= stableAnyMonths
}

func employmentFactor(status string, months int) model.DecisionFactor {
	if IsStableEmployment(status, months) {
		return model.NewDecisionFactor(FactorEmployment, valueobject.ImpactPositive,
			"Employment status indicates stability.")
	}
	return model.NewDecisionFactor(FactorEmployment, valueobject.ImpactNegative,
		"Employment history shows insufficient stability.")
}

// paymentHistoryFactor inspects every value supplied under any payment
// history key. A negative marker anywhere wins over everything else.
func (x *DecisionFactorExtractor) paymentHistoryFactor(data map[string]any) model.DecisionFactor {
	values := collectStrings(data, paymentHistoryKeys)

	rating, rule := valueobject.CreditRatingExcellent, "default"
	for _, v := range values {
		if strings.EqualFold(v, "on-time") || strings.EqualFold(v, "on time") {
			rating, rule = valueobject.CreditRatingExcellent, "on_time"
		}
	}
	for _, v := range values {
		lower := strings.ToLower(v)
		if containsMarker(lower, negativeHistoryMarkers) {
			rating, rule = valueobject.CreditRatingPoor, "negative_marker"
			break
		}
	}

	x.logger.Debug("payment history classified",
		"stage", "payment_history",
		"values", values,
		"rule", rule,
		"rating", rating.Label(),
	)

	if rating.Equal(valueobject.CreditRatingPoor) {
		return model.NewDecisionFactor(FactorPaymentHistory, valueobject.ImpactNegative,
			"Payment history indicates issues with timely repayments.")
	}
	return model.NewDecisionFactor(FactorPaymentHistory, valueobject.ImpactPositive,
		"Payment history shows consistent on-time payments.")
}

func discrepancyFactor(selfReported, computed int) (model.DecisionFactor, bool) {
	diff := selfReported - computed
	if diff < 0 {
		diff = -diff
	}
	if diff <= scoreDiscrepancyTolerance {
		return model.DecisionFactor{}, false
	}
	return model.NewDecisionFactor(FactorScoreDiscrepancy, valueobject.ImpactWarning,
		fmt.Sprintf("Self-reported credit score of %d differs from calculated score of %d by %d points.",
			selfReported, computed, diff)), true
}

func utilizationPercent(data map[string]any) (float64, bool) {
	used, usedState := resolveDecimalState(data, factorUsedCreditKeys)
	limit, limitState := resolveDecimalState(data, factorLimitKeys)
	if usedState && limitState && limit > 0 {
		return used / limit * 100, true
	}
	v, _, state := resolveDecimal(data, factorUtilizationKeys)
	switch state {
	case lookupFound:
		return v.InexactFloat64() * 100, true
	case lookupZero:
		return 0, true
	}
	return 0, false
}

func utilizationFactor(percent float64) model.DecisionFactor {
	switch {
	case percent < utilizationLowPercent:
		return model.NewDecisionFactor(FactorUtilization, valueobject.ImpactPositive,
			fmt.Sprintf("Credit utilization of %.1f%% is healthy.", percent))
	case percent < utilizationHighPercent:
		return model.NewDecisionFactor(FactorUtilization, valueobject.ImpactNeutral,
			fmt.Sprintf("Credit utilization of %.1f%% is moderate.", percent))
	default:
		return model.NewDecisionFactor(FactorUtilization, valueobject.ImpactNegative,
			fmt.Sprintf("Credit utilization of %.1f%% is high.", percent))
	}
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func requiredFactorNumber(factor string, data map[string]any, aliases []alias) (float64, error) {
	v, found, err := strictNumber(data, aliases)
	if err != nil {
		return 0, &model.FactorExtractionError{Factor: factor, Cause: err}
	}
	if !found {
		return 0, &model.FactorExtractionError{Factor: factor, Cause: errFactorMissing}
	}
	return v, nil
}

func resolveDecimalState(data map[string]any, aliases []alias) (float64, bool) {
	v, _, state := resolveDecimal(data, aliases)
	if state != lookupFound && state != lookupZero {
		return 0, false
	}
	return v.InexactFloat64(), true
}

func containsMarker(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func squashStatus(s string) string {
	return strings.NewReplacer("-", "", " ", "", "_", "").Replace(strings.ToLower(s))
}
