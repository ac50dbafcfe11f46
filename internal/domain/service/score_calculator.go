package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 900

	weightPaymentHistory = 0.35
	weightUtilization    = 0.30
	weightDTI            = 0.15
	weightEmployment     = 0.10
	weightAssets         = 0.05
	weightCreditMix      = 0.05
)

// ScoreBreakdown holds the weighted sub-scores behind a credit score. Every
// component lies in [0,1].
type ScoreBreakdown struct {
	PaymentHistory float64
	Utilization    float64
	DTIComponent   float64
	Employment     float64
	Assets         float64
	CreditMix      float64
}

// Composite returns the weighted sum of the sub-scores.
func (b ScoreBreakdown) Composite() float64 {
	return weightPaymentHistory*b.PaymentHistory +
		weightUtilization*b.Utilization +
		weightDTI*b.DTIComponent +
		weightEmployment*b.Employment +
		weightAssets*b.Assets +
		weightCreditMix*b.CreditMix
}

// CreditScore maps the composite onto the 300–900 scale.
func (b ScoreBreakdown) CreditScore() int {
	score := int(math.Round(MinCreditScore + 600*b.Composite()))
	return min(max(score, MinCreditScore), MaxCreditScore)
}

// ScoreProfile computes every sub-score of profile.
func ScoreProfile(profile model.ApplicantProfile) ScoreBreakdown {
	dti := ProfileDTI(profile)
	return ScoreBreakdown{
		PaymentHistory: PaymentHistoryScore(profile.PaymentHistory()),
		Utilization:    CreditUtilizationScore(profile.UsedCredit(), profile.CreditLimit()),
		DTIComponent:   clamp01(1 - dti.InexactFloat64()),
		Employment:     EmploymentScore(profile),
		Assets:         AssetsScore(profile.TotalAssets(), profile.Income()),
		CreditMix:      CreditMixScore(len(profile.DebtTypes()), profile.BankAccounts()),
	}
}

// CreditScore returns the 300–900 credit score of profile.
func CreditScore(profile model.ApplicantProfile) int {
	return ScoreProfile(profile).CreditScore()
}

// PaymentHistoryScore: on-time 1.0, late under 60 days 0.5, anything else 0.
func PaymentHistoryScore(h valueobject.PaymentHistory) float64 {
	switch {
	case h.Equal(valueobject.PaymentHistoryOnTime):
		return 1.0
	case h.Equal(valueobject.PaymentHistoryLateUnder60):
		return 0.5
	default:
		return 0
	}
}

// CreditUtilizationScore returns 1 − used/limit clamped to [0,1].
func CreditUtilizationScore(used, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return clamp01(1 - used.Div(limit).InexactFloat64())
}

// EmploymentScore is 1.0 for full-time work of at least a year, else 0.5.
func EmploymentScore(profile model.ApplicantProfile) float64 {
	if profile.IsFullTime() && profile.MonthsEmployed() >= 12 {
		return 1.0
	}
	return 0.5
}

// AssetsScore compares assets to a year of income.
func AssetsScore(assets, monthlyIncome decimal.Decimal) float64 {
	if !monthlyIncome.IsPositive() {
		return 0
	}
	annual := monthlyIncome.Mul(decimal.NewFromInt(12))
	return math.Min(1, assets.Div(annual).InexactFloat64())
}

// CreditMixScore rewards diverse debt types and up to three bank accounts.
func CreditMixScore(debtTypes, bankAccounts int) float64 {
	return math.Min(1, float64(debtTypes+min(bankAccounts, 3))/6)
}

// CreditScoreRating maps a score to its band.
func CreditScoreRating(score int) valueobject.CreditRating {
	switch {
	case score < 560:
		return valueobject.CreditRatingPoor
	case score < 660:
		return valueobject.CreditRatingFair
	case score < 725:
		return valueobject.CreditRatingGood
	case score < 800:
		return valueobject.CreditRatingVeryGood
	default:
		return valueobject.CreditRatingExcellent
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
