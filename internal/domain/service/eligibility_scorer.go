package service

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

const (
	MaxEligibilityScore = 100
	eligibilityBonus    = 5
)

var eligibilityDTIBonusLimit = decimal.NewFromFloat(0.30)

// EligibilityScore maps a credit score onto roughly 0–100 and adds a bonus
// for low DTI, on-time history and a year of employment. It is capped at 100
// and deliberately has no floor.
func EligibilityScore(creditScore int, dti decimal.Decimal, history valueobject.PaymentHistory, monthsEmployed int) int {
	score := int(math.Round(float64(creditScore-MinCreditScore) / 6))
	if dti.LessThan(eligibilityDTIBonusLimit) {
		score += eligibilityBonus
	}
	if history.IsOnTime() {
		score += eligibilityBonus
	}
	if monthsEmployed >= 12 {
		score += eligibilityBonus
	}
	return min(score, MaxEligibilityScore)
}
