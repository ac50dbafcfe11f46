package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationEntry is one period of a repayment schedule.
type AmortizationEntry struct {
	DueDate          time.Time
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
	Period           int
}

// MonthlyPayment returns the equated monthly installment for a loan of
// principal at annualRate (a fraction, e.g. 0.08) over months periods:
//
//	r   = annualRate / 12
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate splits the principal evenly. Invalid inputs yield zero.
func MonthlyPayment(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || !principal.IsPositive() || annualRate.IsNegative() {
		return decimal.Zero
	}

	monthlyRate := annualRate.InexactFloat64() / 12.0
	if monthlyRate == 0 {
		return principal.Div(decimal.NewFromInt(int64(months))).Round(2)
	}

	factor := math.Pow(1+monthlyRate, float64(months))
	payment := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
	return decimal.NewFromFloat(payment).Round(2)
}

// GenerateAmortizationSchedule computes a fixed-payment schedule whose first
// installment falls one month after startDate. The final period absorbs
// rounding so the balance ends at exactly zero.
func GenerateAmortizationSchedule(
	principal decimal.Decimal,
	annualRate decimal.Decimal,
	termMonths int,
	startDate time.Time,
) []AmortizationEntry {
	payment := MonthlyPayment(principal, annualRate, termMonths)
	if payment.IsZero() {
		return nil
	}

	monthlyRate := annualRate.Div(decimal.NewFromInt(12))
	schedule := make([]AmortizationEntry, 0, termMonths)
	remaining := principal

	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principalPart := payment.Sub(interest)
		if period == termMonths || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)

		schedule = append(schedule, AmortizationEntry{
			Period:           period,
			DueDate:          startDate.AddDate(0, period, 0),
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})

		if remaining.IsZero() {
			break
		}
	}

	return schedule
}
