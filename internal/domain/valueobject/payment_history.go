package valueobject

import (
	"slices"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// PaymentHistory – immutable value object
// ---------------------------------------------------------------------------

// PaymentHistory is the canonical repayment track record of an applicant.
type PaymentHistory struct {
	value string
}

const (
	paymentHistoryOnTime      = "ON_TIME"
	paymentHistoryLateUnder60 = "LATE_UNDER_60"
	paymentHistoryLateOver60  = "LATE_OVER_60"
	paymentHistoryOther       = "OTHER"
)

var (
	PaymentHistoryOnTime      = PaymentHistory{value: paymentHistoryOnTime}
	PaymentHistoryLateUnder60 = PaymentHistory{value: paymentHistoryLateUnder60}
	PaymentHistoryLateOver60  = PaymentHistory{value: paymentHistoryLateOver60}
	PaymentHistoryOther       = PaymentHistory{value: paymentHistoryOther}
)

// Marker phrases are checked most severe first so that "Late > 60" never
// reads as an under-60 delinquency.
var (
	over60Markers = []string{
		"> 60", ">60", "over 60", "more than 60", "greater than 60", "60+", "90+",
		"default", "bankruptcy", "poor",
	}
	under60Markers = []string{
		"< 30", "<30", "< 60", "<60", "less than 30", "under 30", "1-29",
		"30-60", "30 to 60", "between 30 and 60", "fair",
	}
	// Any of these disqualifies a text from reading as on time, whatever
	// else it says.
	negativeMarkers = []string{"late", "missed", "delinquent"}
	onTimeForms     = []string{"on-time", "on time", "ontime", "excellent", "good"}
)

// ParsePaymentHistory canonicalizes free-text history such as "On-time",
// "Late < 30", "Late 30-60" or "Late > 60". Only an exact on-time form is
// ON_TIME; mixed text such as "Late, now on-time" is not.
func ParsePaymentHistory(s string) PaymentHistory {
	n := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	switch {
	case n == "":
		return PaymentHistoryOther
	case containsAny(n, over60Markers):
		return PaymentHistoryLateOver60
	case containsAny(n, under60Markers):
		return PaymentHistoryLateUnder60
	case containsAny(n, negativeMarkers), negated(n):
		return PaymentHistoryOther
	case slices.Contains(onTimeForms, n):
		return PaymentHistoryOnTime
	default:
		return PaymentHistoryOther
	}
}

// String returns the canonical code.
func (p PaymentHistory) String() string { return p.value }

// IsZero returns true if the history has not been initialised.
func (p PaymentHistory) IsZero() bool { return p.value == "" }

// Equal returns true when both histories carry the same value.
func (p PaymentHistory) Equal(other PaymentHistory) bool { return p.value == other.value }

// IsOnTime reports whether every payment was made on schedule.
func (p PaymentHistory) IsOnTime() bool { return p.value == paymentHistoryOnTime }

// PredictionLabel returns the vocabulary the prediction service understands:
// "On Time", "Late" or "Default".
func (p PaymentHistory) PredictionLabel() string {
	switch p.value {
	case paymentHistoryOnTime:
		return "On Time"
	case paymentHistoryLateOver60:
		return "Default"
	default:
		return "Late"
	}
}

// negated reports whether n contains a negating word such as "not",
// "never" or a "-n't" contraction.
func negated(n string) bool {
	words := strings.FieldsFunc(n, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if w == "not" || w == "never" || strings.HasSuffix(w, "n't") {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
