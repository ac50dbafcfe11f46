package valueobject

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// CreditRating – immutable value object
// ---------------------------------------------------------------------------

// CreditRating is the qualitative band of a 300–900 credit score.
type CreditRating struct {
	value string
	label string
}

var (
	CreditRatingPoor      = CreditRating{value: "POOR", label: "Poor"}
	CreditRatingFair      = CreditRating{value: "FAIR", label: "Fair"}
	CreditRatingGood      = CreditRating{value: "GOOD", label: "Good"}
	CreditRatingVeryGood  = CreditRating{value: "VERY_GOOD", label: "Very Good"}
	CreditRatingExcellent = CreditRating{value: "EXCELLENT", label: "Excellent"}
)

var validCreditRatings = map[string]CreditRating{
	CreditRatingPoor.value:      CreditRatingPoor,
	CreditRatingFair.value:      CreditRatingFair,
	CreditRatingGood.value:      CreditRatingGood,
	CreditRatingVeryGood.value:  CreditRatingVeryGood,
	CreditRatingExcellent.value: CreditRatingExcellent,
}

// NewCreditRating creates a CreditRating from its canonical code.
func NewCreditRating(s string) (CreditRating, error) {
	r, ok := validCreditRatings[s]
	if !ok {
		return CreditRating{}, fmt.Errorf("invalid credit rating: %q", s)
	}
	return r, nil
}

// String returns the canonical code of the rating.
func (r CreditRating) String() string { return r.value }

// Label returns the human-readable band name, e.g. "Very Good".
func (r CreditRating) Label() string { return r.label }

// IsZero returns true if the rating has not been initialised.
func (r CreditRating) IsZero() bool { return r.value == "" }

// Equal returns true when both ratings carry the same value.
func (r CreditRating) Equal(other CreditRating) bool { return r.value == other.value }

// ---------------------------------------------------------------------------
// Impact – immutable value object
// ---------------------------------------------------------------------------

// Impact describes how a decision factor weighed on the outcome. It also
// serves as the qualitative DTI rating, which only uses Positive and Negative.
type Impact struct {
	value string
}

const (
	impactPositive = "POSITIVE"
	impactNegative = "NEGATIVE"
	impactNeutral  = "NEUTRAL"
	impactWarning  = "WARNING"
)

var (
	ImpactPositive = Impact{value: impactPositive}
	ImpactNegative = Impact{value: impactNegative}
	ImpactNeutral  = Impact{value: impactNeutral}
	ImpactWarning  = Impact{value: impactWarning}
)

var validImpacts = map[string]Impact{
	impactPositive: ImpactPositive,
	impactNegative: ImpactNegative,
	impactNeutral:  ImpactNeutral,
	impactWarning:  ImpactWarning,
}

// NewImpact creates an Impact from its canonical code.
func NewImpact(s string) (Impact, error) {
	i, ok := validImpacts[s]
	if !ok {
		return Impact{}, fmt.Errorf("invalid impact: %q", s)
	}
	return i, nil
}

// String returns the canonical code of the impact.
func (i Impact) String() string { return i.value }

// IsZero returns true if the impact has not been initialised.
func (i Impact) IsZero() bool { return i.value == "" }

// Equal returns true when both impacts carry the same value.
func (i Impact) Equal(other Impact) bool { return i.value == other.value }
