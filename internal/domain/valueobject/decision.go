package valueobject

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Decision – immutable value object
// ---------------------------------------------------------------------------

// Decision is the outcome tier of a credit evaluation.
type Decision struct {
	value string
}

const (
	decisionApproved       = "APPROVED"
	decisionDenied         = "DENIED"
	decisionReviewManually = "REVIEW_MANUALLY"
)

var (
	DecisionApproved       = Decision{value: decisionApproved}
	DecisionDenied         = Decision{value: decisionDenied}
	DecisionReviewManually = Decision{value: decisionReviewManually}
)

var validDecisions = map[string]Decision{
	decisionApproved:       DecisionApproved,
	decisionDenied:         DecisionDenied,
	decisionReviewManually: DecisionReviewManually,
}

// NewDecision creates a Decision from its canonical code.
func NewDecision(s string) (Decision, error) {
	d, ok := validDecisions[s]
	if !ok {
		return Decision{}, fmt.Errorf("invalid decision: %q", s)
	}
	return d, nil
}

// String returns the canonical code of the decision.
func (d Decision) String() string { return d.value }

// IsZero returns true if the decision has not been initialised.
func (d Decision) IsZero() bool { return d.value == "" }

// Equal returns true when both decisions carry the same value.
func (d Decision) Equal(other Decision) bool { return d.value == other.value }

// IsApproved reports whether the decision grants credit.
func (d Decision) IsApproved() bool { return d.value == decisionApproved }
