package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrProfileIncomplete is the sentinel wrapped by ProfileIncompleteError.
var ErrProfileIncomplete = errors.New("applicant profile incomplete")

// ErrEvaluationNotFound is returned by repositories when no evaluation matches.
var ErrEvaluationNotFound = errors.New("credit evaluation not found")

// ErrEvaluationExists is returned when an evaluation id is stored twice.
var ErrEvaluationExists = errors.New("credit evaluation already stored")

// ProfileIncompleteError is the only failure an evaluation surfaces to its
// caller: none of the required profile fields could be resolved.
type ProfileIncompleteError struct {
	Missing []string
}

func (e *ProfileIncompleteError) Error() string {
	return fmt.Sprintf("%s: missing %s", ErrProfileIncomplete, strings.Join(e.Missing, ", "))
}

func (e *ProfileIncompleteError) Unwrap() error { return ErrProfileIncomplete }

// NormalizationWarning records a field that could not be resolved from the
// submission and was replaced by a default.
type NormalizationWarning struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Default string `json:"default"`
}

func (w NormalizationWarning) String() string {
	return fmt.Sprintf("%s: %s (using %s)", w.Field, w.Reason, w.Default)
}

// PredictionUnavailableError wraps any transport, timeout or decoding failure
// of the external predictor. It never leaves the decision adapter.
type PredictionUnavailableError struct {
	Cause error
}

func (e *PredictionUnavailableError) Error() string {
	return fmt.Sprintf("prediction unavailable: %v", e.Cause)
}

func (e *PredictionUnavailableError) Unwrap() error { return e.Cause }

// FactorExtractionError reports a factor that could not be built from the
// evaluation data. The extractor replaces the factor list when it sees one.
type FactorExtractionError struct {
	Factor string
	Cause  error
}

func (e *FactorExtractionError) Error() string {
	return fmt.Sprintf("extract factor %q: %v", e.Factor, e.Cause)
}

func (e *FactorExtractionError) Unwrap() error { return e.Cause }
