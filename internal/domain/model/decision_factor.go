package model

import (
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/valueobject"
)

// DecisionFactor is one explainable input behind a decision.
type DecisionFactor struct {
	factor      string
	impact      valueobject.Impact
	description string
}

// NewDecisionFactor creates a DecisionFactor.
func NewDecisionFactor(factor string, impact valueobject.Impact, description string) DecisionFactor {
	return DecisionFactor{factor: factor, impact: impact, description: description}
}

func (f DecisionFactor) Factor() string              { return f.factor }
func (f DecisionFactor) Impact() valueobject.Impact { return f.impact }
func (f DecisionFactor) Description() string         { return f.description }
