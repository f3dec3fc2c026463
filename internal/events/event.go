package events

import (
	"errors"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

const (
	DecisionPass     = "pass"
	DecisionFixed    = "fixed"
	DecisionFlagged  = "flagged"
	DecisionRejected = "rejected"
	DecisionError    = "error"
)

// ValidationEvent records one dispatch.
type ValidationEvent struct {
	Timestamp string           `json:"timestamp"` // RFC3339
	RequestID string           `json:"request_id"`
	Guard     string           `json:"guard"`
	Direction models.Direction `json:"direction,omitempty"`
	Passed    bool             `json:"passed"`
	Decision  string           `json:"decision"`
	Failures  []models.Failure `json:"failures"`
	Error     string           `json:"error,omitempty"`
	LatencyMs int64            `json:"latency_ms"`
}

// Decide summarizes an outcome: fixed when the text was rewritten, flagged
// when failures were recorded without a rewrite.
func Decide(outcome models.ValidationOutcome, err error) string {
	var rejected *guard.GuardRejected
	switch {
	case errors.As(err, &rejected):
		return DecisionRejected
	case err != nil:
		return DecisionError
	case !outcome.Passed:
		return DecisionRejected
	case outcome.FinalText != outcome.OriginalText:
		return DecisionFixed
	}
	for _, v := range outcome.PerValidator {
		if !v.Passed {
			return DecisionFlagged
		}
	}
	return DecisionPass
}
