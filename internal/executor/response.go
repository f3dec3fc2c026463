package executor

import (
	"errors"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

// NewResponse renders a dispatch result for transports that carry errors in
// the body. A rejection reports the spans of the verdict that blocked.
func NewResponse(outcome models.ValidationOutcome, err error) models.ValidateResponse {
	if err == nil {
		return models.NewValidateResponse(outcome)
	}

	response := models.ValidateResponse{
		RequestID: outcome.RequestID,
		Guard:     outcome.GuardName,
		Passed:    false,
		Text:      outcome.FinalText,
		Failures:  []models.Failure{},
		Error:     err.Error(),
	}

	var rejected *guard.GuardRejected
	if errors.As(err, &rejected) {
		response.Guard = rejected.Guard
		response.Failures = models.Failures([]models.Verdict{rejected.Verdict})
	}
	return response
}
