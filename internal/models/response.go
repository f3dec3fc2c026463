package models

// Input message
type ValidateRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Guard     string `json:"guard,omitempty"`
	Text      string `json:"text"`
}

// Failure is one failing span. Span offsets index the text the validator
// received, which is the output of earlier fixes in the same guard, not
// necessarily the request text.
type Failure struct {
	ValidatorKind ValidatorKind `json:"validator_kind"`
	Validator     string        `json:"validator"`
	Label         string        `json:"label"`
	Span          [2]int        `json:"span"`
	Score         *float64      `json:"score,omitempty"`
}

// Wire form of a ValidationOutcome
type ValidateResponse struct {
	RequestID string    `json:"request_id,omitempty"`
	Guard     string    `json:"guard"`
	Passed    bool      `json:"passed"`
	Text      string    `json:"text"`
	Failures  []Failure `json:"failures"`
	Error     string    `json:"error,omitempty"`
}

func NewValidateResponse(outcome ValidationOutcome) ValidateResponse {
	return ValidateResponse{
		RequestID: outcome.RequestID,
		Guard:     outcome.GuardName,
		Passed:    outcome.Passed,
		Text:      outcome.FinalText,
		Failures:  Failures(outcome.PerValidator),
	}
}

// Failures flattens the failed spans of every verdict, in pipeline order.
// Spans that carry no score fall back to the verdict score.
func Failures(verdicts []Verdict) []Failure {
	failures := []Failure{}
	for _, v := range verdicts {
		if v.Passed {
			continue
		}
		for _, span := range v.FailedSpans {
			failure := Failure{
				ValidatorKind: v.Kind,
				Validator:     v.Validator,
				Label:         span.Label,
				Span:          [2]int{span.Start, span.End},
			}
			if span.Score > 0 {
				score := span.Score
				failure.Score = &score
			} else if v.Score != nil {
				score := *v.Score
				failure.Score = &score
			}
			failures = append(failures, failure)
		}
	}
	return failures
}
