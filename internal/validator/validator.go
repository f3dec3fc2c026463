package validator

import (
	"context"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

// Validator inspects a text and reports a Verdict. Implementations hold no
// per-request state and are safe for concurrent use.
type Validator interface {
	Name() string
	Kind() models.ValidatorKind
	OnFail() models.OnFailPolicy
	// Parameters describes the configured options, for introspection only.
	Parameters() map[string]any
	Check(ctx context.Context, text string) (models.Verdict, error)
}
