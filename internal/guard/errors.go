package guard

import (
	"errors"
	"fmt"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

var (
	ErrRegistrySealed = errors.New("guard registry is sealed")
	ErrNoValidators   = errors.New("guard has no validators")
)

// GuardRejected is returned when a validator with the exception policy
// fails. Verdict is the failing verdict.
type GuardRejected struct {
	Guard   string
	Verdict models.Verdict
}

func (e *GuardRejected) Error() string {
	return fmt.Sprintf("guard %s rejected the text: validator %s failed", e.Guard, e.Verdict.Validator)
}

type DuplicateGuardError struct {
	Name string
}

func (e *DuplicateGuardError) Error() string {
	return fmt.Sprintf("guard %s is already registered", e.Name)
}

type UnknownGuardError struct {
	Name string
}

func (e *UnknownGuardError) Error() string {
	return fmt.Sprintf("guard %s not found", e.Name)
}
