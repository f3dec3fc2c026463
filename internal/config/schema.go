package config

import "github.com/povarna/generative-ai-agents/guard-agent/internal/models"

const (
	KindDetectPII     = "detect_pii"
	KindToxicLanguage = "toxic_language"
)

// GuardsConfig is the static guard declaration consumed once at startup
type GuardsConfig struct {
	Guards []GuardConfiguration `yaml:"guards"`
}

// GuardConfiguration declares one named guard and its ordered validators
type GuardConfiguration struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	Direction   models.Direction         `yaml:"direction"`
	Validators  []ValidatorConfiguration `yaml:"validators"`
}

// ValidatorConfiguration selects a validator kind and its parameters.
// Parameters that do not apply to the kind are ignored.
type ValidatorConfiguration struct {
	Kind   string              `yaml:"kind"`
	OnFail models.OnFailPolicy `yaml:"on_fail"`

	// detect_pii
	PIIEntities []string `yaml:"pii_entities"`

	// toxic_language
	Threshold        *float64           `yaml:"threshold"`
	ValidationMethod models.Granularity `yaml:"validation_method"`
	Scorer           string             `yaml:"scorer"`
}
