package validator

import (
	"fmt"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/config"
	"github.com/rs/zerolog"
)

const (
	ScorerLexicon = "lexicon"
	ScorerLLM     = "llm"
)

// Factory builds validators from configuration, sharing the detection
// backends between every validator it creates.
type Factory struct {
	ner           Recognizer
	lexicon       Scorer
	llmScorer     Scorer
	defaultScorer string
	logger        *zerolog.Logger
}

// NewFactory creates a factory. ner and llmScorer are optional; defaultScorer
// applies to toxicity validators that do not name a scorer.
func NewFactory(ner Recognizer, llmScorer Scorer, defaultScorer string, logger *zerolog.Logger) *Factory {
	if defaultScorer == "" {
		defaultScorer = ScorerLexicon
	}
	return &Factory{
		ner:           ner,
		lexicon:       NewLexiconScorer(),
		llmScorer:     llmScorer,
		defaultScorer: defaultScorer,
		logger:        logger,
	}
}

// Build creates the validator described by cfg, named name.
func (f *Factory) Build(name string, cfg config.ValidatorConfiguration) (Validator, error) {
	switch cfg.Kind {
	case config.KindDetectPII:
		detector, err := NewPIIDetector(name, cfg.PIIEntities, cfg.OnFail, f.ner, f.logger)
		if err != nil {
			return nil, err
		}
		return detector, nil

	case config.KindToxicLanguage:
		if cfg.Threshold == nil {
			return nil, &ConfigurationError{Validator: name, Field: "threshold", Reason: "missing"}
		}
		scorer, err := f.scorer(name, cfg.Scorer)
		if err != nil {
			return nil, err
		}
		detector, err := NewToxicityDetector(name, *cfg.Threshold, cfg.ValidationMethod, cfg.OnFail, scorer, f.logger)
		if err != nil {
			return nil, err
		}
		return detector, nil

	default:
		return nil, &ConfigurationError{Validator: name, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", cfg.Kind)}
	}
}

func (f *Factory) scorer(validatorName, name string) (Scorer, error) {
	if name == "" {
		name = f.defaultScorer
	}

	switch name {
	case ScorerLexicon:
		return f.lexicon, nil
	case ScorerLLM:
		if f.llmScorer == nil {
			return nil, &ConfigurationError{Validator: validatorName, Field: "scorer", Reason: "llm scorer requested but no model is configured"}
		}
		return f.llmScorer, nil
	default:
		return nil, &ConfigurationError{Validator: validatorName, Field: "scorer", Reason: fmt.Sprintf("unknown scorer %q", name)}
	}
}
