package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

// Guard is a named, ordered pipeline of validators bound to one direction.
// It is immutable after New and safe for concurrent use.
type Guard struct {
	name        string
	description string
	direction   models.Direction
	validators  []validator.Validator
	logger      *zerolog.Logger
}

func New(
	name string,
	description string,
	direction models.Direction,
	validators []validator.Validator,
	logger *zerolog.Logger,
) (*Guard, error) {
	if name == "" {
		return nil, fmt.Errorf("guard name is required")
	}
	if !direction.Valid() {
		return nil, fmt.Errorf("guard %s: invalid direction %q", name, direction)
	}
	if len(validators) == 0 {
		return nil, fmt.Errorf("guard %s: %w", name, ErrNoValidators)
	}

	return &Guard{
		name:        name,
		description: description,
		direction:   direction,
		validators:  append([]validator.Validator(nil), validators...),
		logger:      logger,
	}, nil
}

func (g *Guard) Name() string {
	return g.name
}

func (g *Guard) Direction() models.Direction {
	return g.direction
}

func (g *Guard) Describe() models.GuardDescription {
	description := models.GuardDescription{
		Name:        g.name,
		Description: g.description,
		Direction:   g.direction,
		Validators:  make([]models.ValidatorDescription, 0, len(g.validators)),
	}
	for _, v := range g.validators {
		description.Validators = append(description.Validators, models.ValidatorDescription{
			Name:       v.Name(),
			Kind:       v.Kind(),
			OnFail:     v.OnFail(),
			Parameters: v.Parameters(),
		})
	}
	return description
}

// Run executes the validators in declaration order. Each validator sees the
// text produced by the previous one, so fixes compose left to right.
//
// A failed verdict resolves by policy: fix continues with the fixed text,
// noop records the failure, reask marks the outcome failed and continues,
// exception stops with *GuardRejected. Backend errors stop the pipeline.
func (g *Guard) Run(ctx context.Context, text string) (models.ValidationOutcome, error) {
	start := time.Now()

	outcome := models.ValidationOutcome{
		GuardName:    g.name,
		Direction:    g.direction,
		OriginalText: text,
		Passed:       true,
		PerValidator: make([]models.Verdict, 0, len(g.validators)),
	}

	current := text
	for _, v := range g.validators {
		verdict, err := v.Check(ctx, current)
		if err != nil {
			g.logger.Error().
				Err(err).
				Str("guard", g.name).
				Str("validator", v.Name()).
				Msg("validator failed")
			outcome.FinalText = current
			return outcome, fmt.Errorf("guard %s: %w", g.name, err)
		}
		outcome.PerValidator = append(outcome.PerValidator, verdict)

		if verdict.Passed {
			continue
		}

		switch v.OnFail() {
		case models.OnFailFix:
			if verdict.FixedText == nil {
				outcome.Passed = false
				continue
			}
			current = *verdict.FixedText

		case models.OnFailNoop:
			g.logger.Info().
				Str("guard", g.name).
				Str("validator", v.Name()).
				Int("spans", len(verdict.FailedSpans)).
				Msg("validation failure recorded")

		case models.OnFailReask:
			outcome.Passed = false

		case models.OnFailException:
			outcome.Passed = false
			outcome.FinalText = current
			g.logger.Warn().
				Str("guard", g.name).
				Str("validator", v.Name()).
				Msg("guard rejected text")
			return outcome, &GuardRejected{Guard: g.name, Verdict: verdict}
		}
	}

	outcome.FinalText = current

	g.logger.Debug().
		Str("guard", g.name).
		Bool("passed", outcome.Passed).
		Dur("duration", time.Since(start)).
		Msg("guard completed")

	return outcome, nil
}
