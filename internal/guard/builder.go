package guard

import (
	"fmt"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/config"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

// ValidatorBuilder creates a validator from its configuration.
type ValidatorBuilder interface {
	Build(name string, cfg config.ValidatorConfiguration) (validator.Validator, error)
}

// BuildRegistry creates every configured guard and returns a sealed registry.
// The first error aborts the build; no partial registry is returned.
func BuildRegistry(cfg *config.GuardsConfig, builder ValidatorBuilder, logger *zerolog.Logger) (*Registry, error) {
	registry := NewRegistry()

	for _, guardCfg := range cfg.Guards {
		validators := make([]validator.Validator, 0, len(guardCfg.Validators))
		seen := make(map[string]int)

		for _, validatorCfg := range guardCfg.Validators {
			seen[validatorCfg.Kind]++
			name := validatorCfg.Kind
			if n := seen[validatorCfg.Kind]; n > 1 {
				name = fmt.Sprintf("%s-%d", validatorCfg.Kind, n)
			}

			v, err := builder.Build(name, validatorCfg)
			if err != nil {
				return nil, fmt.Errorf("guard %s: %w", guardCfg.Name, err)
			}
			validators = append(validators, v)
		}

		g, err := New(guardCfg.Name, guardCfg.Description, guardCfg.Direction, validators, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(g); err != nil {
			return nil, err
		}

		logger.Info().
			Str("guard", g.Name()).
			Str("direction", string(g.Direction())).
			Int("validators", len(validators)).
			Msg("Guard registered")
	}

	registry.Seal()
	logger.Info().Int("guard_count", len(registry.guards)).Msg("Guard registry sealed")

	return registry, nil
}
