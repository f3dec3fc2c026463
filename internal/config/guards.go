package config

import (
	"fmt"
	"os"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"go.yaml.in/yaml/v3"
)

const defaultGuardsConfigPath = "configs/guards.yaml"

const defaultToxicityThreshold = 0.5

func LoadGuardsConfig() (*GuardsConfig, error) {

	path := os.Getenv("GUARDS_CONFIG_PATH")
	if path == "" {
		path = defaultGuardsConfigPath
	}

	return LoadGuardsConfigFile(path)
}

func LoadGuardsConfigFile(path string) (*GuardsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg GuardsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *GuardsConfig) {
	for i := range cfg.Guards {
		g := &cfg.Guards[i]
		if g.Direction == "" {
			g.Direction = models.DirectionOutput
		}

		for j := range g.Validators {
			v := &g.Validators[j]
			if v.OnFail == "" {
				v.OnFail = models.OnFailNoop
			}
			if v.Kind != KindToxicLanguage {
				continue
			}
			if v.Threshold == nil {
				threshold := defaultToxicityThreshold
				v.Threshold = &threshold
			}
			if v.ValidationMethod == "" {
				v.ValidationMethod = models.GranularitySentence
			}
		}
	}
}

// Validate checks the structure of the declaration. Parameter ranges are
// checked by the validator constructors, and duplicate guard names by the
// registry.
func (c *GuardsConfig) Validate() error {
	if len(c.Guards) == 0 {
		return fmt.Errorf("no guards configured")
	}

	for i, g := range c.Guards {
		if g.Name == "" {
			return fmt.Errorf("guard at index %d: missing name", i)
		}
		if !g.Direction.Valid() {
			return fmt.Errorf("guard %s: invalid direction %q", g.Name, g.Direction)
		}
		if len(g.Validators) == 0 {
			return fmt.Errorf("guard %s: no validators configured", g.Name)
		}

		for j, v := range g.Validators {
			switch v.Kind {
			case KindDetectPII, KindToxicLanguage:
			case "":
				return fmt.Errorf("guard %s validator %d: missing kind", g.Name, j)
			default:
				return fmt.Errorf("guard %s validator %d: unknown kind %q", g.Name, j, v.Kind)
			}

			if !v.OnFail.Valid() {
				return fmt.Errorf("guard %s validator %d: invalid on_fail %q", g.Name, j, v.OnFail)
			}
		}
	}

	return nil
}
