package mcpadapter

import (
	"context"
	"errors"
	"testing"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/config"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

func setupRegistry(t *testing.T, cfg *config.GuardsConfig) *guard.Registry {
	t.Helper()
	logger := zerolog.Nop()

	if cfg == nil {
		var err error
		cfg, err = config.LoadGuardsConfigFile("../../configs/guards.yaml")
		if err != nil {
			t.Fatalf("LoadGuardsConfigFile failed: %v", err)
		}
	}

	registry, err := guard.BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)
	if err != nil {
		t.Fatalf("BuildRegistry failed: %v", err)
	}
	return registry
}

func TestValidateText(t *testing.T) {
	logger := zerolog.Nop()
	registry := setupRegistry(t, nil)
	handler := NewValidateHandler(executor.NewDispatcher(registry, nil, &logger))

	result, response, err := handler(context.Background(), nil, ValidateInput{
		Guard:     "pii-input-guard",
		Text:      "Call 555-123-4567 please",
		RequestID: "mcp-1",
	})
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if result != nil {
		t.Error("Expected the SDK to build the tool result")
	}
	if !response.Passed || response.RequestID != "mcp-1" {
		t.Errorf("Unexpected response %+v", response)
	}
	if response.Text != "Call <PHONE_NUMBER> please" {
		t.Errorf("Expected phone redacted, got %q", response.Text)
	}
}

func TestValidateText_Errors(t *testing.T) {
	logger := zerolog.Nop()
	strict := &config.GuardsConfig{Guards: []config.GuardConfiguration{
		{
			Name:      "strict-pii-guard",
			Direction: models.DirectionPrompt,
			Validators: []config.ValidatorConfiguration{
				{Kind: config.KindDetectPII, OnFail: models.OnFailException, PIIEntities: []string{"EMAIL_ADDRESS"}},
			},
		},
	}}
	handler := NewValidateHandler(executor.NewDispatcher(setupRegistry(t, strict), nil, &logger))

	t.Run("rejection is a result", func(t *testing.T) {
		_, response, err := handler(context.Background(), nil, ValidateInput{Guard: "strict-pii-guard", Text: "a@b.com"})
		if err != nil {
			t.Fatalf("Expected no tool error, got %v", err)
		}
		if response.Passed || response.Error == "" || len(response.Failures) != 1 {
			t.Errorf("Unexpected response %+v", response)
		}
	})

	t.Run("unknown guard is a tool error", func(t *testing.T) {
		_, _, err := handler(context.Background(), nil, ValidateInput{Guard: "missing", Text: "hi"})

		var unknown *guard.UnknownGuardError
		if !errors.As(err, &unknown) {
			t.Errorf("Expected UnknownGuardError, got %v", err)
		}
	})

	t.Run("empty text is a tool error", func(t *testing.T) {
		_, _, err := handler(context.Background(), nil, ValidateInput{Guard: "strict-pii-guard", Text: " "})

		var empty *executor.EmptyInputError
		if !errors.As(err, &empty) {
			t.Errorf("Expected EmptyInputError, got %v", err)
		}
	})
}

func TestListGuards(t *testing.T) {
	_, list, err := NewListGuardsHandler(setupRegistry(t, nil))(context.Background(), nil, ListGuardsInput{})
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if len(list.Guards) != 4 || list.Guards[0] != "jailbreak-guard" {
		t.Errorf("Unexpected guards %v", list.Guards)
	}
}
