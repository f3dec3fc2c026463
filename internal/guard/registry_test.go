package guard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/config"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

type constantScorer float64

func (s constantScorer) Name() string { return "constant" }

func (s constantScorer) Score(_ context.Context, _ string) (float64, error) {
	return float64(s), nil
}

func buildRepositoryRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := zerolog.Nop()

	cfg, err := config.LoadGuardsConfigFile("../../configs/guards.yaml")
	if err != nil {
		t.Fatalf("LoadGuardsConfigFile failed: %v", err)
	}

	registry, err := BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)
	if err != nil {
		t.Fatalf("BuildRegistry failed: %v", err)
	}
	return registry
}

func simpleGuard(t *testing.T, name string) *Guard {
	t.Helper()
	logger := zerolog.Nop()
	v, err := validator.NewPIIDetector("detect_pii", []string{validator.EntityEmail}, models.OnFailFix, nil, &logger)
	if err != nil {
		t.Fatalf("NewPIIDetector failed: %v", err)
	}
	g, err := New(name, "", models.DirectionPrompt, []validator.Validator{v}, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return g
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register(simpleGuard(t, "pii-input-guard")); err != nil {
		t.Fatalf("First Register failed: %v", err)
	}

	err := registry.Register(simpleGuard(t, "pii-input-guard"))

	var dup *DuplicateGuardError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateGuardError, got %v", err)
	}
	if dup.Name != "pii-input-guard" {
		t.Errorf("Expected name pii-input-guard, got %s", dup.Name)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")

	var unknown *UnknownGuardError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownGuardError, got %v", err)
	}
	if unknown.Name != "missing" {
		t.Errorf("Expected name missing, got %s", unknown.Name)
	}
}

func TestRegistry_Sealed(t *testing.T) {
	registry := NewRegistry()
	registry.Seal()

	if err := registry.Register(simpleGuard(t, "late")); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("Expected ErrRegistrySealed, got %v", err)
	}
}

func TestRegistry_ListNamesSorted(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"toxicity-guard", "jailbreak-guard", "pii-input-guard"} {
		if err := registry.Register(simpleGuard(t, name)); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := registry.ListNames()
	want := []string{"jailbreak-guard", "pii-input-guard", "toxicity-guard"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

func TestBuildRegistry_RepositoryConfig(t *testing.T) {
	registry := buildRepositoryRegistry(t)

	want := []string{"jailbreak-guard", "pii-input-guard", "pii-output-guard", "toxicity-guard"}
	if strings.Join(registry.ListNames(), ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, registry.ListNames())
	}

	// Registration is closed once built
	if err := registry.Register(simpleGuard(t, "extra")); !errors.Is(err, ErrRegistrySealed) {
		t.Errorf("Expected ErrRegistrySealed, got %v", err)
	}
}

func TestBuildRegistry_DuplicateNames(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.GuardsConfig{Guards: []config.GuardConfiguration{
		{Name: "pii-input-guard", Direction: models.DirectionPrompt, Validators: []config.ValidatorConfiguration{
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityEmail}},
		}},
		{Name: "pii-input-guard", Direction: models.DirectionPrompt, Validators: []config.ValidatorConfiguration{
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityPhone}},
		}},
	}}

	registry, err := BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)

	var dup *DuplicateGuardError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateGuardError, got %v", err)
	}
	if registry != nil {
		t.Error("Expected no partial registry")
	}
}

func TestBuildRegistry_ConfigurationError(t *testing.T) {
	logger := zerolog.Nop()
	bad := 1.5
	cfg := &config.GuardsConfig{Guards: []config.GuardConfiguration{
		{Name: "toxicity-guard", Direction: models.DirectionOutput, Validators: []config.ValidatorConfiguration{
			{Kind: config.KindToxicLanguage, OnFail: models.OnFailNoop, Threshold: &bad, ValidationMethod: models.GranularitySentence},
		}},
	}}

	_, err := BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)

	var cfgErr *validator.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "toxicity-guard") {
		t.Errorf("Expected guard name in error, got %v", err)
	}
}

func TestBuildRegistry_RepeatedKindsGetDistinctNames(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.GuardsConfig{Guards: []config.GuardConfiguration{
		{Name: "layered", Direction: models.DirectionOutput, Validators: []config.ValidatorConfiguration{
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityEmail}},
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityPhone}},
		}},
	}}

	registry, err := BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)
	if err != nil {
		t.Fatalf("BuildRegistry failed: %v", err)
	}
	g, _ := registry.Get("layered")
	description := g.Describe()
	if description.Validators[0].Name != "detect_pii" || description.Validators[1].Name != "detect_pii-2" {
		t.Errorf("Unexpected validator names %+v", description.Validators)
	}
}

func TestScenario_PIIInputGuardRedactsEmail(t *testing.T) {
	registry := buildRepositoryRegistry(t)
	g, err := registry.Get("pii-input-guard")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	outcome, err := g.Run(context.Background(), "Contact me at a@b.com")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !outcome.Passed {
		t.Error("Expected fixed PII to pass")
	}
	if strings.Contains(outcome.FinalText, "a@b.com") {
		t.Errorf("Expected email redacted, got %q", outcome.FinalText)
	}

	failures := models.Failures(outcome.PerValidator)
	if len(failures) != 1 {
		t.Fatalf("Expected 1 failure, got %+v", failures)
	}
	if failures[0].Label != validator.EntityEmail {
		t.Errorf("Expected label EMAIL_ADDRESS, got %s", failures[0].Label)
	}
	if failures[0].ValidatorKind != models.KindPIIDetection {
		t.Errorf("Expected kind PII_DETECTION, got %s", failures[0].ValidatorKind)
	}
}

func TestScenario_PIIFixIsIdempotent(t *testing.T) {
	registry := buildRepositoryRegistry(t)
	g, _ := registry.Get("pii-output-guard")

	first, err := g.Run(context.Background(), "Reach Ms. Jane Doe at jane@corp.example or 555-987-6543, SSN 123-45-6789.")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.FinalText == first.OriginalText {
		t.Fatal("Expected redaction on the first pass")
	}

	second, err := g.Run(context.Background(), first.FinalText)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !second.Passed {
		t.Error("Expected second pass to pass")
	}
	if failures := models.Failures(second.PerValidator); len(failures) != 0 {
		t.Errorf("Expected no spans on second pass, got %+v", failures)
	}
	if second.FinalText != first.FinalText {
		t.Errorf("Expected stable text, got %q then %q", first.FinalText, second.FinalText)
	}
}

func TestScenario_ToxicityGuardBenignSentence(t *testing.T) {
	logger := zerolog.Nop()
	v, err := validator.NewToxicityDetector("toxic_language", 0.7, models.GranularitySentence, models.OnFailNoop, constantScorer(0.1), &logger)
	if err != nil {
		t.Fatalf("NewToxicityDetector failed: %v", err)
	}
	g, err := New("toxicity-guard", "", models.DirectionOutput, []validator.Validator{v}, &logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	text := "The report is ready for review."
	outcome, err := g.Run(context.Background(), text)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Passed {
		t.Error("Expected benign text to pass")
	}
	if outcome.FinalText != text {
		t.Errorf("Expected unchanged text, got %q", outcome.FinalText)
	}
	if failures := models.Failures(outcome.PerValidator); len(failures) != 0 {
		t.Errorf("Expected zero failures, got %+v", failures)
	}
}

func TestScenario_ToxicityNoopNeverRewrites(t *testing.T) {
	registry := buildRepositoryRegistry(t)

	for _, name := range []string{"toxicity-guard", "jailbreak-guard"} {
		g, _ := registry.Get(name)
		text := "You are a stupid idiot. Shut up."

		outcome, err := g.Run(context.Background(), text)
		if err != nil {
			t.Fatalf("%s: Run failed: %v", name, err)
		}
		if outcome.FinalText != text {
			t.Errorf("%s: expected noop to keep text, got %q", name, outcome.FinalText)
		}
		if !outcome.Passed {
			t.Errorf("%s: expected noop failure to pass", name)
		}
		if len(models.Failures(outcome.PerValidator)) == 0 {
			t.Errorf("%s: expected the failure to be recorded", name)
		}
	}
}

func TestGuard_ConcurrentRuns(t *testing.T) {
	registry := buildRepositoryRegistry(t)
	g, _ := registry.Get("pii-input-guard")

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := g.Run(context.Background(), "mail x@y.io now")
			if err != nil {
				errs <- err
				return
			}
			if outcome.FinalText != "mail <EMAIL_ADDRESS> now" {
				errs <- errors.New("unexpected final text " + outcome.FinalText)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestScenario_LaterSpansIndexFixedText(t *testing.T) {
	logger := zerolog.Nop()
	cfg := &config.GuardsConfig{Guards: []config.GuardConfiguration{
		{Name: "layered", Direction: models.DirectionOutput, Validators: []config.ValidatorConfiguration{
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityEmail}},
			{Kind: config.KindDetectPII, OnFail: models.OnFailFix, PIIEntities: []string{validator.EntityPhone}},
		}},
	}}

	registry, err := BuildRegistry(cfg, validator.NewFactory(nil, nil, "", &logger), &logger)
	if err != nil {
		t.Fatalf("BuildRegistry failed: %v", err)
	}
	g, _ := registry.Get("layered")

	outcome, err := g.Run(context.Background(), "a@b.com 555-123-4567")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	failures := models.Failures(outcome.PerValidator)
	if len(failures) != 2 {
		t.Fatalf("Expected 2 failures, got %+v", failures)
	}
	if failures[0].Span != [2]int{0, 7} {
		t.Errorf("Expected email span [0 7], got %v", failures[0].Span)
	}
	// the phone span indexes "<EMAIL_ADDRESS> 555-123-4567"
	if failures[1].Span != [2]int{16, 28} {
		t.Errorf("Expected phone span [16 28], got %v", failures[1].Span)
	}
	if outcome.FinalText != "<EMAIL_ADDRESS> <PHONE_NUMBER>" {
		t.Errorf("Unexpected final text %q", outcome.FinalText)
	}
}
