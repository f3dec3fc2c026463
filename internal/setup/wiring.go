package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/config"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/events"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm/gemini"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

type Config struct {
	LogLevel         string
	GuardsConfigPath string
	NERSidecarURL    string
	ToxicityScorer   string
	DefaultProvider  string
	LLMMaxRetries    int
	AWSRegion        string
	ClaudeModelID    string
	OpenAIKey        string
	OpenAIModelID    string
	GeminiKey        string
	GeminiModelID    string
	PubSubProjectID  string
	PubSubTopicID    string
}

type Dependencies struct {
	Dispatcher *executor.Dispatcher
	Registry   *guard.Registry
	Emitter    events.Emitter
	Logger     *zerolog.Logger

	closers []io.Closer
}

// Close releases clients opened by Wire.
func (d *Dependencies) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func LoadConfig() *Config {
	return &Config{
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GuardsConfigPath: getEnv("GUARDS_CONFIG_PATH", "configs/guards.yaml"),
		NERSidecarURL:    getEnv("NER_SIDECAR_URL", ""),
		ToxicityScorer:   getEnv("TOXICITY_SCORER", validator.ScorerLexicon),
		DefaultProvider:  getEnv("DEFAULT_LLM_PROVIDER", "bedrock"),
		LLMMaxRetries:    getEnvInt("LLM_MAX_RETRIES", 3),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:    getEnv("CLAUDE_MODEL_ID", ""),
		OpenAIKey:        getEnv("OPEN_AI_KEY", ""),
		OpenAIModelID:    getEnv("OPEN_AI_MODEL_ID", ""),
		GeminiKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:    getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		PubSubProjectID:  getEnv("PUBSUB_PROJECT_ID", ""),
		PubSubTopicID:    getEnv("PUBSUB_TOPIC_ID", ""),
	}
}

// Wire builds the guard registry and dispatcher. The NER sidecar, the LLM
// scorer and the Pub/Sub emitter are only created when configured.
func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	var ner validator.Recognizer
	if cfg.NERSidecarURL != "" {
		ner = validator.NewNERClient(cfg.NERSidecarURL)
		logger.Info().Str("url", cfg.NERSidecarURL).Msg("NER sidecar enabled")
	}

	var llmScorer validator.Scorer
	if cfg.ToxicityScorer == validator.ScorerLLM {
		llmClient, err := createLLMClient(ctx, cfg.DefaultProvider, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", cfg.DefaultProvider, err)
		}
		if c, ok := llmClient.(io.Closer); ok {
			deps.closers = append(deps.closers, c)
		}
		llmScorer = validator.NewLLMScorer(llmClient, cfg.DefaultProvider, true, logger)
	}

	guardsConfig, err := config.LoadGuardsConfigFile(cfg.GuardsConfigPath)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to load guards config: %w", err)
	}

	factory := validator.NewFactory(ner, llmScorer, cfg.ToxicityScorer, logger)
	registry, err := guard.BuildRegistry(guardsConfig, factory, logger)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to build guards: %w", err)
	}

	emitters := []events.Emitter{events.NewLogEmitter(logger)}
	if cfg.PubSubProjectID != "" && cfg.PubSubTopicID != "" {
		pubsubEmitter, err := events.NewPubSubEmitter(ctx, cfg.PubSubProjectID, cfg.PubSubTopicID, logger)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, pubsubEmitter)
		emitters = append(emitters, pubsubEmitter)
	}

	deps.Registry = registry
	deps.Emitter = events.NewMultiEmitter(emitters...)
	deps.Dispatcher = executor.NewDispatcher(registry, deps.Emitter, logger)

	logger.Info().
		Strs("guards", registry.ListNames()).
		Str("scorer", cfg.ToxicityScorer).
		Msg("Guards loaded")

	return deps, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}

	return value
}

func createLLMClient(ctx context.Context, provider string, cfg *Config) (llm.LLMClient, error) {
	switch provider {
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case "openai":
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID, cfg.LLMMaxRetries)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiKey, cfg.GeminiModelID)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
