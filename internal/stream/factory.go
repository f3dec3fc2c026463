package stream

import (
	"context"
	"fmt"

	red "github.com/povarna/generative-ai-agents/guard-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/stream/redis"
	"github.com/rs/zerolog"
)

var _ StreamConsumer = (*redis.Consumer)(nil)

type StreamConfig struct {
	Provider    string // only redis is supported
	RedisConfig *redis.RedisStreamConfig
}

func NewStreamConsumer(
	ctx context.Context,
	cfg *StreamConfig,
	dispatcher redis.Dispatcher,
	logger *zerolog.Logger,
) (StreamConsumer, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "redis"
	}

	switch provider {
	case "redis":
		if cfg.RedisConfig == nil {
			return nil, fmt.Errorf("redis config required")
		}

		client, err := red.ConnectRedis(ctx, cfg.RedisConfig.RedisAddr, cfg.RedisConfig.RedisPassword, 5, logger)
		if err != nil {
			return nil, err
		}

		return redis.NewConsumer(client, cfg.RedisConfig, dispatcher, logger), nil

	default:
		return nil, fmt.Errorf("unsupported stream provider: %s", cfg.Provider)
	}
}
