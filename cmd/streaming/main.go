package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/setup"
	applog "github.com/povarna/generative-ai-agents/guard-agent/internal/setup/logger"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/stream"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/stream/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := setup.LoadConfig()
	logger := applog.New(cfg.LogLevel, "streaming")

	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Close()

	streamCfg := &stream.StreamConfig{
		Provider: os.Getenv("STREAM_PROVIDER"),
		RedisConfig: redis.NewRedisStreamConfig(
			os.Getenv("REDIS_ADDR"),
			os.Getenv("REDIS_PASSWORD"),
			os.Getenv("GUARD_REQUEST_STREAM"),
			os.Getenv("GUARD_RESULT_STREAM"),
			os.Getenv("GUARD_CONSUMER_GROUP"),
			os.Getenv("HOSTNAME"),
		),
	}

	consumer, err := stream.NewStreamConsumer(ctx, streamCfg, deps.Dispatcher, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream consumer")
	}
	defer consumer.Stop()

	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	log.Info().Msg("Guard Agent stream worker stopped")
}
