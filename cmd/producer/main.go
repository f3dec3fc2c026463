package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	red "github.com/povarna/generative-ai-agents/guard-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/stream/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	data := flag.String("d", "", `Inline JSON request, e.g. {"guard":"pii-input-guard","text":"..."}`)
	stream := flag.String("stream", redis.DefaultRequestStream, "Request stream name")
	flag.Parse()

	if *data == "" {
		fmt.Fprintln(os.Stderr, "Usage: producer -d '<json>'")
		flag.PrintDefaults()
		os.Exit(1)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := run(*data, *stream); err != nil {
		log.Error().Err(err).Msg("producer failed")
		os.Exit(1)
	}
}

func run(data, stream string) error {
	_ = godotenv.Load()

	var req models.ValidateRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return err
	}
	if req.Guard == "" {
		return fmt.Errorf("request has no guard")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client, err := red.ConnectRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), 3, &log.Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := redis.Publish(ctx, client, stream, req)
	if err != nil {
		return err
	}

	log.Info().Str("stream", stream).Str("id", id).Str("guard", req.Guard).Str("request_id", req.RequestID).Msg("Published successfully!")
	return nil
}
