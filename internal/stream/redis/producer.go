package redis

import (
	"context"
	"encoding/json"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/redis/go-redis/v9"
)

// Publish appends a validation request to stream and returns the entry ID.
func Publish(ctx context.Context, client *redis.Client, stream string, req models.ValidateRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	return client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{PayloadField: string(b)},
	}).Result()
}
