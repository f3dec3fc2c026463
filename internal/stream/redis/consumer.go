package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Dispatcher interface {
	DispatchRequest(ctx context.Context, req models.ValidateRequest) (models.ValidationOutcome, error)
}

// Consumer reads validation requests from a stream consumer group and
// publishes one response per request to the result stream.
type Consumer struct {
	client       *redis.Client
	stream       string
	resultStream string
	groupID      string
	consumerName string
	dispatcher   Dispatcher
	logger       *zerolog.Logger
}

func NewConsumer(client *redis.Client, cfg *RedisStreamConfig, dispatcher Dispatcher, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		client:       client,
		stream:       cfg.RequestStream,
		resultStream: cfg.ResultStream,
		groupID:      cfg.Group,
		consumerName: cfg.ConsumerName,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", c.groupID, err)
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("result_stream", c.resultStream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) Stop() error {
	return c.client.Close()
}

func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Debug().Str("id", msg.ID).Msg("Message received")

	response := c.handle(ctx, msg.Values)

	values, err := EncodeResponse(response)
	if err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to encode response")
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.resultStream,
		Values: values,
	}).Err(); err != nil {
		// Left pending so another consumer can claim and retry it
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to publish result")
		return
	}

	c.logger.Info().
		Str("id", msg.ID).
		Str("requestID", response.RequestID).
		Str("guard", response.Guard).
		Bool("passed", response.Passed).
		Msg("Validation result published")

	c.ack(ctx, msg.ID)
}

// handle turns one stream entry into a response. Malformed entries produce
// an error response rather than being dropped.
func (c *Consumer) handle(ctx context.Context, values map[string]any) models.ValidateResponse {
	req, err := DecodeRequest(values)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to decode message")
		return models.ValidateResponse{
			RequestID: req.RequestID,
			Guard:     req.Guard,
			Failures:  []models.Failure{},
			Error:     err.Error(),
		}
	}

	outcome, err := c.dispatcher.DispatchRequest(ctx, req)
	return executor.NewResponse(outcome, err)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}

func DecodeRequest(values map[string]any) (models.ValidateRequest, error) {
	var req models.ValidateRequest

	payload, ok := values[PayloadField].(string)
	if !ok {
		return req, fmt.Errorf("missing %s field", PayloadField)
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, fmt.Errorf("invalid payload: %w", err)
	}
	if req.Guard == "" {
		return req, fmt.Errorf("payload has no guard")
	}
	return req, nil
}

func EncodeResponse(response models.ValidateResponse) (map[string]any, error) {
	b, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return map[string]any{PayloadField: string(b)}, nil
}
