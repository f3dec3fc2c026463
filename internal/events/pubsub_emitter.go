package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// PubSubEmitter publishes events to a Pub/Sub topic. Publishing is
// asynchronous; failures are logged and never reach the caller.
type PubSubEmitter struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zerolog.Logger
}

func NewPubSubEmitter(ctx context.Context, projectID, topicID string, logger *zerolog.Logger) (*PubSubEmitter, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &PubSubEmitter{
		client: client,
		topic:  client.Topic(topicID),
		logger: logger,
	}, nil
}

func (e *PubSubEmitter) Emit(ctx context.Context, event ValidationEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		e.logger.Error().Err(err).Msg("pubsub marshal failed")
		return
	}

	// The request context may end before the publish settles
	publishCtx := context.WithoutCancel(ctx)

	res := e.topic.Publish(publishCtx, &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"guard":    event.Guard,
			"decision": event.Decision,
			"passed":   strconv.FormatBool(event.Passed),
		},
	})

	go func() {
		if _, err := res.Get(publishCtx); err != nil {
			e.logger.Error().
				Err(err).
				Str("request_id", event.RequestID).
				Msg("pubsub publish failed")
			return
		}
		e.logger.Debug().Str("request_id", event.RequestID).Msg("validation event published")
	}()
}

// Close flushes pending messages and releases the client.
func (e *PubSubEmitter) Close() error {
	e.topic.Stop()
	return e.client.Close()
}
