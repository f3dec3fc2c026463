package stream

import "context"

// StreamConsumer turns stream entries into validation results.
type StreamConsumer interface {
	// Setup creates the consumer group, tolerating an existing one.
	Setup(ctx context.Context) error
	// Start blocks reading entries until ctx is cancelled.
	Start(ctx context.Context) error
	// Stop releases the underlying connection.
	Stop() error
}
