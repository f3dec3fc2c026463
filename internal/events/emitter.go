package events

import (
	"context"

	"github.com/rs/zerolog"
)

type Emitter interface {
	Emit(ctx context.Context, event ValidationEvent)
}

type LogEmitter struct {
	logger *zerolog.Logger
}

func NewLogEmitter(logger *zerolog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(_ context.Context, event ValidationEvent) {
	e.logger.Info().
		Str("request_id", event.RequestID).
		Str("guard", event.Guard).
		Str("direction", string(event.Direction)).
		Bool("passed", event.Passed).
		Str("decision", event.Decision).
		Int("failures", len(event.Failures)).
		Str("error", event.Error).
		Int64("latency_ms", event.LatencyMs).
		Msg("validation event")
}

type MultiEmitter struct {
	emitters []Emitter
}

func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (m *MultiEmitter) Emit(ctx context.Context, event ValidationEvent) {
	for _, e := range m.emitters {
		e.Emit(ctx, event)
	}
}

type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, ValidationEvent) {}
