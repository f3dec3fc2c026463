package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/events"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/rs/zerolog"
)

// GuardLookup resolves a guard by name.
type GuardLookup interface {
	Get(name string) (*guard.Guard, error)
}

// EmptyInputError is returned for empty or whitespace-only text.
type EmptyInputError struct {
	Guard string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("guard %s: text must not be empty", e.Guard)
}

// Dispatcher routes validation requests to registered guards. It holds no
// per-request state.
type Dispatcher struct {
	guards  GuardLookup
	emitter events.Emitter
	logger  *zerolog.Logger
}

func NewDispatcher(guards GuardLookup, emitter events.Emitter, logger *zerolog.Logger) *Dispatcher {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Dispatcher{
		guards:  guards,
		emitter: emitter,
		logger:  logger,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, guardName, text string) (models.ValidationOutcome, error) {
	return d.DispatchRequest(ctx, models.ValidateRequest{Guard: guardName, Text: text})
}

// DispatchRequest looks up the guard, rejects empty text and runs the
// pipeline. A missing request ID is generated. No retries are attempted.
func (d *Dispatcher) DispatchRequest(ctx context.Context, req models.ValidateRequest) (models.ValidationOutcome, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	outcome, err := d.dispatch(ctx, req.Guard, req.Text)
	outcome.RequestID = requestID

	d.emit(ctx, requestID, req.Guard, outcome, err, time.Since(start))

	if err != nil {
		d.logger.Warn().
			Err(err).
			Str("requestID", requestID).
			Str("guard", req.Guard).
			Msg("validation failed")
		return outcome, err
	}

	d.logger.Info().
		Str("requestID", requestID).
		Str("guard", req.Guard).
		Bool("passed", outcome.Passed).
		Dur("duration", time.Since(start)).
		Msg("validation completed")

	return outcome, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, guardName, text string) (models.ValidationOutcome, error) {
	g, err := d.guards.Get(guardName)
	if err != nil {
		return models.ValidationOutcome{GuardName: guardName, OriginalText: text, FinalText: text}, err
	}

	if strings.TrimSpace(text) == "" {
		return models.ValidationOutcome{GuardName: guardName, Direction: g.Direction(), OriginalText: text, FinalText: text}, &EmptyInputError{Guard: guardName}
	}

	return g.Run(ctx, text)
}

func (d *Dispatcher) emit(ctx context.Context, requestID, guardName string, outcome models.ValidationOutcome, err error, latency time.Duration) {
	event := events.ValidationEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
		Guard:     guardName,
		Direction: outcome.Direction,
		Passed:    err == nil && outcome.Passed,
		Decision:  events.Decide(outcome, err),
		Failures:  models.Failures(outcome.PerValidator),
		LatencyMs: latency.Milliseconds(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	d.emitter.Emit(ctx, event)
}
