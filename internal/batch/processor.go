package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/events"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/rs/zerolog"
)

type Dispatcher interface {
	DispatchRequest(ctx context.Context, req models.ValidateRequest) (models.ValidationOutcome, error)
}

type Result struct {
	ID           string                  `json:"id"`
	LineNumber   int                     `json:"line"`
	Decision     string                  `json:"decision"`
	ExpectPassed *bool                   `json:"expect_passed,omitempty"`
	Response     models.ValidateResponse `json:"response"`
}

// Agrees reports whether the guard matched the expected label. Unlabelled
// results always agree.
func (r Result) Agrees() bool {
	if r.ExpectPassed == nil {
		return true
	}
	return *r.ExpectPassed == r.Response.Passed
}

type Processor struct {
	dispatcher Dispatcher
	workers    int
	logger     *zerolog.Logger
}

func NewProcessor(dispatcher Dispatcher, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{dispatcher: dispatcher, workers: workers, logger: logger}
}

// Process fans records out to a fixed pool of workers. Results arrive in
// completion order; the channel closes when every record is handled or ctx
// is cancelled.
func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan Result {
	jobs := make(chan InputRecord)
	results := make(chan Result, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for record := range jobs {
				if ctx.Err() != nil {
					return
				}
				result := p.handle(ctx, record)
				p.logger.Debug().
					Int("worker", worker).
					Int("line", record.LineNumber).
					Str("decision", result.Decision).
					Msg("Record processed")

				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, record := range records {
			select {
			case jobs <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (p *Processor) handle(ctx context.Context, record InputRecord) Result {
	req := record.Request.ValidateRequest
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	result := Result{
		ID:           req.RequestID,
		LineNumber:   record.LineNumber,
		ExpectPassed: record.Request.ExpectPassed,
	}

	if record.Error != nil {
		result.Decision = events.DecisionError
		result.Response = models.ValidateResponse{
			RequestID: req.RequestID,
			Guard:     req.Guard,
			Failures:  []models.Failure{},
			Error:     record.Error.Error(),
		}
		return result
	}

	outcome, err := p.dispatcher.DispatchRequest(ctx, req)
	if err != nil {
		p.logger.Warn().Err(err).Int("line", record.LineNumber).Str("guard", req.Guard).Msg("Guard run failed")
	}

	result.Decision = events.Decide(outcome, err)
	result.Response = executor.NewResponse(outcome, err)
	return result
}
