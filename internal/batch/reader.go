package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/rs/zerolog"
)

const maxLineSize = 1024 * 1024

// Request is one input line. ExpectPassed is an optional label used to
// measure how often a guard agrees with a human reviewer.
type Request struct {
	models.ValidateRequest
	ExpectPassed *bool `json:"expect_passed,omitempty"`
}

type InputRecord struct {
	LineNumber int
	Request    Request
	Error      error
}

type Reader struct {
	r      io.Reader
	logger *zerolog.Logger
}

func NewReader(r io.Reader, logger *zerolog.Logger) *Reader {
	return &Reader{r: r, logger: logger}
}

// ReadAll streams one record per non-blank line. Parse failures are
// delivered as records carrying an Error so callers can report line numbers.
func (r *Reader) ReadAll(ctx context.Context) <-chan InputRecord {
	ch := make(chan InputRecord)

	go func() {
		defer close(ch)

		scanner := bufio.NewScanner(r.r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		lineNumber := 0
		for scanner.Scan() {
			lineNumber++

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			record := InputRecord{LineNumber: lineNumber}
			if err := json.Unmarshal([]byte(line), &record.Request); err != nil {
				record.Error = fmt.Errorf("line %d: invalid JSON: %w", lineNumber, err)
			} else if record.Request.Guard == "" {
				record.Error = fmt.Errorf("line %d: guard is required", lineNumber)
			}

			select {
			case ch <- record:
			case <-ctx.Done():
				r.logger.Debug().Int("line", lineNumber).Msg("Reader cancelled")
				return
			}
		}

		if err := scanner.Err(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to scan input")
			select {
			case ch <- InputRecord{LineNumber: lineNumber + 1, Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}
