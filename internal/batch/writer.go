package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/events"
	"github.com/rs/zerolog"
)

const (
	FormatJSONL   = "jsonl"
	FormatSummary = "summary"
)

type Writer interface {
	Write(result Result) error
	Close() error
}

func NewWriter(w io.Writer, format string, logger *zerolog.Logger) (Writer, error) {
	switch format {
	case FormatJSONL:
		return &jsonlWriter{enc: json.NewEncoder(w)}, nil
	case FormatSummary:
		return &summaryWriter{w: w, summary: NewSummary(), logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

type jsonlWriter struct {
	enc *json.Encoder
}

func (j *jsonlWriter) Write(result Result) error {
	return j.enc.Encode(result)
}

func (j *jsonlWriter) Close() error {
	return nil
}

type GuardStats struct {
	Total     int            `json:"total"`
	Passed    int            `json:"passed"`
	Decisions map[string]int `json:"decisions"`
}

type Summary struct {
	Total         int                    `json:"total"`
	Passed        int                    `json:"passed"`
	Failed        int                    `json:"failed"`
	Errors        int                    `json:"errors"`
	Labelled      int                    `json:"labelled"`
	Agreement     int                    `json:"agreement"`
	AgreementRate float64                `json:"agreement_rate"`
	Guards        map[string]*GuardStats `json:"guards"`
	Disagreements []string               `json:"disagreements"`
}

func NewSummary() *Summary {
	return &Summary{Guards: map[string]*GuardStats{}, Disagreements: []string{}}
}

func (s *Summary) Add(result Result) {
	s.Total++
	switch {
	case result.Decision == events.DecisionError:
		s.Errors++
	case result.Response.Passed:
		s.Passed++
	default:
		s.Failed++
	}

	stats, ok := s.Guards[result.Response.Guard]
	if !ok {
		stats = &GuardStats{Decisions: map[string]int{}}
		s.Guards[result.Response.Guard] = stats
	}
	stats.Total++
	if result.Response.Passed {
		stats.Passed++
	}
	stats.Decisions[result.Decision]++

	if result.ExpectPassed != nil {
		s.Labelled++
		if result.Agrees() {
			s.Agreement++
		} else {
			s.Disagreements = append(s.Disagreements, result.ID)
		}
		s.AgreementRate = float64(s.Agreement) / float64(s.Labelled)
	}
}

type summaryWriter struct {
	w       io.Writer
	summary *Summary
	logger  *zerolog.Logger
}

func (s *summaryWriter) Write(result Result) error {
	s.summary.Add(result)
	return nil
}

// Close writes the aggregated summary. Disagreements are sorted so repeated
// runs produce identical output.
func (s *summaryWriter) Close() error {
	sort.Strings(s.summary.Disagreements)

	b, err := json.MarshalIndent(s.summary, "", "  ")
	if err != nil {
		return err
	}
	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return err
	}

	s.logger.Info().
		Int("total", s.summary.Total).
		Int("passed", s.summary.Passed).
		Int("failed", s.summary.Failed).
		Int("errors", s.summary.Errors).
		Msg("Summary written")
	return nil
}
