package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/rs/zerolog"
)

const LabelToxic = "TOXIC"

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

// Scorer rates a unit of text for toxicity in [0, 1].
type Scorer interface {
	Name() string
	Score(ctx context.Context, text string) (float64, error)
}

// ToxicityDetector scores text per sentence or as a whole document and flags
// every unit whose score reaches the threshold.
type ToxicityDetector struct {
	name        string
	threshold   float64
	granularity models.Granularity
	onFail      models.OnFailPolicy
	scorer      Scorer
	logger      *zerolog.Logger
}

func NewToxicityDetector(
	name string,
	threshold float64,
	granularity models.Granularity,
	onFail models.OnFailPolicy,
	scorer Scorer,
	logger *zerolog.Logger,
) (*ToxicityDetector, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &ConfigurationError{Validator: name, Field: "threshold", Reason: fmt.Sprintf("%v outside [0, 1]", threshold)}
	}
	if granularity != models.GranularitySentence && granularity != models.GranularityDocument {
		return nil, &ConfigurationError{Validator: name, Field: "validation_method", Reason: fmt.Sprintf("unknown granularity %q", granularity)}
	}
	if !onFail.Valid() {
		return nil, &ConfigurationError{Validator: name, Field: "on_fail", Reason: fmt.Sprintf("unknown policy %q", onFail)}
	}
	if scorer == nil {
		return nil, &ConfigurationError{Validator: name, Field: "scorer", Reason: "no scorer configured"}
	}

	return &ToxicityDetector{
		name:        name,
		threshold:   threshold,
		granularity: granularity,
		onFail:      onFail,
		scorer:      scorer,
		logger:      logger,
	}, nil
}

func (d *ToxicityDetector) Name() string                { return d.name }
func (d *ToxicityDetector) Kind() models.ValidatorKind  { return models.KindToxicity }
func (d *ToxicityDetector) OnFail() models.OnFailPolicy { return d.onFail }

func (d *ToxicityDetector) Parameters() map[string]any {
	return map[string]any{
		"threshold":         d.threshold,
		"validation_method": string(d.granularity),
		"scorer":            d.scorer.Name(),
	}
}

func (d *ToxicityDetector) Check(ctx context.Context, text string) (models.Verdict, error) {
	start := time.Now()

	var flagged []models.Span
	maxScore := 0.0

	for _, unit := range d.units(text) {
		score, err := d.scorer.Score(ctx, text[unit.Start:unit.End])
		if err != nil {
			return models.Verdict{}, &DetectionBackendError{Validator: d.name, Backend: d.scorer.Name(), Err: err}
		}
		maxScore = max(maxScore, score)
		if score >= d.threshold {
			unit.Score = score
			flagged = append(flagged, unit)
		}
	}

	verdict := models.Verdict{
		Validator:   d.name,
		Kind:        models.KindToxicity,
		OnFail:      d.onFail,
		Passed:      len(flagged) == 0,
		FailedSpans: flagged,
		Score:       &maxScore,
	}

	if !verdict.Passed && d.onFail == models.OnFailFix {
		fixed := removeSpans(text, flagged)
		verdict.FixedText = &fixed
	}
	verdict.Duration = time.Since(start)

	d.logger.Debug().
		Str("validator", d.name).
		Bool("passed", verdict.Passed).
		Float64("max_score", maxScore).
		Int("flagged", len(flagged)).
		Dur("duration", verdict.Duration).
		Msg("toxicity check completed")

	return verdict, nil
}

// units splits text per granularity. Offsets exclude surrounding whitespace;
// whitespace-only units are dropped.
func (d *ToxicityDetector) units(text string) []models.Span {
	if d.granularity == models.GranularityDocument {
		if unit, ok := trimUnit(text, 0, len(text)); ok {
			return []models.Span{unit}
		}
		return nil
	}

	var units []models.Span
	for _, loc := range sentencePattern.FindAllStringIndex(text, -1) {
		if unit, ok := trimUnit(text, loc[0], loc[1]); ok {
			units = append(units, unit)
		}
	}
	return units
}

func trimUnit(text string, start, end int) (models.Span, bool) {
	segment := text[start:end]
	trimmedLeft := strings.TrimLeftFunc(segment, unicode.IsSpace)
	start += len(segment) - len(trimmedLeft)
	end = start + len(strings.TrimRightFunc(trimmedLeft, unicode.IsSpace))
	if start >= end {
		return models.Span{}, false
	}
	return models.Span{Start: start, End: end, Label: LabelToxic}, true
}

// removeSpans drops each span together with the whitespace that follows it.
func removeSpans(text string, spans []models.Span) string {
	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span.Start])
		last = span.End
		for last < len(text) && unicode.IsSpace(rune(text[last])) {
			last++
		}
	}
	b.WriteString(text[last:])
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}
