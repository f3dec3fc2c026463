package validator

import (
	"context"
	"fmt"
	"math/big"
	"net/netip"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/rs/zerolog"
)

const (
	EntityEmail      = "EMAIL_ADDRESS"
	EntityPhone      = "PHONE_NUMBER"
	EntityPerson     = "PERSON"
	EntityCreditCard = "CREDIT_CARD"
	EntitySSN        = "US_SSN"
	EntityIBAN       = "IBAN_CODE"
	EntityIPAddress  = "IP_ADDRESS"
)

// Recognizer finds entity spans in a text. The NER sidecar client is the
// only remote implementation.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, text string) ([]models.Span, error)
}

type patternRecognizer struct {
	entity string
	re     *regexp.Regexp
	// group selects a capture group as the span; 0 means the whole match
	group    int
	validate func(match string) bool
	// shrink retries shorter separator-delimited prefixes when validate
	// rejects the whole match, so trailing digit groups do not hide a card
	shrink bool
}

var patternRecognizers = map[string][]patternRecognizer{
	EntityEmail: {
		{entity: EntityEmail, re: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	},
	EntityPhone: {
		{entity: EntityPhone, re: regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{3}\)\s?|\b\d{3}[\s.\-]?)\d{3}[\s.\-]?\d{4}\b`)},
	},
	EntityPerson: {
		{entity: EntityPerson, re: regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof)\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`), group: 1},
		{entity: EntityPerson, re: regexp.MustCompile(`(?i:\bmy name is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`), group: 1},
	},
	EntityCreditCard: {
		{entity: EntityCreditCard, re: regexp.MustCompile(`\b(?:\d[ \-]?){12,18}\d\b`), validate: luhnValid, shrink: true},
	},
	EntitySSN: {
		{entity: EntitySSN, re: regexp.MustCompile(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`), validate: ssnValid},
	},
	EntityIBAN: {
		{entity: EntityIBAN, re: regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,3})?\b`), validate: ibanValid},
	},
	EntityIPAddress: {
		{entity: EntityIPAddress, re: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)},
		{entity: EntityIPAddress, re: regexp.MustCompile(`(?:^|[^0-9A-Fa-f:])((?:[0-9A-Fa-f]{0,4}:){2,7}[0-9A-Fa-f]{0,4})`), group: 1, validate: ipv6Valid},
	},
}

// nerAliases maps sidecar labels onto the entity names used in configuration.
var nerAliases = map[string]string{
	"PER":    EntityPerson,
	"EMAIL":  EntityEmail,
	"PHONE":  EntityPhone,
	"IP":     EntityIPAddress,
	"IBAN":   EntityIBAN,
	"SSN":    EntitySSN,
	"CARD":   EntityCreditCard,
	"LOC":    "LOCATION",
	"ORG":    "ORGANIZATION",
	"NRP":    "NRP",
	"PERSON": EntityPerson,
}

// SupportedEntities lists the entities detected without a remote recognizer.
func SupportedEntities() []string {
	entities := make([]string, 0, len(patternRecognizers))
	for entity := range patternRecognizers {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	return entities
}

// PIIDetector flags personal data and, with on_fail fix, replaces every
// match with a <LABEL> placeholder.
type PIIDetector struct {
	name     string
	entities []string
	onFail   models.OnFailPolicy
	ner      Recognizer
	logger   *zerolog.Logger
}

// NewPIIDetector builds a detector for the given entity set. ner may be nil,
// in which case every entity must have a local recognizer.
func NewPIIDetector(name string, entities []string, onFail models.OnFailPolicy, ner Recognizer, logger *zerolog.Logger) (*PIIDetector, error) {
	if len(entities) == 0 {
		return nil, &ConfigurationError{Validator: name, Field: "pii_entities", Reason: "entity set is empty"}
	}
	if !onFail.Valid() {
		return nil, &ConfigurationError{Validator: name, Field: "on_fail", Reason: fmt.Sprintf("unknown policy %q", onFail)}
	}

	seen := make(map[string]bool, len(entities))
	normalized := make([]string, 0, len(entities))
	for _, entity := range entities {
		entity = strings.ToUpper(strings.TrimSpace(entity))
		if entity == "" {
			return nil, &ConfigurationError{Validator: name, Field: "pii_entities", Reason: "blank entity name"}
		}
		if _, ok := patternRecognizers[entity]; !ok && ner == nil {
			return nil, &ConfigurationError{
				Validator: name,
				Field:     "pii_entities",
				Reason:    fmt.Sprintf("entity %s requires an external recognizer", entity),
			}
		}
		if seen[entity] {
			continue
		}
		seen[entity] = true
		normalized = append(normalized, entity)
	}
	sort.Strings(normalized)

	return &PIIDetector{
		name:     name,
		entities: normalized,
		onFail:   onFail,
		ner:      ner,
		logger:   logger,
	}, nil
}

func (d *PIIDetector) Name() string                { return d.name }
func (d *PIIDetector) Kind() models.ValidatorKind  { return models.KindPIIDetection }
func (d *PIIDetector) OnFail() models.OnFailPolicy { return d.onFail }

func (d *PIIDetector) Parameters() map[string]any {
	params := map[string]any{
		"pii_entities": append([]string(nil), d.entities...),
	}
	if d.ner != nil {
		params["recognizer"] = d.ner.Name()
	}
	return params
}

func (d *PIIDetector) Check(ctx context.Context, text string) (models.Verdict, error) {
	start := time.Now()

	spans, err := d.detect(ctx, text)
	if err != nil {
		return models.Verdict{}, err
	}

	verdict := models.Verdict{
		Validator:   d.name,
		Kind:        models.KindPIIDetection,
		OnFail:      d.onFail,
		Passed:      len(spans) == 0,
		FailedSpans: spans,
	}

	if !verdict.Passed {
		score := 0.0
		for _, span := range spans {
			score = max(score, span.Score)
		}
		verdict.Score = &score

		if d.onFail == models.OnFailFix {
			fixed := redact(text, spans)
			verdict.FixedText = &fixed
		}
	}
	verdict.Duration = time.Since(start)

	d.logger.Debug().
		Str("validator", d.name).
		Bool("passed", verdict.Passed).
		Int("spans", len(spans)).
		Dur("duration", verdict.Duration).
		Msg("pii check completed")

	return verdict, nil
}

func (d *PIIDetector) detect(ctx context.Context, text string) ([]models.Span, error) {
	var spans []models.Span

	for _, entity := range d.entities {
		for _, recognizer := range patternRecognizers[entity] {
			spans = append(spans, recognizer.find(text)...)
		}
	}

	if d.ner != nil {
		remote, err := d.ner.Recognize(ctx, text)
		if err != nil {
			return nil, &DetectionBackendError{Validator: d.name, Backend: d.ner.Name(), Err: err}
		}
		wanted := make(map[string]bool, len(d.entities))
		for _, entity := range d.entities {
			wanted[entity] = true
		}
		for _, span := range remote {
			if alias, ok := nerAliases[strings.ToUpper(span.Label)]; ok {
				span.Label = alias
			}
			if !wanted[span.Label] || !validByteSpan(text, span) {
				d.logger.Debug().Int("start", span.Start).Int("end", span.End).Str("label", span.Label).Msg("Dropping recognizer span")
				continue
			}
			spans = append(spans, span)
		}
	}

	return resolveOverlaps(spans), nil
}

func (r patternRecognizer) find(text string) []models.Span {
	var spans []models.Span
	for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[2*r.group], loc[2*r.group+1]
		if start < 0 {
			continue
		}
		if r.validate != nil && !r.validate(text[start:end]) {
			if !r.shrink {
				continue
			}
			if end = r.validPrefix(text, start, end); end < 0 {
				continue
			}
		}
		spans = append(spans, models.Span{Start: start, End: end, Label: r.entity, Score: 1.0})
	}
	return spans
}

// validPrefix returns the end of the longest prefix of text[start:end] that
// stops before a separator and passes validate, or -1.
func (r patternRecognizer) validPrefix(text string, start, end int) int {
	for p := end - 1; p > start; p-- {
		if text[p] != ' ' && text[p] != '-' {
			continue
		}
		if r.validate(text[start:p]) {
			return p
		}
	}
	return -1
}

// resolveOverlaps keeps the longest of any overlapping spans and returns the
// survivors ordered by start offset.
func resolveOverlaps(spans []models.Span) []models.Span {
	if len(spans) < 2 {
		return spans
	}

	sort.SliceStable(spans, func(i, j int) bool {
		li, lj := spans[i].End-spans[i].Start, spans[j].End-spans[j].Start
		if li != lj {
			return li > lj
		}
		return spans[i].Start < spans[j].Start
	})

	kept := make([]models.Span, 0, len(spans))
	for _, candidate := range spans {
		overlaps := false
		for _, k := range kept {
			if candidate.Start < k.End && k.Start < candidate.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// validByteSpan reports whether span lies inside text on rune boundaries.
func validByteSpan(text string, span models.Span) bool {
	if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return false
	}
	if !utf8.RuneStart(text[span.Start]) {
		return false
	}
	return span.End == len(text) || utf8.RuneStart(text[span.End])
}

// redact replaces each span with <LABEL>. spans must be sorted and disjoint.
func redact(text string, spans []models.Span) string {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span.Start])
		b.WriteString("<" + span.Label + ">")
		last = span.End
	}
	b.WriteString(text[last:])
	return b.String()
}

func luhnValid(match string) bool {
	digits := onlyDigits(match)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

func ssnValid(match string) bool {
	digits := onlyDigits(match)
	area, group, serial := digits[:3], digits[3:5], digits[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	return group != "00" && serial != "0000"
}

func ibanValid(match string) bool {
	iban := strings.ReplaceAll(match, " ", "")
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	rearranged := iban[4:] + iban[:4]

	var numeric strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			numeric.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			fmt.Fprintf(&numeric, "%d", r-'A'+10)
		default:
			return false
		}
	}

	n, ok := new(big.Int).SetString(numeric.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func ipv6Valid(match string) bool {
	if !strings.ContainsAny(match, "0123456789") {
		return false
	}
	addr, err := netip.ParseAddr(match)
	return err == nil && addr.Is6()
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
