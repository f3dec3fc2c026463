package validator

import (
	"context"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9']+`)

// defaultLexicon weights are the probability that a single occurrence makes
// a sentence toxic.
var defaultLexicon = map[string]float64{
	"idiot":      0.75,
	"idiots":     0.75,
	"moron":      0.8,
	"stupid":     0.6,
	"dumb":       0.55,
	"loser":      0.6,
	"pathetic":   0.6,
	"worthless":  0.65,
	"disgusting": 0.55,
	"trash":      0.4,
	"hate":       0.45,
	"kill":       0.5,
	"die":        0.4,
	"damn":       0.3,
	"crap":       0.35,
	"shit":       0.7,
	"fuck":       0.9,
	"fucking":    0.9,
	"bastard":    0.8,
	"bitch":      0.85,
}

var defaultPhrases = map[string]float64{
	"kill yourself":    0.98,
	"shut up":          0.6,
	"go to hell":       0.7,
	"piece of garbage": 0.7,
	"nobody likes you": 0.65,
}

// LexiconScorer combines weighted term hits with a noisy-OR, so repeated
// or stacked insults push the score towards 1.
type LexiconScorer struct {
	terms   map[string]float64
	phrases map[string]float64
}

func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{terms: defaultLexicon, phrases: defaultPhrases}
}

func (s *LexiconScorer) Name() string {
	return "lexicon"
}

func (s *LexiconScorer) Score(_ context.Context, text string) (float64, error) {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return 0, nil
	}

	clean := 1.0
	for _, token := range tokens {
		if weight, ok := s.terms[token]; ok {
			clean *= 1 - weight
		}
	}

	normalized := " " + strings.Join(tokens, " ") + " "
	for phrase, weight := range s.phrases {
		if n := strings.Count(normalized, " "+phrase+" "); n > 0 {
			for range n {
				clean *= 1 - weight
			}
		}
	}

	return 1 - clean, nil
}
