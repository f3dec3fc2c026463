package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

const defaultNERTimeout = 10 * time.Second

// NERClient calls a named-entity recognition sidecar at POST {url}/classify.
// The sidecar must report byte offsets into the UTF-8 text; spans that do not
// fall on rune boundaries are dropped by the detector.
type NERClient struct {
	url  string
	http *http.Client
}

func NewNERClient(baseURL string) *NERClient {
	return &NERClient{
		url: strings.TrimRight(baseURL, "/") + "/classify",
		http: &http.Client{
			Timeout: defaultNERTimeout,
		},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []nerSpan `json:"spans"`
}

type nerSpan struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (c *NERClient) Name() string {
	return "ner-sidecar"
}

// Recognize is safe for concurrent use. An unreachable sidecar is an error;
// the caller decides whether to retry.
func (c *NERClient) Recognize(ctx context.Context, text string) ([]models.Span, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ner: unexpected status %d", resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}

	spans := make([]models.Span, 0, len(result.Spans))
	for _, s := range result.Spans {
		score := s.Score
		if score == 0 {
			score = 1.0
		}
		spans = append(spans, models.Span{
			Start: s.Start,
			End:   s.End,
			Label: s.Label,
			Score: score,
		})
	}
	return spans, nil
}
