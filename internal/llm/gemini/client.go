package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm"
	"google.golang.org/api/option"
)

type Client struct {
	Client  *genai.Client
	ModelID string
}

func NewClient(ctx context.Context, apiKey string, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("Gemini model ID is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create gemini client: %w", err)
	}

	return &Client{
		Client:  client,
		ModelID: model,
	}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// InvokeModel builds a fresh GenerativeModel per call; the SDK model type
// carries mutable settings and is not shared between requests.
func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	model := c.Client.GenerativeModel(c.ModelID)
	model.SetTemperature(float32(request.Temperature))
	model.SetMaxOutputTokens(int32(request.MaxTokens))
	if request.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(request.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(request.Prompt))
	if err != nil {
		return nil, fmt.Errorf("unable to invoke gemini model: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return &llm.LLMResponse{
		Content:    text.String(),
		StopReason: candidate.FinishReason.String(),
	}, nil
}

// InvokeModelWithRetry relies on the gRPC retry policy of the SDK.
func (c *Client) InvokeModelWithRetry(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	return c.InvokeModel(ctx, request)
}
