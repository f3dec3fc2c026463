package gpt

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/llm"
)

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}
	messages = append(messages, openai.UserMessage(request.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(c.ModelID),
	}

	output, err := c.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke gpt model: %w", err)
	}

	if len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := output.Choices[0]
	return &llm.LLMResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
	}, nil
}

// InvokeModelWithRetry relies on the SDK retry policy configured in NewClient.
func (c *Client) InvokeModelWithRetry(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	return c.InvokeModel(ctx, request)
}
