package llm

import (
	"context"
)

// LLMClient is implemented by every model provider the toxicity scorer can
// delegate to. Mocks live in the mocks package.
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
	InvokeModelWithRetry(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}
