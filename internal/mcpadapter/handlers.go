package mcpadapter

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
)

// ValidateInput is the MCP tool input schema (matches HTTP API field names).
type ValidateInput struct {
	Guard     string `json:"guard" jsonschema:"name of the guard to run"`
	Text      string `json:"text" jsonschema:"prompt or model output to validate"`
	RequestID string `json:"request_id,omitempty" jsonschema:"optional correlation id, generated when empty"`
}

type ListGuardsInput struct{}

type GuardList struct {
	Guards []string `json:"guards"`
}

type Dispatcher interface {
	DispatchRequest(ctx context.Context, req models.ValidateRequest) (models.ValidationOutcome, error)
}

type GuardCatalog interface {
	ListNames() []string
}

// NewValidateHandler returns a tool handler that runs one guard.
// Pass the returned function to mcp.AddTool.
func NewValidateHandler(dispatcher Dispatcher) func(context.Context, *mcp.CallToolRequest, ValidateInput) (*mcp.CallToolResult, models.ValidateResponse, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, models.ValidateResponse, error) {
		return ValidateText(ctx, dispatcher, req, input)
	}
}

// ValidateText runs the named guard. A rejection by an exception policy is a
// normal result carrying the failing spans, not a tool error.
func ValidateText(
	ctx context.Context,
	dispatcher Dispatcher,
	req *mcp.CallToolRequest,
	input ValidateInput,
) (*mcp.CallToolResult, models.ValidateResponse, error) {
	outcome, err := dispatcher.DispatchRequest(ctx, models.ValidateRequest{
		RequestID: input.RequestID,
		Guard:     input.Guard,
		Text:      input.Text,
	})

	response := executor.NewResponse(outcome, err)

	var rejected *guard.GuardRejected
	if err != nil && !errors.As(err, &rejected) {
		return nil, response, err
	}
	return nil, response, nil
}

func NewListGuardsHandler(guards GuardCatalog) func(context.Context, *mcp.CallToolRequest, ListGuardsInput) (*mcp.CallToolResult, GuardList, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ListGuardsInput) (*mcp.CallToolResult, GuardList, error) {
		return nil, GuardList{Guards: guards.ListNames()}, nil
	}
}
