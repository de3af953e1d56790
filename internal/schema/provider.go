package schema

import (
	"context"
	"encoding/json"
)

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Tools      []map[string]any // function-calling schema, nil for plain chat
	ToolChoice string           // "auto" when tools are attached
}

// ToolCallRequest represents one tool invocation requested by the LLM.
// Arguments is kept as the raw JSON payload the model produced; the dispatcher
// owns parsing so malformed payloads surface as a typed error there.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// LLMResponse is the normalised response from any LLM provider.
//
// Content is typed any because providers disagree on shape: a plain string,
// a {content, reasoning_content} mapping, or a list of typed blocks. The
// llmutils normalizer resolves it to display text at the HTTP boundary.
type LLMResponse struct {
	Content          any
	ReasoningContent *string
	ToolCalls        []ToolCallRequest
	FinishReason     string
	Usage            map[string]int
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// LLMProvider is the interface every model backend must satisfy.
type LLMProvider interface {
	Chat(ctx context.Context, turns []ChatTurn, opts ChatOptions) (LLMResponse, error)
	ModelID() string
}

// DispatchResult is the sole output of the query dispatcher. Text carries the
// provider's reply content in whatever shape the provider produced; ToolUsed
// is the namespaced tool identifier, or nil when no tool was invoked.
type DispatchResult struct {
	Text     any     `json:"text"`
	ToolUsed *string `json:"tool_used"`
}
