// Package providers implements the model-adapter capability: given a
// provider and model resolved from the models table, it exposes one uniform
// Chat call. OpenAIProvider covers every OpenAI-compatible endpoint and
// handles the Anthropic Messages API as a special case.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/7divs7/mcp-hub/internal/schema"
)

// OpenAIProvider makes direct HTTP calls to an OpenAI-compatible endpoint or
// the Anthropic Messages API.
type OpenAIProvider struct {
	apiKey      string
	apiBase     string
	modelID     string
	isAnthropic bool
	httpClient  *http.Client
}

// NewOpenAIProvider constructs a provider from resolved config values.
func NewOpenAIProvider(apiKey, apiBase, modelID, providerName string) *OpenAIProvider {
	base := strings.TrimRight(apiBase, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	isAnthropic := providerName == "anthropic" ||
		strings.Contains(strings.ToLower(base), "anthropic.com")

	return &OpenAIProvider{
		apiKey:      apiKey,
		apiBase:     base,
		modelID:     modelID,
		isAnthropic: isAnthropic,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *OpenAIProvider) ModelID() string { return p.modelID }

// Chat implements schema.LLMProvider. It dispatches to the Anthropic or
// OpenAI-compat path.
func (p *OpenAIProvider) Chat(ctx context.Context, turns []schema.ChatTurn, opts schema.ChatOptions) (schema.LLMResponse, error) {
	if p.isAnthropic {
		return p.chatAnthropic(ctx, turns, opts)
	}
	return p.chatOpenAI(ctx, turns, opts)
}

// ---------------------------------------------------------------------------
// OpenAI-compatible path
// ---------------------------------------------------------------------------

func (p *OpenAIProvider) chatOpenAI(ctx context.Context, turns []schema.ChatTurn, opts schema.ChatOptions) (schema.LLMResponse, error) {
	body := map[string]any{
		"model":    p.modelID,
		"messages": wireTurns(turns),
	}
	if len(opts.Tools) > 0 {
		body["tools"] = opts.Tools
		choice := opts.ToolChoice
		if choice == "" {
			choice = "auto"
		}
		body["tool_choice"] = choice
	}

	data, err := json.Marshal(body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.LLMResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}

	return parseOpenAIResponse(raw)
}

// ---------------------------------------------------------------------------
// Anthropic Messages API path
// ---------------------------------------------------------------------------

func (p *OpenAIProvider) chatAnthropic(ctx context.Context, turns []schema.ChatTurn, opts schema.ChatOptions) (schema.LLMResponse, error) {
	system, converted := convertTurnsToAnthropic(turns)

	body := map[string]any{
		"model":      p.modelID,
		"messages":   converted,
		"max_tokens": 4096,
	}
	if system != "" {
		body["system"] = system
	}
	if len(opts.Tools) > 0 {
		body["tools"] = convertToolsToAnthropic(opts.Tools)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.apiBase+"/messages", bytes.NewReader(data))
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("anthropic HTTP request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.LLMResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}

	return parseAnthropicResponse(raw)
}

// ---------------------------------------------------------------------------
// Wire format helpers
// ---------------------------------------------------------------------------

// wireTurns converts caller turns to OpenAI wire-format maps. Content passes
// through untouched; callers may send strings or block lists.
func wireTurns(turns []schema.ChatTurn) []map[string]any {
	out := make([]map[string]any, 0, len(turns))
	for _, t := range turns {
		out = append(out, map[string]any{
			"role":    t.Role,
			"content": t.Content,
		})
	}
	return out
}

// convertTurnsToAnthropic folds system turns into Anthropic's top-level
// system string and passes the rest through. Returns (system, messages).
func convertTurnsToAnthropic(turns []schema.ChatTurn) (string, []map[string]any) {
	var system string
	var out []map[string]any
	for _, t := range turns {
		if t.Role == "system" {
			if s, ok := t.Content.(string); ok {
				if system != "" {
					system += "\n\n"
				}
				system += s
			}
			continue
		}
		out = append(out, map[string]any{
			"role":    t.Role,
			"content": t.Content,
		})
	}
	return system, out
}

// convertToolsToAnthropic converts OpenAI function schemas to Anthropic tool
// format. Key difference: "parameters" → "input_schema".
func convertToolsToAnthropic(tools []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		out = append(out, map[string]any{
			"name":         fn["name"],
			"description":  fn["description"],
			"input_schema": fn["parameters"],
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Response parsers
// ---------------------------------------------------------------------------

// openAIRespBody is the subset of the chat completion response we care about.
// Content stays any: some endpoints return a string, others a block list.
type openAIRespBody struct {
	Choices []struct {
		Message struct {
			Content          any `json:"content"`
			ReasoningContent any `json:"reasoning_content"`
			ToolCalls        []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func parseOpenAIResponse(raw []byte) (schema.LLMResponse, error) {
	var body openAIRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.LLMResponse{}, fmt.Errorf("parse OpenAI response: %w", err)
	}
	if len(body.Choices) == 0 {
		return schema.LLMResponse{}, fmt.Errorf("empty choices in response")
	}

	msg := body.Choices[0].Message

	var reasoningContent *string
	if r, ok := msg.ReasoningContent.(string); ok && r != "" {
		reasoningContent = &r
	}

	var toolCalls []schema.ToolCallRequest
	for _, tc := range msg.ToolCalls {
		toolCalls = append(toolCalls, schema.ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	usage := map[string]int{
		"prompt_tokens":     body.Usage.PromptTokens,
		"completion_tokens": body.Usage.CompletionTokens,
		"total_tokens":      body.Usage.TotalTokens,
	}

	finish := body.Choices[0].FinishReason
	if finish == "" {
		finish = "stop"
	}

	return schema.LLMResponse{
		Content:          msg.Content,
		ReasoningContent: reasoningContent,
		ToolCalls:        toolCalls,
		FinishReason:     finish,
		Usage:            usage,
	}, nil
}

// anthropicRespBody models the Anthropic Messages API response.
type anthropicRespBody struct {
	Content []struct {
		Type     string         `json:"type"`
		Text     string         `json:"text"`     // type=text
		Thinking string         `json:"thinking"` // type=thinking
		ID       string         `json:"id"`       // type=tool_use
		Name     string         `json:"name"`     // type=tool_use
		Input    map[string]any `json:"input"`    // type=tool_use
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseAnthropicResponse(raw []byte) (schema.LLMResponse, error) {
	var body anthropicRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return schema.LLMResponse{}, fmt.Errorf("parse Anthropic response: %w", err)
	}

	var contentStr, thinkingStr string
	var toolCalls []schema.ToolCallRequest

	for _, block := range body.Content {
		switch block.Type {
		case "text":
			contentStr += block.Text
		case "thinking":
			thinkingStr += block.Thinking
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			toolCalls = append(toolCalls, schema.ToolCallRequest{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	var content any
	if contentStr != "" {
		content = contentStr
	}
	var reasoningContent *string
	if thinkingStr != "" {
		reasoningContent = &thinkingStr
	}

	finish := "stop"
	if body.StopReason == "tool_use" {
		finish = "tool_calls"
	} else if body.StopReason != "" && body.StopReason != "end_turn" {
		finish = body.StopReason
	}

	usage := map[string]int{
		"prompt_tokens":     body.Usage.InputTokens,
		"completion_tokens": body.Usage.OutputTokens,
		"total_tokens":      body.Usage.InputTokens + body.Usage.OutputTokens,
	}

	return schema.LLMResponse{
		Content:          content,
		ReasoningContent: reasoningContent,
		ToolCalls:        toolCalls,
		FinishReason:     finish,
		Usage:            usage,
	}, nil
}

// ---------------------------------------------------------------------------
// Utilities
// ---------------------------------------------------------------------------

func friendlyHTTPError(code int, body []byte) string {
	if code == http.StatusTooManyRequests {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
