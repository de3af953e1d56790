// Package dispatch implements the two-phase reasoning protocol: one model
// call to decide whether a tool is needed, the conditional tool invocation,
// and a second model call that turns the raw tool result into natural
// language.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/registry"
	"github.com/7divs7/mcp-hub/internal/schema"
	"github.com/7divs7/mcp-hub/internal/shared/llmutils"
	"github.com/7divs7/mcp-hub/internal/supervisor"
)

// phase1Instruction is the synthetic system turn appended before the first
// model call of every dispatch.
const phase1Instruction = "Before answering, think step by step and explain: " +
	"Do you need to call a tool? Which one and why? " +
	"Then either call the tool or answer directly."

// noResponseText is the defined degenerate terminal: a phase-1 reply with
// neither usable text nor a tool call.
const noResponseText = "No response from model."

// Dispatcher runs one chat request end to end. It is stateless across
// requests; concurrent dispatches share only the supervisor and registry.
type Dispatcher struct {
	reg      *registry.Registry
	sup      *supervisor.Supervisor
	provider schema.LLMProvider
	timeouts config.Timeouts
}

func New(reg *registry.Registry, sup *supervisor.Supervisor, provider schema.LLMProvider, timeouts config.Timeouts) *Dispatcher {
	return &Dispatcher{reg: reg, sup: sup, provider: provider, timeouts: timeouts}
}

// Process answers one chat request. The caller's turn sequence is treated as
// immutable; exactly one synthetic system turn is appended for phase 1.
func (d *Dispatcher) Process(ctx context.Context, turns []schema.ChatTurn) (schema.DispatchResult, error) {
	tools := d.reg.BuildSchema(ctx)

	phase1 := append(schema.CloneTurns(turns), schema.NewSystemTurn(phase1Instruction))
	reply, err := d.modelCall(ctx, "phase 1 model call", phase1, schema.ChatOptions{
		Tools:      tools,
		ToolChoice: "auto",
	})
	if err != nil {
		return schema.DispatchResult{}, err
	}

	// No tool call: the direct reply is terminal.
	if contentPresent(reply.Content) && !reply.HasToolCalls() {
		return schema.DispatchResult{Text: reply.Content}, nil
	}

	if reply.HasToolCalls() {
		return d.invokeAndSummarize(ctx, turns, reply.ToolCalls)
	}

	return schema.DispatchResult{Text: noResponseText}, nil
}

// invokeAndSummarize executes steps 4-7: resolve the namespaced target, call
// the tool, then ask the model to phrase the result.
func (d *Dispatcher) invokeAndSummarize(ctx context.Context, turns []schema.ChatTurn, calls []schema.ToolCallRequest) (schema.DispatchResult, error) {
	// Only the first requested call is honored; additional parallel calls in
	// the same reply are ignored.
	call := calls[0]
	if len(calls) > 1 {
		slog.Debug("ignoring extra tool calls in reply", "count", len(calls)-1)
	}

	server, tool, ok := schema.SplitToolID(call.Name)
	if !ok {
		return schema.DispatchResult{}, &UnknownServerError{Server: call.Name}
	}
	sess, running := d.sup.Running(server)
	if !running {
		return schema.DispatchResult{}, &UnknownServerError{Server: server}
	}

	args, err := parseArguments(call)
	if err != nil {
		return schema.DispatchResult{}, err
	}

	slog.Debug("tool call", "server", server, "tool", tool,
		"args", llmutils.Truncate(string(call.Arguments), 200))

	tctx, cancel := context.WithTimeout(ctx, d.timeouts.ToolCall)
	defer cancel()
	result, err := sess.CallTool(tctx, tool, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return schema.DispatchResult{}, &TimeoutError{Op: "tool call " + call.Name, Err: err}
		}
		return schema.DispatchResult{}, fmt.Errorf("call tool %s: %w", call.Name, err)
	}
	slog.Debug("tool result", "tool", call.Name, "result", llmutils.Truncate(result, 200))

	// Phase 2: a fresh single-turn request, independent of the original
	// conversation.
	question := ""
	if len(turns) > 0 {
		question = llmutils.Flatten(turns[len(turns)-1].Content)
	}
	prompt := fmt.Sprintf(
		"The user asked: %q\nThe tool returned: %q\nPlease summarize and respond naturally.",
		question, result,
	)

	reply, err := d.modelCall(ctx, "phase 2 model call", []schema.ChatTurn{schema.NewUserTurn(prompt)}, schema.ChatOptions{})
	if err != nil {
		return schema.DispatchResult{}, err
	}

	toolUsed := schema.JoinToolID(server, tool)
	text := reply.Content
	if !contentPresent(text) {
		text = noResponseText
	}
	return schema.DispatchResult{Text: text, ToolUsed: &toolUsed}, nil
}

// modelCall wraps one provider call with the model timeout and the error
// taxonomy.
func (d *Dispatcher) modelCall(ctx context.Context, op string, turns []schema.ChatTurn, opts schema.ChatOptions) (schema.LLMResponse, error) {
	mctx, cancel := context.WithTimeout(ctx, d.timeouts.ModelCall)
	defer cancel()

	reply, err := d.provider.Chat(mctx, turns, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return schema.LLMResponse{}, &TimeoutError{Op: op, Err: err}
		}
		return schema.LLMResponse{}, &ProviderError{Err: err}
	}
	return reply, nil
}

// parseArguments decodes the model-produced argument payload. An empty
// payload is an empty object; anything else must be valid JSON.
func parseArguments(call schema.ToolCallRequest) (map[string]any, error) {
	raw := strings.TrimSpace(string(call.Arguments))
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, &InvalidArgumentsError{Tool: call.Name, Err: err}
	}
	return args, nil
}

// contentPresent reports whether a reply content value carries anything
// displayable.
func contentPresent(v any) bool {
	switch c := v.(type) {
	case nil:
		return false
	case string:
		return c != ""
	case []any:
		return len(c) > 0
	default:
		return true
	}
}
