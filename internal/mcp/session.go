// Package mcp implements the stdio transport for MCP tool servers: a spawned
// subprocess speaking line-delimited JSON-RPC 2.0 over stdin/stdout. It is the
// subprocess adapter of schema.Session.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/schema"
)

const protocolVersion = "2024-11-05"

// Session manages JSON-RPC communication with a single MCP server subprocess.
// Initialize must succeed before ListTools or CallTool are used.
type Session struct {
	spec config.ServerSpec

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu     sync.Mutex // serialises request/response pairs on the pipe
	nextID int64
	ready  atomic.Bool
}

// NewSession returns an unconnected session for spec. It satisfies the
// supervisor's SessionFactory.
func NewSession(spec config.ServerSpec) schema.Session {
	return &Session{spec: spec}
}

// Initialize spawns the subprocess and performs the MCP handshake. The
// subprocess is deliberately not bound to ctx: ctx bounds only the handshake,
// while the process lives until Close.
func (s *Session) Initialize(ctx context.Context) error {
	s.cmd = exec.Command(s.spec.Command, s.spec.Args...)
	if s.spec.CWD != "" {
		s.cmd.Dir = s.spec.CWD
	}

	stdinPipe, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	s.stdin = stdinPipe
	s.stdout = bufio.NewReader(stdoutPipe)

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start MCP server: %w", err)
	}

	if err := s.handshake(ctx); err != nil {
		s.cmd.Process.Kill() //nolint:errcheck
		return fmt.Errorf("initialize: %w", err)
	}
	s.ready.Store(true)
	return nil
}

// ListTools returns the tools exposed by this MCP server.
func (s *Session) ListTools(ctx context.Context) ([]schema.ToolInfo, error) {
	resp, err := s.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Tools []schema.ToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("parse tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a named tool with the given arguments and extracts a plain
// result value: the structuredContent "result" field when the server provides
// one, otherwise the joined text content blocks, otherwise the raw result.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	payload := map[string]any{
		"name":      name,
		"arguments": args,
	}
	resp, err := s.call(ctx, "tools/call", payload)
	if err != nil {
		return "", err
	}
	return extractToolResult(resp), nil
}

// extractToolResult pulls a plain result value out of a tools/call response.
func extractToolResult(resp json.RawMessage) string {
	var result struct {
		StructuredContent map[string]any `json:"structuredContent"`
		Content           []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return string(resp)
	}

	if v, ok := result.StructuredContent["result"]; ok {
		if str, ok := v.(string); ok {
			return str
		}
		b, _ := json.Marshal(v)
		return string(b)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		out = string(resp)
	}
	return out
}

// Close terminates the subprocess and releases the pipes. Safe to call on a
// session that never connected.
func (s *Session) Close() error {
	s.ready.Store(false)
	if s.stdin != nil {
		s.stdin.Close() //nolint:errcheck
	}
	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			return err
		}
		s.cmd.Wait() //nolint:errcheck
	}
	return nil
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

func (s *Session) handshake(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "mcp-hub", "version": "1.0"},
	}
	if _, err := s.call(ctx, "initialize", params); err != nil {
		return err
	}
	// Send initialized notification (no response expected).
	notif := map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"}
	data, _ := json.Marshal(notif)
	_, _ = fmt.Fprintf(s.stdin, "%s\n", data)
	return nil
}

func (s *Session) nextRequestID() int64 {
	return atomic.AddInt64(&s.nextID, 1)
}

// call performs one request/response exchange. The pipe read cannot be
// interrupted directly, so the exchange runs in a goroutine; if ctx expires
// first the subprocess is killed, which unblocks the read with EOF. A server
// that missed its deadline is treated as dead from then on.
func (s *Session) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	type outcome struct {
		result json.RawMessage
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.exchange(method, params)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		s.Close() //nolint:errcheck
		return nil, ctx.Err()
	}
}

func (s *Session) exchange(method string, params any) (json.RawMessage, error) {
	id := s.nextRequestID()
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.stdin, "%s\n", data); err != nil {
		return nil, fmt.Errorf("write to MCP stdin: %w", err)
	}

	// Read response lines until we get one with our id.
	for {
		line, err := s.stdout.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read MCP stdout: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var resp map[string]any
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue // skip non-JSON lines (server log output)
		}
		respID, ok := resp["id"].(float64)
		if !ok || int64(respID) != id {
			continue
		}
		if errObj, ok := resp["error"]; ok {
			return nil, fmt.Errorf("MCP error: %v", errObj)
		}
		result, _ := json.Marshal(resp["result"])
		return json.RawMessage(result), nil
	}
}
