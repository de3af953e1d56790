package schema

import (
	"context"
	"encoding/json"
	"strings"
)

// ToolSeparator joins a server name and a tool name into a namespaced tool
// identifier. Server names must never contain it; the config loader enforces
// this at parse time.
const ToolSeparator = ":"

// JoinToolID builds the namespaced identifier "<server>:<tool>".
func JoinToolID(server, tool string) string {
	return server + ToolSeparator + tool
}

// SplitToolID splits a namespaced identifier on the first separator only, so
// tool names themselves may contain ":". ok is false when id has no separator.
func SplitToolID(id string) (server, tool string, ok bool) {
	server, tool, ok = strings.Cut(id, ToolSeparator)
	return server, tool, ok
}

// ToolInfo is one tool as reported by a server's tools/list response.
// InputSchema is a JSON-schema document passed through unmodified.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolDescriptor is ToolInfo qualified with its owning server. It is a derived
// view, recomputed on each registry query and never persisted.
type ToolDescriptor struct {
	Server      string          `json:"server"`
	Tool        string          `json:"tool_name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"-"`
}

// ID returns the namespaced identifier for this descriptor.
func (d ToolDescriptor) ID() string { return JoinToolID(d.Server, d.Tool) }

// Session is the capability a connected tool server exposes. The stdio
// subprocess transport in internal/mcp is one adapter of this interface;
// in-process or networked tool servers can satisfy it the same way.
type Session interface {
	// Initialize establishes the transport and performs the handshake.
	// It must be called exactly once before ListTools or CallTool.
	Initialize(ctx context.Context) error
	ListTools(ctx context.Context) ([]ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}
