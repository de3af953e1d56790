// Package schema contains the core contracts shared across mcp-hub packages.
// Concrete implementations live in their respective packages; this package is
// the single canonical source of truth for every shared type.
package schema

// ChatTurn is one entry in the conversation history supplied by the caller.
//
// Role is one of: "system", "user", "assistant".
//
// Content holds the turn text. It is typed any because callers may send either
// a plain string or a structured block list; the hub passes it through to the
// provider untouched.
type ChatTurn struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func NewSystemTurn(content string) ChatTurn {
	return ChatTurn{Role: "system", Content: content}
}

func NewUserTurn(content any) ChatTurn {
	return ChatTurn{Role: "user", Content: content}
}

// CloneTurns returns a copy of turns with an independent backing slice, so
// appending a synthetic turn never mutates the caller's history.
func CloneTurns(turns []ChatTurn) []ChatTurn {
	cloned := make([]ChatTurn, len(turns))
	copy(cloned, turns)
	return cloned
}
