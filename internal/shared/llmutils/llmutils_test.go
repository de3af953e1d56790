package llmutils

import (
	"strings"
	"testing"
)

func TestStripReasoning(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "think tags",
			in:   "<think>internal monologue</think>The answer is 4.",
			want: "The answer is 4.",
		},
		{
			name: "thinking tags multiline",
			in:   "<thinking>step one\nstep two</thinking>\n\nParis.",
			want: "Paris.",
		},
		{
			name: "bracketed reasoning block",
			in:   "[Reasoning]because math[/Reasoning]42",
			want: "42",
		},
		{
			name: "thoughts block",
			in:   "[Thoughts]hmm[/Thoughts]done",
			want: "done",
		},
		{
			name: "markdown thought prefix",
			in:   "**Thought: maybe use the tool\nSure, here you go.",
			want: "Sure, here you go.",
		},
		{
			name: "step by step preamble",
			in:   "Answer below.\nLet's think step by step: first we...",
			want: "Answer below.",
		},
		{
			name: "collapses blank runs",
			in:   "<think>x</think>\n\n\n\nHello.",
			want: "Hello.",
		},
		{
			name: "untouched text",
			in:   "hello",
			want: "hello",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripReasoning(tc.in); got != tc.want {
				t.Errorf("StripReasoning(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd..." {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("short string must pass through, got %q", got)
	}
}

func TestFlatten(t *testing.T) {
	if got := Flatten(nil); got != "" {
		t.Errorf("nil should flatten to empty, got %q", got)
	}
	if got := Flatten("plain"); got != "plain" {
		t.Errorf("string should pass through, got %q", got)
	}
	got := Flatten(map[string]any{"k": "v"})
	if !strings.Contains(got, `"k":"v"`) {
		t.Errorf("map should JSON-encode, got %q", got)
	}
}

func TestNormalize_PlainString(t *testing.T) {
	display, reasoning := Normalize("hello there")
	if display != "hello there" || reasoning != "" {
		t.Errorf("got display=%q reasoning=%q", display, reasoning)
	}
}

func TestNormalize_StructuredFields(t *testing.T) {
	display, reasoning := Normalize(map[string]any{
		"content":           "hello",
		"reasoning_content": "because",
	})
	if display != "hello" {
		t.Errorf("unexpected display: %q", display)
	}
	if reasoning != "because" {
		t.Errorf("unexpected reasoning: %q", reasoning)
	}
	// Round-trip with the stripper: no markers present, display unaffected.
	if got := StripReasoning(display); got != "hello" {
		t.Errorf("stripping changed clean text: %q", got)
	}
}

func TestNormalize_BlockList(t *testing.T) {
	display, reasoning := Normalize([]any{
		map[string]any{"type": "reasoning", "text": "first pass"},
		map[string]any{"type": "thinking", "text": "second pass"},
		map[string]any{"type": "output_text", "text": "final answer"},
		map[string]any{"type": "output_text", "text": "ignored extra"},
	})
	if display != "final answer" {
		t.Errorf("unexpected display: %q", display)
	}
	if reasoning != "first pass\nsecond pass" {
		t.Errorf("unexpected reasoning: %q", reasoning)
	}
}

func TestNormalize_BlockListWithoutOutputText(t *testing.T) {
	display, _ := Normalize([]any{
		map[string]any{"type": "system", "text": "setup"},
	})
	// Falls back to the raw message representation.
	if !strings.Contains(display, "setup") {
		t.Errorf("expected raw fallback containing blocks, got %q", display)
	}
}

func TestNormalize_Nil(t *testing.T) {
	display, reasoning := Normalize(nil)
	if display != "" || reasoning != "" {
		t.Errorf("got display=%q reasoning=%q", display, reasoning)
	}
}
