// Package llmutils holds small helpers for working with LLM output: reasoning
// trace stripping and response shape normalization.
package llmutils

import (
	"encoding/json"
	"regexp"
	"strings"
)

// reasoningPatterns matches the reasoning-trace wrappers used across model
// families: XML-style think tags, bracketed Reasoning/Thoughts blocks,
// markdown Thought/Reasoning prefixes, and step-by-step preambles.
var reasoningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<think>.*?</think>`),
	regexp.MustCompile(`(?s)<thinking>.*?</thinking>`),
	regexp.MustCompile(`(?s)\[Reasoning\].*?\[/Reasoning\]`),
	regexp.MustCompile(`(?s)\[Thoughts?\].*?\[/Thoughts?\]`),
	regexp.MustCompile(`(?i)\*\*Thought:?[^*\n]*`),
	regexp.MustCompile(`(?i)\*Reasoning:?[^*\n]*`),
	regexp.MustCompile(`(?is)let['’]s reason step by step:.*`),
	regexp.MustCompile(`(?is)let['’]s think step by step:.*`),
	regexp.MustCompile(`(?is)thinking process:.*`),
}

var reBlankRuns = regexp.MustCompile(`\n{2,}`)

// StripReasoning removes inline reasoning traces that some models embed in
// their visible output, then collapses the blank lines left behind.
func StripReasoning(s string) string {
	cleaned := s
	for _, re := range reasoningPatterns {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(reBlankRuns.ReplaceAllString(cleaned, "\n\n"))
}

// Truncate shortens a string to at most n characters, adding "..." if it was
// truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Flatten renders an arbitrary content value as a plain string. Non-string
// values are JSON-encoded.
func Flatten(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
