package llmutils

import "strings"

// Normalize resolves the three provider message shapes into display text and
// a separated reasoning trace:
//
//   - plain string: the string itself, no reasoning
//   - mapping: content is display, reasoning_content is reasoning
//   - block list: reasoning/thinking/system block texts joined as reasoning,
//     the first output_text block as display, falling back to the raw message
//
// Callers still pass the display text through StripReasoning afterwards; for
// the structured shapes that is redundant but harmless, and it keeps the
// stripping unconditional for providers that leak traces inline anyway.
func Normalize(message any) (display string, reasoning string) {
	switch m := message.(type) {
	case nil:
		return "", ""
	case string:
		return m, ""
	case map[string]any:
		reasoning, _ = m["reasoning_content"].(string)
		display = Flatten(m["content"])
		return display, reasoning
	case []any:
		var reasoningParts []string
		display = ""
		found := false
		for _, raw := range m {
			block, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			blockType, _ := block["type"].(string)
			text, _ := block["text"].(string)
			switch blockType {
			case "reasoning", "thinking", "system":
				if text != "" {
					reasoningParts = append(reasoningParts, text)
				}
			case "output_text":
				if !found {
					display = text
					found = true
				}
			}
		}
		if !found {
			display = Flatten(m)
		}
		return display, strings.Join(reasoningParts, "\n")
	default:
		return Flatten(m), ""
	}
}
