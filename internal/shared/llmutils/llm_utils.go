package llmutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hugin/hugin/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n bytes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint generates a short hint string for a tool call, e.g. `cal_get_events("2025-11-03")`.
func ToolHint(tc schema.ToolCall) string {
	var firstVal string
	for _, v := range tc.Input {
		if s, ok := v.(string); ok {
			firstVal = s
		}
		break
	}
	if firstVal == "" {
		return tc.Name
	}
	if len(firstVal) > 40 {
		firstVal = firstVal[:40] + "…"
	}
	return fmt.Sprintf("%s(%q)", tc.Name, firstVal)
}

// ToolHints joins ToolHint for every call.
func ToolHints(calls []schema.ToolCall) string {
	parts := make([]string, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, ToolHint(c))
	}
	return strings.Join(parts, ", ")
}
