package tools

import (
	"encoding/json"
	"strings"
)

// failure renders a user-facing tool failure as {"error": msg, ...}.
func failure(msg string, extra map[string]any) string {
	m := map[string]any{"error": msg}
	for k, v := range extra {
		m[k] = v
	}
	return jsonString(m)
}

// failureText returns the message of a failure payload. ok is false for
// anything that is not a JSON object with a non-empty "error" string.
func failureText(out string) (msg string, ok bool) {
	trimmed := strings.TrimSpace(out)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil || payload.Error == "" {
		return "", false
	}
	return payload.Error, true
}

func jsonString(v any) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimSuffix(sb.String(), "\n")
}
