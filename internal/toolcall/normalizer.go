// Package toolcall reconciles structured and text-embedded tool calls into
// one shape.
package toolcall

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hugin/hugin/internal/schema"
)

var (
	nameKeys = []string{"name", "function_name"}
	argKeys  = []string{"arguments", "function_arg", "args"}
)

// Normalizer assigns tool-call ids that stay unique across the turns of
// one conversation. The zero value starts at call_0. It is not safe for
// concurrent use.
type Normalizer struct {
	next int
}

// Normalize returns the tool calls for one model turn.
//
// Structured calls win and are returned as given, except that calls
// without an id get the next "call_<n>" in call order. Otherwise text is
// scanned for a JSON object naming a tool and its arguments; when none is
// found, or every candidate is malformed, the turn is a plain answer and
// Normalize returns nil.
func (n *Normalizer) Normalize(structured []schema.ToolCall, text string) []schema.ToolCall {
	if len(structured) > 0 {
		return n.assignIDs(structured)
	}
	call, err := ParseText(text)
	if err != nil {
		slog.Debug("text is not a tool call", "err", err)
		return nil
	}
	slog.Info("parsed tool call from text", "tool", call.Name)
	return n.assignIDs([]schema.ToolCall{call})
}

// Normalize normalizes a single turn with ids starting at call_0.
func Normalize(structured []schema.ToolCall, text string) []schema.ToolCall {
	return new(Normalizer).Normalize(structured, text)
}

// ParseText extracts one tool call from free text. The call has no id.
// The returned error wraps schema.ErrMalformedToolCall and is meant for
// logging only.
func ParseText(text string) (schema.ToolCall, error) {
	call, _, err := Find(text)
	return call, err
}

// Find is ParseText that also returns the object span the call came from.
// Each balanced object is tried in order and the first one holding both a
// name key and an arguments key wins.
func Find(text string) (call schema.ToolCall, span string, err error) {
	spans := FindObjects(text)
	if len(spans) == 0 {
		return schema.ToolCall{}, "", fmt.Errorf("%w: no JSON object", schema.ErrMalformedToolCall)
	}
	for _, span := range spans {
		call, err = parseObject(span)
		if err == nil {
			return call, span, nil
		}
	}
	return schema.ToolCall{}, "", err
}

func parseObject(span string) (schema.ToolCall, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return schema.ToolCall{}, fmt.Errorf("%w: %v", schema.ErrMalformedToolCall, err)
	}

	var name string
	for _, k := range nameKeys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &name); err == nil && name != "" {
			break
		}
		name = ""
	}
	if name == "" {
		return schema.ToolCall{}, fmt.Errorf("%w: missing tool name", schema.ErrMalformedToolCall)
	}

	for _, k := range argKeys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		input, err := decodeArgs(raw)
		if err != nil {
			return schema.ToolCall{}, fmt.Errorf("%w: %s: %v", schema.ErrMalformedToolCall, k, err)
		}
		return schema.ToolCall{Name: name, Input: input}, nil
	}
	return schema.ToolCall{}, fmt.Errorf("%w: missing arguments", schema.ErrMalformedToolCall)
}

// decodeArgs accepts an object, a JSON string holding an object, or null.
func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch a := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return a, nil
	case string:
		var inner map[string]any
		if err := json.Unmarshal([]byte(a), &inner); err != nil {
			return nil, fmt.Errorf("string arguments are not a JSON object")
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("arguments must be an object, got %T", v)
	}
}

func (n *Normalizer) assignIDs(calls []schema.ToolCall) []schema.ToolCall {
	out := make([]schema.ToolCall, len(calls))
	for i, c := range calls {
		if c.ID == "" {
			c.ID = fmt.Sprintf("call_%d", n.next)
			n.next++
		}
		if c.Input == nil {
			c.Input = map[string]any{}
		}
		out[i] = c
	}
	return out
}
