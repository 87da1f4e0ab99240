package schema

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the interface all built-in tools must satisfy.
// Remote tools are reached through a tool provider instead.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ToolDescriptor describes one tool visible to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is one invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]any
}

// ArgumentsJSON returns the call input encoded as a JSON object.
func (tc ToolCall) ArgumentsJSON() string {
	if len(tc.Input) == 0 {
		return "{}"
	}
	b, err := json.Marshal(tc.Input)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ToolResult is the outcome of exactly one ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// FailedResult builds a ToolResult marked as failed.
func FailedResult(call ToolCall, format string, args ...any) ToolResult {
	return ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: fmt.Sprintf(format, args...),
		IsError: true,
	}
}

// Invoker runs a tool by its source-local name.
type Invoker interface {
	Invoke(ctx context.Context, name string, input map[string]any) (string, error)
}

// DescriptorFromTool converts a built-in Tool into a descriptor under name.
func DescriptorFromTool(name string, t Tool) ToolDescriptor {
	input := map[string]any{"type": "object", "properties": map[string]any{}}
	if raw := t.Parameters(); len(raw) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			input = parsed
		}
	}
	return ToolDescriptor{Name: name, Description: t.Description(), InputSchema: input}
}
