package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/hugin/hugin/internal/schema"
)

// BuiltinPrefix namespaces the built-in tools in the catalog.
const BuiltinPrefix = "hugin"

// ToolName is the source-local name of a built-in tool.
type ToolName string

const (
	ToolDateRange ToolName = "calculate_date_range"
	ToolWriteFile ToolName = "write_file"
	ToolReadFile  ToolName = "read_file"
	ToolListDir   ToolName = "list_dir"
	ToolExec      ToolName = "exec"
	ToolWebSearch ToolName = "web_search"
	ToolWebFetch  ToolName = "web_fetch"
)

// Registry holds the built-in tools and runs them through the same
// Invoker contract as a remote tool provider.
type Registry struct {
	tools map[string]schema.Tool
}

var _ schema.Invoker = (*Registry)(nil)

// NewRegistry returns a Registry over tools. Nil entries are skipped so
// disabled tools can be passed through unconditionally.
func NewRegistry(tools ...schema.Tool) *Registry {
	r := &Registry{tools: make(map[string]schema.Tool, len(tools))}
	for _, t := range tools {
		if t != nil {
			r.tools[t.Name()] = t
		}
	}
	return r
}

// GetTool returns the tool with the given name, or nil.
func (r *Registry) GetTool(name ToolName) schema.Tool {
	return r.tools[string(name)]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns one descriptor per tool under its local name.
func (r *Registry) Descriptors() []schema.ToolDescriptor {
	out := make([]schema.ToolDescriptor, 0, len(r.tools))
	for _, n := range r.Names() {
		out = append(out, schema.DescriptorFromTool(n, r.tools[n]))
	}
	return out
}

// Invoke runs the named tool. A {"error": ...} payload is reported as a
// tool-level failure carrying the payload unchanged.
func (r *Registry) Invoke(ctx context.Context, name string, input map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s_%s", schema.ErrUnknownTool, BuiltinPrefix, name)
	}
	if input == nil {
		input = map[string]any{}
	}
	out, err := t.Execute(ctx, input)
	if err != nil {
		return "", err
	}
	if _, failed := failureText(out); failed {
		return "", &schema.ToolError{Tool: name, Text: out}
	}
	return out, nil
}
