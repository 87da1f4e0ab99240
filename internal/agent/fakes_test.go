package agent

import (
	"context"
	"sync"

	"github.com/hugin/hugin/internal/schema"
)

// fakeAdapter scripts model turns through send and records what the
// orchestrator feeds back.
type fakeAdapter struct {
	send func(ctx context.Context, n int, input string) (*schema.ModelTurn, error)

	mu        sync.Mutex
	inputs    []string
	catalogs  [][]schema.ToolDescriptor
	committed []*schema.ModelTurn
	results   []schema.ToolResult
	cleared   int
	usage     schema.Usage
}

var _ schema.Adapter = (*fakeAdapter)(nil)

// scripted returns a send func that plays turns in order and then keeps
// answering "done".
func scripted(turns ...schema.ModelTurn) func(context.Context, int, string) (*schema.ModelTurn, error) {
	return func(_ context.Context, n int, _ string) (*schema.ModelTurn, error) {
		if n < len(turns) {
			t := turns[n]
			return &t, nil
		}
		return &schema.ModelTurn{Text: "done"}, nil
	}
}

func textTurn(text string) schema.ModelTurn { return schema.ModelTurn{Text: text} }

func callTurn(calls ...schema.ToolCall) schema.ModelTurn {
	return schema.ModelTurn{ToolCalls: calls}
}

func call(id, name string, input map[string]any) schema.ToolCall {
	return schema.ToolCall{ID: id, Name: name, Input: input}
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) SendTurn(ctx context.Context, userText string, catalog []schema.ToolDescriptor) (*schema.ModelTurn, error) {
	f.mu.Lock()
	n := len(f.inputs)
	f.inputs = append(f.inputs, userText)
	f.catalogs = append(f.catalogs, catalog)
	f.usage.Calls++
	f.usage.InputTokens += 10
	f.usage.OutputTokens += 2
	f.mu.Unlock()
	return f.send(ctx, n, userText)
}

func (f *fakeAdapter) ExtractText(turn *schema.ModelTurn) string { return turn.Text }

func (f *fakeAdapter) ExtractToolCalls(turn *schema.ModelTurn) []schema.ToolCall {
	return turn.ToolCalls
}

func (f *fakeAdapter) CommitTurn(turn *schema.ModelTurn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.committed {
		if t == turn {
			return
		}
	}
	f.committed = append(f.committed, turn)
}

func (f *fakeAdapter) AppendToolResult(result schema.ToolResult, turn *schema.ModelTurn) {
	f.CommitTurn(turn)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
}

func (f *fakeAdapter) ClearHistory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeAdapter) Usage() schema.Usage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage
}

func (f *fakeAdapter) turnsSent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// invokerFunc adapts a function to schema.Invoker.
type invokerFunc func(ctx context.Context, name string, input map[string]any) (string, error)

func (fn invokerFunc) Invoke(ctx context.Context, name string, input map[string]any) (string, error) {
	return fn(ctx, name, input)
}

func descriptor(name string) schema.ToolDescriptor {
	return schema.ToolDescriptor{
		Name:        name,
		Description: name + " tool",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}
}
