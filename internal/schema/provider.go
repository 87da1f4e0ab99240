package schema

import "context"

// ModelTurn is the backend-agnostic result of one model call.
type ModelTurn struct {
	Text      string
	ToolCalls []ToolCall
	// StopReason is the backend's own finish label, kept for logging.
	StopReason string
	// Continuation is an opaque backend handle (response id, raw blocks).
	// Only the adapter that produced the turn interprets it.
	Continuation any
}

// Usage is the running counter of model consumption for one adapter.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Calls        int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Adapter is the capability interface every model backend implements.
// Each adapter owns the conversation for one session.
type Adapter interface {
	// Name returns the backend variant, e.g. "anthropic".
	Name() string

	// SendTurn appends userText (when non-empty) to the conversation and
	// requests one model turn over the given catalog.
	SendTurn(ctx context.Context, userText string, catalog []ToolDescriptor) (*ModelTurn, error)

	ExtractText(turn *ModelTurn) string
	ExtractToolCalls(turn *ModelTurn) []ToolCall

	// CommitTurn records the assistant side of turn in the conversation.
	// Calling it more than once for the same turn has no further effect.
	CommitTurn(turn *ModelTurn)

	// AppendToolResult records result as the answer to one of turn's calls,
	// committing turn first if needed.
	AppendToolResult(result ToolResult, turn *ModelTurn)

	// ClearHistory drops the whole conversation, anchor included.
	ClearHistory()

	Usage() Usage
}
