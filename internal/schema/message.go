package schema

import "strings"

// Role identifies the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PartType tags the payload carried by a Part.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool_call"
	PartToolResult PartType = "tool_result"
)

// Part is one typed element of a message's content.
// Exactly one of Text, Call or Result is meaningful, selected by Type.
type Part struct {
	Type   PartType
	Text   string
	Call   *ToolCall
	Result *ToolResult
}

// Message is one entry in the conversation history.
//
// Content is an ordered list of parts. A plain-text message has a single
// PartText; an assistant message that invokes tools carries its text (if
// any) followed by one PartToolCall per call; tool results travel in a
// user message made only of PartToolResult parts.
type Message struct {
	Role  Role
	Parts []Part
}

func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Type: PartText, Text: text}}}
}

func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{{Type: PartText, Text: text}}}
}

// NewAssistantMessage builds an assistant message from a model turn's text
// and tool calls. Empty text is omitted.
func NewAssistantMessage(text string, calls []ToolCall) Message {
	parts := make([]Part, 0, len(calls)+1)
	if text != "" {
		parts = append(parts, Part{Type: PartText, Text: text})
	}
	for i := range calls {
		call := calls[i]
		parts = append(parts, Part{Type: PartToolCall, Call: &call})
	}
	return Message{Role: RoleAssistant, Parts: parts}
}

// NewToolResultMessage wraps results in a user-role message.
func NewToolResultMessage(results ...ToolResult) Message {
	parts := make([]Part, 0, len(results))
	for i := range results {
		r := results[i]
		parts = append(parts, Part{Type: PartToolResult, Result: &r})
	}
	return Message{Role: RoleUser, Parts: parts}
}

// Text joins every text part of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type != PartText {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// ToolCalls returns the tool calls carried by the message, in order.
func (m Message) ToolCalls() []ToolCall {
	var out []ToolCall
	for _, p := range m.Parts {
		if p.Type == PartToolCall && p.Call != nil {
			out = append(out, *p.Call)
		}
	}
	return out
}

// ToolResults returns the tool results carried by the message, in order.
func (m Message) ToolResults() []ToolResult {
	var out []ToolResult
	for _, p := range m.Parts {
		if p.Type == PartToolResult && p.Result != nil {
			out = append(out, *p.Result)
		}
	}
	return out
}

// IsToolResult reports whether the message consists only of tool results.
func (m Message) IsToolResult() bool {
	if len(m.Parts) == 0 {
		return false
	}
	for _, p := range m.Parts {
		if p.Type != PartToolResult {
			return false
		}
	}
	return true
}
