package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hugin/hugin/internal/schema"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter talks to the Anthropic Messages API over plain HTTP.
// Tool calls arrive as tool_use blocks; the whole history is resent on
// every call.
type AnthropicAdapter struct {
	*core
	apiKey      string
	apiBase     string
	model       string
	maxTokens   int
	temperature float64
	headers     map[string]string
	httpClient  *http.Client
}

var _ schema.Adapter = (*AnthropicAdapter)(nil)

func NewAnthropicAdapter(o Options) *AnthropicAdapter {
	return &AnthropicAdapter{
		core:        newCore("anthropic", o),
		apiKey:      o.APIKey,
		apiBase:     strings.TrimRight(o.BaseURL, "/"),
		model:       o.Model,
		maxTokens:   o.maxTokens(),
		temperature: o.Temperature,
		headers:     o.Headers,
		httpClient:  o.httpClient(),
	}
}

func (a *AnthropicAdapter) SendTurn(ctx context.Context, userText string, catalog []schema.ToolDescriptor) (*schema.ModelTurn, error) {
	a.begin(userText)

	body := map[string]any{
		"model":       a.model,
		"messages":    convertMessagesToAnthropic(a.store.Messages()),
		"max_tokens":  a.maxTokens,
		"temperature": a.temperature,
	}
	if a.system != "" {
		body["system"] = a.system
	}
	if len(catalog) > 0 {
		body["tools"] = convertToolsToAnthropic(catalog)
	}

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	for k, v := range a.headers {
		headers[k] = v
	}

	var turn *schema.ModelTurn
	err := a.do(ctx, func(ctx context.Context) error {
		raw, err := postJSON(ctx, a.httpClient, a.name, a.apiBase+"/messages", headers, body)
		if err != nil {
			return err
		}
		t, in, out, err := parseAnthropicResponse(raw)
		if err != nil {
			return err
		}
		a.account(in, out)
		turn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// ---------------------------------------------------------------------------
// Anthropic format helpers
// ---------------------------------------------------------------------------

// convertMessagesToAnthropic converts the conversation to Anthropic's wire
// format. Consecutive user-side messages (text and tool results) are merged
// into one message, and the list always starts with a user message.
func convertMessagesToAnthropic(messages []schema.Message) []map[string]any {
	var out []map[string]any

	appendUserBlocks := func(blocks []any) {
		if len(out) > 0 && out[len(out)-1]["role"] == "user" {
			prev := out[len(out)-1]
			prev["content"] = append(prev["content"].([]any), blocks...)
			return
		}
		out = append(out, map[string]any{"role": "user", "content": blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleUser:
			var blocks []any
			for _, p := range msg.Parts {
				switch p.Type {
				case schema.PartText:
					blocks = append(blocks, map[string]any{"type": "text", "text": p.Text})
				case schema.PartToolResult:
					block := map[string]any{
						"type":        "tool_result",
						"tool_use_id": p.Result.CallID,
						"content":     p.Result.Content,
					}
					if p.Result.IsError {
						block["is_error"] = true
					}
					blocks = append(blocks, block)
				}
			}
			if len(blocks) > 0 {
				appendUserBlocks(blocks)
			}

		case schema.RoleAssistant:
			var blocks []any
			for _, p := range msg.Parts {
				switch p.Type {
				case schema.PartText:
					if p.Text != "" {
						blocks = append(blocks, map[string]any{"type": "text", "text": p.Text})
					}
				case schema.PartToolCall:
					input := p.Call.Input
					if input == nil {
						input = map[string]any{}
					}
					blocks = append(blocks, map[string]any{
						"type":  "tool_use",
						"id":    p.Call.ID,
						"name":  p.Call.Name,
						"input": input,
					})
				}
			}
			if len(blocks) == 0 {
				blocks = []any{map[string]any{"type": "text", "text": "(no content)"}}
			}
			out = append(out, map[string]any{"role": "assistant", "content": blocks})
		}
	}

	if len(out) > 0 && out[0]["role"] != "user" {
		lead := map[string]any{
			"role":    "user",
			"content": []any{map[string]any{"type": "text", "text": "(earlier conversation omitted)"}},
		}
		out = append([]map[string]any{lead}, out...)
	}
	return out
}

// convertToolsToAnthropic converts descriptors to Anthropic tool format.
func convertToolsToAnthropic(catalog []schema.ToolDescriptor) []map[string]any {
	out := make([]map[string]any, 0, len(catalog))
	for _, d := range catalog {
		input := d.InputSchema
		if input == nil {
			input = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, map[string]any{
			"name":         d.Name,
			"description":  d.Description,
			"input_schema": input,
		})
	}
	return out
}

// anthropicRespBody models the Anthropic Messages API response.
type anthropicRespBody struct {
	ID      string `json:"id"`
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`  // type=text
		ID    string         `json:"id"`    // type=tool_use
		Name  string         `json:"name"`  // type=tool_use
		Input map[string]any `json:"input"` // type=tool_use
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func parseAnthropicResponse(raw []byte) (*schema.ModelTurn, int, int, error) {
	var body anthropicRespBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, 0, 0, fmt.Errorf("parse Anthropic response: %w", err)
	}

	turn := &schema.ModelTurn{StopReason: body.StopReason, Continuation: body.ID}
	var text strings.Builder
	for _, block := range body.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			input := block.Input
			if input == nil {
				input = map[string]any{}
			}
			turn.ToolCalls = append(turn.ToolCalls, schema.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}
	turn.Text = text.String()
	return turn, body.Usage.InputTokens, body.Usage.OutputTokens, nil
}
