package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/hugin/hugin/internal/schema"
)

// OllamaAdapter talks to a local Ollama server's /api/chat endpoint.
// Ollama returns tool calls without ids, so calls are left id-less and
// numbered by the normalizer. Tool results go back as plain user
// messages prefixed with "Tool result:".
type OllamaAdapter struct {
	*core
	apiBase     string
	model       string
	maxTokens   int
	temperature float64
	headers     map[string]string
	httpClient  *http.Client
}

var _ schema.Adapter = (*OllamaAdapter)(nil)

func NewOllamaAdapter(o Options) *OllamaAdapter {
	return &OllamaAdapter{
		core:        newCore("ollama", o),
		apiBase:     strings.TrimRight(o.BaseURL, "/"),
		model:       o.Model,
		maxTokens:   o.maxTokens(),
		temperature: o.Temperature,
		headers:     o.Headers,
		httpClient:  o.httpClient(),
	}
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaRequest struct {
	Model    string           `json:"model"`
	Messages []ollamaMessage  `json:"messages"`
	Tools    []map[string]any `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
	Options  map[string]any   `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message         ollamaMessage `json:"message"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

func (a *OllamaAdapter) SendTurn(ctx context.Context, userText string, catalog []schema.ToolDescriptor) (*schema.ModelTurn, error) {
	a.begin(userText)

	req := ollamaRequest{
		Model:    a.model,
		Messages: convertMessagesToOllama(a.system, a.store.Messages()),
		Stream:   false,
		Options:  map[string]any{"temperature": a.temperature},
	}
	if a.maxTokens > 0 {
		req.Options["num_predict"] = a.maxTokens
	}
	for _, d := range catalog {
		req.Tools = append(req.Tools, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  d.InputSchema,
			},
		})
	}

	var turn *schema.ModelTurn
	err := a.do(ctx, func(ctx context.Context) error {
		raw, err := postJSON(ctx, a.httpClient, a.name, a.apiBase+"/api/chat", a.headers, req)
		if err != nil {
			return err
		}
		var resp ollamaResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("parse Ollama response: %w", err)
		}
		if resp.Error != "" {
			return fmt.Errorf("ollama error: %s", resp.Error)
		}
		a.account(resp.PromptEvalCount, resp.EvalCount)
		turn = parseOllamaMessage(resp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func parseOllamaMessage(resp ollamaResponse) *schema.ModelTurn {
	turn := &schema.ModelTurn{Text: resp.Message.Content, StopReason: resp.DoneReason}
	for _, tc := range resp.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		turn.ToolCalls = append(turn.ToolCalls, schema.ToolCall{Name: tc.Function.Name, Input: args})
	}
	return turn
}

func convertMessagesToOllama(system string, messages []schema.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, ollamaMessage{Role: "system", Content: system})
	}
	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleUser:
			for _, p := range msg.Parts {
				switch p.Type {
				case schema.PartText:
					out = append(out, ollamaMessage{Role: "user", Content: p.Text})
				case schema.PartToolResult:
					out = append(out, ollamaMessage{Role: "user", Content: "Tool result: " + p.Result.Content})
				}
			}
		case schema.RoleAssistant:
			m := ollamaMessage{Role: "assistant", Content: msg.Text()}
			for _, call := range msg.ToolCalls() {
				var tc ollamaToolCall
				tc.Function.Name = call.Name
				tc.Function.Arguments = call.Input
				m.ToolCalls = append(m.ToolCalls, tc)
			}
			out = append(out, m)
		}
	}
	return out
}
