package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/toolcall"
)

// TextChatAdapter drives models served without a tool-calling API (vLLM,
// OpenVINO model server) through their OpenAI-compatible chat endpoint.
// The catalog is written into the system prompt and tool calls are read
// back out of the reply text.
type TextChatAdapter struct {
	*core
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	calls       toolcall.Normalizer
}

var _ schema.Adapter = (*TextChatAdapter)(nil)

func NewTextChatAdapter(name string, o Options) *TextChatAdapter {
	return &TextChatAdapter{
		core:        newCore(name, o),
		client:      newOpenAIClient(o),
		model:       o.Model,
		maxTokens:   o.maxTokens(),
		temperature: o.Temperature,
	}
}

func (a *TextChatAdapter) SendTurn(ctx context.Context, userText string, catalog []schema.ToolDescriptor) (*schema.ModelTurn, error) {
	a.begin(userText)

	params := openai.ChatCompletionNewParams{
		Model:       a.model,
		Messages:    convertMessagesToText(toolPrompt(a.system, catalog), a.store.Messages()),
		Temperature: openai.Float(a.temperature),
	}
	if a.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(a.maxTokens))
	}

	var turn *schema.ModelTurn
	err := a.do(ctx, func(ctx context.Context) error {
		resp, err := a.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return classifyOpenAIError(a.name, err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%s: empty choices in response", a.name)
		}
		a.account(int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens))
		turn = &schema.ModelTurn{
			Text:         resp.Choices[0].Message.Content,
			StopReason:   string(resp.Choices[0].FinishReason),
			Continuation: resp.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(catalog) > 0 {
		turn.ToolCalls = a.calls.Normalize(nil, a.core.ExtractText(turn))
	}
	return turn, nil
}

// ExtractText returns the reply with any embedded tool-call JSON removed.
func (a *TextChatAdapter) ExtractText(turn *schema.ModelTurn) string {
	text := a.core.ExtractText(turn)
	if turn == nil || len(turn.ToolCalls) == 0 {
		return text
	}
	if _, span, err := toolcall.Find(text); err == nil {
		text = strings.Replace(text, span, "", 1)
	}
	return strings.TrimSpace(text)
}

// toolPrompt appends the catalog and calling convention to system.
func toolPrompt(system string, catalog []schema.ToolDescriptor) string {
	if len(catalog) == 0 {
		return system
	}
	type promptTool struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}
	list := make([]promptTool, 0, len(catalog))
	for _, d := range catalog {
		list = append(list, promptTool{Name: d.Name, Description: d.Description, Parameters: d.InputSchema})
	}
	data, _ := json.MarshalIndent(list, "", "  ")

	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	sb.WriteString("# Tools\n\nYou can use the following tools:\n\n")
	sb.Write(data)
	sb.WriteString("\n\nTo use a tool, reply with only a JSON object of the form\n")
	sb.WriteString(`{"name": "<tool name>", "arguments": {<arguments>}}`)
	sb.WriteString("\nand nothing else. The result comes back in a message starting with \"Tool result:\". ")
	sb.WriteString("When you have what you need, answer in plain text without JSON.")
	return sb.String()
}

func convertMessagesToText(system string, messages []schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleUser:
			for _, p := range msg.Parts {
				switch p.Type {
				case schema.PartText:
					out = append(out, openai.UserMessage(p.Text))
				case schema.PartToolResult:
					out = append(out, openai.UserMessage("Tool result: "+p.Result.Content))
				}
			}
		case schema.RoleAssistant:
			calls := msg.ToolCalls()
			if len(calls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Text()))
				continue
			}
			lines := make([]string, 0, len(calls))
			for _, c := range calls {
				data, _ := json.Marshal(map[string]any{"name": c.Name, "arguments": c.Input})
				lines = append(lines, "Using tool: "+string(data))
			}
			out = append(out, openai.AssistantMessage(strings.Join(lines, "\n")))
		}
	}
	return out
}
