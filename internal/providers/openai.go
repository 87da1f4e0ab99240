package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/hugin/hugin/internal/schema"
)

// OpenAIAdapter talks to any OpenAI-compatible chat completions endpoint
// with structured tool calling. Tool results go back as tool-role
// messages keyed by call id.
type OpenAIAdapter struct {
	*core
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ schema.Adapter = (*OpenAIAdapter)(nil)

func NewOpenAIAdapter(o Options) *OpenAIAdapter {
	return &OpenAIAdapter{
		core:        newCore("openai", o),
		client:      newOpenAIClient(o),
		model:       o.Model,
		maxTokens:   o.maxTokens(),
		temperature: o.Temperature,
	}
}

// newOpenAIClient builds an SDK client with SDK-level retries disabled;
// retrying is the adapter's job.
func newOpenAIClient(o Options) openai.Client {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(o.BaseURL, "/") + "/"),
		option.WithMaxRetries(0),
		option.WithHTTPClient(o.httpClient()),
	}
	if o.APIKey != "" {
		opts = append(opts, option.WithAPIKey(o.APIKey))
	} else {
		// Local servers ignore the key but the header must be well formed.
		opts = append(opts, option.WithAPIKey("unused"))
	}
	for k, v := range o.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return openai.NewClient(opts...)
}

func (a *OpenAIAdapter) SendTurn(ctx context.Context, userText string, catalog []schema.ToolDescriptor) (*schema.ModelTurn, error) {
	a.begin(userText)

	params := openai.ChatCompletionNewParams{
		Model:       a.model,
		Messages:    convertMessagesToOpenAI(a.system, a.store.Messages()),
		Temperature: openai.Float(a.temperature),
	}
	if a.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(a.maxTokens))
	}
	if len(catalog) > 0 {
		params.Tools = convertToolsToOpenAI(catalog)
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
		turn = parseOpenAIChoice(resp.ID, resp.Choices[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// classifyOpenAIError marks SDK errors with transient statuses.
func classifyOpenAIError(provider string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && isTransientStatus(apiErr.StatusCode) {
		return &schema.TransientBackendError{Provider: provider, Status: apiErr.StatusCode, Err: err}
	}
	return fmt.Errorf("%s: %w", provider, err)
}

// ---------------------------------------------------------------------------
// OpenAI format helpers
// ---------------------------------------------------------------------------

func convertMessagesToOpenAI(system string, messages []schema.Message) []openai.ChatCompletionMessageParamUnion {
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
					out = append(out, openai.ToolMessage(p.Result.Content, p.Result.CallID))
				}
			}
		case schema.RoleAssistant:
			out = append(out, assistantParam(msg))
		}
	}
	return out
}

func assistantParam(msg schema.Message) openai.ChatCompletionMessageParamUnion {
	var asst openai.ChatCompletionAssistantMessageParam
	if text := msg.Text(); text != "" {
		asst.Content.OfString = openai.String(text)
	}
	for _, call := range msg.ToolCalls() {
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.ArgumentsJSON(),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &asst}
}

func convertToolsToOpenAI(catalog []schema.ToolDescriptor) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(catalog))
	for _, d := range catalog {
		params := openai.FunctionParameters(d.InputSchema)
		if params == nil {
			params = openai.FunctionParameters{"type": "object", "properties": map[string]any{}}
		}
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        d.Name,
			Description: openai.String(d.Description),
			Parameters:  params,
		}))
	}
	return out
}

func parseOpenAIChoice(id string, choice openai.ChatCompletionChoice) *schema.ModelTurn {
	turn := &schema.ModelTurn{
		Text:         choice.Message.Content,
		StopReason:   string(choice.FinishReason),
		Continuation: id,
	}
	for _, tc := range choice.Message.ToolCalls {
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("failed to parse tool arguments", "tool", tc.Function.Name, "err", err)
		}
		turn.ToolCalls = append(turn.ToolCalls, schema.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: args,
		})
	}
	return turn
}
