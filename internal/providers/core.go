package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hugin/hugin/internal/conversation"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/shared/llmutils"
)

// core is the state every adapter variant shares: the conversation it
// owns, the retry policy, the per-call timeout and usage counters.
// Variants embed it and add their own SendTurn.
type core struct {
	name    string
	system  string
	store   *conversation.Store
	retry   RetryPolicy
	timeout time.Duration

	mu        sync.Mutex
	usage     schema.Usage
	committed *schema.ModelTurn
}

func newCore(name string, o Options) *core {
	return &core{
		name:    name,
		system:  o.SystemPrompt,
		store:   conversation.New(o.Budget),
		retry:   o.Retry,
		timeout: o.Timeout,
	}
}

func (c *core) Name() string { return c.name }

// History returns a copy of the conversation.
func (c *core) History() []schema.Message { return c.store.Messages() }

// Store exposes the conversation for inspection.
func (c *core) Store() *conversation.Store { return c.store }

// ExtractText returns the turn's answer text with reasoning blocks removed.
func (c *core) ExtractText(turn *schema.ModelTurn) string {
	if turn == nil {
		return ""
	}
	return strings.TrimSpace(llmutils.StripThink(turn.Text))
}

// ExtractToolCalls returns the turn's structured tool calls as produced by
// the backend.
func (c *core) ExtractToolCalls(turn *schema.ModelTurn) []schema.ToolCall {
	if turn == nil {
		return nil
	}
	return turn.ToolCalls
}

func (c *core) CommitTurn(turn *schema.ModelTurn) {
	if turn == nil {
		return
	}
	c.mu.Lock()
	if c.committed == turn {
		c.mu.Unlock()
		return
	}
	c.committed = turn
	c.mu.Unlock()

	c.store.Append(schema.NewAssistantMessage(c.ExtractText(turn), turn.ToolCalls))
}

func (c *core) AppendToolResult(result schema.ToolResult, turn *schema.ModelTurn) {
	c.CommitTurn(turn)
	c.store.Append(schema.NewToolResultMessage(result))
}

func (c *core) ClearHistory() {
	c.mu.Lock()
	c.committed = nil
	c.mu.Unlock()
	c.store.Clear()
}

func (c *core) Usage() schema.Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

// begin appends the user's text, if any, ahead of a model call.
func (c *core) begin(userText string) {
	if userText != "" {
		c.store.Append(schema.NewUserMessage(userText))
	}
}

func (c *core) account(in, out int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.InputTokens += in
	c.usage.OutputTokens += out
	c.usage.Calls++
}

// do runs one model call under the retry policy. Each attempt gets its
// own timeout; an attempt that times out while the caller is still
// waiting counts as transient.
func (c *core) do(ctx context.Context, fn func(context.Context) error) error {
	return c.retry.Do(ctx, c.name, func(ctx context.Context) error {
		actx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		err := fn(actx)
		if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return &schema.TransientBackendError{
				Provider: c.name,
				Err:      fmt.Errorf("model call timed out after %s", c.timeout),
			}
		}
		return err
	})
}
