package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hugin/hugin/internal/compress"
	agentcfg "github.com/hugin/hugin/internal/config/agent"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/shared/llmutils"
	"github.com/hugin/hugin/internal/toolcall"
)

// BudgetExhaustedMessage is returned when a run uses every iteration
// without the model producing a plain answer.
const BudgetExhaustedMessage = "I've reached the maximum number of tool uses. Please try rephrasing your question."

// Dispatcher runs one tool call and always yields one result for it.
// *tools.Catalog is the production implementation.
type Dispatcher interface {
	Descriptors() []schema.ToolDescriptor
	Dispatch(ctx context.Context, call schema.ToolCall, timeout time.Duration) schema.ToolResult
}

// Outcome describes how a run ended.
type Outcome struct {
	Text           string
	Iterations     int
	ToolCalls      int
	BudgetExceeded bool
	// Err is the backend failure that ended the run, if any. Text already
	// carries a user-facing description of it.
	Err error
}

// Orchestrator drives model turns and tool dispatch for one conversation.
// Model turns are strictly sequential; Run must not be called concurrently.
type Orchestrator struct {
	adapter    schema.Adapter
	tools      Dispatcher
	compressor *compress.Compressor
	cfg        agentcfg.OrchestratorConfig
	calls      toolcall.Normalizer
}

// NewOrchestrator wires an adapter to a tool dispatcher.
func NewOrchestrator(adapter schema.Adapter, tools Dispatcher, compressor *compress.Compressor, cfg agentcfg.OrchestratorConfig) *Orchestrator {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = agentcfg.DefaultOrchestratorConfig().MaxIterations
	}
	if compressor == nil {
		compressor = compress.New(compress.Config{Threshold: cfg.MaxResultLength})
	}
	return &Orchestrator{adapter: adapter, tools: tools, compressor: compressor, cfg: cfg}
}

// SetMaxIterations overrides the iteration budget for subsequent runs.
func (o *Orchestrator) SetMaxIterations(n int) {
	if n > 0 {
		o.cfg.MaxIterations = n
	}
}

// Run answers text, calling tools as the model asks.
//
// Backend failures end the run with a descriptive Outcome.Text and a nil
// error; the only error returned is the context's once it is cancelled.
// onProgress, when set, receives a short hint before each tool batch.
func (o *Orchestrator) Run(ctx context.Context, text string, onProgress func(string)) (Outcome, error) {
	var out Outcome
	catalog := o.tools.Descriptors()
	input := text

	for out.Iterations < o.cfg.MaxIterations {
		out.Iterations++
		iteration := out.Iterations

		turn, err := o.adapter.SendTurn(ctx, input, catalog)
		input = ""
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			slog.Error("model call failed", "adapter", o.adapter.Name(), "iteration", iteration, "err", err)
			out.Err = err
			out.Text = describeBackendError(o.adapter.Name(), err)
			return out, nil
		}

		answer := o.adapter.ExtractText(turn)
		calls := o.calls.Normalize(o.adapter.ExtractToolCalls(turn), answer)
		slog.Debug("model turn", "iteration", iteration, "tool_calls", len(calls), "stop", turn.StopReason)

		if len(calls) == 0 {
			o.adapter.CommitTurn(turn)
			out.Text = llmutils.StripThink(answer)
			return out, nil
		}

		turn.ToolCalls = calls
		if onProgress != nil {
			if hint := llmutils.StripThink(answer); hint != "" {
				onProgress(hint)
			}
			onProgress(llmutils.ToolHints(calls))
		}

		results := o.dispatch(ctx, calls)
		out.ToolCalls += len(calls)
		for _, r := range results {
			r.Content = o.compressor.Compress(r.Content)
			o.adapter.AppendToolResult(r, turn)
		}

		if err := ctx.Err(); err != nil {
			return out, err
		}
	}

	slog.Warn("iteration budget exhausted", "max_iterations", o.cfg.MaxIterations, "tool_calls", out.ToolCalls)
	out.BudgetExceeded = true
	out.Text = BudgetExhaustedMessage
	return out, nil
}

// dispatch returns one result per call, in call order.
func (o *Orchestrator) dispatch(ctx context.Context, calls []schema.ToolCall) []schema.ToolResult {
	timeout := o.cfg.ToolTimeout.Duration
	results := make([]schema.ToolResult, len(calls))

	if !o.cfg.ParallelTools || len(calls) == 1 {
		for i, call := range calls {
			if ctx.Err() != nil {
				results[i] = schema.FailedResult(call, "Error: tool call %s was cancelled", call.Name)
				continue
			}
			slog.Info("tool call", "tool", call.Name, "args", llmutils.Truncate(call.ArgumentsJSON(), 200))
			results[i] = o.tools.Dispatch(ctx, call, timeout)
		}
		return results
	}

	// Dispatch never fails, so the group is only used for fan-out.
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			slog.Info("tool call", "tool", call.Name, "args", llmutils.Truncate(call.ArgumentsJSON(), 200))
			results[i] = o.tools.Dispatch(ctx, call, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func describeBackendError(adapter string, err error) string {
	if schema.IsTransient(err) {
		return fmt.Sprintf("The %s model service is not responding right now (%v). Please try again in a moment.", adapter, err)
	}
	return fmt.Sprintf("The %s model service rejected the request: %v", adapter, err)
}
