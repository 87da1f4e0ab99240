package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hugin/hugin/internal/compress"
	agentcfg "github.com/hugin/hugin/internal/config/agent"
	"github.com/hugin/hugin/internal/mcp"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/shared/llmutils"
	"github.com/hugin/hugin/internal/tools"
	"github.com/hugin/hugin/internal/transcript"
)

// ErrNotInitialized is returned by ProcessMessage before Initialize succeeds.
var ErrNotInitialized = errors.New("session not initialized")

// AdapterFactory creates the model adapter once the system prompt is known.
type AdapterFactory func(systemPrompt string) (schema.Adapter, error)

// Recorder persists finished exchanges. *transcript.Store implements it.
type Recorder interface {
	Record(ctx context.Context, e transcript.Exchange) (int64, error)
}

// SessionOptions are the collaborators of a Session.
type SessionOptions struct {
	NewAdapter   AdapterFactory
	Servers      *mcp.Manager    // may be nil: no remote tools
	Builtins     *tools.Registry // may be nil: no built-in tools
	Compressor   *compress.Compressor
	Prompts      *PromptBuilder
	Transcript   Recorder // may be nil
	Orchestrator agentcfg.OrchestratorConfig
	// OnProgress, when set, receives short hints while tools run.
	OnProgress func(string)
}

// Session hosts one conversation: it owns the tool connections, the
// catalog built from them and the adapter holding the history.
type Session struct {
	opts SessionOptions

	mu      sync.Mutex // serialises Initialize and ProcessMessage
	adapter schema.Adapter
	catalog *tools.Catalog
	orch    *Orchestrator

	cleanupOnce sync.Once
}

func NewSession(opts SessionOptions) *Session {
	if opts.Servers == nil {
		opts.Servers = mcp.NewManager()
	}
	if opts.Prompts == nil {
		opts.Prompts = NewPromptBuilder("", "")
	}
	return &Session{opts: opts}
}

// Initialize connects every configured tool server, builds the catalog
// and creates the adapter. Servers that fail to connect are logged and
// contribute no tools. Calling it again after success is a no-op.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orch != nil {
		return nil
	}

	connected := s.opts.Servers.ConnectAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	b := tools.NewCatalogBuilder()
	if s.opts.Builtins != nil {
		b.WithSource(tools.BuiltinPrefix, s.opts.Builtins, s.opts.Builtins.Descriptors())
	}
	for _, c := range s.opts.Servers.Connections() {
		if !c.IsConnected() {
			continue
		}
		b.WithSource(c.Name(), c, c.Tools())
	}
	catalog, err := b.Build()
	if err != nil {
		return fmt.Errorf("build tool catalog: %w", err)
	}

	adapter, err := s.opts.NewAdapter(s.opts.Prompts.Build(catalog.Sources()))
	if err != nil {
		return fmt.Errorf("create model adapter: %w", err)
	}

	s.catalog = catalog
	s.adapter = adapter
	s.orch = NewOrchestrator(adapter, catalog, s.opts.Compressor, s.opts.Orchestrator)
	slog.Info("session ready",
		"adapter", adapter.Name(),
		"servers", connected,
		"tools", catalog.Len(),
	)
	return nil
}

// SetMaxIterations overrides the iteration budget. It must follow Initialize.
func (s *Session) SetMaxIterations(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orch != nil {
		s.orch.SetMaxIterations(n)
	}
}

// SetProgressHandler replaces the tool progress callback.
func (s *Session) SetProgressHandler(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.OnProgress = fn
}

// ProcessMessage runs one orchestration for text and returns the answer.
// The only errors are ErrNotInitialized and context cancellation; a
// cancelled turn leaves the session usable.
func (s *Session) ProcessMessage(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orch == nil {
		return "", ErrNotInitialized
	}

	slog.Info("processing message", "content", llmutils.Truncate(text, 80))
	start := time.Now()
	out, err := s.orch.Run(ctx, text, s.opts.OnProgress)
	slog.Info("message processed",
		"iterations", out.Iterations,
		"tool_calls", out.ToolCalls,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	s.record(ctx, transcript.Exchange{
		StartedAt:  start,
		Duration:   time.Since(start),
		Prompt:     text,
		Answer:     out.Text,
		Iterations: out.Iterations,
		ToolCalls:  out.ToolCalls,
		Error:      errText(err, out.Err),
	})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func (s *Session) record(ctx context.Context, e transcript.Exchange) {
	if s.opts.Transcript == nil {
		return
	}
	if _, err := s.opts.Transcript.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("transcript write failed", "err", err)
	}
}

func errText(errs ...error) string {
	for _, err := range errs {
		if err != nil {
			return err.Error()
		}
	}
	return ""
}

// Catalog returns the session's tools; nil before Initialize.
func (s *Session) Catalog() []schema.ToolDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Descriptors()
}

// Connections returns every configured tool server.
func (s *Session) Connections() []*mcp.Connection {
	return s.opts.Servers.Connections()
}

// ClearHistory drops the conversation, anchor included.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adapter != nil {
		s.adapter.ClearHistory()
	}
}

// Usage reports cumulative model consumption.
func (s *Session) Usage() schema.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adapter == nil {
		return schema.Usage{}
	}
	return s.adapter.Usage()
}

// Cleanup disconnects every tool server and closes the transcript. It is
// safe to call more than once and after a cancelled turn.
func (s *Session) Cleanup() {
	s.cleanupOnce.Do(func() {
		s.opts.Servers.Close()
		if c, ok := s.opts.Transcript.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Warn("transcript close failed", "err", err)
			}
		}
		slog.Debug("session cleaned up")
	})
}
