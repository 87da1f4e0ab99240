// Package dependency wires hugin's services using go.uber.org/dig.
package dependency

import (
	"log/slog"

	"go.uber.org/dig"

	"github.com/hugin/hugin/internal/agent"
	"github.com/hugin/hugin/internal/compress"
	"github.com/hugin/hugin/internal/config"
	"github.com/hugin/hugin/internal/conversation"
	"github.com/hugin/hugin/internal/mcp"
	"github.com/hugin/hugin/internal/providers"
	"github.com/hugin/hugin/internal/schema"
	"github.com/hugin/hugin/internal/tools"
	"github.com/hugin/hugin/internal/transcript"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg        *config.Config
	session    *agent.Session
	transcript *transcript.Store
}

func (c *Container) Config() *config.Config { return c.cfg }
func (c *Container) Session() *agent.Session { return c.session }

// Transcript returns the exchange log, or nil when it is disabled or
// could not be opened.
func (c *Container) Transcript() *transcript.Store { return c.transcript }

// Version is reported to MCP servers during the handshake.
type Version string

// New builds and wires all services from cfg. Nothing connects until
// Session().Initialize is called.
func New(cfg *config.Config, version string) (*Container, error) {
	d := dig.New()

	ctors := []any{
		func() *config.Config { return cfg },
		func() Version { return Version(version) },
		newCompressor,
		newServerManager,
		newBuiltins,
		newPromptBuilder,
		newTranscript,
		newAdapterFactory,
		newSession,
	}
	for _, p := range ctors {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(s *agent.Session, ts *transcript.Store) {
		result = &Container{cfg: cfg, session: s, transcript: ts}
	})
	return result, err
}

func newCompressor(cfg *config.Config) *compress.Compressor {
	cc := cfg.Compress
	return compress.New(compress.Config{
		Threshold:     cfg.Orchestrator.MaxResultLength,
		HeadRatio:     cc.HeadRatio,
		TailRatio:     cc.TailRatio,
		SnippetLength: cc.SnippetLength,
		Reshape:       cc.ReshapeDates,
	})
}

func newServerManager(cfg *config.Config, v Version) *mcp.Manager {
	return mcp.FromConfig(cfg.Servers, cfg.Connection, string(v))
}

func newBuiltins(cfg *config.Config) *tools.Registry {
	return tools.NewBuiltins(cfg)
}

func newPromptBuilder(cfg *config.Config) *agent.PromptBuilder {
	return agent.NewPromptBuilder(cfg.WorkspacePath(), cfg.Orchestrator.SystemPrompt)
}

// newTranscript never fails: an unusable database only disables the log.
func newTranscript(cfg *config.Config) *transcript.Store {
	if !cfg.Transcript.Enabled {
		return nil
	}
	ts, err := transcript.Open(cfg.TranscriptPath())
	if err != nil {
		slog.Warn("transcript disabled", "path", cfg.TranscriptPath(), "err", err)
		return nil
	}
	return ts
}

// ProviderOptions maps configuration onto adapter options.
func ProviderOptions(cfg *config.Config, systemPrompt string) providers.Options {
	l := cfg.LLM
	h := cfg.History
	r := cfg.Retry
	return providers.Options{
		Provider:     l.Provider,
		Model:        l.Model,
		APIKey:       l.ResolveAPIKey(),
		BaseURL:      l.BaseURL,
		MaxTokens:    l.MaxTokens,
		Temperature:  l.Temperature,
		Headers:      l.Headers,
		SystemPrompt: systemPrompt,
		Budget: conversation.Budget{
			MaxTokens:     h.MaxTokens,
			MaxTurns:      h.MaxTurns,
			CharsPerToken: h.CharsPerToken,
			MinRecent:     h.MinRecent,
		},
		Retry: providers.RetryPolicy{
			MaxAttempts: r.MaxAttempts,
			BaseDelay:   r.BaseDelay.Duration,
			MaxDelay:    r.MaxDelay.Duration,
		},
		Timeout: l.Timeout.Duration,
	}
}

func newAdapterFactory(cfg *config.Config) agent.AdapterFactory {
	return func(systemPrompt string) (schema.Adapter, error) {
		return providers.New(ProviderOptions(cfg, systemPrompt))
	}
}

func newSession(
	cfg *config.Config,
	newAdapter agent.AdapterFactory,
	servers *mcp.Manager,
	builtins *tools.Registry,
	compressor *compress.Compressor,
	prompts *agent.PromptBuilder,
	ts *transcript.Store,
) *agent.Session {
	opts := agent.SessionOptions{
		NewAdapter:   newAdapter,
		Servers:      servers,
		Builtins:     builtins,
		Compressor:   compressor,
		Prompts:      prompts,
		Orchestrator: cfg.Orchestrator,
	}
	// A nil *Store must not become a non-nil Recorder.
	if ts != nil {
		opts.Transcript = ts
	}
	return agent.NewSession(opts)
}
