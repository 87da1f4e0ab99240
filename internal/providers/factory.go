package providers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hugin/hugin/internal/conversation"
	"github.com/hugin/hugin/internal/schema"
)

// Options are the raw values needed to construct any adapter.
// Extracted from config.Config by the caller to avoid an import cycle.
type Options struct {
	Provider     string // registry name, e.g. "anthropic", "ollama"
	Model        string
	APIKey       string
	BaseURL      string
	MaxTokens    int
	Temperature  float64
	Headers      map[string]string
	SystemPrompt string

	Budget  conversation.Budget
	Retry   RetryPolicy
	Timeout time.Duration // per model call

	HTTPClient *http.Client // optional
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return 4096
	}
	return o.MaxTokens
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	// Per-call deadlines come from the context.
	return &http.Client{}
}

// New creates the adapter variant named by o.Provider.
func New(o Options) (schema.Adapter, error) {
	spec := FindByName(o.Provider)
	if spec == nil {
		return nil, fmt.Errorf("unknown LLM provider %q (supported: %s)",
			o.Provider, strings.Join(Names(), ", "))
	}
	if o.BaseURL == "" {
		o.BaseURL = spec.DefaultAPIBase
	}
	if spec.NeedsAPIKey && o.APIKey == "" {
		return nil, fmt.Errorf("%s: no API key configured (set llm.api_key)", spec.Name)
	}
	if o.Model == "" {
		return nil, fmt.Errorf("%s: no model configured (set llm.model)", spec.Name)
	}

	switch spec.Name {
	case "anthropic":
		return NewAnthropicAdapter(o), nil
	case "openai":
		return NewOpenAIAdapter(o), nil
	case "ollama":
		return NewOllamaAdapter(o), nil
	default:
		return NewTextChatAdapter(spec.Name, o), nil
	}
}
