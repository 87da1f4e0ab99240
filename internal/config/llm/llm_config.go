package llm

import (
	"os"
	"time"

	"github.com/hugin/hugin/internal/config/units"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderVLLM      = "vllm"
	ProviderOpenVINO  = "openvino"
)

// Config selects and configures the model backend.
type Config struct {
	Provider    string            `toml:"provider" yaml:"provider"`
	Model       string            `toml:"model" yaml:"model"`
	BaseURL     string            `toml:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey      string            `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
	MaxTokens   int               `toml:"max_tokens" yaml:"max_tokens"`
	Temperature float64           `toml:"temperature" yaml:"temperature"`
	Timeout     units.Duration    `toml:"timeout" yaml:"timeout"`
	Headers     map[string]string `toml:"headers,omitempty" yaml:"headers,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Provider:    ProviderAnthropic,
		Model:       "claude-sonnet-4-20250514",
		MaxTokens:   4096,
		Temperature: 0.7,
		Timeout:     units.Of(120 * time.Second),
	}
}

// envKeys maps a provider to the environment variable holding its API key.
var envKeys = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderVLLM:      "VLLM_API_KEY",
}

// ResolveAPIKey returns the configured key, falling back to the
// provider's environment variable.
func (c Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if env, ok := envKeys[c.Provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// EnvKey returns the environment variable consulted for the API key, or "".
func (c Config) EnvKey() string { return envKeys[c.Provider] }
