package agent

import (
	"time"

	"github.com/hugin/hugin/internal/config/units"
)

// OrchestratorConfig bounds one orchestration run.
type OrchestratorConfig struct {
	MaxIterations   int            `toml:"max_iterations" yaml:"max_iterations"`
	MaxResultLength int            `toml:"max_result_length" yaml:"max_result_length"`
	ParallelTools   bool           `toml:"parallel_tools" yaml:"parallel_tools"`
	ToolTimeout     units.Duration `toml:"tool_timeout" yaml:"tool_timeout"`
	SystemPrompt    string         `toml:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxIterations:   50,
		MaxResultLength: 10000,
		ToolTimeout:     units.Of(60 * time.Second),
	}
}

// HistoryConfig is the conversation budget. Zero ceilings mean unbounded;
// max_tokens wins over max_turns when both are set.
type HistoryConfig struct {
	MaxTokens     int `toml:"max_tokens" yaml:"max_tokens"`
	MaxTurns      int `toml:"max_turns" yaml:"max_turns"`
	CharsPerToken int `toml:"chars_per_token" yaml:"chars_per_token"`
	MinRecent     int `toml:"min_recent" yaml:"min_recent"`
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		MaxTokens:     100000,
		CharsPerToken: 4,
		MinRecent:     4,
	}
}

// RetryConfig is the backoff policy for transient backend errors.
type RetryConfig struct {
	MaxAttempts int            `toml:"max_attempts" yaml:"max_attempts"`
	BaseDelay   units.Duration `toml:"base_delay" yaml:"base_delay"`
	MaxDelay    units.Duration `toml:"max_delay" yaml:"max_delay"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   units.Of(time.Second),
		MaxDelay:    units.Of(30 * time.Second),
	}
}

// CompressConfig tunes tool-result compression. The threshold itself is
// orchestrator.max_result_length.
type CompressConfig struct {
	HeadRatio     float64 `toml:"head_ratio" yaml:"head_ratio"`
	TailRatio     float64 `toml:"tail_ratio" yaml:"tail_ratio"`
	SnippetLength int     `toml:"snippet_length" yaml:"snippet_length"`
	ReshapeDates  bool    `toml:"reshape_dates" yaml:"reshape_dates"`
}

func DefaultCompressConfig() CompressConfig {
	return CompressConfig{
		HeadRatio:     0.70,
		TailRatio:     0.10,
		SnippetLength: 200,
		ReshapeDates:  true,
	}
}

// ConnectionConfig bounds tool-provider recovery.
type ConnectionConfig struct {
	ReconnectLimit int            `toml:"reconnect_limit" yaml:"reconnect_limit"`
	ReconnectPause units.Duration `toml:"reconnect_pause" yaml:"reconnect_pause"`
	ConnectTimeout units.Duration `toml:"connect_timeout" yaml:"connect_timeout"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ReconnectLimit: 3,
		ReconnectPause: units.Of(500 * time.Millisecond),
		ConnectTimeout: units.Of(30 * time.Second),
	}
}
