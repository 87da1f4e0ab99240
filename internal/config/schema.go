// Package config defines the configuration schema for hugin.
//
// The file is TOML (~/.hugin/config.toml) with snake_case keys; a path
// ending in .yaml or .yml is read as YAML with the same keys.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hugin/hugin/internal/config/agent"
	"github.com/hugin/hugin/internal/config/llm"
	"github.com/hugin/hugin/internal/config/tool"
)

// TranscriptConfig controls the local record of exchanges.
type TranscriptConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path,omitempty" yaml:"path,omitempty"`
}

// Config is the root configuration.
type Config struct {
	LLM          llm.Config                      `toml:"llm" yaml:"llm"`
	Servers      map[string]tool.MCPServerConfig `toml:"servers" yaml:"servers"`
	Orchestrator agent.OrchestratorConfig        `toml:"orchestrator" yaml:"orchestrator"`
	History      agent.HistoryConfig             `toml:"history" yaml:"history"`
	Retry        agent.RetryConfig               `toml:"retry" yaml:"retry"`
	Compress     agent.CompressConfig            `toml:"compress" yaml:"compress"`
	Connection   agent.ConnectionConfig          `toml:"connection" yaml:"connection"`
	Tools        tool.ToolsConfig                `toml:"tools" yaml:"tools"`
	Transcript   TranscriptConfig                `toml:"transcript" yaml:"transcript"`
}

func DefaultConfig() Config {
	return Config{
		LLM:          llm.DefaultConfig(),
		Servers:      map[string]tool.MCPServerConfig{},
		Orchestrator: agent.DefaultOrchestratorConfig(),
		History:      agent.DefaultHistoryConfig(),
		Retry:        agent.DefaultRetryConfig(),
		Compress:     agent.DefaultCompressConfig(),
		Connection:   agent.DefaultConnectionConfig(),
		Tools:        tool.DefaultToolConfigs(),
		Transcript:   TranscriptConfig{Enabled: true},
	}
}

// WorkspacePath returns the expanded workspace directory, or the current
// working directory when none is configured.
func (c *Config) WorkspacePath() string {
	ws := c.Tools.Workspace
	if ws == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	return ExpandHome(ws)
}

// TranscriptPath returns the expanded transcript database path.
func (c *Config) TranscriptPath() string {
	if c.Transcript.Path == "" {
		return filepath.Join(DataDir(), "transcripts.db")
	}
	return ExpandHome(c.Transcript.Path)
}

// ServerNames returns the enabled server names in sorted order.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name, s := range c.Servers {
		if s.Disabled {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
