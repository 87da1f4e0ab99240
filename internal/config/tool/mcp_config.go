package tool

import "github.com/hugin/hugin/internal/config/units"

// MCPServerConfig describes one MCP server connection (stdio or HTTP).
// A non-empty URL selects streamable HTTP; otherwise Command is spawned.
type MCPServerConfig struct {
	Command string            `toml:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty" yaml:"env,omitempty"`
	URL     string            `toml:"url,omitempty" yaml:"url,omitempty"`
	Headers map[string]string `toml:"headers,omitempty" yaml:"headers,omitempty"`
	Timeout units.Duration    `toml:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Disabled servers stay in the file but are never connected.
	Disabled bool `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// IsRemote reports whether the server is reached over HTTP.
func (c MCPServerConfig) IsRemote() bool { return c.URL != "" }
