package tool

// WebSearchConfig configures the Brave web-search tool.
type WebSearchConfig struct {
	APIKey     string `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
	MaxResults int    `toml:"max_results" yaml:"max_results"`
}

func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{MaxResults: 5}
}

// WebToolsConfig groups web-related tool settings.
type WebToolsConfig struct {
	Enabled bool            `toml:"enabled" yaml:"enabled"`
	Search  WebSearchConfig `toml:"search" yaml:"search"`
}

func DefaultWebToolsConfig() WebToolsConfig {
	return WebToolsConfig{Enabled: true, Search: DefaultWebSearchConfig()}
}
