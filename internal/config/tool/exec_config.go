package tool

import (
	"time"

	"github.com/hugin/hugin/internal/config/units"
)

// ExecToolConfig configures the shell-exec tool.
type ExecToolConfig struct {
	Enabled bool           `toml:"enabled" yaml:"enabled"`
	Timeout units.Duration `toml:"timeout" yaml:"timeout"`
}

func DefaultExecToolConfig() ExecToolConfig {
	return ExecToolConfig{Enabled: true, Timeout: units.Of(60 * time.Second)}
}
