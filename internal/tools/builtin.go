package tools

import (
	"github.com/hugin/hugin/internal/config"
	"github.com/hugin/hugin/internal/schema"
)

// NewBuiltins assembles the built-in tool set from configuration. The
// date resolver and file writer are always present; the rest follow
// their enable flags.
func NewBuiltins(cfg *config.Config) *Registry {
	tc := cfg.Tools
	workspace := cfg.WorkspacePath()
	allowedDir := ""
	if tc.RestrictToWorkspace {
		allowedDir = workspace
	}

	tools := []schema.Tool{
		NewDateRangeTool(),
		NewWriteFileTool(""),
		NewReadFileTool(workspace, allowedDir),
		NewListDirTool(workspace, allowedDir),
	}
	if tc.Exec.Enabled {
		tools = append(tools, NewExecTool(workspace, tc.Exec.Timeout.Duration, tc.RestrictToWorkspace))
	}
	if tc.Web.Enabled {
		tools = append(tools,
			NewWebSearchTool(tc.Web.Search.APIKey, tc.Web.Search.MaxResults),
			NewWebFetchTool(),
		)
	}
	return NewRegistry(tools...)
}
