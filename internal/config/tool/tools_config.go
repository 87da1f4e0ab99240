package tool

// ToolsConfig groups the built-in tool settings.
type ToolsConfig struct {
	// Workspace is the base directory for read_file, list_dir and exec.
	// Empty means the current working directory.
	Workspace           string         `toml:"workspace,omitempty" yaml:"workspace,omitempty"`
	RestrictToWorkspace bool           `toml:"restrict_to_workspace" yaml:"restrict_to_workspace"`
	Web                 WebToolsConfig `toml:"web" yaml:"web"`
	Exec                ExecToolConfig `toml:"exec" yaml:"exec"`
}

func DefaultToolConfigs() ToolsConfig {
	return ToolsConfig{
		Web:  DefaultWebToolsConfig(),
		Exec: DefaultExecToolConfig(),
	}
}
