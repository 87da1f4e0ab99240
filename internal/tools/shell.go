package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// deniedCommands are refused before anything runs.
var deniedCommands = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\b`), "recursive or forced delete"},
	{regexp.MustCompile(`(?i)\b(del\s+/[fq]|rmdir\s+/s)\b`), "recursive or forced delete"},
	{regexp.MustCompile(`(?i)(?:^|[;&|]\s*)format\b`), "disk format"},
	{regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`), "disk format"},
	{regexp.MustCompile(`(?i)\bdd\s+if=|>\s*/dev/sd`), "raw disk write"},
	{regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`), "power control"},
	{regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`), "fork bomb"},
}

var absolutePathRE = regexp.MustCompile(`(?:^|[\s|>])(/[^\s"'>]+)`)

// ExecResult is the payload of a command that ran, whatever its exit code.
type ExecResult struct {
	Command    string `json:"command"`
	WorkingDir string `json:"working_dir"`
	ExitCode   int    `json:"exit_code"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr,omitempty"`
}

// ExecTool runs a shell command in the workspace under a timeout.
type ExecTool struct {
	timeout             time.Duration
	workingDir          string
	restrictToWorkspace bool
}

// NewExecTool creates an ExecTool. An empty workingDir means the process
// working directory; a zero timeout means one minute.
func NewExecTool(workingDir string, timeout time.Duration, restrictToWorkspace bool) *ExecTool {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ExecTool{
		timeout:             timeout,
		workingDir:          workingDir,
		restrictToWorkspace: restrictToWorkspace,
	}
}

func (e *ExecTool) Name() string { return string(ToolExec) }
func (e *ExecTool) Description() string {
	return "Run a shell command and return its exit code, stdout and stderr as JSON. Destructive commands are refused."
}
func (e *ExecTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Shell command to run with sh -c"},
			"working_dir": {"type": "string", "description": "Directory to run in (defaults to the workspace)"}
		},
		"required": ["command"]
	}`)
}

func (e *ExecTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	command, _ := params["command"].(string)
	if strings.TrimSpace(command) == "" {
		return failure("command is required", nil), nil
	}

	dir := e.workingDir
	if wd, _ := params["working_dir"].(string); wd != "" {
		dir = wd
	}
	if dir == "" {
		dir, _ = os.Getwd()
	}

	if err := e.guard(command, dir); err != nil {
		slog.Warn("shell command refused", "command", command, "reason", err)
		return failure("command refused: "+err.Error(), map[string]any{"command": command}), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return failure(fmt.Sprintf("command timed out after %s", e.timeout), map[string]any{"command": command}), nil
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return failure(fmt.Sprintf("could not run command: %v", err), map[string]any{"command": command}), nil
	}

	res := ExecResult{
		Command:    command,
		WorkingDir: dir,
		ExitCode:   cmd.ProcessState.ExitCode(),
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}
	slog.Info("shell command finished", "command", command, "exit_code", res.ExitCode)
	return jsonString(res), nil
}

// guard reports why command may not run in dir, or nil.
func (e *ExecTool) guard(command, dir string) error {
	for _, d := range deniedCommands {
		if d.re.MatchString(command) {
			return errors.New(d.reason)
		}
	}
	if !e.restrictToWorkspace {
		return nil
	}

	if strings.Contains(command, "../") || strings.Contains(command, `..\`) {
		return errors.New("path traversal")
	}
	root, err := filepath.EvalSymlinks(dir)
	if err != nil {
		root = dir
	}
	for _, m := range absolutePathRE.FindAllStringSubmatch(command, -1) {
		p, err := filepath.EvalSymlinks(m[1])
		if err != nil {
			p = filepath.Clean(m[1])
		}
		if !within(p, root) {
			return fmt.Errorf("path %s is outside the workspace", m[1])
		}
	}
	return nil
}
