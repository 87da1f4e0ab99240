package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hugin/hugin/internal/config"
)

// restrictedDirs may never be written to.
var restrictedDirs = []string{"/etc", "/sys", "/proc", "/dev", "/boot"}

// resolvePath resolves path against workspace (if relative) and rejects
// anything outside allowedDir when allowedDir is set.
func resolvePath(path, workspace, allowedDir string) (string, error) {
	p := config.ExpandHome(path)
	if !filepath.IsAbs(p) && workspace != "" {
		p = filepath.Join(workspace, p)
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Not there yet.
		resolved = filepath.Clean(p)
	}
	if allowedDir != "" && !within(resolved, filepath.Clean(allowedDir)) {
		return "", fmt.Errorf("path %s is outside allowed directory %s", path, allowedDir)
	}
	return resolved, nil
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ---------------------------------------------------------------------------
// ReadFileTool
// ---------------------------------------------------------------------------

// ReadFileTool reads a file and returns its contents.
type ReadFileTool struct {
	workspace  string
	allowedDir string
}

func NewReadFileTool(workspace, allowedDir string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace, allowedDir: allowedDir}
}

func (t *ReadFileTool) Name() string        { return string(ToolReadFile) }
func (t *ReadFileTool) Description() string { return "Read the contents of a text file." }
func (t *ReadFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path, absolute or relative to the workspace"}
		},
		"required": ["path"]
	}`)
}

func (t *ReadFileTool) Execute(_ context.Context, params map[string]any) (string, error) {
	path, _ := params["path"].(string)
	if path == "" {
		return failure("path is required", nil), nil
	}
	fp, err := resolvePath(path, t.workspace, t.allowedDir)
	if err != nil {
		return failure(err.Error(), map[string]any{"path": path}), nil
	}
	info, err := os.Stat(fp)
	switch {
	case err != nil:
		return failure("File not found: "+path, nil), nil
	case !info.Mode().IsRegular():
		return failure("Not a file: "+path, nil), nil
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return failure(fmt.Sprintf("reading %s: %v", path, err), nil), nil
	}
	return string(data), nil
}

// ---------------------------------------------------------------------------
// WriteFileTool
// ---------------------------------------------------------------------------

// WriteFileTool writes text files. It refuses system directories and
// will not replace an existing file unless overwrite is set. Results are
// JSON objects with a success flag.
type WriteFileTool struct {
	workingDir string
}

// NewWriteFileTool resolves relative paths against workingDir, or the
// process working directory when empty.
func NewWriteFileTool(workingDir string) *WriteFileTool {
	return &WriteFileTool{workingDir: workingDir}
}

func (t *WriteFileTool) Name() string { return string(ToolWriteFile) }
func (t *WriteFileTool) Description() string {
	return "Write content to a file. Supports any text-based file format including " +
		"code files (py, js, ts, etc.), documentation (md, txt, rst), " +
		"data files (json, yaml, toml, csv, xml), and configuration files. " +
		"Can create parent directories automatically."
}
func (t *WriteFileTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {
				"type": "string",
				"description": "Path to the file to write (absolute or relative to current directory). Example: '/home/user/document.txt' or 'output/data.json'"
			},
			"content": {"type": "string", "description": "The content to write to the file"},
			"overwrite": {"type": "boolean", "description": "Whether to overwrite the file if it already exists (default: false)"},
			"create_dirs": {"type": "boolean", "description": "Whether to create parent directories if they don't exist (default: true)"}
		},
		"required": ["file_path", "content"]
	}`)
}

// WriteResult is the success payload of WriteFileTool.
type WriteResult struct {
	Success      bool   `json:"success"`
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size"`
	FileType     string `json:"file_type"`
	Message      string `json:"message"`
	AbsolutePath string `json:"absolute_path"`
}

func (t *WriteFileTool) Execute(_ context.Context, params map[string]any) (string, error) {
	raw, _ := params["file_path"].(string)
	raw = strings.TrimSpace(raw)
	content, _ := params["content"].(string)
	overwrite := boolParam(params, "overwrite", false)
	createDirs := boolParam(params, "create_dirs", true)

	if raw == "" {
		return writeFailure("file_path is required", nil), nil
	}

	path := config.ExpandHome(raw)
	if !filepath.IsAbs(path) {
		base := t.workingDir
		if base == "" {
			base, _ = os.Getwd()
		}
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)

	resolved := path
	if r, err := filepath.EvalSymlinks(path); err == nil {
		resolved = r
	} else if r, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		resolved = filepath.Join(r, filepath.Base(path))
	}
	for _, dir := range restrictedDirs {
		if within(path, dir) || within(resolved, dir) {
			slog.Warn("write to restricted directory refused", "path", resolved)
			return writeFailure("Cannot write to restricted system directory: "+dir,
				map[string]any{"file_path": resolved}), nil
		}
	}

	if _, err := os.Stat(path); err == nil && !overwrite {
		return writeFailure(fmt.Sprintf("File already exists: %s. Set overwrite=true to replace it.", path),
			map[string]any{"file_path": path, "file_exists": true}), nil
	}

	if createDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return writeFailure(fmt.Sprintf("OS error creating directories: %v", err),
				map[string]any{"file_path": raw}), nil
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		msg := fmt.Sprintf("OS error writing file: %v", err)
		if errors.Is(err, fs.ErrPermission) {
			msg = "Permission denied: Cannot write to " + raw
		}
		return writeFailure(msg, map[string]any{"file_path": raw}), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return writeFailure(fmt.Sprintf("OS error reading back file: %v", err), map[string]any{"file_path": raw}), nil
	}
	fileType := filepath.Ext(path)
	if fileType == "" {
		fileType = "no extension"
	}
	abs, _ := filepath.Abs(resolved)
	slog.Info("wrote file", "path", path, "bytes", info.Size())

	out, _ := json.MarshalIndent(WriteResult{
		Success:      true,
		FilePath:     path,
		FileSize:     info.Size(),
		FileType:     fileType,
		Message:      fmt.Sprintf("Successfully wrote %d bytes to %s", info.Size(), filepath.Base(path)),
		AbsolutePath: abs,
	}, "", "  ")
	return string(out), nil
}

func writeFailure(msg string, extra map[string]any) string {
	m := map[string]any{"success": false}
	for k, v := range extra {
		m[k] = v
	}
	return failure(msg, m)
}

func boolParam(params map[string]any, key string, def bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return def
}

// ---------------------------------------------------------------------------
// ListDirTool
// ---------------------------------------------------------------------------

// ListDirTool lists directory contents.
type ListDirTool struct {
	workspace  string
	allowedDir string
}

func NewListDirTool(workspace, allowedDir string) *ListDirTool {
	return &ListDirTool{workspace: workspace, allowedDir: allowedDir}
}

func (t *ListDirTool) Name() string        { return string(ToolListDir) }
func (t *ListDirTool) Description() string { return "List the contents of a directory." }
func (t *ListDirTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Directory path, absolute or relative to the workspace"}
		},
		"required": ["path"]
	}`)
}

func (t *ListDirTool) Execute(_ context.Context, params map[string]any) (string, error) {
	path, _ := params["path"].(string)
	if path == "" {
		path = "."
	}
	dp, err := resolvePath(path, t.workspace, t.allowedDir)
	if err != nil {
		return failure(err.Error(), map[string]any{"path": path}), nil
	}
	entries, err := os.ReadDir(dp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure("Directory not found: "+path, nil), nil
		}
		return failure(fmt.Sprintf("listing %s: %v", path, err), nil), nil
	}
	if len(entries) == 0 {
		return fmt.Sprintf("Directory %s is empty", path), nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		prefix := "[F] "
		if e.IsDir() {
			prefix = "[D] "
		}
		lines = append(lines, prefix+e.Name())
	}
	return strings.Join(lines, "\n"), nil
}
