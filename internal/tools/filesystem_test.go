package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, tool *WriteFileTool, params map[string]any) map[string]any {
	t.Helper()
	out, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return m
}

// ─── WriteFileTool ───

func TestWriteFile_CreatesWithDirs(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteFileTool(dir)

	res := writeFile(t, tool, map[string]any{"file_path": "notes/today.md", "content": "# hi\n"})
	if res["success"] != true {
		t.Fatalf("result = %v", res)
	}
	want := filepath.Join(dir, "notes", "today.md")
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "# hi\n" {
		t.Fatalf("file = %q, %v", data, err)
	}
	if res["file_type"] != ".md" || res["file_size"] != float64(5) {
		t.Errorf("metadata = %v", res)
	}
	if res["message"] != "Successfully wrote 5 bytes to today.md" {
		t.Errorf("message = %v", res["message"])
	}
}

func TestWriteFile_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewWriteFileTool(dir)

	res := writeFile(t, tool, map[string]any{"file_path": path, "content": "new"})
	if res["success"] != false || res["file_exists"] != true {
		t.Fatalf("result = %v", res)
	}
	if data, _ := os.ReadFile(path); string(data) != "original" {
		t.Errorf("file was modified: %q", data)
	}

	res = writeFile(t, tool, map[string]any{"file_path": path, "content": "new", "overwrite": true})
	if res["success"] != true {
		t.Fatalf("overwrite result = %v", res)
	}
	if data, _ := os.ReadFile(path); string(data) != "new" {
		t.Errorf("file = %q", data)
	}
}

func TestWriteFile_NoCreateDirs(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteFileTool(dir)

	res := writeFile(t, tool, map[string]any{"file_path": "missing/x.txt", "content": "x", "create_dirs": false})
	if res["success"] != false {
		t.Fatalf("result = %v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Error("directory was created")
	}
}

func TestWriteFile_RestrictedDirs(t *testing.T) {
	tool := NewWriteFileTool(t.TempDir())
	for _, p := range []string{"/etc/hugin.conf", "/proc/self/x", "/dev/null2"} {
		res := writeFile(t, tool, map[string]any{"file_path": p, "content": "x"})
		if res["success"] != false || !strings.Contains(res["error"].(string), "restricted system directory") {
			t.Errorf("%s: result = %v", p, res)
		}
	}
}

func TestWriteFile_RequiresPath(t *testing.T) {
	res := writeFile(t, NewWriteFileTool(""), map[string]any{"content": "x"})
	if res["error"] != "file_path is required" {
		t.Errorf("result = %v", res)
	}
}

func TestWriteFile_NoExtension(t *testing.T) {
	dir := t.TempDir()
	res := writeFile(t, NewWriteFileTool(dir), map[string]any{"file_path": "Makefile", "content": "all:\n"})
	if res["file_type"] != "no extension" {
		t.Errorf("file_type = %v", res["file_type"])
	}
}

// ─── ReadFileTool / ListDirTool ───

func TestReadFile_WorkspaceRestriction(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "a.txt"), []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool := NewReadFileTool(ws, ws)

	out, _ := tool.Execute(context.Background(), map[string]any{"path": "a.txt"})
	if out != "alpha" {
		t.Errorf("read = %q", out)
	}
	out, _ = tool.Execute(context.Background(), map[string]any{"path": "../outside.txt"})
	if msg, failed := failureText(out); !failed || !strings.Contains(msg, "outside allowed directory") {
		t.Errorf("escape allowed: %q", out)
	}
	out, _ = tool.Execute(context.Background(), map[string]any{"path": "nope.txt"})
	if !strings.Contains(out, "File not found") {
		t.Errorf("missing file: %q", out)
	}
}

func TestListDir(t *testing.T) {
	ws := t.TempDir()
	if err := os.Mkdir(filepath.Join(ws, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws, "b.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ := NewListDirTool(ws, "").Execute(context.Background(), map[string]any{"path": "."})
	if out != "[F] b.txt\n[D] sub" {
		t.Errorf("listing = %q", out)
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/etc", "/etc", true},
		{"/etc/passwd", "/etc", true},
		{"/etcetera/file", "/etc", false},
		{"/home/user", "/etc", false},
	}
	for _, tt := range tests {
		if got := within(tt.path, tt.dir); got != tt.want {
			t.Errorf("within(%q, %q) = %v", tt.path, tt.dir, got)
		}
	}
}
