package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPromptBuilder_Identity(t *testing.T) {
	pb := NewPromptBuilder("/work", "Answer in French.")
	pb.now = func() time.Time { return time.Date(2025, 11, 5, 14, 30, 0, 0, time.UTC) }

	got := pb.Build([]string{"hugin", "cal"})
	for _, want := range []string{
		"You are Hugin",
		"2025-11-05 14:30 (Wednesday) (UTC)",
		"Today's date is 2025-11-05.",
		"/work",
		"prefixed with their source: cal, hugin.",
		"Answer in French.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestPromptBuilder_NoTools(t *testing.T) {
	got := NewPromptBuilder("", "").Build(nil)
	if !strings.Contains(got, "No tools are connected.") {
		t.Errorf("prompt = %q", got)
	}
}

func TestPromptBuilder_BootstrapFiles(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "HUGIN.md"), []byte("Prefer metric units.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := NewPromptBuilder(ws, "").Build(nil)
	if !strings.Contains(got, "## HUGIN.md\n\nPrefer metric units.") {
		t.Errorf("bootstrap file not included:\n%s", got)
	}
	if strings.Contains(got, "AGENTS.md") {
		t.Error("missing files should be skipped")
	}
}
