package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelWarn,
		"":        slog.LevelWarn,
	}
	for in, want := range cases {
		if got := ParseLevel(in, slog.LevelWarn); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "hugin.json")
	closer, err := Setup(slog.LevelInfo, path)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	slog.Debug("hidden")
	slog.Info("tool dispatched", "tool", "hugin_write_file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"tool dispatched"`) || !strings.Contains(out, `"tool":"hugin_write_file"`) {
		t.Errorf("log missing record: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
}
