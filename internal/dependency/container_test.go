package dependency

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugin/hugin/internal/config"
	"github.com/hugin/hugin/internal/config/units"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.Model = "llama3.1"
	cfg.Tools.Workspace = t.TempDir()
	cfg.Transcript.Path = filepath.Join(t.TempDir(), "t.db")
	return &cfg
}

func TestNew_WiresSession(t *testing.T) {
	c, err := New(testConfig(t), "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := c.Session()
	defer s.Cleanup()

	if c.Transcript() == nil {
		t.Fatal("transcript should be open")
	}
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	found := false
	for _, d := range s.Catalog() {
		if d.Name == "hugin_calculate_date_range" {
			found = true
		}
	}
	if !found {
		t.Error("built-in date tool missing from catalog")
	}
}

func TestNew_TranscriptDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcript.Enabled = false
	c, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Transcript() != nil {
		t.Error("transcript should be nil when disabled")
	}
	c.Session().Cleanup()
}

func TestInitialize_UnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "bogus"
	cfg.Transcript.Enabled = false
	c, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Session().Initialize(context.Background()); err == nil {
		t.Error("Initialize should fail for an unknown provider")
	}
}

func TestProviderOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	cfg.History.MaxTurns = 12
	cfg.Retry.BaseDelay = units.Of(2 * time.Second)

	o := ProviderOptions(cfg, "system text")
	if o.APIKey != "env-key" {
		t.Errorf("api key = %q", o.APIKey)
	}
	if o.SystemPrompt != "system text" || o.Budget.MaxTurns != 12 || o.Retry.BaseDelay != 2*time.Second {
		t.Errorf("options = %+v", o)
	}
	if o.Timeout != 120*time.Second {
		t.Errorf("timeout = %v", o.Timeout)
	}
}
