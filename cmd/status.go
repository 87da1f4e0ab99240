package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/providers"
	"github.com/hugin/hugin/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()
	fmt.Printf("%s\n\n", cmdutils.TitleStyle.Render("hugin status"))

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:     %s %s\n", cfgPath, cmdutils.Mark(statErr == nil))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	_, wsErr := os.Stat(ws)
	fmt.Printf("Workspace:  %s %s\n", ws, cmdutils.Mark(wsErr == nil))

	l := cfg.LLM
	label := l.Provider
	if spec := providers.FindByName(l.Provider); spec != nil {
		label = spec.Label()
		base := l.BaseURL
		if base == "" {
			base = spec.DefaultAPIBase
		}
		fmt.Printf("Provider:   %s (%s)\n", label, base)
		if spec.NeedsAPIKey {
			keyNote := "set"
			if l.ResolveAPIKey() == "" {
				keyNote = "not set"
				if env := l.EnvKey(); env != "" {
					keyNote += ", checked " + env
				}
			}
			fmt.Printf("API key:    %s %s\n", cmdutils.Mark(l.ResolveAPIKey() != ""), keyNote)
		}
	} else {
		fmt.Printf("Provider:   %s %s unknown (supported: %s)\n", label, cmdutils.Mark(false), strings.Join(providers.Names(), ", "))
	}
	fmt.Printf("Model:      %s\n", l.Model)

	if cfg.Transcript.Enabled {
		fmt.Printf("Transcript: %s\n", cfg.TranscriptPath())
	} else {
		fmt.Println("Transcript: disabled")
	}

	names := cfg.ServerNames()
	fmt.Printf("\nServers (%d):\n", len(names))
	if len(names) == 0 {
		fmt.Printf("  none; add a [servers.<name>] section to %s\n", cfgPath)
	}
	for _, name := range names {
		s := cfg.Servers[name]
		target := s.URL
		if !s.IsRemote() {
			target = strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
		}
		fmt.Printf("  %-20s %s\n", name, target)
	}
	return nil
}
