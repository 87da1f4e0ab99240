package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/config"
	"github.com/hugin/hugin/internal/shared/cmdutils"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Write a default configuration file",
	RunE:  runOnboard,
}

const exampleServer = `[servers.calendar]
command = "npx"
args = ["-y", "@example/calendar-mcp"]
timeout = "30s"`

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("%s Config refreshed at %s\n", cmdutils.Mark(true), cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("%s Created config at %s\n", cmdutils.Mark(true), cfgPath)
	}

	fmt.Printf("\n%s\n\n", cmdutils.TitleStyle.Render("hugin is ready"))
	fmt.Println("Next steps:")
	fmt.Printf("  1. Set llm.provider and llm.model in %s (or export ANTHROPIC_API_KEY)\n", cfgPath)
	fmt.Println("  2. Add a tool server, for example:")
	fmt.Println()
	fmt.Println(exampleServer)
	fmt.Println()
	fmt.Println(`  3. Chat: hugin -p "What's on my calendar this week?"`)
	return nil
}
