package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/shared/cmdutils"
	"github.com/hugin/hugin/internal/shared/llmutils"
	"github.com/hugin/hugin/internal/transcript"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent exchanges from the transcript",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of exchanges to show")
}

func runHistory(c *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Transcript.Enabled {
		fmt.Println("Transcript is disabled (transcript.enabled = false).")
		return nil
	}
	store, err := transcript.Open(cfg.TranscriptPath())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	exchanges, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(exchanges) == 0 {
		fmt.Println("No exchanges recorded yet.")
		return nil
	}
	for _, e := range exchanges {
		printExchange(e)
	}
	return nil
}

func printExchange(e transcript.Exchange) {
	header := fmt.Sprintf("%s  session %s  %d iterations, %d tool calls, %s",
		e.StartedAt.Format("2006-01-02 15:04:05"),
		e.SessionID[:min(8, len(e.SessionID))],
		e.Iterations, e.ToolCalls,
		e.Duration.Round(100*time.Millisecond),
	)
	fmt.Println(cmdutils.HintStyle.Render(header))
	fmt.Printf("  > %s\n", oneLine(e.Prompt, 100))
	if e.Error != "" {
		fmt.Printf("  %s\n\n", cmdutils.ErrorStyle.Render("error: "+e.Error))
		return
	}
	fmt.Printf("  %s\n\n", oneLine(e.Answer, 200))
}

func oneLine(s string, n int) string {
	return llmutils.Truncate(strings.Join(strings.Fields(s), " "), n)
}
