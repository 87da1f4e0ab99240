package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/dependency"
	"github.com/hugin/hugin/internal/shared/cmdutils"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Connect to every configured server and list the tool catalog",
	RunE:  runTools,
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := dependency.New(cfg, version)
	if err != nil {
		return err
	}
	sess := container.Session()
	defer sess.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := sess.Initialize(ctx); err != nil {
		return err
	}

	printer := cmdutils.NewPrinter(os.Stdout, os.Stderr, cmdutils.PrinterOptions{Raw: true})
	if conns := sess.Connections(); len(conns) > 0 {
		fmt.Println("Servers:")
		for _, c := range conns {
			fmt.Printf("  %s %-20s %s\n", cmdutils.Mark(c.IsConnected()), c.Name(), c.State())
		}
		fmt.Println()
	}
	printer.Catalog(sess.Catalog())
	return nil
}
