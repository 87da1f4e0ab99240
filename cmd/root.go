// Package cmd implements the hugin CLI using cobra.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugin/hugin/internal/config"
	"github.com/hugin/hugin/internal/logging"
)

// Set at build time via ldflags.
var version = "dev"

var (
	configPath string
	logCloser  io.Closer
)

// rootCmd runs chat when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "hugin",
	Short:         "hugin answers questions by letting a model call MCP tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		c, err := logging.SetupFromEnv(slog.LevelWarn)
		if err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		logCloser = c
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: runChat,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.hugin/config.toml)")
	addChatFlags(rootCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(historyCmd)
}

func resolvedConfigPath() string {
	if configPath != "" {
		return config.ExpandHome(configPath)
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
