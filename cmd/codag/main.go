package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/michaelzixizhou/codag-sub002/config"
)

var rootCmd = &cobra.Command{
	Use:   "codag",
	Short: "Extract AI workflow graphs from source code",
	Long: `codag scans a workspace for AI workflow code, narrows it down with
local taint analysis, and sends related files in batches to a remote
analyzer that returns a workflow graph of triggers, LLM calls, tools,
decisions and outputs.`,
	SilenceUsage: true,
}

func init() {
	config.InitFlags(rootCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(rootCmd, cwd)
	if err != nil {
		return nil, err
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %v: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
