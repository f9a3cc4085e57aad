// Package cmd implements the hostwatch command line.
package cmd

import (
	"fmt"
	"os"

	"hostwatch/internal/config"

	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "hostwatch",
		Short: "Local host telemetry collector",
		Long: `hostwatch samples CPU, memory, GPU, disk, network and uptime on this
machine, keeps a short rolling history and raises alerts when a
threshold is crossed.

Quick start:
  hostwatch watch                  # Live view in the terminal
  hostwatch serve                  # Local dashboard API on localhost:8080
  hostwatch report --window 5      # Print a report with 5 minute averages`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "hostwatch.yaml", "Path to the YAML config file")

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(watchCommand())
	cmd.AddCommand(reportCommand())

	return cmd
}

// loadConfig reads and validates the file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
