package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/rexkin/rexkin/internal/config"
	"github.com/rexkin/rexkin/internal/logging"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rexkin",
		Short: "Replica-exchange ensemble trajectory analysis",
		Long: `rexkin analyzes replica-exchange expanded-ensemble simulations.

It stitches per-replica state trajectories into per-configuration ones,
estimates transition matrices, and extracts transit and round-trip times
between the ends of the state ladder.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for tool consumption)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.rexkin/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStitchCmd(),
		newTransitionsCmd(),
		newTransitCmd(),
		newReplicasCmd(),
		newLogCmd(),
		newMdpCmd(),
		newRunsCmd(),
		newExportCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("rexkin version %s\n", version)
			}
		},
	}
}

// loadConfig loads configuration honoring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the operational stderr logger for a command.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

// newTraceLogger builds the optional JSONL trace logger. Nil at info level.
func newTraceLogger(cfg *config.Config) *logging.TraceLogger {
	return logging.NewTraceLogger(cfg.Data.Dir, cfg.Logging.Level)
}
