// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root parley command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parley",
		Short:         "Parley — multi-tenant retrieval-augmented chat service",
		Long:          "Parley serves tenant-scoped assistants that answer from ingested business knowledge with bounded conversation memory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(verbose)
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStartCmd(),
		newVersionCmd(),
	)

	return root
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	// Fall back to a conventional location when present.
	for _, candidate := range []string{"parley.yaml", os.ExpandEnv("$HOME/.config/parley/parley.yaml")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
