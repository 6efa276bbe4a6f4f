// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/config"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the parley server",
		Long:  "Load configuration, initialize storage and providers, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	app, err := WireApp(cfg)
	if err != nil {
		return fmt.Errorf("wiring subsystems: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("shutdown cleanup", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting parley",
		"listen", cfg.Server.Listen,
		"vector_backend", cfg.Storage.VectorBackend,
		"session_backend", cfg.Storage.SessionBackend,
		"generation_model", cfg.Models.Generation,
	)

	return app.Server.Start(ctx)
}
