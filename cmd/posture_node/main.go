// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/posture_node/internal/app"
	"github.com/relabs-tech/posture_node/internal/config"
	"github.com/relabs-tech/posture_node/internal/logging"
)

func main() {
	configPath := flag.String("config", "./posture_config.txt", "path to configuration file")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "posture-node")
	slog.SetDefault(logger)
	logger.Info("starting posture node (sensors → serial)", "config", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunNode(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
	logger.Info("posture node stopped")
}
