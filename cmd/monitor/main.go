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

	if err := config.InitGlobal(*configPath); err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := config.Get()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "posture-monitor")
	slog.SetDefault(logger)
	logger.Info("starting posture monitor (serial → sqlite, mqtt, web)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunMonitor(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
