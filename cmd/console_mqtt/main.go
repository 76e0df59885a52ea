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

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "posture-console")
	logger.Info("starting posture console (MQTT subscriber)", "broker", cfg.MQTTBroker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, cfg, os.Stdout, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
