package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/posture_node/internal/config"
	"github.com/relabs-tech/posture_node/internal/mqtt"
	"github.com/relabs-tech/posture_node/internal/report"
)

// RunConsoleMQTT prints the node's published stream in its serial line
// format until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is not set")
	}

	client := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientIDConsole, mqtt.Topics{
		Reading: cfg.TopicReading,
		Mode:    cfg.TopicMode,
	}, logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	printer := &consolePrinter{w: w, logger: logger}
	if err := client.Subscribe(cfg.TopicReading, printer.reading); err != nil {
		return err
	}
	if err := client.Subscribe(cfg.TopicMode, printer.mode); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return nil
}

type consolePrinter struct {
	w      io.Writer
	logger *slog.Logger
}

func (p *consolePrinter) reading(payload []byte) {
	var r report.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		p.logger.Warn("console: reading unmarshal error", "err", err)
		return
	}
	fmt.Fprintf(p.w, "[%s] %s\n", r.Time.Format("15:04:05"), r.Line())
}

func (p *consolePrinter) mode(payload []byte) {
	var ev report.ModeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.logger.Warn("console: mode unmarshal error", "err", err)
		return
	}
	fmt.Fprintf(p.w, "[%s] %s\n", ev.Time.Format("15:04:05"), report.ModeLine(ev.DataEnabled))
}
