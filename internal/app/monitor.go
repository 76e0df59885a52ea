package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/relabs-tech/posture_node/internal/config"
	"github.com/relabs-tech/posture_node/internal/mqtt"
	"github.com/relabs-tech/posture_node/internal/node"
	"github.com/relabs-tech/posture_node/internal/report"
	"github.com/relabs-tech/posture_node/internal/serialport"
	"github.com/relabs-tech/posture_node/internal/store"
)

// Recorder persists readings.
type Recorder interface {
	Insert(ctx context.Context, r report.Reading) error
	Recent(ctx context.Context, limit int) ([]report.Reading, error)
}

// LiveMessage is the websocket envelope.
type LiveMessage struct {
	Type    string            `json:"type"` // "reading" or "mode"
	Reading *report.Reading   `json:"reading,omitempty"`
	Mode    *report.ModeEvent `json:"mode,omitempty"`
}

// Monitor consumes the node's serial report on the host side.
type Monitor struct {
	store     Recorder
	publisher node.Publisher // nil when MQTT is off
	hub       *Hub
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.RWMutex
	latest      report.Reading
	haveLatest  bool
	dataEnabled bool
}

func NewMonitor(rec Recorder, publisher node.Publisher, hub *Hub, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:       rec,
		publisher:   publisher,
		hub:         hub,
		logger:      logger,
		now:         time.Now,
		dataEnabled: true,
	}
}

// Latest returns the most recent reading, if any arrived yet.
func (m *Monitor) Latest() (report.Reading, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.haveLatest
}

// DataEnabled is the node's mode as last announced on the wire.
func (m *Monitor) DataEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataEnabled
}

// HandleLine processes one line from the node. Unparseable lines are logged
// and dropped.
func (m *Monitor) HandleLine(ctx context.Context, line string) {
	msg, err := report.Parse(line)
	if err != nil {
		m.logger.Warn("skipping line", "line", line, "err", err)
		return
	}
	now := m.now()

	if msg.Kind == report.KindMode {
		ev := report.ModeEvent{Time: now, DataEnabled: msg.DataEnabled}
		m.mu.Lock()
		m.dataEnabled = ev.DataEnabled
		m.mu.Unlock()

		m.logger.Info("mode changed", "data_enabled", ev.DataEnabled)
		if m.publisher != nil {
			if err := m.publisher.PublishMode(ev); err != nil {
				m.logger.Warn("publish mode failed", "err", err)
			}
		}
		m.broadcast(LiveMessage{Type: "mode", Mode: &ev})
		return
	}

	r := msg.Reading
	r.Time = now
	if err := m.store.Insert(ctx, r); err != nil {
		m.logger.Warn("store reading failed", "err", err)
	}

	m.mu.Lock()
	m.latest = r
	m.haveLatest = true
	m.dataEnabled = r.DataEnabled
	m.mu.Unlock()

	m.logger.Debug("reading", "kind", msg.Kind, "line", line)
	if m.publisher != nil {
		if err := m.publisher.PublishReading(r); err != nil {
			m.logger.Warn("publish reading failed", "err", err)
		}
	}
	m.broadcast(LiveMessage{Type: "reading", Reading: &r})
}

func (m *Monitor) broadcast(msg LiveMessage) {
	if m.hub != nil {
		m.hub.Broadcast(msg)
	}
}

// ReadLines feeds every line of r to HandleLine until EOF or ctx ends.
func (m *Monitor) ReadLines(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.HandleLine(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read serial: %w", err)
	}
	return nil
}

// openMonitorInput opens the node link, or stdin when port is empty so the
// node's stdout can be piped straight in.
func openMonitorInput(port string, baud int) (io.ReadCloser, error) {
	if port == "" {
		return io.NopCloser(os.Stdin), nil
	}
	return serialport.Open(port, baud)
}

// RunMonitor reads the node's serial report and records, republishes and
// serves it until ctx is cancelled.
func RunMonitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := store.Open(ctx, cfg.MonitorDBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("store opened", "path", cfg.MonitorDBPath)

	var publisher node.Publisher
	if cfg.MQTTBroker != "" {
		client := mqtt.NewClient(cfg.MQTTBroker, cfg.MQTTClientIDMonitor, mqtt.Topics{
			Reading: cfg.TopicReading,
			Mode:    cfg.TopicMode,
		}, logger)
		if err := connectMQTT(ctx, client, logger); err != nil {
			return err
		}
		defer client.Disconnect()
		publisher = client
	}

	hub := NewHub(logger)
	mon := NewMonitor(db, publisher, hub, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           NewRouter(mon, hub, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("web server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	port, err := openMonitorInput(cfg.MonitorSerialPort, cfg.SerialBaud)
	if err != nil {
		return err
	}
	logger.Info("reading node output", "port", cfg.MonitorSerialPort, "baud", cfg.SerialBaud)

	readErr := make(chan error, 1)
	go func() { readErr <- mon.ReadLines(ctx, port) }()

	select {
	case <-ctx.Done():
		port.Close()
		return nil
	case err := <-serverErr:
		port.Close()
		return fmt.Errorf("web server: %w", err)
	case err := <-readErr:
		port.Close()
		return err
	}
}
