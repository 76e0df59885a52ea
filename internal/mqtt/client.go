package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_node/internal/report"
)

// publishTimeout bounds the wait on an open connection and stays well
// under the node's 3 s loop.
const publishTimeout = time.Second

// Topics names where readings and mode changes go.
type Topics struct {
	Reading string
	Mode    string
}

// Client publishes node readings as retained JSON messages.
type Client struct {
	client  paho.Client
	topics  Topics
	logger  *slog.Logger
	timeout time.Duration

	offline atomic.Bool
}

// NewClient prepares a client for broker (e.g. "tcp://localhost:1883").
// Call Connect before publishing.
func NewClient(broker, clientID string, topics Topics, logger *slog.Logger) *Client {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		logger.Info("mqtt connected", "broker", broker, "client_id", clientID)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "err", err)
	})

	return &Client{
		client:  paho.NewClient(opts),
		topics:  topics,
		logger:  logger,
		timeout: publishTimeout,
	}
}

// Connect waits for the first connection or for ctx to end.
func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()
	for {
		if token.WaitTimeout(200 * time.Millisecond) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// PublishReading sends r to the reading topic. Messages are dropped while
// the broker connection is down.
func (c *Client) PublishReading(r report.Reading) error {
	return c.publishJSON(c.topics.Reading, r)
}

// PublishMode sends ev to the mode topic.
func (c *Client) PublishMode(ev report.ModeEvent) error {
	return c.publishJSON(c.topics.Mode, ev)
}

func (c *Client) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	// While paho is still retrying the connection it queues publishes and
	// never completes their tokens. Readings are QoS 0, so drop them instead.
	if !c.client.IsConnectionOpen() {
		if !c.offline.Swap(true) {
			c.logger.Warn("mqtt offline, dropping messages until reconnected", "topic", topic)
		}
		return nil
	}
	if c.offline.Swap(false) {
		c.logger.Info("mqtt back online, publishing resumed")
	}

	token := c.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "bytes", len(payload))
	return nil
}

// Subscribe calls handle with the payload of every message on topic.
func (c *Client) Subscribe(topic string, handle func(payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		handle(msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	c.logger.Info("subscribed", "topic", topic)
	return nil
}

// Disconnect waits up to 250ms for in-flight work.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
