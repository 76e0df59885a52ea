package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_node/internal/orientation"
	"github.com/relabs-tech/posture_node/internal/report"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

// pendingToken never completes, like paho's tokens for publishes queued
// while it is still retrying the connection.
type pendingToken struct{}

func (pendingToken) Wait() bool { select {} }
func (pendingToken) WaitTimeout(d time.Duration) bool {
	time.Sleep(d)
	return false
}
func (pendingToken) Done() <-chan struct{} { return make(chan struct{}) }
func (pendingToken) Error() error          { return nil }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakePaho implements only what Client calls; the embedded interface is nil.
type fakePaho struct {
	paho.Client
	msgs    []published
	err     error
	offline bool
	pending bool
}

func (f *fakePaho) IsConnectionOpen() bool { return !f.offline }

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.msgs = append(f.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	if f.pending {
		return pendingToken{}
	}
	return &doneToken{err: f.err}
}

func newTestClient(f *fakePaho) *Client {
	return newTestClientWithLog(f, io.Discard)
}

func newTestClientWithLog(f *fakePaho, w io.Writer) *Client {
	return &Client{
		client:  f,
		topics:  Topics{Reading: "posture/reading", Mode: "posture/mode"},
		logger:  slog.New(slog.NewTextHandler(w, nil)),
		timeout: publishTimeout,
	}
}

func TestPublishReading(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)

	r := report.Reading{
		Time:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DataEnabled:  true,
		Roll:         45,
		TemperatureC: 36.53,
		Posture:      orientation.Bad,
		DistanceCM:   17,
	}
	if err := c.PublishReading(r); err != nil {
		t.Fatalf("PublishReading() error = %v", err)
	}
	if len(f.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(f.msgs))
	}
	msg := f.msgs[0]
	if msg.topic != "posture/reading" || !msg.retained {
		t.Errorf("topic = %q retained = %v", msg.topic, msg.retained)
	}
	var got report.Reading
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Time.Equal(r.Time) || got.Roll != 45 || got.Posture != orientation.Bad || got.DistanceCM != 17 {
		t.Errorf("payload = %+v", got)
	}
}

func TestPublishMode(t *testing.T) {
	f := &fakePaho{}
	c := newTestClient(f)
	if err := c.PublishMode(report.ModeEvent{DataEnabled: false}); err != nil {
		t.Fatalf("PublishMode() error = %v", err)
	}
	if f.msgs[0].topic != "posture/mode" {
		t.Errorf("topic = %q, want posture/mode", f.msgs[0].topic)
	}
	var payload map[string]any
	if err := json.Unmarshal(f.msgs[0].payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["data_enabled"] != false {
		t.Errorf("data_enabled = %v, want false", payload["data_enabled"])
	}
}

func TestPublish_Error(t *testing.T) {
	f := &fakePaho{err: errors.New("not connected")}
	c := newTestClient(f)
	if err := c.PublishReading(report.Reading{}); err == nil {
		t.Fatal("PublishReading() error = nil, want non-nil")
	}
}

func TestPublish_OfflineDropsWithoutBlocking(t *testing.T) {
	f := &fakePaho{offline: true, pending: true}
	var logs bytes.Buffer
	c := newTestClientWithLog(f, &logs)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := c.PublishReading(report.Reading{}); err != nil {
			t.Fatalf("PublishReading() error = %v, want nil", err)
		}
	}
	if err := c.PublishMode(report.ModeEvent{}); err != nil {
		t.Fatalf("PublishMode() error = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("offline publishes took %v, want well under the loop interval", elapsed)
	}
	if len(f.msgs) != 0 {
		t.Errorf("handed %d messages to paho while offline, want 0", len(f.msgs))
	}
	if n := strings.Count(logs.String(), "mqtt offline"); n != 1 {
		t.Errorf("offline warning logged %d times, want 1", n)
	}

	f.offline = false
	f.pending = false
	if err := c.PublishReading(report.Reading{}); err != nil {
		t.Fatalf("PublishReading() after reconnect error = %v", err)
	}
	if len(f.msgs) != 1 {
		t.Errorf("published %d messages after reconnect, want 1", len(f.msgs))
	}
	if !strings.Contains(logs.String(), "publishing resumed") {
		t.Errorf("log = %q, want resume notice", logs.String())
	}
}

func TestPublish_StalledTokenIsBounded(t *testing.T) {
	f := &fakePaho{pending: true}
	c := newTestClient(f)
	c.timeout = 20 * time.Millisecond

	start := time.Now()
	err := c.PublishReading(report.Reading{})
	if err == nil {
		t.Fatal("PublishReading() error = nil, want timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("stalled publish took %v", elapsed)
	}
}

func TestPublishTimeoutUnderLoopInterval(t *testing.T) {
	if publishTimeout >= 3*time.Second {
		t.Errorf("publishTimeout = %v, want under the 3s loop interval", publishTimeout)
	}
}
