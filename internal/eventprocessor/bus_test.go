// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/logging"
)

type recordingHub struct {
	mu     sync.Mutex
	frames [][]byte
	got    chan struct{}
}

func newRecordingHub() *recordingHub {
	return &recordingHub{got: make(chan struct{}, 16)}
}

func (h *recordingHub) BroadcastRaw(data []byte) {
	h.mu.Lock()
	h.frames = append(h.frames, data)
	h.mu.Unlock()
	h.got <- struct{}{}
}

func (h *recordingHub) frame(i int) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames[i]
}

// startBus runs b until the test ends and waits for its consumers.
func startBus(t *testing.T, b *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = b.Close()
	})

	select {
	case <-b.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus did not start")
	}
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestBus_ForwardsToWebSocket(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(DefaultBusConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	hub := newRecordingHub()
	fwd, err := NewWebSocketForwarder(hub)
	if err != nil {
		t.Fatalf("NewWebSocketForwarder: %v", err)
	}
	fixed := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	fwd.now = func() time.Time { return fixed }
	fwd.Attach(bus)
	startBus(t, bus)

	changed := ModeChanged{Mode: "production", IsProduction: true, Deployment: "auto", ChangedAt: fixed}
	if err := bus.Publish(context.Background(), changed); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, hub.got, "mode_changed frame")

	var n struct {
		Type      string      `json:"type"`
		Data      ModeChanged `json:"data"`
		Timestamp time.Time   `json:"timestamp"`
	}
	if err := json.Unmarshal(hub.frame(0), &n); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if n.Type != "mode_changed" || !n.Data.IsProduction || n.Data.Mode != "production" {
		t.Errorf("frame = %+v", n)
	}
	if !n.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", n.Timestamp, fixed)
	}

	if err := bus.Publish(context.Background(), &SnapshotUpdated{Service: "hue", Status: "success", RecordsWritten: 2}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, hub.got, "snapshot_updated frame")

	var s struct {
		Type string          `json:"type"`
		Data SnapshotUpdated `json:"data"`
	}
	if err := json.Unmarshal(hub.frame(1), &s); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if s.Type != "snapshot_updated" || s.Data.Service != "hue" || s.Data.RecordsWritten != 2 {
		t.Errorf("frame = %+v", s)
	}

	if got := bus.Published(); got != 2 {
		t.Errorf("Published = %d, want 2", got)
	}
	received, broadcast := fwd.Stats()
	if received != 2 || broadcast != 2 {
		t.Errorf("forwarder stats = %d/%d, want 2/2", received, broadcast)
	}
}

func TestBus_CorrelationID(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(DefaultBusConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	ids := make(chan string, 1)
	bus.AddConsumer("probe", TopicSnapshotUpdated, func(msg *message.Message) error {
		ids <- middleware.MessageCorrelationID(msg)
		return nil
	})
	startBus(t, bus)

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-123")
	if err := bus.Publish(ctx, SnapshotUpdated{Service: "sonos"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case id := <-ids:
		if id != "corr-123" {
			t.Errorf("correlation id = %q, want corr-123", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer not called")
	}
}

func TestBus_FailingConsumerIsAcked(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(DefaultBusConfig(), watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	var (
		mu    sync.Mutex
		calls int
	)
	done := make(chan struct{}, 4)
	bus.AddConsumer("broken", TopicModeChanged, func(*message.Message) error {
		mu.Lock()
		calls++
		mu.Unlock()
		done <- struct{}{}
		return errors.New("boom")
	})
	bus.AddConsumer("panics", TopicSnapshotUpdated, func(*message.Message) error {
		done <- struct{}{}
		panic("consumer bug")
	})
	startBus(t, bus)

	if err := bus.Publish(context.Background(), ModeChanged{Mode: "local"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, done, "failing consumer")
	if err := bus.Publish(context.Background(), SnapshotUpdated{Service: "hue"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitFor(t, done, "panicking consumer")

	// A nacked message would be redelivered straight away.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("failing consumer called %d times, want 1", calls)
	}
}

func TestBus_PublishValidation(t *testing.T) {
	t.Parallel()

	bus, err := NewBus(BusConfig{}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	if err := bus.Publish(context.Background(), "not an event"); err == nil {
		t.Error("expected error for unsupported payload")
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := bus.Publish(context.Background(), ModeChanged{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after Close error = %v, want ErrClosed", err)
	}
}

func TestNotificationType(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		TopicModeChanged:     "mode_changed",
		TopicSnapshotUpdated: "snapshot_updated",
		"other.topic":        "other.topic",
	}
	for topic, want := range tests {
		if got := NotificationType(topic); got != want {
			t.Errorf("NotificationType(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestNewWebSocketForwarder_NilHub(t *testing.T) {
	t.Parallel()
	if _, err := NewWebSocketForwarder(nil); err == nil {
		t.Error("expected error for nil hub")
	}
}
