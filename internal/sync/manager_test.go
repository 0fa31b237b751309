// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/eventprocessor"
	"github.com/tomtom215/homedash/internal/models"
)

type fakeSource struct {
	name       string
	configured bool
	written    int
	err        error

	calls  atomic.Int32
	forced atomic.Bool
}

func (s *fakeSource) Name() string       { return s.name }
func (s *fakeSource) IsConfigured() bool { return s.configured }

func (s *fakeSource) Refresh(_ context.Context, force bool) (models.SyncResult, error) {
	s.calls.Add(1)
	s.forced.Store(force)
	result := models.SyncResult{Service: s.name}
	if s.err != nil {
		return result, s.err
	}
	result.RecordsWritten = s.written
	result.Status = models.SyncStatusSuccess
	if s.written == 0 {
		result.Status = models.SyncStatusSkipped
	}
	return result, nil
}

type fakeLog struct {
	mu      sync.Mutex
	entries []models.SyncResult
	err     error
}

func (l *fakeLog) InsertSyncLog(_ context.Context, r models.SyncResult) (models.SyncLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return models.SyncLogEntry{}, l.err
	}
	l.entries = append(l.entries, r)
	return models.SyncLogEntry{
		ID:        int64(len(l.entries)),
		Service:   r.Service,
		Status:    r.Status,
		CreatedAt: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (l *fakeLog) services() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.Service)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []eventprocessor.SnapshotUpdated
}

func (p *fakePublisher) Publish(_ context.Context, payload interface{}) error {
	ev, ok := payload.(eventprocessor.SnapshotUpdated)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) snapshot() []eventprocessor.SnapshotUpdated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eventprocessor.SnapshotUpdated(nil), p.events...)
}

type fakeMode struct {
	production atomic.Bool
	checks     atomic.Int32
}

func (m *fakeMode) EnsureLocalAvailabilityChecked(context.Context) { m.checks.Add(1) }
func (m *fakeMode) IsProduction() bool                             { return m.production.Load() }

func TestTriggerSync_Results(t *testing.T) {
	t.Parallel()

	hue := &fakeSource{name: "hue", configured: true, written: 3}
	sonos := &fakeSource{name: "sonos", configured: true}
	cta := &fakeSource{name: "cta", configured: true, err: adapters.NewUnavailableError("cta", errors.New("dial tcp: timeout"))}
	lyft := &fakeSource{name: "lyft", configured: false}

	log := &fakeLog{}
	pub := &fakePublisher{}
	m := NewManager(config.SyncConfig{}, nil, log, pub, hue, sonos, cta, lyft)

	results, err := m.TriggerSync(context.Background(), true)
	if err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (unconfigured source left out)", len(results))
	}

	want := []struct {
		service string
		status  string
		written int
	}{
		{"hue", models.SyncStatusSuccess, 3},
		{"sonos", models.SyncStatusSkipped, 0},
		{"cta", models.SyncStatusError, 0},
	}
	for i, w := range want {
		r := results[i]
		if r.Service != w.service || r.Status != w.status || r.RecordsWritten != w.written {
			t.Errorf("results[%d] = %+v, want %s/%s/%d", i, r, w.service, w.status, w.written)
		}
	}
	if results[2].Error == "" || results[2].Error == "Internal server error" {
		t.Errorf("cta error = %q, want the public unavailable message", results[2].Error)
	}

	if lyft.calls.Load() != 0 {
		t.Error("unconfigured source was refreshed")
	}
	if !hue.forced.Load() {
		t.Error("force flag not passed to source")
	}

	if got := log.services(); len(got) != 3 {
		t.Errorf("sync log entries = %v, want 3", got)
	}

	events := pub.snapshot()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2 (skipped refresh not published)", len(events))
	}
	if events[0].Service != "hue" || events[0].RecordsWritten != 3 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].Service != "cta" || events[1].Status != models.SyncStatusError {
		t.Errorf("second event = %+v", events[1])
	}
	if !events[0].UpdatedAt.Equal(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("UpdatedAt = %v, want sync log timestamp", events[0].UpdatedAt)
	}

	if m.LastSyncTime().IsZero() {
		t.Error("LastSyncTime not set")
	}
}

func TestTriggerSync_LogFailureStillPublishes(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "spotify", configured: true, written: 1}
	pub := &fakePublisher{}
	m := NewManager(config.SyncConfig{}, nil, &fakeLog{err: errors.New("disk full")}, pub, src)

	results, err := m.TriggerSync(context.Background(), false)
	if err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	if len(results) != 1 || results[0].Status != models.SyncStatusSuccess {
		t.Errorf("results = %+v", results)
	}
	if len(pub.snapshot()) != 1 {
		t.Error("event not published after sync log failure")
	}
}

func TestTriggerSync_CanceledContext(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "hue", configured: true, written: 1}
	m := NewManager(config.SyncConfig{}, nil, nil, nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.TriggerSync(ctx, false); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if src.calls.Load() != 0 {
		t.Error("source refreshed after cancel")
	}
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "hue", configured: true, written: 1}
	mode := &fakeMode{}
	m := NewManager(config.SyncConfig{Enabled: true, Interval: 10 * time.Millisecond}, mode, nil, nil, src)

	if err := m.Stop(); err == nil {
		t.Error("Stop before Start should fail")
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	if !m.Running() {
		t.Error("Running = false after Start")
	}

	deadline := time.Now().Add(5 * time.Second)
	for src.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if src.calls.Load() < 2 {
		t.Fatalf("source refreshed %d times, want at least 2", src.calls.Load())
	}
	if mode.checks.Load() == 0 {
		t.Error("mode was not checked before refreshing")
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.Running() {
		t.Error("Running = true after Stop")
	}

	// Restartable after Stop, as the supervisor expects.
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestManager_IdlesInProduction(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "hue", configured: true, written: 1}
	mode := &fakeMode{}
	mode.production.Store(true)
	m := NewManager(config.SyncConfig{Enabled: true, Interval: 5 * time.Millisecond}, mode, nil, nil, src)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for mode.checks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if mode.checks.Load() < 3 {
		t.Fatalf("mode checked %d times, want at least 3", mode.checks.Load())
	}
	if src.calls.Load() != 0 {
		t.Errorf("source refreshed %d times in production, want 0", src.calls.Load())
	}
}

func TestManager_Disabled(t *testing.T) {
	t.Parallel()

	src := &fakeSource{name: "hue", configured: true, written: 1}
	m := NewManager(config.SyncConfig{Enabled: false, Interval: time.Millisecond}, nil, nil, nil, src)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if src.calls.Load() != 0 {
		t.Error("disabled refresher ran")
	}

	// Manual triggers still work.
	if _, err := m.TriggerSync(context.Background(), false); err != nil {
		t.Fatalf("TriggerSync: %v", err)
	}
	if src.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", src.calls.Load())
	}
}

func TestNewManager_DefaultInterval(t *testing.T) {
	t.Parallel()
	m := NewManager(config.SyncConfig{}, nil, nil, nil)
	if m.cfg.Interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", m.cfg.Interval, DefaultInterval)
	}
}
