// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package mode

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/homedash/internal/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeProber struct {
	name  string
	err   error
	block bool
	delay time.Duration
	calls atomic.Int32
}

func (p *fakeProber) Name() string { return p.name }

func (p *fakeProber) Probe(ctx context.Context) error {
	p.calls.Add(1)
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func autoConfig() config.ModeConfig {
	return config.ModeConfig{
		Deployment:   config.DeploymentAuto,
		CacheTTL:     5 * time.Minute,
		ProbeTimeout: 50 * time.Millisecond,
	}
}

func TestState_ColdCacheIsProductionInAutoMode(t *testing.T) {
	t.Parallel()

	s := NewState(autoConfig())
	status := s.Status()
	if !status.IsProduction {
		t.Error("expected production before any probe in auto mode")
	}
	if status.LocalReachable {
		t.Error("expected localReachable=false before any probe")
	}
	if s.Fresh() {
		t.Error("expected cold cache to be stale")
	}
}

func TestState_ReachableTargetSwitchesToLocal(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	hue := &fakeProber{name: "hue"}
	sonos := &fakeProber{name: "sonos", err: errors.New("connection refused")}
	s := NewState(autoConfig(), WithClock(clock), WithProbers(hue, sonos))

	s.EnsureLocalAvailabilityChecked(context.Background())

	status := s.Status()
	if status.IsProduction {
		t.Error("expected local mode when one target is reachable")
	}
	if !status.LocalReachable {
		t.Error("expected localReachable=true")
	}
	if !status.LastCheckedAt.Equal(clock.Now()) {
		t.Errorf("LastCheckedAt = %v, want %v", status.LastCheckedAt, clock.Now())
	}
	if !status.Services["hue"].Available {
		t.Error("hue should be available")
	}
	if status.Services["sonos"].Available || status.Services["sonos"].Error == "" {
		t.Errorf("sonos should be unavailable with an error, got %+v", status.Services["sonos"])
	}
}

func TestState_WithinTTLIsNoop(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := &fakeProber{name: "hue"}
	s := NewState(autoConfig(), WithClock(clock), WithProbers(p))

	s.EnsureLocalAvailabilityChecked(context.Background())
	clock.Advance(4 * time.Minute)
	s.EnsureLocalAvailabilityChecked(context.Background())

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("probe calls = %d, want 1 within TTL", got)
	}

	clock.Advance(time.Minute)
	s.EnsureLocalAvailabilityChecked(context.Background())
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("probe calls = %d, want 2 after TTL expiry", got)
	}
}

func TestState_CheckTimeoutMarksUnreachable(t *testing.T) {
	t.Parallel()

	p := &fakeProber{name: "hue", block: true}
	s := NewState(autoConfig(), WithProbers(p))

	done := make(chan struct{})
	go func() {
		s.EnsureLocalAvailabilityChecked(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("EnsureLocalAvailabilityChecked did not honour the probe timeout")
	}

	status := s.Status()
	if status.LocalReachable {
		t.Error("blocked probe must leave localReachable=false")
	}
	if !status.IsProduction {
		t.Error("expected production after timed-out probe")
	}
	if status.Services["hue"].Error == "" {
		t.Error("expected timeout error to be recorded")
	}
}

func TestState_CancelledCallerDoesNotPoisonCheck(t *testing.T) {
	t.Parallel()

	p := &fakeProber{name: "hue", delay: 10 * time.Millisecond}
	s := NewState(autoConfig(), WithProbers(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.EnsureLocalAvailabilityChecked(ctx)

	if !s.Status().LocalReachable {
		t.Error("probe result should not depend on the caller's cancellation")
	}
}

func TestState_ConcurrentCallersShareCheck(t *testing.T) {
	t.Parallel()

	p := &fakeProber{name: "hue", delay: 20 * time.Millisecond}
	s := NewState(autoConfig(), WithProbers(p))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.EnsureLocalAvailabilityChecked(context.Background())
		}()
	}
	wg.Wait()

	if got := p.calls.Load(); got != 1 {
		t.Errorf("probe calls = %d, want 1", got)
	}
}

func TestState_NoTargetsMeansUnreachable(t *testing.T) {
	t.Parallel()

	s := NewState(autoConfig())
	s.EnsureLocalAvailabilityChecked(context.Background())

	status := s.Status()
	if status.LocalReachable || !status.IsProduction {
		t.Errorf("expected unreachable production status, got %+v", status)
	}
	if status.LastCheckedAt.IsZero() {
		t.Error("check time should be recorded even without targets")
	}
}

func TestState_FixedDeployments(t *testing.T) {
	t.Parallel()

	p := &fakeProber{name: "hue"}
	prod := NewState(config.ModeConfig{Deployment: config.DeploymentProduction}, WithProbers(p))
	prod.EnsureLocalAvailabilityChecked(context.Background())
	if p.calls.Load() != 0 {
		t.Error("production deployment must not probe")
	}
	if !prod.IsProduction() {
		t.Error("production deployment must report production")
	}

	down := &fakeProber{name: "hue", err: errors.New("down")}
	local := NewState(config.ModeConfig{Deployment: config.DeploymentLocal}, WithProbers(down))
	local.EnsureLocalAvailabilityChecked(context.Background())
	if local.IsProduction() {
		t.Error("local deployment must never report production")
	}
	if local.Status().LocalReachable {
		t.Error("unreachable device should still be reported")
	}
}

func TestState_ChangeHookAndInvalidate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	p := &fakeProber{name: "hue"}
	var changes atomic.Int32
	s := NewState(autoConfig(), WithClock(clock), WithProbers(p), WithChangeHook(func(Status) {
		changes.Add(1)
	}))

	s.EnsureLocalAvailabilityChecked(context.Background())
	if changes.Load() != 1 {
		t.Fatalf("first probe should notify, got %d", changes.Load())
	}

	s.Invalidate()
	s.EnsureLocalAvailabilityChecked(context.Background())
	if p.calls.Load() != 2 {
		t.Fatalf("Invalidate should force a probe, calls=%d", p.calls.Load())
	}
	if changes.Load() != 1 {
		t.Fatalf("re-probe with unchanged reachability notified, got %d", changes.Load())
	}

	p.err = errors.New("bridge gone")
	s.Invalidate()
	s.EnsureLocalAvailabilityChecked(context.Background())
	if changes.Load() != 2 {
		t.Fatalf("flip to unreachable should notify, got %d", changes.Load())
	}

	p.err = nil
	clock.Advance(10 * time.Minute)
	s.EnsureLocalAvailabilityChecked(context.Background())
	if changes.Load() != 3 {
		t.Errorf("flip back to reachable should notify, got %d", changes.Load())
	}

	clock.Advance(10 * time.Minute)
	s.EnsureLocalAvailabilityChecked(context.Background())
	if changes.Load() != 3 {
		t.Errorf("unchanged reachability should not notify, got %d", changes.Load())
	}
}
