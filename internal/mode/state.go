// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package mode

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/metrics"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Prober is a local-network target whose reachability decides the mode.
// Probe must honour ctx cancellation.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// ServiceStatus is the last probe outcome for one target.
type ServiceStatus struct {
	Available bool      `json:"available"`
	CheckedAt time.Time `json:"checkedAt"`
	Error     string    `json:"error,omitempty"`
}

// Status is an immutable copy of State.
type Status struct {
	Deployment     string                   `json:"deployment"`
	IsProduction   bool                     `json:"isProduction"`
	LocalReachable bool                     `json:"localReachable"`
	LastCheckedAt  time.Time                `json:"lastCheckedAt"`
	Services       map[string]ServiceStatus `json:"services"`
}

// ChangeFunc is called after a probe flips LocalReachable.
type ChangeFunc func(Status)

// State tracks deployment mode and local reachability.
type State struct {
	deployment   string
	ttl          time.Duration
	probeTimeout time.Duration
	clock        Clock
	onChange     ChangeFunc

	mu             sync.RWMutex
	probers        []Prober
	localReachable bool
	probed         bool
	lastCheckedAt  time.Time
	services       map[string]ServiceStatus

	inflight singleflight.Group
}

// Option configures a State.
type Option func(*State)

func WithClock(c Clock) Option {
	return func(s *State) { s.clock = c }
}

func WithProbers(p ...Prober) Option {
	return func(s *State) { s.probers = append(s.probers, p...) }
}

func WithChangeHook(fn ChangeFunc) Option {
	return func(s *State) { s.onChange = fn }
}

// NewState creates a State from mode configuration. Zero durations fall back
// to a 5 minute TTL and a 2 second probe timeout.
func NewState(cfg config.ModeConfig, opts ...Option) *State {
	s := &State{
		deployment:   cfg.Deployment,
		ttl:          cfg.CacheTTL,
		probeTimeout: cfg.ProbeTimeout,
		clock:        SystemClock{},
		services:     make(map[string]ServiceStatus),
	}
	if s.deployment == "" {
		s.deployment = config.DeploymentAuto
	}
	if s.ttl <= 0 {
		s.ttl = 5 * time.Minute
	}
	if s.probeTimeout <= 0 {
		s.probeTimeout = 2 * time.Second
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds probe targets after construction.
func (s *State) Register(p ...Prober) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probers = append(s.probers, p...)
}

// SetChangeHook replaces the change callback. Wiring code uses it when the
// event bus is created after the state.
func (s *State) SetChangeHook(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Invalidate forces the next EnsureLocalAvailabilityChecked to probe.
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheckedAt = time.Time{}
}

// Fresh reports whether the cached probe result is within its TTL.
func (s *State) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.freshLocked()
}

func (s *State) freshLocked() bool {
	return !s.lastCheckedAt.IsZero() && s.clock.Now().Sub(s.lastCheckedAt) < s.ttl
}

// EnsureLocalAvailabilityChecked refreshes the reachability cache when it has
// expired. It never returns an error: an unreachable target is a normal
// outcome. In fixed production deployments no probe is sent.
func (s *State) EnsureLocalAvailabilityChecked(ctx context.Context) {
	if s.deployment == config.DeploymentProduction || s.Fresh() {
		return
	}

	// The probe is shared by every waiter and must not inherit one
	// caller's cancellation.
	probeCtx := context.WithoutCancel(ctx)
	_, _, _ = s.inflight.Do("probe", func() (interface{}, error) {
		if s.Fresh() {
			return nil, nil
		}
		s.probe(probeCtx)
		return nil, nil
	})
}

func (s *State) probe(ctx context.Context) {
	s.mu.RLock()
	probers := append([]Prober(nil), s.probers...)
	s.mu.RUnlock()

	results := make([]ServiceStatus, len(probers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probers {
		g.Go(func() error {
			results[i] = s.probeOne(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	now := s.clock.Now()
	services := make(map[string]ServiceStatus, len(probers))
	reachable := false
	for i, p := range probers {
		r := results[i]
		r.CheckedAt = now
		services[p.Name()] = r
		reachable = reachable || r.Available
	}

	s.mu.Lock()
	changed := reachable != s.localReachable || !s.probed
	s.probed = true
	s.localReachable = reachable
	s.lastCheckedAt = now
	s.services = services
	hook := s.onChange
	status := s.statusLocked()
	s.mu.Unlock()

	metrics.LocalReachable.Set(boolToFloat(reachable))
	logging.Debug().
		Bool("local_reachable", reachable).
		Int("targets", len(probers)).
		Msg("local availability checked")

	if changed && hook != nil {
		hook(status)
	}
}

func (s *State) probeOne(ctx context.Context, p Prober) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(ctx)
	metrics.ProbeDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProbeResults.WithLabelValues(p.Name(), "unreachable").Inc()
		logging.Debug().Str("target", p.Name()).Err(err).Msg("probe failed")
		return ServiceStatus{Available: false, Error: err.Error()}
	}
	metrics.ProbeResults.WithLabelValues(p.Name(), "reachable").Inc()
	return ServiceStatus{Available: true}
}

// Status returns a copy of the current state.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *State) statusLocked() Status {
	services := make(map[string]ServiceStatus, len(s.services))
	for k, v := range s.services {
		services[k] = v
	}

	var production bool
	switch s.deployment {
	case config.DeploymentProduction:
		production = true
	case config.DeploymentLocal:
		production = false
	default:
		production = !s.localReachable
	}

	return Status{
		Deployment:     s.deployment,
		IsProduction:   production,
		LocalReachable: s.localReachable,
		LastCheckedAt:  s.lastCheckedAt,
		Services:       services,
	}
}

// IsProduction is shorthand for Status().IsProduction.
func (s *State) IsProduction() bool {
	return s.Status().IsProduction
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
