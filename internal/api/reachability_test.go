// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/mode"
	"github.com/tomtom215/homedash/internal/models"
	"github.com/tomtom215/homedash/internal/snapshot"
)

const bridgeGroups = `{
	"1": {"name": "Living Room", "lights": ["1"], "type": "Room", "class": "Living room",
	      "state": {"all_on": true, "any_on": true}, "action": {"on": true, "bri": 180}}
}`

const sonosZones = `[{"uuid": "RINCON_K", "coordinator": {"uuid": "RINCON_K", "roomName": "Kitchen",
	"state": {"volume": 20, "mute": false, "playbackState": "STOPPED", "currentTrack": {"title": ""}}},
	"members": [{"uuid": "RINCON_K", "roomName": "Kitchen",
	"state": {"volume": 20, "mute": false, "playbackState": "STOPPED", "currentTrack": {"title": ""}}}]}]`

// testBridge is a Hue bridge that can stop answering without closing its
// listener, so reachability checks run into their timeout.
type testBridge struct {
	server  *httptest.Server
	hang    atomic.Bool
	release chan struct{}
}

func newTestBridge(t *testing.T) *testBridge {
	t.Helper()
	b := &testBridge{release: make(chan struct{})}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.hang.Load() {
			select {
			case <-r.Context().Done():
			case <-b.release:
			}
			return
		}
		switch r.URL.Path {
		case "/api/testuser/config":
			_, _ = io.WriteString(w, `{"name":"Philips hue","apiversion":"1.60.0"}`)
		case "/api/testuser/groups":
			_, _ = io.WriteString(w, bridgeGroups)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(b.server.Close)
	t.Cleanup(func() { close(b.release) })
	return b
}

func (b *testBridge) config() config.HueConfig {
	return config.HueConfig{
		BridgeIP: strings.TrimPrefix(b.server.URL, "http://"),
		Username: "testuser",
		Timeout:  2 * time.Second,
	}
}

func openTestSnapshots(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.Open("")
	if err != nil {
		t.Fatalf("open snapshot store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newModeRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	h, err := NewHandler(deps)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	sec := config.SecurityConfig{RateLimitDisabled: true}
	return NewRouter(h, nil, ChiMiddlewareConfigFromSecurity(sec)).SetupChi()
}

func TestColdAutoModeReadUsesBridge(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge(t)
	state := mode.NewState(config.ModeConfig{Deployment: config.DeploymentAuto, ProbeTimeout: time.Second})
	hue := adapters.NewHueAdapter(bridge.config(), adapters.WithHueSnapshots(openTestSnapshots(t), state))
	state.Register(hue)

	deps := newFixture().deps()
	deps.Hue = hue
	deps.Mode = state
	router := newModeRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/v1/hue/zones", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decode(t, rec)
	if env.Meta == nil || env.Meta.Source != models.SourceLive {
		t.Errorf("meta = %+v, want live source", env.Meta)
	}
	var zones []models.Zone
	if err := json.Unmarshal(env.Data, &zones); err != nil {
		t.Fatalf("decode zones: %v", err)
	}
	if len(zones) != 1 || zones[0].Name != "Living Room" {
		t.Errorf("zones = %+v", zones)
	}
	if !state.Status().LocalReachable {
		t.Error("first read did not check the bridge")
	}
}

func TestReadinessWarmsReachability(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge(t)
	state := mode.NewState(config.ModeConfig{Deployment: config.DeploymentAuto, ProbeTimeout: time.Second})
	hue := adapters.NewHueAdapter(bridge.config())
	state.Register(hue)

	deps := newFixture().deps()
	deps.Hue = hue
	deps.Mode = state
	router := newModeRouter(t, deps)

	if rec := do(router, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready = %d", rec.Code)
	}
	status := state.Status()
	if status.LastCheckedAt.IsZero() || !status.LocalReachable || status.IsProduction {
		t.Errorf("status after readiness = %+v", status)
	}
}

func TestReachabilityTimeoutServesSnapshot(t *testing.T) {
	t.Parallel()

	bridge := newTestBridge(t)
	state := mode.NewState(config.ModeConfig{
		Deployment:   config.DeploymentAuto,
		ProbeTimeout: 50 * time.Millisecond,
	})
	hue := adapters.NewHueAdapter(bridge.config(), adapters.WithHueSnapshots(openTestSnapshots(t), state))
	state.Register(hue)

	deps := newFixture().deps()
	deps.Hue = hue
	deps.Mode = state
	router := newModeRouter(t, deps)

	// A reachable bridge records the zones.
	if rec := do(router, http.MethodGet, "/hue/zones", ""); rec.Code != http.StatusOK {
		t.Fatalf("live read status = %d", rec.Code)
	}

	bridge.hang.Store(true)
	state.Invalidate()

	start := time.Now()
	rec := do(router, http.MethodGet, "/hue/zones", "")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("read took %v with a hung bridge", elapsed)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decode(t, rec)
	if env.Meta == nil || env.Meta.Source != models.SourceSnapshot || env.Meta.SnapshotAt == nil {
		t.Errorf("meta = %+v, want snapshot source", env.Meta)
	}
	var zones []models.Zone
	if err := json.Unmarshal(env.Data, &zones); err != nil {
		t.Fatalf("decode zones: %v", err)
	}
	if len(zones) != 1 || zones[0].ID != "1" {
		t.Errorf("zones = %+v", zones)
	}

	status := state.Status()
	if status.LocalReachable || !status.IsProduction {
		t.Errorf("status = %+v, want production after timeout", status)
	}
}

func TestSonosOfflineInLocalModeIgnoresSnapshot(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/zones" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, sonosZones)
	}))
	t.Cleanup(srv.Close)

	state := mode.NewState(config.ModeConfig{Deployment: config.DeploymentLocal})
	sonos := adapters.NewSonosAdapter(
		config.SonosConfig{URL: srv.URL, DegradeOnUnreachable: true, Timeout: time.Second},
		adapters.WithSonosSnapshots(openTestSnapshots(t), state),
	)

	deps := newFixture().deps()
	deps.Sonos = sonos
	deps.Mode = state
	router := newModeRouter(t, deps)

	rec := do(router, http.MethodGet, "/sonos/players", "")
	if env := decode(t, rec); rec.Code != http.StatusOK || string(env.Data) == "[]" {
		t.Fatalf("online read: status %d, data %s", rec.Code, env.Data)
	}

	srv.Close()

	rec = do(router, http.MethodGet, "/sonos/players", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("offline status = %d, want 200", rec.Code)
	}
	env := decode(t, rec)
	if !env.Success || string(env.Data) != "[]" {
		t.Errorf("offline envelope = %+v, data %s", env, env.Data)
	}
	if env.Meta != nil && env.Meta.Source == models.SourceSnapshot {
		t.Error("offline read served a stale snapshot")
	}
}
