// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
)

type fakeLyft struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	apiCalls    atomic.Int32
	expiresIn   atomic.Int32
	rejectToken atomic.Bool

	mu       sync.Mutex
	lastBody map[string]interface{}
	lastPath string
}

func newFakeLyft(t *testing.T) *fakeLyft {
	t.Helper()
	f := &fakeLyft{}
	f.expiresIn.Store(3600)
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		id, secret, ok := r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		if f.rejectToken.Load() || !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"lyft-token","token_type":"bearer","expires_in":`+strconv.Itoa(int(f.expiresIn.Load()))+`}`)
	})
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		f.apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer lyft-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}
		f.mu.Lock()
		f.lastBody = body
		f.lastPath = r.Method + " " + r.URL.Path
		f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/eta":
			if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lng") == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, `{"eta_estimates":[
				{"ride_type":"lyft","display_name":"Lyft","eta_seconds":240,"is_valid_estimate":true},
				{"ride_type":"lyft_xl","display_name":"Lyft XL","eta_seconds":480,"is_valid_estimate":true}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/rides":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"ride_id":"r-1","status":"pending","ride_type":"lyft",
				"origin":{"lat":41.93,"lng":-87.64},"destination":{"lat":41.88,"lng":-87.63}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/rides/r-1":
			_, _ = io.WriteString(w, `{"ride_id":"r-1","status":"accepted","ride_type":"lyft",
				"origin":{"lat":41.93,"lng":-87.64},"destination":{"lat":41.88,"lng":-87.63},
				"driver":{"first_name":"Sam","rating":"4.9"},
				"vehicle":{"make":"Toyota","model":"Prius","color":"Blue","license_plate":"ABC123"},
				"pickup":{"eta_seconds":180}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/rides/r-1/cancel":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLyft) config() config.LyftConfig {
	return config.LyftConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      f.server.URL,
		TokenURL:     f.server.URL + "/oauth/token",
		Timeout:      2 * time.Second,
	}
}

func TestLyftAdapter_ETA(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	a := NewLyftAdapter(f.config())

	etas, err := a.ETA(context.Background(), 41.93, -87.64)
	if err != nil {
		t.Fatalf("ETA: %v", err)
	}
	if len(etas) != 2 || etas[0].RideType != "lyft" || etas[0].ETASeconds != 240 {
		t.Errorf("etas = %+v", etas)
	}

	if _, err := a.ETA(context.Background(), 41.93, -87.64); err != nil {
		t.Fatalf("second ETA: %v", err)
	}
	if got := f.tokenCalls.Load(); got != 1 {
		t.Errorf("token calls = %d, want 1 (token reused)", got)
	}
}

func TestLyftAdapter_RefreshesTokenEarly(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	f.expiresIn.Store(30)
	a := NewLyftAdapter(f.config())

	for i := 0; i < 2; i++ {
		if _, err := a.ETA(context.Background(), 41.93, -87.64); err != nil {
			t.Fatalf("ETA: %v", err)
		}
	}
	if got := f.tokenCalls.Load(); got != 2 {
		t.Errorf("token calls = %d, want 2 for a token inside the refresh window", got)
	}
}

func TestLyftAdapter_Rides(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	a := NewLyftAdapter(f.config())
	ctx := context.Background()

	ride, err := a.RequestRide(ctx, models.RideRequest{
		Origin:      models.Location{Lat: 41.93, Lng: -87.64},
		Destination: models.Location{Lat: 41.88, Lng: -87.63},
	})
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if ride.ID != "r-1" || ride.Status != "pending" {
		t.Errorf("ride = %+v", ride)
	}
	f.mu.Lock()
	rideType := f.lastBody["ride_type"]
	f.mu.Unlock()
	if rideType != "lyft" {
		t.Errorf("ride_type = %v, want default lyft", rideType)
	}

	status, origin, err := a.RideStatus(ctx, "r-1")
	if err != nil {
		t.Fatalf("RideStatus: %v", err)
	}
	if status.Driver == nil || status.Driver.FirstName != "Sam" || status.Vehicle == nil || status.ETASeconds != 180 {
		t.Errorf("status = %+v", status)
	}
	if origin.Source != models.SourceLive {
		t.Errorf("source = %q, want live", origin.Source)
	}

	if err := a.CancelRide(ctx, "r-1"); err != nil {
		t.Fatalf("CancelRide: %v", err)
	}
	if _, _, err := a.RideStatus(ctx, "missing"); KindOf(err) != KindNotFound {
		t.Errorf("unknown ride kind = %v, want not found", KindOf(err))
	}
}

func TestLyftAdapter_CoordinateValidation(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	a := NewLyftAdapter(f.config())

	tests := []struct {
		name     string
		lat, lng float64
	}{
		{"lat too high", 91, 0},
		{"lat too low", -91, 0},
		{"lng too high", 0, 181},
		{"lng too low", 0, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ETA(context.Background(), tt.lat, tt.lng)
			if KindOf(err) != KindValidation {
				t.Errorf("kind = %v, want validation", KindOf(err))
			}
		})
	}
	if f.apiCalls.Load() != 0 || f.tokenCalls.Load() != 0 {
		t.Error("invalid coordinates must not reach Lyft")
	}
}

func TestLyftAdapter_RejectedCredentials(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	f.rejectToken.Store(true)
	a := NewLyftAdapter(f.config())

	_, err := a.ETA(context.Background(), 41.93, -87.64)
	if KindOf(err) != KindAuth {
		t.Fatalf("kind = %v, want auth", KindOf(err))
	}
	if !strings.Contains(PublicMessage(err), "Lyft OAuth error") {
		t.Errorf("message = %q", PublicMessage(err))
	}
}

func TestLyftAdapter_Unconfigured(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	cfg := f.config()
	cfg.ClientSecret = ""
	a := NewLyftAdapter(cfg)

	ctx := context.Background()
	checks := map[string]error{}
	_, checks["eta"] = a.ETA(ctx, 1, 1)
	_, checks["request"] = a.RequestRide(ctx, models.RideRequest{})
	_, _, checks["status"] = a.RideStatus(ctx, "r-1")
	checks["cancel"] = a.CancelRide(ctx, "r-1")

	for name, err := range checks {
		if KindOf(err) != KindConfiguration || PublicMessage(err) != LyftNotConfiguredMessage {
			t.Errorf("%s: err = %v", name, err)
		}
	}
	if f.apiCalls.Load() != 0 || f.tokenCalls.Load() != 0 {
		t.Error("unconfigured adapter must not contact Lyft")
	}
}

func TestLyftAdapter_RideStatusServesLastKnownState(t *testing.T) {
	t.Parallel()
	f := newFakeLyft(t)
	a := NewLyftAdapter(f.config(), WithLyftSnapshots(newTestStore(t), &staticMode{}))
	ctx := context.Background()

	if _, err := a.RequestRide(ctx, models.RideRequest{
		Origin:      models.Location{Lat: 41.93, Lng: -87.64},
		Destination: models.Location{Lat: 41.88, Lng: -87.63},
	}); err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if _, _, err := a.RideStatus(ctx, "r-1"); err != nil {
		t.Fatalf("live RideStatus: %v", err)
	}

	f.server.Close()

	ride, origin, err := a.RideStatus(ctx, "r-1")
	if err != nil {
		t.Fatalf("RideStatus with Lyft down: %v", err)
	}
	if origin.Source != models.SourceSnapshot {
		t.Errorf("source = %q, want snapshot", origin.Source)
	}
	if ride.ID != "r-1" || ride.Status != "accepted" {
		t.Errorf("ride = %+v, want last recorded accepted state", ride)
	}

	if _, _, err := a.RideStatus(ctx, "r-2"); err == nil {
		t.Error("ride without a recorded state must fail when Lyft is down")
	}
}
