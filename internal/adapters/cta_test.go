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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/homedash/internal/cache"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
	"github.com/tomtom215/homedash/internal/snapshot"
)

const testBusPredictions = `{"bustime-response": {"prd": [
	{"tmstmp": "20260301 12:00", "typ": "A", "stpnm": "Diversey & Sheridan", "stpid": "11031", "rt": "76",
	 "rtdir": "Eastbound", "des": "Diversey Harbor", "prdtm": "20260301 12:09", "dly": false, "prdctdn": "9"},
	{"tmstmp": "20260301 12:00", "typ": "A", "stpnm": "Diversey & Sheridan", "stpid": "11031", "rt": "76",
	 "rtdir": "Eastbound", "des": "Diversey Harbor", "prdtm": "20260301 12:01", "dly": false, "prdctdn": "DUE"},
	{"tmstmp": "20260301 12:00", "typ": "A", "stpnm": "Diversey & Sheridan", "stpid": "11031", "rt": "76",
	 "rtdir": "Westbound", "des": "Nagle", "prdtm": "20260301 12:05", "dly": false, "prdctdn": "5"}
]}}`

const testBusNoService = `{"bustime-response": {"error": [{"rt": "22", "stpid": "18173", "msg": "No service scheduled"}]}}`

const testTrainETAs = `{"ctatt": {"tmst": "2026-03-01T12:00:00", "errCd": "0", "errNm": null, "eta": [
	{"staId": "40530", "stpId": "30104", "staNm": "Diversey", "stpDe": "Service toward Loop", "rt": "Brn",
	 "destNm": "Loop", "trDr": "5", "prdt": "2026-03-01T12:00:00", "arrT": "2026-03-01T12:04:00", "isApp": "0", "isDly": "0"},
	{"staId": "40530", "stpId": "30103", "staNm": "Diversey", "stpDe": "Service toward Kimball", "rt": "Brn",
	 "destNm": "Kimball", "trDr": "1", "prdt": "2026-03-01T12:00:00", "arrT": "2026-03-01T12:02:00", "isApp": "1", "isDly": "0"}
]}}`

const testTrainError = `{"ctatt": {"tmst": "2026-03-01T12:00:00", "errCd": "101", "errNm": "Invalid API key.", "eta": null}}`

// fakeCTA serves both trackers. Bus route 22 has no service; train route P
// returns a tracker error.
type fakeCTA struct {
	server  *httptest.Server
	calls   atomic.Int32
	mu      sync.Mutex
	queries []string
}

func newFakeCTA(t *testing.T) *fakeCTA {
	t.Helper()
	f := &fakeCTA{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Path+"?"+r.URL.RawQuery)
		f.mu.Unlock()

		q := r.URL.Query()
		switch r.URL.Path {
		case "/bus":
			if q.Get("key") != "bus-key" || q.Get("format") != "json" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if q.Get("rt") == "22" {
				_, _ = io.WriteString(w, testBusNoService)
				return
			}
			_, _ = io.WriteString(w, testBusPredictions)
		case "/train":
			if q.Get("outputType") != "JSON" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if q.Get("rt") == "P" {
				_, _ = io.WriteString(w, testTrainError)
				return
			}
			_, _ = io.WriteString(w, testTrainETAs)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCTA) config() config.CTAConfig {
	return config.CTAConfig{
		BusAPIKey:   "bus-key",
		TrainAPIKey: "train-key",
		BusRoutes:   []string{"76:11031:Eastbound", "22:18173:Southbound"},
		TrainRoutes: []string{"Brn:40530:Southbound", "P:40530:Southbound"},
		BusURL:      f.server.URL + "/bus",
		TrainURL:    f.server.URL + "/train",
		Timeout:     2 * time.Second,
	}
}

func TestCTAAdapter_Arrivals(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	a := NewCTAAdapter(f.config())
	t.Cleanup(a.Close)

	got, origin, err := a.Arrivals(context.Background())
	if err != nil {
		t.Fatalf("Arrivals: %v", err)
	}
	if origin.Source != models.SourceLive {
		t.Errorf("source = %q, want live", origin.Source)
	}
	if len(got.Bus) != 2 || len(got.Train) != 2 {
		t.Fatalf("bus=%d train=%d, want 2 each", len(got.Bus), len(got.Train))
	}

	bus76 := got.Bus[0]
	if bus76.Route != "76" || bus76.Error != "" {
		t.Fatalf("bus 76 = %+v", bus76)
	}
	if len(bus76.Arrivals) != 2 {
		t.Fatalf("eastbound arrivals = %d, want 2 (westbound filtered)", len(bus76.Arrivals))
	}
	if !bus76.Arrivals[0].IsApproach || bus76.Arrivals[1].Minutes != 9 {
		t.Errorf("arrivals not sorted or parsed: %+v", bus76.Arrivals)
	}

	if got.Bus[1].Error != "No service scheduled" || len(got.Bus[1].Arrivals) != 0 {
		t.Errorf("route 22 = %+v, want folded vendor error", got.Bus[1])
	}

	brown := got.Train[0]
	if brown.Error != "" || len(brown.Arrivals) != 1 {
		t.Fatalf("brown line = %+v, want one southbound arrival", brown)
	}
	if brown.Arrivals[0].Minutes != 4 || brown.Arrivals[0].Destination != "Loop" {
		t.Errorf("train arrival = %+v", brown.Arrivals[0])
	}
	if got.Train[1].Error != "Invalid API key." {
		t.Errorf("purple line error = %q", got.Train[1].Error)
	}
}

func TestCTAAdapter_CachesResponses(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	c := cache.New("cta-test", 30*time.Second, cache.WithClock(clock))
	t.Cleanup(c.Close)
	a := NewCTAAdapter(f.config(), WithCTACache(c))

	if _, _, err := a.Arrivals(context.Background()); err != nil {
		t.Fatalf("Arrivals: %v", err)
	}
	first := f.calls.Load()
	if first != 4 {
		t.Fatalf("vendor calls = %d, want 4", first)
	}

	if _, _, err := a.Arrivals(context.Background()); err != nil {
		t.Fatalf("cached Arrivals: %v", err)
	}
	if f.calls.Load() != first {
		t.Error("second call within the TTL must be served from cache")
	}

	mu.Lock()
	now = now.Add(31 * time.Second)
	mu.Unlock()
	if _, _, err := a.Arrivals(context.Background()); err != nil {
		t.Fatalf("Arrivals after TTL: %v", err)
	}
	if f.calls.Load() != 2*first {
		t.Errorf("vendor calls = %d, want %d after expiry", f.calls.Load(), 2*first)
	}
}

func TestCTAAdapter_MissingTrainKeyIsPerRoute(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	cfg := f.config()
	cfg.TrainAPIKey = ""
	a := NewCTAAdapter(cfg)
	t.Cleanup(a.Close)

	got, _, err := a.Arrivals(context.Background())
	if err != nil {
		t.Fatalf("Arrivals: %v", err)
	}
	for _, r := range got.Train {
		if r.Error != CTATrainNotConfiguredMessage {
			t.Errorf("train route %s error = %q", r.Route, r.Error)
		}
	}
	if len(got.Bus[0].Arrivals) == 0 {
		t.Error("bus routes should still be served")
	}
}

func TestCTAAdapter_Unconfigured(t *testing.T) {
	t.Parallel()
	a := NewCTAAdapter(config.CTAConfig{BusRoutes: []string{"76:11031:Eastbound"}})
	t.Cleanup(a.Close)

	_, _, err := a.Arrivals(context.Background())
	if KindOf(err) != KindConfiguration {
		t.Fatalf("kind = %v, want configuration", KindOf(err))
	}
	if PublicMessage(err) != CTANotConfiguredMessage {
		t.Errorf("message = %q", PublicMessage(err))
	}
}

func TestCTAAdapter_InvalidRouteIsReported(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	cfg := f.config()
	cfg.BusRoutes = []string{"76"}
	cfg.TrainRoutes = nil
	a := NewCTAAdapter(cfg)
	t.Cleanup(a.Close)

	got, _, err := a.Arrivals(context.Background())
	if err != nil {
		t.Fatalf("Arrivals: %v", err)
	}
	if got.Bus[0].Error == "" {
		t.Error("malformed route should carry an error")
	}
	if f.calls.Load() != 0 {
		t.Error("malformed route must not be queried")
	}
}

func TestCTAAdapter_UnreachableFallsBackToSnapshot(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	store := newTestStore(t)
	a := NewCTAAdapter(f.config(), WithCTASnapshots(store, &staticMode{}))
	t.Cleanup(a.Close)

	res, err := a.Refresh(context.Background(), false)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.RecordsWritten != 1 {
		t.Errorf("RecordsWritten = %d, want 1", res.RecordsWritten)
	}

	f.server.Close()
	offline := NewCTAAdapter(f.config(), WithCTASnapshots(store, &staticMode{}))
	t.Cleanup(offline.Close)

	got, origin, err := offline.Arrivals(context.Background())
	if err != nil {
		t.Fatalf("Arrivals with trackers down: %v", err)
	}
	if origin.Source != models.SourceSnapshot {
		t.Errorf("source = %q, want snapshot", origin.Source)
	}
	if len(got.Bus) != 2 {
		t.Errorf("snapshot bus routes = %d, want 2", len(got.Bus))
	}
}

func TestCTAAdapter_UnreachableWithoutSnapshot(t *testing.T) {
	t.Parallel()
	f := newFakeCTA(t)
	cfg := f.config()
	f.server.Close()

	a := NewCTAAdapter(cfg)
	t.Cleanup(a.Close)
	if _, _, err := a.Arrivals(context.Background()); KindOf(err) != KindUpstreamUnavailable {
		t.Errorf("kind = %v, want upstream unavailable", KindOf(err))
	}
}

func TestParseCTARoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		spec      string
		route     string
		stop      string
		direction string
		invalid   bool
	}{
		{"76:11031:Eastbound", "76", "11031", "Eastbound", false},
		{"Brn:40530", "Brn", "40530", "", false},
		{" 22:18173:Southbound ", "22", "18173", "Southbound", false},
		{"76", "", "", "", true},
		{":11031:Eastbound", "", "", "", true},
		{"a:b:c:d", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := parseCTARoutes(models.TransitBus, []string{tt.spec})[0]
			if tt.invalid {
				if got.invalid == "" {
					t.Errorf("expected %q to be rejected", tt.spec)
				}
				return
			}
			if got.invalid != "" || got.route != tt.route || got.stop != tt.stop || got.direction != tt.direction {
				t.Errorf("parse %q = %+v", tt.spec, got)
			}
		})
	}
}

func TestArrivalsFingerprintIgnoresCountdowns(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 1, 12, 9, 0, 0, time.UTC)
	a := models.Arrivals{
		Bus:       []models.RouteArrivals{{Mode: "bus", Route: "76", Arrivals: []models.Arrival{{ArrivalTime: at, Minutes: 9}}}},
		FetchedAt: at.Add(-9 * time.Minute),
	}
	b := models.Arrivals{
		Bus:       []models.RouteArrivals{{Mode: "bus", Route: "76", Arrivals: []models.Arrival{{ArrivalTime: at, Minutes: 8}}}},
		FetchedAt: at.Add(-8 * time.Minute),
	}
	ha, err := snapshot.Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := snapshot.Hash(b)
	if ha != hb {
		t.Error("countdown and fetch time must not change the fingerprint")
	}
}
