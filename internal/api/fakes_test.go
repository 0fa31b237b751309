// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/mode"
	"github.com/tomtom215/homedash/internal/models"
)

// fakeBase carries what every fake adapter shares. calls counts every
// adapter method other than Name and IsConfigured.
type fakeBase struct {
	name       string
	configured bool
	degrade    bool
	err        error
	calls      atomic.Int32
}

func (f *fakeBase) Name() string               { return f.name }
func (f *fakeBase) IsConfigured() bool         { return f.configured }
func (f *fakeBase) DegradeOnUnreachable() bool { return f.degrade }

func (f *fakeBase) call() error {
	f.calls.Add(1)
	return f.err
}

type fakeHue struct {
	fakeBase
	zones  []models.Zone
	origin adapters.Origin

	mu     sync.Mutex
	lastOn *bool
	lastID string
	lastBr int
}

func (f *fakeHue) Zones(context.Context) ([]models.Zone, adapters.Origin, error) {
	if err := f.call(); err != nil {
		return nil, adapters.Origin{}, err
	}
	return f.zones, f.origin, nil
}

func (f *fakeHue) ToggleZone(_ context.Context, id string, on *bool) (models.Zone, error) {
	if err := f.call(); err != nil {
		return models.Zone{}, err
	}
	f.mu.Lock()
	f.lastID, f.lastOn = id, on
	f.mu.Unlock()
	state := true
	if on != nil {
		state = *on
	}
	return models.Zone{ID: id, AnyOn: state, AllOn: state}, nil
}

func (f *fakeHue) SetZoneBrightness(_ context.Context, id string, bri int) (models.Zone, error) {
	if err := f.call(); err != nil {
		return models.Zone{}, err
	}
	f.mu.Lock()
	f.lastID, f.lastBr = id, bri
	f.mu.Unlock()
	return models.Zone{ID: id, Brightness: bri, AnyOn: true}, nil
}

func (f *fakeHue) Lights(context.Context) ([]models.Light, adapters.Origin, error) {
	return nil, adapters.Live(), f.call()
}

func (f *fakeHue) ToggleLight(_ context.Context, id string, _ *bool) (models.Light, error) {
	return models.Light{ID: id}, f.call()
}

func (f *fakeHue) SetLightBrightness(_ context.Context, id string, bri int) (models.Light, error) {
	return models.Light{ID: id, Brightness: bri}, f.call()
}

func (f *fakeHue) Scenes(context.Context, string) ([]models.Scene, adapters.Origin, error) {
	return nil, adapters.Live(), f.call()
}

func (f *fakeHue) ActivateScene(context.Context, string, string) error { return f.call() }

func (f *fakeHue) LightsStatus(context.Context) (models.LightsStatus, adapters.Origin, error) {
	return models.LightsStatus{TotalLights: 2}, adapters.Live(), f.call()
}

func (f *fakeHue) EntertainmentAreas(context.Context) ([]models.EntertainmentArea, adapters.Origin, error) {
	return nil, adapters.Live(), f.call()
}

func (f *fakeHue) SetEntertainmentStreaming(_ context.Context, id string, active bool) (models.EntertainmentArea, error) {
	return models.EntertainmentArea{ID: id, Active: active}, f.call()
}

type fakeSonos struct {
	fakeBase
	players []models.Player
}

func (f *fakeSonos) Players(context.Context) ([]models.Player, adapters.Origin, error) {
	if err := f.call(); err != nil {
		return nil, adapters.Origin{}, err
	}
	return f.players, adapters.Live(), nil
}

func (f *fakeSonos) SetVolume(_ context.Context, id string, volume int) (models.Player, error) {
	return models.Player{ID: id, RoomName: id, Volume: volume}, f.call()
}

func (f *fakeSonos) Play(_ context.Context, id string) (models.Player, error) {
	return models.Player{ID: id, PlaybackState: "PLAYING"}, f.call()
}

func (f *fakeSonos) Pause(_ context.Context, id string) (models.Player, error) {
	return models.Player{ID: id, PlaybackState: "PAUSED_PLAYBACK"}, f.call()
}

func (f *fakeSonos) NowPlaying(context.Context) ([]models.NowPlaying, adapters.Origin, error) {
	return nil, adapters.Live(), f.call()
}

type fakeCTA struct{ fakeBase }

func (f *fakeCTA) Arrivals(context.Context) (models.Arrivals, adapters.Origin, error) {
	return models.Arrivals{}, adapters.Live(), f.call()
}

type fakeLyft struct {
	fakeBase
	mu      sync.Mutex
	lastLat float64
	lastLng float64
}

func (f *fakeLyft) ETA(_ context.Context, lat, lng float64) ([]models.ETA, error) {
	f.mu.Lock()
	f.lastLat, f.lastLng = lat, lng
	f.mu.Unlock()
	return []models.ETA{{RideType: "lyft", ETASeconds: 240, IsValidEstimate: true}}, f.call()
}

func (f *fakeLyft) RequestRide(_ context.Context, req models.RideRequest) (models.Ride, error) {
	return models.Ride{ID: "ride-1", Status: "pending", RideType: req.RideType, Origin: req.Origin, Destination: req.Destination}, f.call()
}

func (f *fakeLyft) RideStatus(_ context.Context, id string) (models.Ride, adapters.Origin, error) {
	return models.Ride{ID: id, Status: "accepted"}, adapters.Live(), f.call()
}

func (f *fakeLyft) CancelRide(context.Context, string) error { return f.call() }

type fakeSpotify struct {
	fakeBase
	playback *models.Playback
}

func (f *fakeSpotify) Playback(context.Context) (*models.Playback, adapters.Origin, error) {
	return f.playback, adapters.Live(), f.call()
}

func (f *fakeSpotify) Devices(context.Context) ([]models.Device, error) {
	return nil, f.call()
}

func (f *fakeSpotify) Play(context.Context, string) error           { return f.call() }
func (f *fakeSpotify) Pause(context.Context, string) error          { return f.call() }
func (f *fakeSpotify) Next(context.Context, string) error           { return f.call() }
func (f *fakeSpotify) SetVolume(context.Context, int, string) error { return f.call() }

type fakeFitness struct{ fakeBase }

func (f *fakeFitness) Routine(context.Context) (models.Routine, error) {
	return models.Routine{Name: "Default"}, f.call()
}

func (f *fakeFitness) WeekProgress(_ context.Context, year, week int) (models.WeekProgress, error) {
	return models.WeekProgress{Year: year, Week: week, Days: []models.DayProgress{}}, f.call()
}

func (f *fakeFitness) CompleteWorkout(_ context.Context, date, workoutType string, durationMin int) (models.Completion, error) {
	return models.Completion{Date: date, WorkoutType: workoutType, DurationMin: durationMin}, f.call()
}

func (f *fakeFitness) Consistency(context.Context) (models.Consistency, error) {
	return models.Consistency{CurrentStreak: 3}, f.call()
}

// fakeMode is a ModeState with a fixed production flag.
type fakeMode struct {
	production bool
	checks     atomic.Int32
}

func (m *fakeMode) EnsureLocalAvailabilityChecked(context.Context) { m.checks.Add(1) }

func (m *fakeMode) Status() mode.Status {
	deployment := config.DeploymentLocal
	if m.production {
		deployment = config.DeploymentProduction
	}
	return mode.Status{
		Deployment:     deployment,
		IsProduction:   m.production,
		LocalReachable: !m.production,
		LastCheckedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Services:       map[string]mode.ServiceStatus{},
	}
}

func (m *fakeMode) Guard() mode.GuardResult { return mode.Guard(m.Status()) }

type fakeSync struct {
	results []models.SyncResult
	err     error
	forced  atomic.Bool
	calls   atomic.Int32
}

func (s *fakeSync) TriggerSync(_ context.Context, force bool) ([]models.SyncResult, error) {
	s.calls.Add(1)
	s.forced.Store(force)
	return s.results, s.err
}

func (s *fakeSync) LastSyncTime() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}

type fakeSyncLog struct {
	mu      sync.Mutex
	service string
	limit   int
}

func (l *fakeSyncLog) ListSyncLog(_ context.Context, service string, limit int) ([]models.SyncLogEntry, error) {
	l.mu.Lock()
	l.service, l.limit = service, limit
	l.mu.Unlock()
	return nil, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// fixture bundles a router over configured fakes.
type fixture struct {
	hue     *fakeHue
	sonos   *fakeSonos
	cta     *fakeCTA
	lyft    *fakeLyft
	spotify *fakeSpotify
	fitness *fakeFitness
	mode    *fakeMode
	sync    *fakeSync
	syncLog *fakeSyncLog
	db      fakePinger
	cfg     *config.Config
}

func newFixture() *fixture {
	return &fixture{
		hue:     &fakeHue{fakeBase: fakeBase{name: adapters.ServiceHue, configured: true}},
		sonos:   &fakeSonos{fakeBase: fakeBase{name: adapters.ServiceSonos, configured: true, degrade: true}},
		cta:     &fakeCTA{fakeBase{name: adapters.ServiceCTA, configured: true}},
		lyft:    &fakeLyft{fakeBase: fakeBase{name: adapters.ServiceLyft, configured: true}},
		spotify: &fakeSpotify{fakeBase: fakeBase{name: adapters.ServiceSpotify, configured: true}},
		fitness: &fakeFitness{fakeBase{name: adapters.ServiceFitness, configured: true}},
		mode:    &fakeMode{},
		sync:    &fakeSync{},
		syncLog: &fakeSyncLog{},
		cfg: &config.Config{
			Security: config.SecurityConfig{RateLimitDisabled: true},
		},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Hue:     f.hue,
		Sonos:   f.sonos,
		CTA:     f.cta,
		Lyft:    f.lyft,
		Spotify: f.spotify,
		Fitness: f.fitness,
		Mode:    f.mode,
		Sync:    f.sync,
		SyncLog: f.syncLog,
		DB:      f.db,
		Config:  f.cfg,
	}
}

// adapterCalls sums calls across every fake adapter.
func (f *fixture) adapterCalls() int32 {
	return f.hue.calls.Load() + f.sonos.calls.Load() + f.cta.calls.Load() +
		f.lyft.calls.Load() + f.spotify.calls.Load() + f.fitness.calls.Load()
}
