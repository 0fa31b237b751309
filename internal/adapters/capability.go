// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"time"

	"github.com/tomtom215/homedash/internal/models"
)

// Origin describes where read data came from.
type Origin struct {
	Source     models.Source
	SnapshotAt time.Time
}

// Live is the origin of data fetched during the current request.
func Live() Origin {
	return Origin{Source: models.SourceLive}
}

// FromSnapshot is the origin of data served from the snapshot store.
func FromSnapshot(recordedAt time.Time) Origin {
	return Origin{Source: models.SourceSnapshot, SnapshotAt: recordedAt}
}

// Configurable is implemented by every adapter.
type Configurable interface {
	Name() string
	IsConfigured() bool
}

// Degradable adapters turn an unreachable upstream into an empty read.
type Degradable interface {
	DegradeOnUnreachable() bool
}

// ZoneControllable is a lighting system organised in zones.
type ZoneControllable interface {
	Configurable
	Zones(ctx context.Context) ([]models.Zone, Origin, error)
	ToggleZone(ctx context.Context, id string, on *bool) (models.Zone, error)
	SetZoneBrightness(ctx context.Context, id string, brightness int) (models.Zone, error)
}

// PlayerControllable is an audio system organised in players.
type PlayerControllable interface {
	Configurable
	Players(ctx context.Context) ([]models.Player, Origin, error)
	SetVolume(ctx context.Context, id string, volume int) (models.Player, error)
}

// SnapshotSource can refresh its production snapshot on demand.
type SnapshotSource interface {
	Configurable
	Refresh(ctx context.Context, force bool) (models.SyncResult, error)
}

// LightController is the full Hue surface used by the HTTP layer.
type LightController interface {
	ZoneControllable
	Degradable
	Lights(ctx context.Context) ([]models.Light, Origin, error)
	ToggleLight(ctx context.Context, id string, on *bool) (models.Light, error)
	SetLightBrightness(ctx context.Context, id string, brightness int) (models.Light, error)
	Scenes(ctx context.Context, zoneID string) ([]models.Scene, Origin, error)
	ActivateScene(ctx context.Context, zoneID, sceneID string) error
	LightsStatus(ctx context.Context) (models.LightsStatus, Origin, error)
	EntertainmentAreas(ctx context.Context) ([]models.EntertainmentArea, Origin, error)
	SetEntertainmentStreaming(ctx context.Context, id string, active bool) (models.EntertainmentArea, error)
}

// AudioController is the full Sonos surface used by the HTTP layer.
type AudioController interface {
	PlayerControllable
	Degradable
	Play(ctx context.Context, id string) (models.Player, error)
	Pause(ctx context.Context, id string) (models.Player, error)
	NowPlaying(ctx context.Context) ([]models.NowPlaying, Origin, error)
}

// TransitProvider returns upcoming arrivals.
type TransitProvider interface {
	Configurable
	Degradable
	Arrivals(ctx context.Context) (models.Arrivals, Origin, error)
}

// RideProvider is a ride-hailing service.
type RideProvider interface {
	Configurable
	Degradable
	ETA(ctx context.Context, lat, lng float64) ([]models.ETA, error)
	RequestRide(ctx context.Context, req models.RideRequest) (models.Ride, error)
	RideStatus(ctx context.Context, id string) (models.Ride, Origin, error)
	CancelRide(ctx context.Context, id string) error
}

// MusicPlayer is a streaming music account.
type MusicPlayer interface {
	Configurable
	Degradable
	Playback(ctx context.Context) (*models.Playback, Origin, error)
	Devices(ctx context.Context) ([]models.Device, error)
	Play(ctx context.Context, deviceID string) error
	Pause(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	SetVolume(ctx context.Context, volume int, deviceID string) error
}

// FitnessTracker stores the workout routine and completions.
type FitnessTracker interface {
	Configurable
	Routine(ctx context.Context) (models.Routine, error)
	WeekProgress(ctx context.Context, year, week int) (models.WeekProgress, error)
	CompleteWorkout(ctx context.Context, date, workoutType string, durationMin int) (models.Completion, error)
	Consistency(ctx context.Context) (models.Consistency, error)
}

// Service names used for errors, metrics and snapshot keys.
const (
	ServiceHue     = "hue"
	ServiceSonos   = "sonos"
	ServiceCTA     = "cta"
	ServiceLyft    = "lyft"
	ServiceSpotify = "spotify"
	ServiceFitness = "fitness"
)
