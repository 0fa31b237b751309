// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/mode"
	"github.com/tomtom215/homedash/internal/models"
	ws "github.com/tomtom215/homedash/internal/websocket"
)

// ModeState is the deployment-mode view the HTTP layer needs.
type ModeState interface {
	EnsureLocalAvailabilityChecked(ctx context.Context)
	Status() mode.Status
	Guard() mode.GuardResult
}

// SyncTrigger runs the snapshot refresher on demand.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, force bool) ([]models.SyncResult, error)
	LastSyncTime() time.Time
}

// SyncLogReader lists past refresh attempts.
type SyncLogReader interface {
	ListSyncLog(ctx context.Context, service string, limit int) ([]models.SyncLogEntry, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of Handler. Adapters and Mode are required;
// the rest disable their routes when nil.
type Deps struct {
	Hue     adapters.LightController
	Sonos   adapters.AudioController
	CTA     adapters.TransitProvider
	Lyft    adapters.RideProvider
	Spotify adapters.MusicPlayer
	Fitness adapters.FitnessTracker

	Mode    ModeState
	Sync    SyncTrigger
	SyncLog SyncLogReader
	DB      Pinger
	Hub     *ws.Hub
	Config  *config.Config
}

// Handler holds the route handlers.
type Handler struct {
	hue     adapters.LightController
	sonos   adapters.AudioController
	cta     adapters.TransitProvider
	lyft    adapters.RideProvider
	spotify adapters.MusicPlayer
	fitness adapters.FitnessTracker

	mode    ModeState
	sync    SyncTrigger
	syncLog SyncLogReader
	db      Pinger
	hub     *ws.Hub
	config  *config.Config

	startTime time.Time
}

// NewHandler validates deps and returns a Handler.
func NewHandler(deps Deps) (*Handler, error) {
	switch {
	case deps.Hue == nil, deps.Sonos == nil, deps.CTA == nil,
		deps.Lyft == nil, deps.Spotify == nil, deps.Fitness == nil:
		return nil, errors.New("api: every adapter is required")
	case deps.Mode == nil:
		return nil, errors.New("api: mode state is required")
	}

	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	return &Handler{
		hue:       deps.Hue,
		sonos:     deps.Sonos,
		cta:       deps.CTA,
		lyft:      deps.Lyft,
		spotify:   deps.Spotify,
		fitness:   deps.Fitness,
		mode:      deps.Mode,
		sync:      deps.Sync,
		syncLog:   deps.SyncLog,
		db:        deps.DB,
		hub:       deps.Hub,
		config:    cfg,
		startTime: time.Now(),
	}, nil
}
