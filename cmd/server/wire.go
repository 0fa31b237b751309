// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/api"
	"github.com/tomtom215/homedash/internal/auth"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/database"
	"github.com/tomtom215/homedash/internal/eventprocessor"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/mode"
	"github.com/tomtom215/homedash/internal/snapshot"
	"github.com/tomtom215/homedash/internal/supervisor"
	"github.com/tomtom215/homedash/internal/supervisor/services"
	"github.com/tomtom215/homedash/internal/sync"
	ws "github.com/tomtom215/homedash/internal/websocket"
)

// modeEventTimeout bounds publishing a mode change from the probe path.
const modeEventTimeout = 2 * time.Second

// app holds every long-lived component built from the configuration.
type app struct {
	cfg *config.Config

	snapshots *snapshot.Store
	db        *database.DB
	mode      *mode.State
	bus       *eventprocessor.Bus
	hub       *ws.Hub
	refresher *sync.Manager
	cta       *adapters.CTAAdapter
	server    *http.Server
}

// buildApp opens storage and wires components. The caller must call close.
func buildApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.snapshots, err = snapshot.Open(cfg.Storage.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	logging.Info().Str("path", cfg.Storage.SnapshotPath).Msg("Snapshot store opened")

	a.db, err = database.New(cfg.Storage.DuckDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logging.Info().Str("path", cfg.Storage.DuckDBPath).Msg("Database initialized")

	a.mode = mode.NewState(cfg.Mode)

	hue := adapters.NewHueAdapter(cfg.Hue, adapters.WithHueSnapshots(a.snapshots, a.mode))
	sonos := adapters.NewSonosAdapter(cfg.Sonos, adapters.WithSonosSnapshots(a.snapshots, a.mode))
	a.cta = adapters.NewCTAAdapter(cfg.CTA, adapters.WithCTASnapshots(a.snapshots, a.mode))
	lyft := adapters.NewLyftAdapter(cfg.Lyft, adapters.WithLyftSnapshots(a.snapshots, a.mode))
	spotify := adapters.NewSpotifyAdapter(cfg.Spotify, adapters.WithSpotifySnapshots(a.snapshots, a.mode))
	fitness := adapters.NewFitnessAdapter(a.db, adapters.WithFitnessSnapshots(a.snapshots, a.mode))

	for _, p := range []interface {
		mode.Prober
		adapters.Configurable
	}{hue, sonos} {
		if p.IsConfigured() {
			a.mode.Register(p)
		}
	}

	for _, c := range []adapters.Configurable{hue, sonos, a.cta, lyft, spotify, fitness} {
		logging.Info().Str("service", c.Name()).Bool("configured", c.IsConfigured()).Msg("Integration status")
	}

	a.hub = ws.NewHub()
	a.bus, err = eventprocessor.NewBus(eventprocessor.DefaultBusConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	forwarder, err := eventprocessor.NewWebSocketForwarder(a.hub)
	if err != nil {
		return nil, fmt.Errorf("create websocket forwarder: %w", err)
	}
	forwarder.Attach(a.bus)
	a.mode.SetChangeHook(a.publishModeChange)

	a.refresher = sync.NewManager(cfg.Sync, a.mode, a.db, a.bus, hue, sonos, a.cta, spotify, fitness)

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("configure authentication: %w", err)
		}
		logging.Info().Msg("Bearer authentication enabled for mutating routes")
	} else {
		logging.Warn().Msg("AUTH_JWT_SECRET not set; mutating routes rely on the mode guard only")
	}

	handler, err := api.NewHandler(api.Deps{
		Hue:     hue,
		Sonos:   sonos,
		CTA:     a.cta,
		Lyft:    lyft,
		Spotify: spotify,
		Fitness: fitness,
		Mode:    a.mode,
		Sync:    a.refresher,
		SyncLog: a.db,
		DB:      a.db,
		Hub:     a.hub,
		Config:  cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("create api handler: %w", err)
	}
	router := api.NewRouter(handler, jwtManager, api.ChiMiddlewareConfigFromSecurity(cfg.Security))

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

// publishModeChange forwards a reachability flip to dashboards.
func (a *app) publishModeChange(status mode.Status) {
	info := mode.InfoFor(status)
	ctx, cancel := context.WithTimeout(context.Background(), modeEventTimeout)
	defer cancel()

	err := a.bus.Publish(ctx, eventprocessor.ModeChanged{
		Mode:           info.Mode,
		IsProduction:   status.IsProduction,
		LocalReachable: status.LocalReachable,
		Deployment:     status.Deployment,
		ChangedAt:      status.LastCheckedAt,
	})
	if err != nil && !errors.Is(err, eventprocessor.ErrClosed) {
		logging.Warn().Err(err).Msg("Failed to publish mode change")
	}
	logging.Info().Str("mode", info.Mode).Bool("local_reachable", status.LocalReachable).Msg("Deployment mode changed")
}

// supervise adds every long-running component to tree.
func (a *app) supervise(tree *supervisor.SupervisorTree) {
	tree.AddDataService(services.NewRefresherService(a.refresher))
	tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	tree.AddMessagingService(services.NewEventBusService(a.bus))
	tree.AddAPIService(services.NewHTTPServerService(a.server, services.DefaultShutdownTimeout))
}

// close releases storage. Safe on a partially built app.
func (a *app) close() {
	if a.cta != nil {
		a.cta.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing snapshot store")
		}
	}
}
