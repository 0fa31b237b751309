// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/homedash/internal/auth"
	"github.com/tomtom215/homedash/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil authManager leaves mutating routes
// open, guarded only by the deployment mode.
func NewRouter(handler *Handler, authManager *auth.JWTManager, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		auth:          auth.NewMiddleware(authManager, writeAuthError),
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi builds the route tree. Every route is served under /api/v1 and
// again at the root.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(auth.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// One limiter shared by both mounts so a client cannot double its
	// budget by switching prefixes.
	limit := router.chiMiddleware.RateLimit()

	r.Route("/api/v1", func(r chi.Router) {
		router.registerRoutes(r, limit)
	})
	r.Group(func(r chi.Router) {
		router.registerRoutes(r, limit)
	})

	return r
}

func (router *Router) registerRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	h := router.handler

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
		r.Get("/setup", h.HealthSetup)
	})

	r.Get("/ws", h.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))
		r.Use(limit)

		r.Get("/mode", h.Mode)
		r.Get("/sync/log", h.SyncLog)

		// Device and integration reads.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.ReachabilityCheck(h.mode))

			r.Get("/hue/zones", h.HueZones)
			r.Get("/hue/lights", h.HueLights)
			r.Get("/hue/scenes", h.HueScenes)
			r.Get("/hue/status", h.HueStatus)
			r.Get("/hue/entertainment", h.HueEntertainment)

			r.Get("/sonos/players", h.SonosPlayers)
			r.Get("/sonos/now-playing", h.SonosNowPlaying)

			r.Get("/cta/arrivals", h.CTAArrivals)

			r.Get("/lyft/eta", h.LyftETA)
			r.Get("/lyft/rides/{id}", h.LyftRideStatus)

			r.Get("/spotify/playback", h.SpotifyPlayback)
			r.Get("/spotify/devices", h.SpotifyDevices)

			r.Get("/fitness/routine", h.FitnessRoutine)
			r.Get("/fitness/progress", h.FitnessProgress)
			r.Get("/fitness/consistency", h.FitnessConsistency)
		})

		// Mutations: bearer token, then mode guard, then the handler's own
		// validation and configuration checks.
		r.Group(func(r chi.Router) {
			r.Use(router.auth.RequireBearer)
			r.Use(router.chiMiddleware.ModeGuard(h.mode))

			r.Post("/sync", h.TriggerSync)

			r.Post("/hue/zones/{id}/toggle", h.HueToggleZone)
			r.Post("/hue/zones/{id}/brightness", h.HueZoneBrightness)
			r.Post("/hue/zones/{id}/scene", h.HueActivateScene)
			r.Post("/hue/lights/{id}/toggle", h.HueToggleLight)
			r.Post("/hue/lights/{id}/brightness", h.HueLightBrightness)
			r.Post("/hue/entertainment/{id}/streaming", h.HueEntertainmentStreaming)

			r.Post("/sonos/players/{id}/volume", h.SonosVolume)
			r.Post("/sonos/players/{id}/play", h.SonosPlay)
			r.Post("/sonos/players/{id}/pause", h.SonosPause)

			r.Post("/lyft/rides", h.LyftRequestRide)
			r.Post("/lyft/rides/{id}/cancel", h.LyftCancelRide)

			r.Post("/spotify/play", h.SpotifyPlay)
			r.Post("/spotify/pause", h.SpotifyPause)
			r.Post("/spotify/next", h.SpotifyNext)
			r.Post("/spotify/volume", h.SpotifyVolume)

			r.Post("/fitness/workouts", h.FitnessCompleteWorkout)
		})
	})
}
