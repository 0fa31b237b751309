// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/mode"
	"github.com/tomtom215/homedash/internal/models"
)

const (
	defaultSyncLogLimit = 50
	readinessTimeout    = 2 * time.Second
)

// Mode reports whether controls are enabled, probing local devices first
// when the cached result has expired.
//
// GET /api/v1/mode
func (h *Handler) Mode(w http.ResponseWriter, r *http.Request) {
	h.mode.EnsureLocalAvailabilityChecked(r.Context())
	respondOK(w, r, mode.InfoFor(h.mode.Status()))
}

// SyncResponse is returned by a manual refresh.
type SyncResponse struct {
	Results    []models.SyncResult `json:"results"`
	LastSyncAt *time.Time          `json:"lastSyncAt,omitempty"`
}

// TriggerSync refreshes every configured snapshot source now.
//
// POST /api/v1/sync?force=
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	force, ok := queryBool(w, r, "force")
	if !ok {
		return
	}
	if h.sync == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "Snapshot refresher unavailable")
		return
	}

	results, err := h.sync.TriggerSync(r.Context(), force)
	if err != nil {
		respondAdapterError(w, r, "sync", err)
		return
	}
	if results == nil {
		results = []models.SyncResult{}
	}

	resp := SyncResponse{Results: results}
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		resp.LastSyncAt = &last
	}
	logging.Ctx(r.Context()).Info().Int("services", len(results)).Bool("force", force).Msg("Manual sync completed")
	respondOK(w, r, resp)
}

// SyncLog lists recent refresh attempts, newest first.
//
// GET /api/v1/sync/log?service=&limit=
func (h *Handler) SyncLog(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if service != "" {
		if _, known := notConfiguredMessages[service]; !known {
			respondError(w, r, http.StatusBadRequest, CodeValidation, "service must be one of: hue, sonos, cta, lyft, spotify, fitness")
			return
		}
	}
	limit, ok := queryInt(w, r, "limit", defaultSyncLogLimit, "min=1,max=500")
	if !ok {
		return
	}
	if h.syncLog == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "Sync log unavailable")
		return
	}

	entries, err := h.syncLog.ListSyncLog(r.Context(), service, limit)
	if err != nil {
		respondAdapterError(w, r, "sync", err)
		return
	}
	if entries == nil {
		entries = []models.SyncLogEntry{}
	}
	respondOK(w, r, entries)
}

// HealthLive is the liveness probe.
//
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 503 until storage is reachable. It also warms the
// reachability cache so the first dashboard read after a restart does not
// pay for the probe.
//
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.mode.EnsureLocalAvailabilityChecked(r.Context())
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
			respondError(w, r, http.StatusServiceUnavailable, CodeServiceUnavailable, "Database not ready")
			return
		}
	}
	status := h.mode.Status()
	respondOK(w, r, map[string]interface{}{
		"ready":          true,
		"database":       h.db != nil,
		"deployment":     status.Deployment,
		"localReachable": status.LocalReachable,
	})
}

// SetupStatus describes which integrations have credentials.
type SetupStatus struct {
	Integrations map[string]bool `json:"integrations"`
	Deployment   string          `json:"deployment"`
	AuthEnabled  bool            `json:"authEnabled"`
	SyncEnabled  bool            `json:"syncEnabled"`
	Ready        bool            `json:"ready"`
}

// HealthSetup reports per-integration configuration for the onboarding
// screen. It never contacts a vendor.
//
// GET /api/v1/health/setup
func (h *Handler) HealthSetup(w http.ResponseWriter, r *http.Request) {
	integrations := make(map[string]bool, 6)
	for _, a := range []adapters.Configurable{h.hue, h.sonos, h.cta, h.lyft, h.spotify, h.fitness} {
		integrations[a.Name()] = a.IsConfigured()
	}

	ready := false
	for _, configured := range integrations {
		ready = ready || configured
	}

	respondOK(w, r, SetupStatus{
		Integrations: integrations,
		Deployment:   h.mode.Status().Deployment,
		AuthEnabled:  h.config.Security.AuthEnabled(),
		SyncEnabled:  h.config.Sync.Enabled,
		Ready:        ready,
	})
}
