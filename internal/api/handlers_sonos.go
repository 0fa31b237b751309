// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/models"
)

// SonosPlayers lists players. An offline Sonos host answers an empty list
// when the adapter degrades.
//
// GET /api/v1/sonos/players
func (h *Handler) SonosPlayers(w http.ResponseWriter, r *http.Request) {
	players, origin, err := h.sonos.Players(r.Context())
	respondRead(w, r, h.sonos, players, origin, err, []models.Player{})
}

// SonosNowPlaying lists what each group is playing.
//
// GET /api/v1/sonos/now-playing
func (h *Handler) SonosNowPlaying(w http.ResponseWriter, r *http.Request) {
	playing, origin, err := h.sonos.NowPlaying(r.Context())
	respondRead(w, r, h.sonos, playing, origin, err, []models.NowPlaying{})
}

// SonosVolume sets a room's volume (0-100).
//
// POST /api/v1/sonos/players/{id}/volume
func (h *Handler) SonosVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.sonos) {
		return
	}

	player, err := h.sonos.SetVolume(r.Context(), id, *req.Volume)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceSonos, err)
		return
	}
	respondOK(w, r, player)
}

// SonosPlay resumes playback in a room.
//
// POST /api/v1/sonos/players/{id}/play
func (h *Handler) SonosPlay(w http.ResponseWriter, r *http.Request) {
	h.sonosTransport(w, r, h.sonos.Play)
}

// SonosPause pauses playback in a room.
//
// POST /api/v1/sonos/players/{id}/pause
func (h *Handler) SonosPause(w http.ResponseWriter, r *http.Request) {
	h.sonosTransport(w, r, h.sonos.Pause)
}

func (h *Handler) sonosTransport(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (models.Player, error)) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.sonos) {
		return
	}
	player, err := action(r.Context(), id)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceSonos, err)
		return
	}
	respondOK(w, r, player)
}
