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

// CTAArrivals returns upcoming bus and train arrivals for the configured
// stops. Per-route failures are reported inside the result.
//
// GET /api/v1/cta/arrivals
func (h *Handler) CTAArrivals(w http.ResponseWriter, r *http.Request) {
	arrivals, origin, err := h.cta.Arrivals(r.Context())
	respondRead(w, r, h.cta, arrivals, origin, err, models.Arrivals{
		Bus:   []models.RouteArrivals{},
		Train: []models.RouteArrivals{},
	})
}

// LyftETA returns pickup estimates for a location.
//
// GET /api/v1/lyft/eta?lat=&lng=
func (h *Handler) LyftETA(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(w, r, "lat", "latitude")
	if !ok {
		return
	}
	lng, ok := queryFloat(w, r, "lng", "longitude")
	if !ok {
		return
	}
	etas, err := h.lyft.ETA(r.Context(), lat, lng)
	respondRead(w, r, h.lyft, etas, adapters.Live(), err, []models.ETA{})
}

// LyftRequestRide books a ride.
//
// POST /api/v1/lyft/rides
func (h *Handler) LyftRequestRide(w http.ResponseWriter, r *http.Request) {
	var req RideRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	if !requireConfigured(w, r, h.lyft) {
		return
	}

	ride, err := h.lyft.RequestRide(r.Context(), models.RideRequest{
		RideType:    req.RideType,
		Origin:      req.Origin.toModel(),
		Destination: req.Destination.toModel(),
	})
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceLyft, err)
		return
	}
	respondOK(w, r, ride)
}

// LyftRideStatus returns a ride's current state.
//
// GET /api/v1/lyft/rides/{id}
func (h *Handler) LyftRideStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ride, origin, err := h.lyft.RideStatus(r.Context(), id)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceLyft, err)
		return
	}
	respondData(w, r, ride, origin)
}

// LyftCancelRide cancels a ride.
//
// POST /api/v1/lyft/rides/{id}/cancel
func (h *Handler) LyftCancelRide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.lyft) {
		return
	}
	if err := h.lyft.CancelRide(r.Context(), id); err != nil {
		respondAdapterError(w, r, adapters.ServiceLyft, err)
		return
	}
	respondOK(w, r, map[string]string{"id": id, "status": "canceled"})
}

// SpotifyPlayback returns the current playback, or null when idle.
//
// GET /api/v1/spotify/playback
func (h *Handler) SpotifyPlayback(w http.ResponseWriter, r *http.Request) {
	playback, origin, err := h.spotify.Playback(r.Context())
	respondRead(w, r, h.spotify, playback, origin, err, nil)
}

// SpotifyDevices lists Spotify Connect devices.
//
// GET /api/v1/spotify/devices
func (h *Handler) SpotifyDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.spotify.Devices(r.Context())
	respondRead(w, r, h.spotify, devices, adapters.Live(), err, []models.Device{})
}

// SpotifyPlay resumes playback.
//
// POST /api/v1/spotify/play
func (h *Handler) SpotifyPlay(w http.ResponseWriter, r *http.Request) {
	h.spotifyCommand(w, r, "play", h.spotify.Play)
}

// SpotifyPause pauses playback.
//
// POST /api/v1/spotify/pause
func (h *Handler) SpotifyPause(w http.ResponseWriter, r *http.Request) {
	h.spotifyCommand(w, r, "pause", h.spotify.Pause)
}

// SpotifyNext skips to the next track.
//
// POST /api/v1/spotify/next
func (h *Handler) SpotifyNext(w http.ResponseWriter, r *http.Request) {
	h.spotifyCommand(w, r, "next", h.spotify.Next)
}

// SpotifyVolume sets playback volume (0-100).
//
// POST /api/v1/spotify/volume
func (h *Handler) SpotifyVolume(w http.ResponseWriter, r *http.Request) {
	var req SpotifyVolumeRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	if !requireConfigured(w, r, h.spotify) {
		return
	}
	if err := h.spotify.SetVolume(r.Context(), *req.Volume, req.DeviceID); err != nil {
		respondAdapterError(w, r, adapters.ServiceSpotify, err)
		return
	}
	respondOK(w, r, map[string]int{"volume": *req.Volume})
}

func (h *Handler) spotifyCommand(w http.ResponseWriter, r *http.Request, name string, command func(context.Context, string) error) {
	var req SpotifyDeviceRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}
	if !requireConfigured(w, r, h.spotify) {
		return
	}
	if err := command(r.Context(), req.DeviceID); err != nil {
		respondAdapterError(w, r, adapters.ServiceSpotify, err)
		return
	}
	respondOK(w, r, map[string]string{"command": name})
}
