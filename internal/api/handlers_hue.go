// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"net/http"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/models"
	"github.com/tomtom215/homedash/internal/validation"
)

// HueZones lists rooms and zones.
//
// GET /api/v1/hue/zones
func (h *Handler) HueZones(w http.ResponseWriter, r *http.Request) {
	zones, origin, err := h.hue.Zones(r.Context())
	respondRead(w, r, h.hue, zones, origin, err, []models.Zone{})
}

// HueToggleZone switches a zone on or off. Without "on" the zone flips.
//
// POST /api/v1/hue/zones/{id}/toggle
func (h *Handler) HueToggleZone(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	zone, err := h.hue.ToggleZone(r.Context(), id, req.On)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, zone)
}

// HueZoneBrightness sets a zone's brightness (1-254).
//
// POST /api/v1/hue/zones/{id}/brightness
func (h *Handler) HueZoneBrightness(w http.ResponseWriter, r *http.Request) {
	var req ZoneBrightnessRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	zone, err := h.hue.SetZoneBrightness(r.Context(), id, *req.Brightness)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, zone)
}

// HueActivateScene recalls a scene in a zone.
//
// POST /api/v1/hue/zones/{id}/scene
func (h *Handler) HueActivateScene(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	if err := h.hue.ActivateScene(r.Context(), id, req.SceneID); err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, map[string]string{"zoneId": id, "sceneId": req.SceneID})
}

// HueLights lists every light on the bridge.
//
// GET /api/v1/hue/lights
func (h *Handler) HueLights(w http.ResponseWriter, r *http.Request) {
	lights, origin, err := h.hue.Lights(r.Context())
	respondRead(w, r, h.hue, lights, origin, err, []models.Light{})
}

// HueToggleLight switches one light.
//
// POST /api/v1/hue/lights/{id}/toggle
func (h *Handler) HueToggleLight(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeAndValidate(w, r, &req, true) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	light, err := h.hue.ToggleLight(r.Context(), id, req.On)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, light)
}

// HueLightBrightness sets one light's brightness (0-254).
//
// POST /api/v1/hue/lights/{id}/brightness
func (h *Handler) HueLightBrightness(w http.ResponseWriter, r *http.Request) {
	var req LightBrightnessRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	light, err := h.hue.SetLightBrightness(r.Context(), id, *req.Brightness)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, light)
}

// HueScenes lists scenes, optionally only those of one zone.
//
// GET /api/v1/hue/scenes?zone=
func (h *Handler) HueScenes(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("zone")
	if verr := validation.ValidateVar("zone", zone, "max=128"); verr != nil {
		respondValidationError(w, r, verr)
		return
	}
	scenes, origin, err := h.hue.Scenes(r.Context(), zone)
	respondRead(w, r, h.hue, scenes, origin, err, []models.Scene{})
}

// HueStatus summarizes all lights.
//
// GET /api/v1/hue/status
func (h *Handler) HueStatus(w http.ResponseWriter, r *http.Request) {
	status, origin, err := h.hue.LightsStatus(r.Context())
	respondRead(w, r, h.hue, status, origin, err, models.LightsStatus{})
}

// HueEntertainment lists entertainment areas.
//
// GET /api/v1/hue/entertainment
func (h *Handler) HueEntertainment(w http.ResponseWriter, r *http.Request) {
	areas, origin, err := h.hue.EntertainmentAreas(r.Context())
	respondRead(w, r, h.hue, areas, origin, err, []models.EntertainmentArea{})
}

// HueEntertainmentStreaming starts or stops streaming for an area.
//
// POST /api/v1/hue/entertainment/{id}/streaming
func (h *Handler) HueEntertainmentStreaming(w http.ResponseWriter, r *http.Request) {
	var req StreamingRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok || !requireConfigured(w, r, h.hue) {
		return
	}

	area, err := h.hue.SetEntertainmentStreaming(r.Context(), id, *req.Active)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceHue, err)
		return
	}
	respondOK(w, r, area)
}
