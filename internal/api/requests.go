// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/models"
	"github.com/tomtom215/homedash/internal/validation"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// ToggleRequest switches a zone or light. A missing On flips the current state.
type ToggleRequest struct {
	On *bool `json:"on"`
}

// ZoneBrightnessRequest sets a zone's brightness.
type ZoneBrightnessRequest struct {
	Brightness *int `json:"brightness" validate:"required,min=1,max=254"`
}

// LightBrightnessRequest sets one light's brightness. Zero turns it off.
type LightBrightnessRequest struct {
	Brightness *int `json:"brightness" validate:"required,min=0,max=254"`
}

// SceneRequest activates a scene in a zone.
type SceneRequest struct {
	SceneID string `json:"sceneId" validate:"required,max=64"`
}

// StreamingRequest starts or stops an entertainment area.
type StreamingRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// VolumeRequest sets a Sonos room's volume.
type VolumeRequest struct {
	Volume *int `json:"volume" validate:"required,min=0,max=100"`
}

// LocationRequest is a point on the map.
type LocationRequest struct {
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Address string   `json:"address" validate:"max=256"`
}

func (l LocationRequest) toModel() models.Location {
	loc := models.Location{Address: l.Address}
	if l.Lat != nil {
		loc.Lat = *l.Lat
	}
	if l.Lng != nil {
		loc.Lng = *l.Lng
	}
	return loc
}

// RideRequest books a Lyft ride.
type RideRequest struct {
	RideType    string          `json:"rideType" validate:"required,max=32"`
	Origin      LocationRequest `json:"origin"`
	Destination LocationRequest `json:"destination"`
}

// SpotifyDeviceRequest targets an optional Spotify device.
type SpotifyDeviceRequest struct {
	DeviceID string `json:"deviceId" validate:"max=128"`
}

// SpotifyVolumeRequest sets playback volume on an optional device.
type SpotifyVolumeRequest struct {
	Volume   *int   `json:"volume" validate:"required,min=0,max=100"`
	DeviceID string `json:"deviceId" validate:"max=128"`
}

// WorkoutRequest records a completed workout.
type WorkoutRequest struct {
	Date        string `json:"date" validate:"required,isodate"`
	WorkoutType string `json:"workoutType" validate:"required,workout"`
	DurationMin int    `json:"durationMin" validate:"min=0,max=600"`
}

// decodeJSON reads a bounded JSON body into v. An empty body is accepted
// when allowEmpty is set and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		message := "Invalid JSON body"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			message = "Request body too large"
		}
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, message)
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if allowEmpty {
			return true
		}
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "Request body is required")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// decodeAndValidate decodes the body and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	if !decodeJSON(w, r, v, allowEmpty) {
		return false
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		respondValidationError(w, r, verr)
		return false
	}
	return true
}

// pathID returns a validated path parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, name))
	if verr := validation.ValidateVar(name, id, "required,max=128"); verr != nil {
		respondValidationError(w, r, verr)
		return "", false
	}
	return id, true
}

// queryFloat parses a required float query parameter and checks it
// against tag.
func queryFloat(w http.ResponseWriter, r *http.Request, name, tag string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		respondError(w, r, http.StatusBadRequest, CodeValidation, name+" is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, name+" must be a number")
		return 0, false
	}
	if verr := validation.ValidateVar(name, v, tag); verr != nil {
		respondValidationError(w, r, verr)
		return 0, false
	}
	return v, true
}

// queryInt parses an optional integer query parameter, returning def
// when absent.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int, tag string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, name+" must be an integer")
		return 0, false
	}
	if verr := validation.ValidateVar(name, v, tag); verr != nil {
		respondValidationError(w, r, verr)
		return 0, false
	}
	return v, true
}

// queryBool parses an optional boolean query parameter.
func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeValidation, name+" must be true or false")
		return false, false
	}
	return v, true
}
