// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/middleware"
	"github.com/tomtom215/homedash/internal/models"
)

// respondJSON writes response with the given status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondData sends a successful envelope describing where data came from.
func respondData(w http.ResponseWriter, r *http.Request, data interface{}, origin adapters.Origin) {
	requestID := middleware.GetRequestID(r.Context())
	meta := &models.Metadata{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Source:    origin.Source,
	}
	if meta.Source == "" {
		meta.Source = models.SourceLive
	}
	if origin.Source == models.SourceSnapshot && !origin.SnapshotAt.IsZero() {
		at := origin.SnapshotAt.UTC()
		meta.SnapshotAt = &at
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// respondOK sends live data.
func respondOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondData(w, r, data, adapters.Live())
}

// respondError sends an error envelope. message is shown to clients as is.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, &models.APIResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// writeAuthError adapts respondError to auth.ErrorWriter.
func writeAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondError(w, r, status, code, message)
}

// sanitizeLogValue strips control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
