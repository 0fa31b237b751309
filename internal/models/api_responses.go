// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

import (
	"time"
)

// Source identifies where response data came from.
type Source string

const (
	// SourceLive means the data was fetched from the device or vendor API
	// during this request.
	SourceLive Source = "live"

	// SourceSnapshot means the data was served from the snapshot store.
	SourceSnapshot Source = "snapshot"
)

// APIResponse is the envelope returned by every route.
//
// Exactly one of Data and Error is populated; the HTTP status mirrors
// Success.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": [{"id": "1", "name": "Living Room", ...}],
//	  "meta": {"requestId": "...", "timestamp": "2026-03-01T12:00:00Z", "source": "live"}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "error": "HUE bridge not configured",
//	  "code": "CONFIGURATION_ERROR",
//	  "requestId": "..."
//	}
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Meta      *Metadata   `json:"meta,omitempty"`
}

// Metadata describes a successful response.
type Metadata struct {
	RequestID  string     `json:"requestId,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Source     Source     `json:"source,omitempty"`
	SnapshotAt *time.Time `json:"snapshotAt,omitempty"`
}
