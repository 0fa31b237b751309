// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

import "time"

// Sync statuses.
const (
	SyncStatusSuccess = "success"
	SyncStatusSkipped = "skipped"
	SyncStatusError   = "error"
)

// SyncResult is the outcome of refreshing one service's snapshot.
type SyncResult struct {
	Service        string        `json:"service"`
	Status         string        `json:"status"`
	RecordsWritten int           `json:"recordsWritten"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"-"`
	DurationMS     int64         `json:"durationMs"`
}

// SyncLogEntry is a persisted SyncResult.
type SyncLogEntry struct {
	ID             int64     `json:"id"`
	Service        string    `json:"service"`
	Status         string    `json:"status"`
	RecordsWritten int       `json:"recordsWritten"`
	Error          string    `json:"error,omitempty"`
	DurationMS     int64     `json:"durationMs"`
	CreatedAt      time.Time `json:"createdAt"`
}
