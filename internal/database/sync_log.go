// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/homedash/internal/models"
)

// Sync log listing limits.
const (
	DefaultSyncLogLimit = 50
	MaxSyncLogLimit     = 500
)

// InsertSyncLog appends one refresh outcome and returns the stored entry.
func (db *DB) InsertSyncLog(ctx context.Context, result models.SyncResult) (models.SyncLogEntry, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	entry := models.SyncLogEntry{
		Service:        result.Service,
		Status:         result.Status,
		RecordsWritten: result.RecordsWritten,
		Error:          result.Error,
		DurationMS:     result.DurationMS,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	if entry.DurationMS == 0 && result.Duration > 0 {
		entry.DurationMS = result.Duration.Milliseconds()
	}

	errText := sql.NullString{String: entry.Error, Valid: entry.Error != ""}
	err := db.conn.QueryRowContext(ctx, `
		INSERT INTO sync_log (service, status, records_written, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		entry.Service, entry.Status, entry.RecordsWritten, errText, entry.DurationMS, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return models.SyncLogEntry{}, fmt.Errorf("failed to insert sync log entry: %w", err)
	}
	return entry, nil
}

// ListSyncLog returns the newest entries first. An empty service lists every
// service. limit is clamped to 1..MaxSyncLogLimit with DefaultSyncLogLimit
// used for non-positive values.
func (db *DB) ListSyncLog(ctx context.Context, service string, limit int) ([]models.SyncLogEntry, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	switch {
	case limit <= 0:
		limit = DefaultSyncLogLimit
	case limit > MaxSyncLogLimit:
		limit = MaxSyncLogLimit
	}

	query := `
		SELECT id, service, status, records_written, COALESCE(error, ''), duration_ms, created_at
		FROM sync_log`
	args := make([]interface{}, 0, 2)
	if service != "" {
		query += ` WHERE service = ?`
		args = append(args, service)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer closeWithLog(rows, "rows")

	entries := make([]models.SyncLogEntry, 0, limit)
	for rows.Next() {
		var e models.SyncLogEntry
		if err := rows.Scan(&e.ID, &e.Service, &e.Status, &e.RecordsWritten, &e.Error, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log: %w", err)
	}
	return entries, nil
}

// LastSync returns the newest entry for service.
func (db *DB) LastSync(ctx context.Context, service string) (models.SyncLogEntry, error) {
	entries, err := db.ListSyncLog(ctx, service, 1)
	if err != nil {
		return models.SyncLogEntry{}, err
	}
	if len(entries) == 0 {
		return models.SyncLogEntry{}, ErrNotFound
	}
	return entries[0], nil
}
