// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package database

import (
	"context"
	"fmt"
	"time"
)

// defaultQueryTimeout bounds queries whose context carries no deadline.
const defaultQueryTimeout = 30 * time.Second

// ensureContext adds a timeout to ctx when it has no deadline.
func ensureContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// RecordCounts returns the number of rows in each table, for the setup
// endpoint and diagnostics.
func (db *DB) RecordCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	counts := make(map[string]int64, 3)
	for _, table := range []string{"sync_log", "fitness_routine", "workout_completions"} {
		var n int64
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
