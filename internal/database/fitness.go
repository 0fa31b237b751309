// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/models"
)

// DateLayout is the format of workout dates in and out of the database.
const DateLayout = "2006-01-02"

// routineID is the single row of fitness_routine.
const routineID = 1

// Routine returns the stored weekly routine, or ErrNotFound when none has
// been saved.
func (db *DB) Routine(ctx context.Context) (models.Routine, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	var (
		doc       string
		updatedAt time.Time
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT document, updated_at FROM fitness_routine WHERE id = ?`, routineID,
	).Scan(&doc, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Routine{}, ErrNotFound
	}
	if err != nil {
		return models.Routine{}, fmt.Errorf("failed to query routine: %w", err)
	}

	var routine models.Routine
	if err := json.Unmarshal([]byte(doc), &routine); err != nil {
		return models.Routine{}, fmt.Errorf("failed to decode routine: %w", err)
	}
	routine.UpdatedAt = updatedAt
	return routine, nil
}

// SaveRoutine replaces the weekly routine.
func (db *DB) SaveRoutine(ctx context.Context, routine models.Routine) (models.Routine, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	routine.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	doc, err := json.Marshal(routine)
	if err != nil {
		return models.Routine{}, fmt.Errorf("failed to encode routine: %w", err)
	}

	err = retryOnConflict(func() error {
		_, execErr := db.conn.ExecContext(ctx, `
			INSERT INTO fitness_routine (id, document, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
			routineID, string(doc), routine.UpdatedAt)
		return execErr
	})
	if err != nil {
		return models.Routine{}, fmt.Errorf("failed to save routine: %w", err)
	}
	return routine, nil
}

// UpsertCompletion records the workout for c.Date, replacing any earlier
// entry for that day. c.Date must be YYYY-MM-DD.
func (db *DB) UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := time.Parse(DateLayout, c.Date); err != nil {
		return models.Completion{}, fmt.Errorf("invalid workout date %q: %w", c.Date, err)
	}
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now()
	}
	c.CompletedAt = c.CompletedAt.UTC().Truncate(time.Microsecond)

	err := retryOnConflict(func() error {
		_, execErr := db.conn.ExecContext(ctx, `
			INSERT INTO workout_completions (workout_date, workout_type, duration_min, completed_at)
			VALUES (CAST(? AS DATE), ?, ?, ?)
			ON CONFLICT (workout_date) DO UPDATE SET
				workout_type = excluded.workout_type,
				duration_min = excluded.duration_min,
				completed_at = excluded.completed_at`,
			c.Date, c.WorkoutType, c.DurationMin, c.CompletedAt)
		return execErr
	})
	if err != nil {
		return models.Completion{}, fmt.Errorf("failed to save workout completion: %w", err)
	}
	return c, nil
}

// CompletionsBetween returns completions with from <= date <= to, oldest
// first. Both bounds are YYYY-MM-DD.
func (db *DB) CompletionsBetween(ctx context.Context, from, to string) ([]models.Completion, error) {
	ctx, cancel := ensureContext(ctx, defaultQueryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT strftime(workout_date, '%Y-%m-%d'), workout_type, duration_min, completed_at
		FROM workout_completions
		WHERE workout_date BETWEEN CAST(? AS DATE) AND CAST(? AS DATE)
		ORDER BY workout_date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query workout completions: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var completions []models.Completion
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.Date, &c.WorkoutType, &c.DurationMin, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout completion: %w", err)
		}
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workout completions: %w", err)
	}
	return completions, nil
}
