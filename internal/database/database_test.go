// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/homedash/internal/models"
)

// testDBSemaphore limits concurrent DuckDB instances in tests. Each
// in-memory database starts its own thread pool through CGO.
var testDBSemaphore = make(chan struct{}, 2)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestNew_AppliesMigrations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	version, err := db.CurrentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentSchemaVersion: %v", err)
	}
	if want := len(migrations()); version != want {
		t.Errorf("schema version = %d, want %d", version, want)
	}

	history, err := db.MigrationHistory(ctx)
	if err != nil {
		t.Fatalf("MigrationHistory: %v", err)
	}
	if len(history) != len(migrations()) {
		t.Fatalf("history has %d entries, want %d", len(history), len(migrations()))
	}
	if history[0].Name != "create_sync_log" || history[0].AppliedAt.IsZero() {
		t.Errorf("first migration = %+v", history[0])
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	t.Parallel()
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "homedash.duckdb")
	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := db.InsertSyncLog(context.Background(), models.SyncResult{Service: "hue", Status: models.SyncStatusSuccess}); err != nil {
		t.Fatalf("InsertSyncLog: %v", err)
	}
	if err := db.Checkpoint(context.Background()); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	counts, err := reopened.RecordCounts(context.Background())
	if err != nil {
		t.Fatalf("RecordCounts: %v", err)
	}
	if counts["sync_log"] != 1 {
		t.Errorf("sync_log rows = %d, want 1", counts["sync_log"])
	}
}

func TestSyncLog(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	results := []models.SyncResult{
		{Service: "hue", Status: models.SyncStatusSuccess, RecordsWritten: 4, Duration: 120 * time.Millisecond},
		{Service: "sonos", Status: models.SyncStatusError, Error: "sonos unreachable", DurationMS: 15},
		{Service: "hue", Status: models.SyncStatusSkipped},
	}
	for _, r := range results {
		if _, err := db.InsertSyncLog(ctx, r); err != nil {
			t.Fatalf("InsertSyncLog(%s): %v", r.Service, err)
		}
	}

	all, err := db.ListSyncLog(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListSyncLog: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}
	if all[0].Status != models.SyncStatusSkipped || all[0].ID <= all[1].ID {
		t.Errorf("entries not newest first: %+v", all)
	}
	if all[1].Error != "sonos unreachable" || all[1].DurationMS != 15 {
		t.Errorf("sonos entry = %+v", all[1])
	}
	if all[2].DurationMS != 120 || all[2].RecordsWritten != 4 {
		t.Errorf("hue entry = %+v", all[2])
	}

	hue, err := db.ListSyncLog(ctx, "hue", 1)
	if err != nil {
		t.Fatalf("ListSyncLog(hue): %v", err)
	}
	if len(hue) != 1 || hue[0].Status != models.SyncStatusSkipped {
		t.Errorf("hue entries = %+v", hue)
	}

	last, err := db.LastSync(ctx, "sonos")
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if last.Service != "sonos" || last.CreatedAt.IsZero() {
		t.Errorf("LastSync = %+v", last)
	}

	if _, err := db.LastSync(ctx, "spotify"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LastSync(spotify) error = %v, want ErrNotFound", err)
	}
}

func TestListSyncLog_LimitClamp(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < DefaultSyncLogLimit+5; i++ {
		if _, err := db.InsertSyncLog(ctx, models.SyncResult{Service: fmt.Sprintf("svc-%d", i%3), Status: models.SyncStatusSuccess}); err != nil {
			t.Fatalf("InsertSyncLog: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: DefaultSyncLogLimit},
		{limit: -1, want: DefaultSyncLogLimit},
		{limit: 7, want: 7},
		{limit: MaxSyncLogLimit + 1, want: DefaultSyncLogLimit + 5},
	}
	for _, tt := range tests {
		got, err := db.ListSyncLog(ctx, "", tt.limit)
		if err != nil {
			t.Fatalf("ListSyncLog(%d): %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("ListSyncLog(%d) returned %d entries, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestRoutine(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.Routine(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Routine on empty db error = %v, want ErrNotFound", err)
	}

	routine := models.Routine{
		Name: "Base",
		Days: map[string]models.RoutineDay{
			"monday": {WorkoutType: "strength", Title: "Upper body", Exercises: []models.Exercise{{Name: "Bench", Sets: 3, Reps: "8"}}},
			"sunday": {WorkoutType: "rest", Title: "Rest"},
		},
	}
	if _, err := db.SaveRoutine(ctx, routine); err != nil {
		t.Fatalf("SaveRoutine: %v", err)
	}

	routine.Name = "Base v2"
	if _, err := db.SaveRoutine(ctx, routine); err != nil {
		t.Fatalf("SaveRoutine (update): %v", err)
	}

	got, err := db.Routine(ctx)
	if err != nil {
		t.Fatalf("Routine: %v", err)
	}
	if got.Name != "Base v2" {
		t.Errorf("Name = %q, want Base v2", got.Name)
	}
	if got.Days["monday"].Exercises[0].Name != "Bench" {
		t.Errorf("monday = %+v", got.Days["monday"])
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	counts, err := db.RecordCounts(ctx)
	if err != nil {
		t.Fatalf("RecordCounts: %v", err)
	}
	if counts["fitness_routine"] != 1 {
		t.Errorf("fitness_routine rows = %d, want 1", counts["fitness_routine"])
	}
}

func TestCompletions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	for _, c := range []models.Completion{
		{Date: "2026-10-12", WorkoutType: "strength", DurationMin: 45},
		{Date: "2026-10-14", WorkoutType: "cardio", DurationMin: 30},
		{Date: "2026-10-20", WorkoutType: "strength", DurationMin: 50},
	} {
		if _, err := db.UpsertCompletion(ctx, c); err != nil {
			t.Fatalf("UpsertCompletion(%s): %v", c.Date, err)
		}
	}

	// Same day replaces the earlier entry.
	if _, err := db.UpsertCompletion(ctx, models.Completion{Date: "2026-10-14", WorkoutType: "mobility", DurationMin: 20}); err != nil {
		t.Fatalf("UpsertCompletion (replace): %v", err)
	}

	got, err := db.CompletionsBetween(ctx, "2026-10-12", "2026-10-18")
	if err != nil {
		t.Fatalf("CompletionsBetween: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d completions, want 2: %+v", len(got), got)
	}
	if got[0].Date != "2026-10-12" || got[1].Date != "2026-10-14" {
		t.Errorf("dates = %s, %s", got[0].Date, got[1].Date)
	}
	if got[1].WorkoutType != "mobility" || got[1].DurationMin != 20 {
		t.Errorf("replaced completion = %+v", got[1])
	}
	if got[0].CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}

	if _, err := db.UpsertCompletion(ctx, models.Completion{Date: "14/10/2026", WorkoutType: "cardio"}); err == nil {
		t.Error("expected error for malformed date")
	}
}
