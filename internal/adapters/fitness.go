// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/homedash/internal/database"
	"github.com/tomtom215/homedash/internal/models"
	"github.com/tomtom215/homedash/internal/validation"
)

// FitnessNotConfiguredMessage is returned when the database is unavailable.
const FitnessNotConfiguredMessage = "Fitness storage not configured"

const (
	fitnessKeyWeek = "fitness.week"

	// consistencyWeeks is the window used for the completion rate.
	consistencyWeeks = 4

	workoutRest = "rest"
)

// FitnessStore is the persistence used by FitnessAdapter.
// *database.DB implements it.
type FitnessStore interface {
	Routine(ctx context.Context) (models.Routine, error)
	UpsertCompletion(ctx context.Context, c models.Completion) (models.Completion, error)
	CompletionsBetween(ctx context.Context, from, to string) ([]models.Completion, error)
}

// FitnessAdapter tracks the weekly routine and completed workouts.
type FitnessAdapter struct {
	store     FitnessStore
	snapshots snapshots
	now       func() time.Time
}

// FitnessOption configures a FitnessAdapter.
type FitnessOption func(*FitnessAdapter)

// WithFitnessSnapshots records the current week for the production view.
func WithFitnessSnapshots(store SnapshotStore, mode ModeReporter) FitnessOption {
	return func(a *FitnessAdapter) { a.snapshots = snapshots{store: store, mode: mode} }
}

// WithFitnessClock overrides the clock that decides "today".
func WithFitnessClock(now func() time.Time) FitnessOption {
	return func(a *FitnessAdapter) { a.now = now }
}

// NewFitnessAdapter creates the adapter. A nil store leaves it unconfigured.
func NewFitnessAdapter(store FitnessStore, opts ...FitnessOption) *FitnessAdapter {
	a := &FitnessAdapter{store: store, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *FitnessAdapter) Name() string { return ServiceFitness }

func (a *FitnessAdapter) IsConfigured() bool { return a.store != nil }

func (a *FitnessAdapter) notConfigured() error {
	return NewConfigurationError(ServiceFitness, FitnessNotConfiguredMessage)
}

// DefaultRoutine is served until a routine has been saved.
func DefaultRoutine() models.Routine {
	return models.Routine{
		Name: "Default week",
		Days: map[string]models.RoutineDay{
			"monday":    {WorkoutType: "upper", Title: "Upper body"},
			"tuesday":   {WorkoutType: "cardio", Title: "Zone 2 cardio"},
			"wednesday": {WorkoutType: "lower", Title: "Lower body"},
			"thursday":  {WorkoutType: "mobility", Title: "Mobility"},
			"friday":    {WorkoutType: "full", Title: "Full body"},
			"saturday":  {WorkoutType: "cardio", Title: "Long cardio"},
			"sunday":    {WorkoutType: workoutRest, Title: "Rest"},
		},
	}
}

// Routine returns the stored routine or DefaultRoutine.
func (a *FitnessAdapter) Routine(ctx context.Context) (models.Routine, error) {
	if !a.IsConfigured() {
		return models.Routine{}, a.notConfigured()
	}
	routine, err := a.store.Routine(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return DefaultRoutine(), nil
	}
	if err != nil {
		return models.Routine{}, NewUnexpectedError(ServiceFitness, err)
	}
	return routine, nil
}

// WeekProgress returns the plan and completions for an ISO week.
func (a *FitnessAdapter) WeekProgress(ctx context.Context, year, week int) (models.WeekProgress, error) {
	if !a.IsConfigured() {
		return models.WeekProgress{}, a.notConfigured()
	}
	monday, err := isoWeekStart(year, week)
	if err != nil {
		return models.WeekProgress{}, err
	}
	routine, err := a.Routine(ctx)
	if err != nil {
		return models.WeekProgress{}, err
	}

	sunday := monday.AddDate(0, 0, 6)
	completions, err := a.store.CompletionsBetween(ctx, monday.Format(database.DateLayout), sunday.Format(database.DateLayout))
	if err != nil {
		return models.WeekProgress{}, NewUnexpectedError(ServiceFitness, err)
	}
	byDate := make(map[string]models.Completion, len(completions))
	for _, c := range completions {
		byDate[c.Date] = c
	}

	progress := models.WeekProgress{Year: year, Week: week, Days: make([]models.DayProgress, 0, 7)}
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		date := day.Format(database.DateLayout)
		dp := models.DayProgress{
			Date:    date,
			Weekday: weekdayKey(day),
			Planned: routine.Days[weekdayKey(day)].WorkoutType,
		}
		if isPlanned(dp.Planned) {
			progress.PlannedCount++
		}
		if c, ok := byDate[date]; ok {
			c := c
			dp.Completed = true
			dp.Completion = &c
			progress.CompletedCount++
		}
		progress.Days = append(progress.Days, dp)
	}
	return progress, nil
}

// CurrentWeek is WeekProgress for the week containing today.
func (a *FitnessAdapter) CurrentWeek(ctx context.Context) (models.WeekProgress, error) {
	year, week := a.now().ISOWeek()
	return a.WeekProgress(ctx, year, week)
}

// CompleteWorkout records a finished workout for date (YYYY-MM-DD).
func (a *FitnessAdapter) CompleteWorkout(ctx context.Context, date, workoutType string, durationMin int) (models.Completion, error) {
	if !a.IsConfigured() {
		return models.Completion{}, a.notConfigured()
	}
	if verr := validation.ValidateVar("date", date, "required,isodate"); verr != nil {
		return models.Completion{}, NewValidationError(ServiceFitness, verr.Error())
	}
	if verr := validation.ValidateVar("workoutType", workoutType, "required,workout"); verr != nil {
		return models.Completion{}, NewValidationError(ServiceFitness, verr.Error())
	}
	if verr := validation.ValidateVar("durationMin", durationMin, "min=0,max=600"); verr != nil {
		return models.Completion{}, NewValidationError(ServiceFitness, verr.Error())
	}

	c, err := a.store.UpsertCompletion(ctx, models.Completion{
		Date:        date,
		WorkoutType: workoutType,
		DurationMin: durationMin,
		CompletedAt: a.now(),
	})
	if err != nil {
		return models.Completion{}, NewUnexpectedError(ServiceFitness, err)
	}
	return c, nil
}

// Consistency reports the current streak and the completion rate of
// planned workouts over the last four weeks, today included.
//
// The streak counts consecutive completed days ending today. Rest days and
// an unfinished today do not break it.
func (a *FitnessAdapter) Consistency(ctx context.Context) (models.Consistency, error) {
	if !a.IsConfigured() {
		return models.Consistency{}, a.notConfigured()
	}
	routine, err := a.Routine(ctx)
	if err != nil {
		return models.Consistency{}, err
	}

	today := dateOnly(a.now())
	from := today.AddDate(0, 0, -(consistencyWeeks*7 - 1))
	completions, err := a.store.CompletionsBetween(ctx, from.Format(database.DateLayout), today.Format(database.DateLayout))
	if err != nil {
		return models.Consistency{}, NewUnexpectedError(ServiceFitness, err)
	}
	done := make(map[string]bool, len(completions))
	for _, c := range completions {
		done[c.Date] = true
	}

	stats := models.Consistency{WeeksAnalyzed: consistencyWeeks}
	for day := from; !day.After(today); day = day.AddDate(0, 0, 1) {
		if !isPlanned(routine.Days[weekdayKey(day)].WorkoutType) {
			continue
		}
		stats.Planned++
		if done[day.Format(database.DateLayout)] {
			stats.Completed++
		}
	}
	if stats.Planned > 0 {
		stats.CompletionRate = math.Round(float64(stats.Completed)/float64(stats.Planned)*1000) / 10
	}

	for day := today; !day.Before(from); day = day.AddDate(0, 0, -1) {
		key := day.Format(database.DateLayout)
		if done[key] {
			stats.CurrentStreak++
			continue
		}
		if day.Equal(today) || !isPlanned(routine.Days[weekdayKey(day)].WorkoutType) {
			continue
		}
		break
	}
	return stats, nil
}

// Refresh records the current week so the production view can show it.
func (a *FitnessAdapter) Refresh(ctx context.Context, force bool) (models.SyncResult, error) {
	start := time.Now()
	result := models.SyncResult{Service: ServiceFitness}
	if !a.IsConfigured() {
		return result, a.notConfigured()
	}
	progress, err := a.CurrentWeek(ctx)
	if err != nil {
		return result, err
	}
	written := 0
	if a.snapshots.save(fitnessKeyWeek, progress, force) {
		written = 1
	}
	return finishSync(result, written, start), nil
}

// isoWeekStart returns the Monday of ISO week (year, week) at midnight UTC.
func isoWeekStart(year, week int) (time.Time, error) {
	if year < 2000 || year > 2100 {
		return time.Time{}, NewValidationError(ServiceFitness, "year must be between 2000 and 2100")
	}
	if week < 1 || week > 53 {
		return time.Time{}, NewValidationError(ServiceFitness, "week must be between 1 and 53")
	}
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset+(week-1)*7)
	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, NewValidationError(ServiceFitness, "year has no such ISO week")
	}
	return monday, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func weekdayKey(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

func isPlanned(workoutType string) bool {
	return workoutType != "" && workoutType != workoutRest
}
