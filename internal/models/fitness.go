// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

import "time"

// Routine is the weekly workout plan. Days are keyed by lower-case weekday
// name ("monday" .. "sunday").
type Routine struct {
	Name      string                `json:"name"`
	Days      map[string]RoutineDay `json:"days"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// RoutineDay is the plan for one weekday.
type RoutineDay struct {
	WorkoutType string     `json:"workoutType"`
	Title       string     `json:"title"`
	Exercises   []Exercise `json:"exercises,omitempty"`
}

// Exercise is one planned exercise.
type Exercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets,omitempty"`
	Reps string `json:"reps,omitempty"`
}

// Completion records a finished workout.
type Completion struct {
	Date        string    `json:"date"`
	WorkoutType string    `json:"workoutType"`
	DurationMin int       `json:"durationMin"`
	CompletedAt time.Time `json:"completedAt"`
}

// DayProgress is the plan and outcome for one day of a week.
type DayProgress struct {
	Date       string      `json:"date"`
	Weekday    string      `json:"weekday"`
	Planned    string      `json:"planned"`
	Completed  bool        `json:"completed"`
	Completion *Completion `json:"completion,omitempty"`
}

// WeekProgress is the outcome of one ISO week.
type WeekProgress struct {
	Year           int           `json:"year"`
	Week           int           `json:"week"`
	Days           []DayProgress `json:"days"`
	CompletedCount int           `json:"completedCount"`
	PlannedCount   int           `json:"plannedCount"`
}

// Consistency summarises recent adherence.
type Consistency struct {
	CurrentStreak  int     `json:"currentStreak"`
	CompletionRate float64 `json:"completionRate"`
	WeeksAnalyzed  int     `json:"weeksAnalyzed"`
	Completed      int     `json:"completed"`
	Planned        int     `json:"planned"`
}
