// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
)

// FitnessRoutine returns the weekly workout plan.
//
// GET /api/v1/fitness/routine
func (h *Handler) FitnessRoutine(w http.ResponseWriter, r *http.Request) {
	routine, err := h.fitness.Routine(r.Context())
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceFitness, err)
		return
	}
	respondOK(w, r, routine)
}

// FitnessProgress returns planned and completed workouts for an ISO week.
// Year and week default to the current week.
//
// GET /api/v1/fitness/progress?year=&week=
func (h *Handler) FitnessProgress(w http.ResponseWriter, r *http.Request) {
	curYear, curWeek := time.Now().ISOWeek()
	year, ok := queryInt(w, r, "year", curYear, "min=2000,max=2100")
	if !ok {
		return
	}
	week, ok := queryInt(w, r, "week", curWeek, "min=1,max=53")
	if !ok {
		return
	}

	progress, err := h.fitness.WeekProgress(r.Context(), year, week)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceFitness, err)
		return
	}
	respondOK(w, r, progress)
}

// FitnessCompleteWorkout records a workout for a day. Recording the same
// day again replaces the entry.
//
// POST /api/v1/fitness/workouts
func (h *Handler) FitnessCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	var req WorkoutRequest
	if !decodeAndValidate(w, r, &req, false) {
		return
	}
	if !requireConfigured(w, r, h.fitness) {
		return
	}

	completion, err := h.fitness.CompleteWorkout(r.Context(), req.Date, req.WorkoutType, req.DurationMin)
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceFitness, err)
		return
	}
	respondOK(w, r, completion)
}

// FitnessConsistency returns the current streak and recent completion rate.
//
// GET /api/v1/fitness/consistency
func (h *Handler) FitnessConsistency(w http.ResponseWriter, r *http.Request) {
	consistency, err := h.fitness.Consistency(r.Context())
	if err != nil {
		respondAdapterError(w, r, adapters.ServiceFitness, err)
		return
	}
	respondOK(w, r, consistency)
}
