// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package services

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/homedash/internal/logging"
)

// EventBus is satisfied by *eventprocessor.Bus.
type EventBus interface {
	Serve(ctx context.Context) error
	Close() error
}

// EventBusService runs the in-process event bus under a supervisor and closes
// it on shutdown.
//
// A Watermill router cannot run twice, so a bus that stops on its own is
// reported with suture.ErrDoNotRestart instead of being restarted.
type EventBusService struct {
	bus  EventBus
	name string
}

// NewEventBusService wraps bus.
func NewEventBusService(bus EventBus) *EventBusService {
	return &EventBusService{
		bus:  bus,
		name: "event-bus",
	}
}

// Serve implements suture.Service.
func (s *EventBusService) Serve(ctx context.Context) error {
	err := s.bus.Serve(ctx)
	if cerr := s.bus.Close(); cerr != nil {
		logging.Warn().Err(cerr).Msg("Failed to close event bus")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		logging.Error().Err(err).Msg("Event bus stopped unexpectedly")
	}
	return suture.ErrDoNotRestart
}

func (s *EventBusService) String() string {
	return s.name
}
