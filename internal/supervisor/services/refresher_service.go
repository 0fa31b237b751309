// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle of the snapshot refresher.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// RefresherService runs a StartStopManager under a supervisor.
//
// Start spawns the manager's loop and returns; Serve then blocks until the
// supervisor cancels ctx and calls Stop, which waits for an in-flight
// refresh cycle.
type RefresherService struct {
	manager StartStopManager
	name    string
}

// NewRefresherService wraps manager.
func NewRefresherService(manager StartStopManager) *RefresherService {
	return &RefresherService{
		manager: manager,
		name:    "snapshot-refresher",
	}
}

// Serve implements suture.Service. A Start failure is returned so the
// supervisor restarts the service with backoff.
func (s *RefresherService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("refresher start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("refresher stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *RefresherService) String() string {
	return s.name
}
