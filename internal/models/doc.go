// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package models defines the data structures shared by the adapters, the
snapshot store and the HTTP API.

Model Categories:

1. API envelope:
  - APIResponse: the {success, data | error} wrapper returned by every route
  - Metadata: request id, timestamp and data source

2. Integration models:
  - Hue: Zone, Light, Scene, LightsStatus, EntertainmentArea
  - Sonos: Player, Track
  - CTA: Arrival, RouteArrivals, Arrivals
  - Lyft: ETA, Ride, RideRequest
  - Spotify: Playback, Device
  - Fitness: Routine, WeekProgress, Completion, Consistency

3. Sync models:
  - SyncResult: outcome of one refresh of one service
  - SyncLogEntry: persisted SyncResult

All JSON field names use camelCase to match the dashboard frontend.
*/
package models
