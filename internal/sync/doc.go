// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package sync keeps production snapshots current.

The Manager periodically refreshes every configured adapters.SnapshotSource
while the dashboard runs in local mode, where the vendor devices are reachable.
Each refresh is appended to the DuckDB sync log and announced on the event
bus as a snapshot.updated event, which the websocket forwarder pushes to
connected browsers.

In production mode the loop idles: the hosted dashboard reads the snapshots a
local instance wrote and never talks to the home network.

Usage:

	mgr := sync.NewManager(cfg.Sync, modeState, db, bus, hue, sonos, cta, spotify, fitness)
	tree.AddDataService(services.NewSyncService(mgr))

	// POST /api/v1/sync
	results, err := mgr.TriggerSync(ctx, force)

Thread Safety:
  - syncMu serialises refresh cycles, so a manual trigger waits for a
    periodic cycle in progress
  - mu protects running, stopChan and lastSync
*/
package sync
