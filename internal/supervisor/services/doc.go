// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package services adapts Homedash components to suture.Service.

Each wrapper turns a component's own lifecycle into suture's
Serve(ctx) error and names the service for supervisor logs:

  - RefresherService: Start/Stop of the snapshot refresher (sync.Manager)
  - HTTPServerService: ListenAndServe/Shutdown of *http.Server
  - WebSocketHubService: RunWithContext of websocket.Hub
  - EventBusService: Serve/Close of eventprocessor.Bus

The wrappers depend on small interfaces rather than the concrete types so the
packages they wrap do not import suture and tests can use doubles.
*/
package services
