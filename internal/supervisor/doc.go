// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package supervisor runs Homedash's long-lived services under suture v4.

The tree has three layers, each its own supervisor so a crash-looping service
only backs off its own layer:

	homedash
	├── data-layer
	│   └── snapshot-refresher
	├── messaging-layer
	│   ├── event-bus
	│   └── websocket-hub
	└── api-layer
	    └── http-server

Supervisor events (start, failure, backoff, restart) are logged through
sutureslog on the slog bridge of the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewRefresherService(refresher))
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	errCh := tree.ServeBackground(ctx)

The databases are not supervised. BadgerDB and DuckDB are embedded libraries
opened in main and closed after the tree stops.

If a service ignores cancellation, UnstoppedServiceReport names it after the
shutdown timeout.
*/
package supervisor
