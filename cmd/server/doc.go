// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

// Package main is the entry point for the Homedash server.
//
// Homedash aggregates Philips Hue, Sonos, CTA transit, Lyft, Spotify and a
// workout tracker behind one JSON API. The same binary runs on the home
// network, where it controls devices, and on a public host, where it serves
// a read-only view from the last recorded snapshots.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Storage: BadgerDB snapshot store and DuckDB for the sync log and fitness
//  3. Mode state: reachability probes against the Hue bridge and Sonos host
//  4. Adapters: one per integration, sharing the snapshot store
//  5. Event bus and WebSocket hub: mode and snapshot pushes to dashboards
//  6. Snapshot refresher: periodic refresh while local devices answer
//  7. HTTP server: Chi router with the REST API
//
// Long-running components run under a suture supervisor tree and restart on
// failure.
//
// # Deployment Modes
//
//	DEPLOYMENT_MODE=auto        production whenever no local device answers (default)
//	DEPLOYMENT_MODE=local       always allow device control
//	DEPLOYMENT_MODE=production  always read-only
//
// # Authentication
//
// Setting AUTH_JWT_SECRET (32+ characters) requires a bearer token on every
// mutating route. Tokens are issued offline:
//
//	homedash -issue-token -subject kitchen-tablet -ttl 720h
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server gracefully, then the refresher, bus and hub, after which storage
// is closed.
package main
