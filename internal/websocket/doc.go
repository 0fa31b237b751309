// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package websocket pushes live updates to dashboard browsers.

It uses gorilla/websocket with a hub-and-client layout: the Hub owns the set
of connections and fans frames out, each Client runs a read and a write
goroutine.

Frames are JSON objects with a type and a data field:

  - mode_changed: local reachability flipped (see eventprocessor.ModeChanged)
  - snapshot_updated: a service refresh finished (see eventprocessor.SnapshotUpdated)
  - pong: reply to a client {"type":"ping"}

The hub does not know about event types. The eventprocessor package encodes
notifications and hands them to Hub.BroadcastRaw.

The hub runs under the supervisor tree:

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

Clients that fall behind by more than their send buffer are disconnected.
*/
package websocket
