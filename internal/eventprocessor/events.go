// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

// Package eventprocessor carries in-process events between the mode state,
// the snapshot refresher and the dashboard websocket.
//
// Events travel over a Watermill gochannel pub/sub. Producers call
// Bus.Publish with one of the payload types below; consumers register a
// handler with Bus.AddConsumer before the bus starts.
package eventprocessor

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Topics.
const (
	TopicModeChanged     = "mode.changed"
	TopicSnapshotUpdated = "snapshot.updated"
)

// Topics lists every topic the bus carries.
var Topics = []string{TopicModeChanged, TopicSnapshotUpdated}

// ModeChanged is published when local reachability flips.
type ModeChanged struct {
	Mode           string    `json:"mode"`
	IsProduction   bool      `json:"isProduction"`
	LocalReachable bool      `json:"localReachable"`
	Deployment     string    `json:"deployment"`
	ChangedAt      time.Time `json:"changedAt"`
}

// SnapshotUpdated is published after a service refresh.
type SnapshotUpdated struct {
	Service        string    `json:"service"`
	Status         string    `json:"status"`
	RecordsWritten int       `json:"recordsWritten"`
	Error          string    `json:"error,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Notification is the frame pushed to websocket clients.
type Notification struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NotificationType maps a topic to the websocket message type
// ("mode.changed" becomes "mode_changed").
func NotificationType(topic string) string {
	switch topic {
	case TopicModeChanged:
		return "mode_changed"
	case TopicSnapshotUpdated:
		return "snapshot_updated"
	default:
		return topic
	}
}

// topicFor returns the topic a payload belongs on.
func topicFor(payload interface{}) (string, error) {
	switch payload.(type) {
	case ModeChanged, *ModeChanged:
		return TopicModeChanged, nil
	case SnapshotUpdated, *SnapshotUpdated:
		return TopicSnapshotUpdated, nil
	default:
		return "", fmt.Errorf("unsupported event payload %T", payload)
	}
}
