// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package eventprocessor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Broadcaster sends a pre-encoded frame to every connected client.
// The websocket hub implements it.
type Broadcaster interface {
	BroadcastRaw(data []byte)
}

// WebSocketForwarder turns bus events into websocket notifications.
type WebSocketForwarder struct {
	hub Broadcaster
	now func() time.Time

	received    atomic.Int64
	broadcasted atomic.Int64
}

// NewWebSocketForwarder creates a forwarder for hub.
func NewWebSocketForwarder(hub Broadcaster) (*WebSocketForwarder, error) {
	if hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	return &WebSocketForwarder{hub: hub, now: time.Now}, nil
}

// Attach registers the forwarder on every topic of b.
func (f *WebSocketForwarder) Attach(b *Bus) {
	for _, topic := range Topics {
		topic := topic
		b.AddConsumer("websocket-"+topic, topic, func(msg *message.Message) error {
			return f.handle(topic, msg)
		})
	}
}

func (f *WebSocketForwarder) handle(topic string, msg *message.Message) error {
	f.received.Add(1)

	frame, err := json.Marshal(Notification{
		Type:      NotificationType(topic),
		Data:      json.RawMessage(msg.Payload),
		Timestamp: f.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", topic, err)
	}
	f.hub.BroadcastRaw(frame)
	f.broadcasted.Add(1)
	return nil
}

// Stats returns how many events were received and broadcast.
func (f *WebSocketForwarder) Stats() (received, broadcast int64) {
	return f.received.Load(), f.broadcasted.Load()
}
