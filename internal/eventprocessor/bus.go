// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/metrics"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// BusConfig holds configuration for the event bus.
type BusConfig struct {
	// OutputBuffer is the per-subscriber channel size.
	OutputBuffer int64

	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration
}

// DefaultBusConfig returns defaults suitable for a single dashboard process.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		OutputBuffer: 64,
		CloseTimeout: 5 * time.Second,
	}
}

// Bus is the in-process event bus. Consumers must be added before Serve.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	logger watermill.LoggerAdapter

	mu       sync.Mutex
	handlers map[string]*message.Handler
	closed   atomic.Bool

	published atomic.Int64
}

// NewBus creates a bus. A nil logger routes Watermill logs through the
// application logger.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	if cfg.OutputBuffer <= 0 {
		cfg.OutputBuffer = DefaultBusConfig().OutputBuffer
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultBusConfig().CloseTimeout
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputBuffer,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}
	// Panics become errors first, then errors are logged and acked.
	router.AddMiddleware(ackOnError(logger), middleware.Recoverer)

	return &Bus{
		pubsub:   pubsub,
		router:   router,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
	}, nil
}

// Publish encodes payload and sends it on the topic that matches its type.
// The request's correlation ID travels in the message metadata.
func (b *Bus) Publish(ctx context.Context, payload interface{}) error {
	if b.closed.Load() {
		return ErrClosed
	}
	topic, err := topicFor(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	correlationID := logging.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = logging.GenerateCorrelationID()
	}
	middleware.SetCorrelationID(correlationID, msg)

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	b.published.Add(1)
	metrics.EventsPublished.WithLabelValues(topic).Inc()
	return nil
}

// AddConsumer registers handler for topic under a unique name.
func (b *Bus) AddConsumer(name, topic string, handler message.NoPublishHandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = b.router.AddConsumerHandler(name, topic, b.pubsub, handler)
}

// Serve runs the router until ctx is canceled. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	logging.Info().Int("handlers", b.handlerCount()).Msg("Event bus started")
	err := b.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Running is closed once all consumers are subscribed.
func (b *Bus) Running() <-chan struct{} {
	return b.router.Running()
}

// Published returns the number of events published so far.
func (b *Bus) Published() int64 {
	return b.published.Load()
}

// Close stops the router and the pub/sub. Safe to call more than once.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return errors.Join(b.router.Close(), b.pubsub.Close())
}

func (b *Bus) String() string {
	return "event-bus"
}

func (b *Bus) handlerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// ackOnError logs handler failures instead of nacking. gochannel
// redelivers nacked messages immediately, which would loop forever on a
// permanently bad payload.
func ackOnError(logger watermill.LoggerAdapter) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			out, err := h(msg)
			if err != nil {
				logger.Error("Event handler failed", err, watermill.LogFields{
					"message_uuid":   msg.UUID,
					"correlation_id": middleware.MessageCorrelationID(msg),
				})
				return nil, nil
			}
			return out, nil
		}
	}
}
