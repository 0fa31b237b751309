// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"errors"

	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/metrics"
	"github.com/tomtom215/homedash/internal/snapshot"
)

// SnapshotStore persists the last known state of each resource.
type SnapshotStore interface {
	Load(key string) (*snapshot.Snapshot, error)
	Save(key string, data interface{}) (snapshot.SaveResult, error)
	ForceSave(key string, data interface{}) (snapshot.SaveResult, error)
}

// ModeReporter reports whether the process is serving the read-only view.
type ModeReporter interface {
	IsProduction() bool
}

// errNoSnapshot is the cause attached when production mode has nothing
// cached for a resource.
var errNoSnapshot = errors.New("no snapshot recorded yet")

// snapshots couples a store with the mode so adapters can choose between the
// device and the cache. Both fields may be nil: a nil store disables
// caching and a nil mode means local.
type snapshots struct {
	store SnapshotStore
	mode  ModeReporter
}

func (s snapshots) production() bool {
	return s.mode != nil && s.mode.IsProduction()
}

// load decodes the snapshot stored under key into v.
func (s snapshots) load(key string, v interface{}) (Origin, bool) {
	if s.store == nil {
		return Origin{}, false
	}
	snap, err := s.store.Load(key)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("Failed to load snapshot")
		}
		return Origin{}, false
	}
	if err := snap.Decode(v); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Discarding undecodable snapshot")
		return Origin{}, false
	}
	return FromSnapshot(snap.RecordedAt), true
}

// save writes v under key with change detection and reports whether it was
// written. Failures are logged, never returned: a read must not fail
// because the cache is unavailable.
func (s snapshots) save(key string, v interface{}, force bool) bool {
	if s.store == nil {
		return false
	}
	var (
		res snapshot.SaveResult
		err error
	)
	if force {
		res, err = s.store.ForceSave(key, v)
	} else {
		res, err = s.store.Save(key, v)
	}
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Failed to save snapshot")
		return false
	}
	return res.Written
}

// readLocal serves a device-backed resource: the snapshot in production,
// otherwise the device with write-through. A local-mode failure is returned
// as is so the caller's degrade policy applies; stale device state is never
// presented as current.
func readLocal[T any](ctx context.Context, s snapshots, service, key string, fetch func(context.Context) (T, error)) (T, Origin, error) {
	if s.production() {
		var cached T
		if origin, ok := s.load(key, &cached); ok {
			return cached, origin, nil
		}
		var zero T
		return zero, Origin{}, NewUnavailableError(service, errNoSnapshot)
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, Origin{}, err
	}
	s.save(key, v, false)
	return v, Live(), nil
}

// readCloud serves an internet-backed resource: always live, recording a
// snapshot and falling back to it when the live call fails.
func readCloud[T any](ctx context.Context, s snapshots, service, key string, fetch func(context.Context) (T, error)) (T, Origin, error) {
	v, err := fetch(ctx)
	if err != nil {
		if !fallbackAllowed(err) {
			return v, Origin{}, err
		}
		var cached T
		if origin, ok := s.load(key, &cached); ok {
			metrics.DegradedReads.WithLabelValues(service).Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("service", service).Msg("Live read failed, serving snapshot")
			return cached, origin, nil
		}
		return v, Origin{}, err
	}
	s.save(key, v, false)
	return v, Live(), nil
}

// fallbackAllowed reports whether a cached value is an acceptable answer
// for a failed live read.
func fallbackAllowed(err error) bool {
	switch KindOf(err) {
	case KindUpstreamUnavailable, KindUpstream, KindConfiguration:
		return true
	default:
		return false
	}
}
