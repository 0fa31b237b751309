// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/eventprocessor"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/metrics"
	"github.com/tomtom215/homedash/internal/models"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Minute

// SyncLogStore persists refresh outcomes.
type SyncLogStore interface {
	InsertSyncLog(ctx context.Context, result models.SyncResult) (models.SyncLogEntry, error)
}

// ModeChecker reports whether the vendor devices can be reached.
type ModeChecker interface {
	EnsureLocalAvailabilityChecked(ctx context.Context)
	IsProduction() bool
}

// EventPublisher announces finished refreshes.
type EventPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// Manager runs the periodic snapshot refresh.
type Manager struct {
	cfg     config.SyncConfig
	mode    ModeChecker
	log     SyncLogStore
	events  EventPublisher
	sources []adapters.SnapshotSource
	now     func() time.Time

	mu       sync.RWMutex
	syncMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	lastSync time.Time
}

// NewManager creates a refresher for sources. log and events may be nil.
func NewManager(cfg config.SyncConfig, mode ModeChecker, log SyncLogStore, events EventPublisher, sources ...adapters.SnapshotSource) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Manager{
		cfg:     cfg,
		mode:    mode,
		log:     log,
		events:  events,
		sources: sources,
		now:     time.Now,
	}
}

// Start begins the periodic refresh loop. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("sync manager already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})

	if !m.cfg.Enabled {
		logging.Info().Msg("Snapshot refresher disabled")
		return nil
	}

	m.wg.Add(1)
	go m.syncLoop(ctx, m.stopChan)

	logging.Info().
		Dur("interval", m.cfg.Interval).
		Int("sources", len(m.sources)).
		Msg("Snapshot refresher started")
	return nil
}

// Stop ends the refresh loop and waits for an in-flight cycle to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	logging.Info().Msg("Snapshot refresher stopped")
	return nil
}

// Running reports whether Start has been called without a matching Stop.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastSyncTime returns when the last refresh cycle finished.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick refreshes only when local mode is effective.
func (m *Manager) tick(ctx context.Context) {
	if m.mode != nil {
		m.mode.EnsureLocalAvailabilityChecked(ctx)
		if m.mode.IsProduction() {
			logging.Debug().Msg("Skipping snapshot refresh in production mode")
			return
		}
	}
	if _, err := m.TriggerSync(ctx, false); err != nil {
		logging.Warn().Err(err).Msg("Snapshot refresh cycle failed")
	}
}

// TriggerSync refreshes every configured source once and returns one result
// per source. With force, change detection is bypassed. Unconfigured sources
// are left out. Per-source failures are reported in the results; the error is
// only set when ctx ended before the cycle completed.
func (m *Manager) TriggerSync(ctx context.Context, force bool) ([]models.SyncResult, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	start := m.now()
	results := make([]models.SyncResult, 0, len(m.sources))
	failed := 0

	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !src.IsConfigured() {
			continue
		}

		result := m.refreshOne(ctx, src, force)
		if result.Status == models.SyncStatusError {
			failed++
		}
		m.record(ctx, result)
		results = append(results, result)
	}

	elapsed := m.now().Sub(start)
	metrics.RecordSyncCycle(elapsed, failed)

	m.mu.Lock()
	m.lastSync = m.now()
	m.mu.Unlock()

	logging.Ctx(ctx).Debug().
		Int("services", len(results)).
		Int("failed", failed).
		Bool("force", force).
		Dur("duration", elapsed).
		Msg("Snapshot refresh cycle finished")
	return results, nil
}

func (m *Manager) refreshOne(ctx context.Context, src adapters.SnapshotSource, force bool) models.SyncResult {
	start := m.now()
	result, err := src.Refresh(ctx, force)
	if result.Service == "" {
		result.Service = src.Name()
	}
	if err != nil {
		result.Status = models.SyncStatusError
		result.RecordsWritten = 0
		result.Error = adapters.PublicMessage(err)
		result.Duration = m.now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()
		logging.Ctx(ctx).Warn().Err(err).Str("service", result.Service).Msg("Snapshot refresh failed")
		return result
	}
	if result.Status == "" {
		result.Status = models.SyncStatusSuccess
		if result.RecordsWritten == 0 {
			result.Status = models.SyncStatusSkipped
		}
	}
	return result
}

// record appends result to the sync log and publishes it. Skipped refreshes
// are logged but not published.
func (m *Manager) record(ctx context.Context, result models.SyncResult) {
	updatedAt := m.now().UTC()
	if m.log != nil {
		entry, err := m.log.InsertSyncLog(ctx, result)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("service", result.Service).Msg("Failed to write sync log")
		} else if !entry.CreatedAt.IsZero() {
			updatedAt = entry.CreatedAt.UTC()
		}
	}

	if m.events == nil || result.Status == models.SyncStatusSkipped {
		return
	}
	event := eventprocessor.SnapshotUpdated{
		Service:        result.Service,
		Status:         result.Status,
		RecordsWritten: result.RecordsWritten,
		Error:          result.Error,
		UpdatedAt:      updatedAt,
	}
	if err := m.events.Publish(ctx, event); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("service", result.Service).Msg("Failed to publish snapshot event")
	}
}
