// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

// Package snapshot persists the latest known state of each integration in
// BadgerDB so production mode can serve data while the home network is out
// of reach.
//
// Keys are service names, optionally with a resource suffix ("hue.zones").
// Writes use change detection: a snapshot is written when there is no
// previous write, when the service's minimum interval has elapsed since the
// last write, or when the SHA-256 of the canonical JSON changed. ForceSave
// bypasses both checks.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/metrics"
)

const keyPrefix = "snapshot:"

// ErrNotFound is returned by Load when a service has no snapshot yet.
var ErrNotFound = errors.New("snapshot not found")

// DefaultIntervals are the minimum times between unchanged writes.
var DefaultIntervals = map[string]time.Duration{
	"hue":     5 * time.Minute,
	"spotify": time.Minute,
	"cta":     5 * time.Minute,
	"fitness": 5 * time.Minute,
	"sonos":   5 * time.Minute,
	"lyft":    5 * time.Minute,
}

const defaultInterval = 5 * time.Minute

// Snapshot is the latest stored state of one service.
type Snapshot struct {
	Service    string          `json:"service"`
	Data       json.RawMessage `json:"data"`
	Hash       string          `json:"hash"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// Decode unmarshals the snapshot data into v.
func (s *Snapshot) Decode(v interface{}) error {
	if err := json.Unmarshal(s.Data, v); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", s.Service, err)
	}
	return nil
}

// SaveResult reports what Save did.
type SaveResult struct {
	Written bool   `json:"written"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}

// Save reasons.
const (
	ReasonFirstWrite = "first_write"
	ReasonChanged    = "data_changed"
	ReasonInterval   = "interval_elapsed"
	ReasonForced     = "forced"
	ReasonUnchanged  = "unchanged"
)

// Fingerprinter lets a payload choose which of its fields take part in
// change detection.
type Fingerprinter interface {
	Fingerprint() interface{}
}

// Info describes a stored snapshot without its data.
type Info struct {
	Service    string    `json:"service"`
	Hash       string    `json:"hash"`
	RecordedAt time.Time `json:"recordedAt"`
	Size       int       `json:"size"`
}

// Store is a BadgerDB-backed snapshot store. It is safe for concurrent use.
type Store struct {
	db        *badger.DB
	ownsDB    bool
	now       func() time.Time
	intervals map[string]time.Duration

	// serialises the read-decide-write sequence of Save
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIntervals overrides minimum write intervals per service.
func WithIntervals(intervals map[string]time.Duration) Option {
	return func(s *Store) {
		for k, v := range intervals {
			s.intervals[k] = v
		}
	}
}

// Open opens (or creates) a snapshot database at path. An empty path runs
// Badger in memory.
func Open(path string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if path == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	s := New(db, opts...)
	s.ownsDB = true
	logging.Info().Str("path", path).Bool("in_memory", path == "").Msg("Snapshot store opened")
	return s, nil
}

// New wraps an already open database. Close does not close db.
func New(db *badger.DB, opts ...Option) *Store {
	s := &Store{
		db:        db,
		now:       time.Now,
		intervals: make(map[string]time.Duration, len(DefaultIntervals)),
	}
	for k, v := range DefaultIntervals {
		s.intervals[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database if Open created it.
func (s *Store) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// Load returns the latest snapshot for service.
func (s *Store) Load(service string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + service))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		result := "error"
		if errors.Is(err, ErrNotFound) {
			result = "miss"
		}
		metrics.SnapshotReads.WithLabelValues(service, result).Inc()
		return nil, err
	}
	metrics.SnapshotReads.WithLabelValues(service, "hit").Inc()
	return &snap, nil
}

// Save writes data when change detection allows it.
func (s *Store) Save(service string, data interface{}) (SaveResult, error) {
	return s.save(service, data, false)
}

// ForceSave writes data unconditionally.
func (s *Store) ForceSave(service string, data interface{}) (SaveResult, error) {
	return s.save(service, data, true)
}

func (s *Store) save(service string, data interface{}, force bool) (SaveResult, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(service, "error").Inc()
		return SaveResult{}, fmt.Errorf("marshal %s snapshot: %w", service, err)
	}
	hash, err := Hash(data)
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(service, "error").Inc()
		return SaveResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var result SaveResult
	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(keyPrefix + service)

		var prev *Snapshot
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get snapshot: %w", err)
		default:
			prev = &Snapshot{}
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, prev) }); err != nil {
				return fmt.Errorf("decode previous snapshot: %w", err)
			}
		}

		result = s.decide(service, prev, hash, now, force)
		if result.Skipped {
			return nil
		}

		record, err := json.Marshal(Snapshot{Service: service, Data: payload, Hash: hash, RecordedAt: now})
		if err != nil {
			return fmt.Errorf("marshal snapshot record: %w", err)
		}
		return txn.Set(key, record)
	})
	if err != nil {
		metrics.SnapshotWrites.WithLabelValues(service, "error").Inc()
		return SaveResult{}, err
	}

	if result.Written {
		metrics.SnapshotWrites.WithLabelValues(service, "written").Inc()
		logging.Debug().Str("service", service).Str("reason", result.Reason).Msg("Snapshot written")
	} else {
		metrics.SnapshotWrites.WithLabelValues(service, "skipped").Inc()
	}
	return result, nil
}

func (s *Store) decide(service string, prev *Snapshot, hash string, now time.Time, force bool) SaveResult {
	switch {
	case force:
		return SaveResult{Written: true, Reason: ReasonForced}
	case prev == nil:
		return SaveResult{Written: true, Reason: ReasonFirstWrite}
	case prev.Hash != hash:
		return SaveResult{Written: true, Reason: ReasonChanged}
	case now.Sub(prev.RecordedAt) >= s.interval(service):
		return SaveResult{Written: true, Reason: ReasonInterval}
	default:
		return SaveResult{Skipped: true, Reason: ReasonUnchanged}
	}
}

// interval resolves "hue.zones" to the "hue" interval unless the full key
// has its own entry.
func (s *Store) interval(service string) time.Duration {
	if d, ok := s.intervals[service]; ok {
		return d
	}
	base, _, _ := strings.Cut(service, ".")
	if d, ok := s.intervals[base]; ok {
		return d
	}
	return defaultInterval
}

// List describes every stored snapshot, sorted by service.
func (s *Store) List() ([]Info, error) {
	var infos []Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var snap Snapshot
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &snap) }); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			infos = append(infos, Info{
				Service:    strings.TrimPrefix(string(item.Key()), keyPrefix),
				Hash:       snap.Hash,
				RecordedAt: snap.RecordedAt,
				Size:       len(snap.Data),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Service < infos[j].Service })
	return infos, nil
}

// Hash returns the hex SHA-256 of the canonical JSON encoding of data, or of
// its Fingerprint when data implements Fingerprinter.
func Hash(data interface{}) (string, error) {
	if f, ok := data.(Fingerprinter); ok {
		data = f.Fingerprint()
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("hash snapshot: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
