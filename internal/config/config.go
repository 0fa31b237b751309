// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

// Package config loads Homedash configuration.
//
// Loading order (Koanf v2):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
//  3. Environment variables, through the explicit mapping in envTransformFunc
//
// Integrations are optional. The presence of credentials and device addresses
// is what each adapter's IsConfigured() reports, so an empty section is valid
// and simply disables that integration.
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Deployment modes accepted by ModeConfig.Deployment.
const (
	DeploymentAuto       = "auto"
	DeploymentLocal      = "local"
	DeploymentProduction = "production"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Mode     ModeConfig     `koanf:"mode"`
	Hue      HueConfig      `koanf:"hue"`
	Sonos    SonosConfig    `koanf:"sonos"`
	CTA      CTAConfig      `koanf:"cta"`
	Lyft     LyftConfig     `koanf:"lyft"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Storage  StorageConfig  `koanf:"storage"`
	Sync     SyncConfig     `koanf:"sync"`
	Security SecurityConfig `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ModeConfig controls local/production mode detection.
//
// Deployment is one of:
//   - auto: production whenever no local device answered the last probe
//   - local: always local, mutations allowed
//   - production: always production, mutations refused
type ModeConfig struct {
	Deployment   string        `koanf:"deployment"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
	ProbeTimeout time.Duration `koanf:"probe_timeout"`
}

// HueConfig configures the Philips Hue bridge (v1 REST API).
type HueConfig struct {
	BridgeIP  string `koanf:"bridge_ip"`
	Username  string `koanf:"username"`
	ClientKey string `koanf:"client_key"`

	// DegradeOnUnreachable turns an unreachable bridge into an empty read
	// result instead of an error.
	DegradeOnUnreachable bool          `koanf:"degrade_on_unreachable"`
	Timeout              time.Duration `koanf:"timeout"`
}

// IsConfigured reports whether bridge address and username are present.
func (c HueConfig) IsConfigured() bool {
	return c.BridgeIP != "" && c.Username != ""
}

// SonosConfig configures the node-sonos-http-api bridge.
type SonosConfig struct {
	URL                  string        `koanf:"url"`
	DegradeOnUnreachable bool          `koanf:"degrade_on_unreachable"`
	Timeout              time.Duration `koanf:"timeout"`
}

func (c SonosConfig) IsConfigured() bool {
	return c.URL != ""
}

// CTAConfig configures the CTA Bus Tracker and Train Tracker APIs.
//
// Routes use "route:stop:direction" (bus) and "route:station:direction"
// (train) notation, e.g. "76:11031:Eastbound" or "Brn:40530:Southbound".
type CTAConfig struct {
	BusAPIKey            string        `koanf:"bus_api_key"`
	TrainAPIKey          string        `koanf:"train_api_key"`
	BusRoutes            []string      `koanf:"bus_routes"`
	TrainRoutes          []string      `koanf:"train_routes"`
	BusURL               string        `koanf:"bus_url"`
	TrainURL             string        `koanf:"train_url"`
	CacheTTL             time.Duration `koanf:"cache_ttl"`
	DegradeOnUnreachable bool          `koanf:"degrade_on_unreachable"`
	Timeout              time.Duration `koanf:"timeout"`
}

// IsConfigured reports whether at least one of the two API keys is set.
func (c CTAConfig) IsConfigured() bool {
	return c.BusAPIKey != "" || c.TrainAPIKey != ""
}

// LyftConfig configures the Lyft API (client-credentials OAuth).
type LyftConfig struct {
	ClientID             string        `koanf:"client_id"`
	ClientSecret         string        `koanf:"client_secret"`
	BaseURL              string        `koanf:"base_url"`
	TokenURL             string        `koanf:"token_url"`
	DegradeOnUnreachable bool          `koanf:"degrade_on_unreachable"`
	Timeout              time.Duration `koanf:"timeout"`
}

func (c LyftConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// SpotifyConfig configures the Spotify Web API. The refresh token is obtained
// once through the authorization-code flow and stored in the environment.
type SpotifyConfig struct {
	ClientID             string        `koanf:"client_id"`
	ClientSecret         string        `koanf:"client_secret"`
	RefreshToken         string        `koanf:"refresh_token"`
	BaseURL              string        `koanf:"base_url"`
	TokenURL             string        `koanf:"token_url"`
	DegradeOnUnreachable bool          `koanf:"degrade_on_unreachable"`
	Timeout              time.Duration `koanf:"timeout"`
}

// IsConfigured reports whether the app credentials are present. A missing
// refresh token is an authentication problem, not a configuration one.
func (c SpotifyConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// StorageConfig holds local persistence paths.
type StorageConfig struct {
	// SnapshotPath is the BadgerDB directory for production snapshots.
	// Empty runs Badger in memory.
	SnapshotPath string `koanf:"snapshot_path"`

	// DuckDBPath holds the sync log and fitness tables. ":memory:" is allowed.
	DuckDBPath string `koanf:"duckdb_path"`
}

// SyncConfig controls the background snapshot refresher.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	// JWTSecret enables bearer authentication on mutating routes when set.
	JWTSecret         string        `koanf:"jwt_secret"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (s SecurityConfig) AuthEnabled() bool {
	return s.JWTSecret != ""
}

// Load reads configuration from defaults, an optional config file and the
// environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
