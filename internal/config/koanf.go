// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/homedash/config.yaml",
	"/etc/homedash/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default CTA routes watched when none are configured.
var (
	DefaultCTABusRoutes = []string{
		"76:11031:Eastbound",
		"22:18173:Southbound",
		"36:18173:Southbound",
	}
	DefaultCTATrainRoutes = []string{
		"Brn:40530:Southbound",
		"P:40530:Southbound",
	}
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Mode: ModeConfig{
			Deployment:   DeploymentAuto,
			CacheTTL:     5 * time.Minute,
			ProbeTimeout: 2 * time.Second,
		},
		Hue: HueConfig{
			Timeout: 10 * time.Second,
		},
		Sonos: SonosConfig{
			URL:                  "http://localhost:5005",
			DegradeOnUnreachable: true,
			Timeout:              10 * time.Second,
		},
		CTA: CTAConfig{
			BusRoutes:   DefaultCTABusRoutes,
			TrainRoutes: DefaultCTATrainRoutes,
			BusURL:      "http://www.ctabustracker.com/bustime/api/v2/getpredictions",
			TrainURL:    "http://lapi.transitchicago.com/api/1.0/ttarrivals.aspx",
			CacheTTL:    30 * time.Second,
			Timeout:     10 * time.Second,
		},
		Lyft: LyftConfig{
			BaseURL:  "https://api.lyft.com",
			TokenURL: "https://api.lyft.com/oauth/token",
			Timeout:  10 * time.Second,
		},
		Spotify: SpotifyConfig{
			BaseURL:  "https://api.spotify.com/v1",
			TokenURL: "https://accounts.spotify.com/api/token",
			Timeout:  10 * time.Second,
		},
		Storage: StorageConfig{
			SnapshotPath: "/data/snapshots",
			DuckDBPath:   "/data/homedash.duckdb",
		},
		Sync: SyncConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources: defaults, then an
// optional YAML file, then environment variables (highest priority).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"cta.bus_routes",
	"cta.train_routes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment cannot leak in.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Mode
	"deployment_mode":    "mode.deployment",
	"mode_cache_ttl":     "mode.cache_ttl",
	"mode_probe_timeout": "mode.probe_timeout",

	// Hue
	"hue_bridge_ip":              "hue.bridge_ip",
	"hue_bridge_username":        "hue.username",
	"hue_client_key":             "hue.client_key",
	"hue_degrade_on_unreachable": "hue.degrade_on_unreachable",
	"hue_timeout":                "hue.timeout",

	// Sonos
	"sonos_api_url":                "sonos.url",
	"sonos_degrade_on_unreachable": "sonos.degrade_on_unreachable",
	"sonos_timeout":                "sonos.timeout",

	// CTA
	"cta_api_key":                "cta.bus_api_key",
	"cta_train_api_key":          "cta.train_api_key",
	"cta_bus_routes":             "cta.bus_routes",
	"cta_train_routes":           "cta.train_routes",
	"cta_cache_ttl":              "cta.cache_ttl",
	"cta_degrade_on_unreachable": "cta.degrade_on_unreachable",

	// Lyft
	"lyft_client_id":              "lyft.client_id",
	"lyft_client_secret":          "lyft.client_secret",
	"lyft_degrade_on_unreachable": "lyft.degrade_on_unreachable",

	// Spotify (NEXT_ prefixed names are accepted for older deployments)
	"spotify_client_id":              "spotify.client_id",
	"spotify_client_secret":          "spotify.client_secret",
	"next_spotify_client_id":         "spotify.client_id",
	"next_spotify_client_secret":     "spotify.client_secret",
	"spotify_refresh_token":          "spotify.refresh_token",
	"spotify_degrade_on_unreachable": "spotify.degrade_on_unreachable",

	// Storage
	"snapshot_path": "storage.snapshot_path",
	"duckdb_path":   "storage.duckdb_path",

	// Sync
	"sync_enabled":  "sync.enabled",
	"sync_interval": "sync.interval",

	// Security
	"auth_jwt_secret":     "security.jwt_secret",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc maps an environment variable name to its koanf path, or
// "" to skip it.
//
// Examples:
//   - HUE_BRIDGE_IP -> hue.bridge_ip
//   - SONOS_API_URL -> sonos.url
//   - DEPLOYMENT_MODE -> mode.deployment
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
