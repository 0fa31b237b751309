// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validDeployments = map[string]bool{
	DeploymentAuto:       true,
	DeploymentLocal:      true,
	DeploymentProduction: true,
}

// Validate checks that configuration values are well formed. Missing vendor
// credentials are not an error; they leave the integration unconfigured.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateMode(); err != nil {
		return err
	}
	if err := c.validateIntegrations(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateMode() error {
	if !validDeployments[c.Mode.Deployment] {
		return fmt.Errorf("DEPLOYMENT_MODE must be one of: auto, local, production")
	}
	if c.Mode.CacheTTL <= 0 {
		return fmt.Errorf("MODE_CACHE_TTL must be positive")
	}
	if c.Mode.ProbeTimeout <= 0 || c.Mode.ProbeTimeout > 30*time.Second {
		return fmt.Errorf("MODE_PROBE_TIMEOUT must be between 0 and 30s")
	}
	return nil
}

func (c *Config) validateIntegrations() error {
	if c.Hue.BridgeIP != "" && strings.ContainsAny(c.Hue.BridgeIP, "/ ") {
		return fmt.Errorf("HUE_BRIDGE_IP must be a host or host:port, got %q", c.Hue.BridgeIP)
	}
	if err := validateHTTPURL("SONOS_API_URL", c.Sonos.URL); err != nil {
		return err
	}
	if err := validateRoutes("CTA_BUS_ROUTES", c.CTA.BusRoutes); err != nil {
		return err
	}
	return validateRoutes("CTA_TRAIN_ROUTES", c.CTA.TrainRoutes)
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}

func validateRoutes(name string, routes []string) error {
	for _, r := range routes {
		parts := strings.Split(r, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("%s entries must look like route:stop:direction, got %q", name, r)
		}
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Enabled && c.Sync.Interval < time.Second {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1s")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
