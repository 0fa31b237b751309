// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package mode

import "time"

// ReadOnlyMessage is returned to clients when a mutation is refused.
const ReadOnlyMessage = "This action is only available when local services are reachable. The web version is read-only."

// GuardResult is the outcome of a Guard decision.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Error   string `json:"error,omitempty"`
}

// Guard decides whether a mutating action may run. It has no side effects.
func Guard(status Status) GuardResult {
	if status.IsProduction {
		return GuardResult{Allowed: false, Error: ReadOnlyMessage}
	}
	return GuardResult{Allowed: true}
}

// Guard evaluates Guard against the current state without probing.
func (s *State) Guard() GuardResult {
	return Guard(s.Status())
}

// Info is the client-facing description of the current mode.
type Info struct {
	Mode            string                   `json:"mode"`
	IsLocal         bool                     `json:"isLocal"`
	IsProduction    bool                     `json:"isProduction"`
	ControlsEnabled bool                     `json:"controlsEnabled"`
	DisplayName     string                   `json:"displayName"`
	Description     string                   `json:"description"`
	Deployment      string                   `json:"deployment"`
	LastCheckedAt   *time.Time               `json:"lastCheckedAt,omitempty"`
	ServiceStatus   map[string]ServiceStatus `json:"serviceStatus"`
}

// InfoFor builds Info from a Status.
func InfoFor(status Status) Info {
	info := Info{
		Mode:            "local",
		IsLocal:         true,
		IsProduction:    false,
		ControlsEnabled: true,
		DisplayName:     "Local Mode",
		Description:     "Connected to real devices",
		Deployment:      status.Deployment,
		ServiceStatus:   status.Services,
	}
	if status.IsProduction {
		info.Mode = "production"
		info.IsLocal = false
		info.IsProduction = true
		info.ControlsEnabled = false
		info.DisplayName = "Live View"
		info.Description = "Live from home, read-only"
	}
	if !status.LastCheckedAt.IsZero() {
		t := status.LastCheckedAt
		info.LastCheckedAt = &t
	}
	return info
}
