// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package mode decides whether Homedash is running next to the home network
(local mode) or as a hosted read-only view (production mode).

# State

State is the single piece of mutable state shared across requests. It holds
the deployment flag, the outcome of the most recent reachability probe and
the time of that probe:

	state := mode.NewState(cfg.Mode, mode.WithProbers(hueClient, sonosClient))
	state.EnsureLocalAvailabilityChecked(ctx)
	status := state.Status()

The deployment flag comes from configuration:

  - auto: production whenever no local device answered the last probe
  - local: never production
  - production: always production; no probes are sent

# Reachability

EnsureLocalAvailabilityChecked probes every registered Prober concurrently,
each bounded by the probe timeout. A failed probe marks its target
unavailable and is never returned to the caller. Results are cached for the
configured TTL; calls within the TTL do nothing. Concurrent callers share one
in-flight probe, and the last completed probe wins.

The clock is injectable (WithClock) so tests can move time forward without
sleeping.

# Guard

Guard is a pure function of a Status: mutations are allowed only when the
effective deployment is not production. The HTTP layer calls
EnsureLocalAvailabilityChecked first so a cold cache never produces a false
refusal.

# States

	Production        deployment=production, or auto with no reachable device
	LocalReachable    at least one device answered the last probe
	LocalUnreachable  deployment=local and no device answered
*/
package mode
