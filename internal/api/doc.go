// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package api provides the HTTP REST surface of Homedash.

Routes are mounted with the Chi router under /api/v1 and, for the dashboard's
older clients, again at the root. Every response uses the models.APIResponse
envelope.

# Request Flow

Read routes call one adapter method and wrap its result:

	GET /api/v1/hue/zones  ->  Handler.HueZones  ->  LightController.Zones

Mutating routes pass a fixed chain before the adapter is reached:

 1. bearer JWT authentication when a secret is configured (401)
 2. mode guard, refusing every write in production (403)
 3. body and path validation (400)
 4. IsConfigured on the target adapter (400)
 5. the adapter call

The order means a production deployment answers 403 whatever the payload,
and a malformed request never causes a network call.

# Error Mapping

Adapters return *adapters.Error values. The handler maps their Kind to a
status code (see statusForKind). Untyped errors become a 500 with the
generic message "Internal server error" and the request ID. Unreachable
upstreams on adapters configured with DegradeOnUnreachable answer 200 with
empty data instead.

# Middleware Stack

	RequestID -> RequestLogger -> PrometheusMetrics -> RealIP -> Recoverer
	  -> CORS -> SecurityHeaders -> Compress -> RateLimit

# Push Updates

GET /ws upgrades to a WebSocket registered with the hub. Mode transitions
and snapshot refreshes arrive as mode_changed and snapshot_updated frames.
*/
package api
