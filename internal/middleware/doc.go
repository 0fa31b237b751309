// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package middleware holds the request plumbing shared by every API route.

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
  - RequestLogger: one structured log line per request, warning on slow ones
  - PrometheusMetrics: request counts, latency and in-flight gauge, labelled by
    chi route pattern so path parameters do not explode label cardinality

The API router applies them in this order, outermost first:

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.PrometheusMetrics)

RequestID must run first so the other two can read the ID from the context.
*/
package middleware
