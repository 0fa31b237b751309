// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/homedash/internal/logging"
)

// SlowRequestThreshold turns the request log line into a warning.
const SlowRequestThreshold = time.Second

// RequestLogger logs method, path, status and duration of every request.
// Health probes and metrics scrapes are logged at debug level.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		logger := logging.Ctx(r.Context())
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case duration >= SlowRequestThreshold:
			event = logger.Warn()
		case isQuietPath(r.URL.Path):
			event = logger.Debug()
		default:
			event = logger.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

func isQuietPath(path string) bool {
	switch path {
	case "/metrics", "/health/live", "/health/ready", "/api/v1/health/live", "/api/v1/health/ready":
		return true
	}
	return false
}
