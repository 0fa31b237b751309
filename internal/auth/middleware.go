// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/homedash/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the validated *Claims of the request.
const ClaimsContextKey contextKey = "claims"

// Error codes written on authentication failure.
const (
	CodeUnauthorized = "UNAUTHORIZED"
)

// ErrorWriter writes an error response in the API's envelope.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware enforces bearer tokens on guarded routes.
type Middleware struct {
	jwt      *JWTManager
	writeErr ErrorWriter
}

// NewMiddleware creates the middleware. A nil manager disables
// authentication and RequireBearer passes every request through. A nil
// writer falls back to http.Error.
func NewMiddleware(manager *JWTManager, writeErr ErrorWriter) *Middleware {
	if writeErr == nil {
		writeErr = func(w http.ResponseWriter, _ *http.Request, status int, _ string, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{jwt: manager, writeErr: writeErr}
}

// Enabled reports whether tokens are required.
func (m *Middleware) Enabled() bool {
	return m.jwt != nil
}

// RequireBearer rejects requests without a valid bearer token with 401.
func (m *Middleware) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.jwt == nil {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="homedash"`)
			m.writeErr(w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
			w.Header().Set("WWW-Authenticate", `Bearer realm="homedash", error="invalid_token"`)
			m.writeErr(w, r, http.StatusUnauthorized, CodeUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the claims set by RequireBearer.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
