// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

/*
Package auth protects Homedash's mutating routes with optional bearer JWTs.

Authentication is off unless AUTH_JWT_SECRET is set. When it is, every
guarded route (anything that changes device state or writes data) requires an
HS256 token in the Authorization header:

	Authorization: Bearer <token>

Read routes stay open so a wall display can poll without credentials.

Tokens are minted offline with the server binary:

	homedash -issue-token -subject kitchen-tablet -ttl 720h

Wiring:

	mgr, err := auth.NewJWTManager(cfg.Security)
	mw := auth.NewMiddleware(mgr, writeError)
	r.With(mw.RequireBearer).Post("/hue/zones/{id}/toggle", h.ToggleZone)

The package also sets the dashboard's security headers (SecurityHeaders).
*/
package auth
