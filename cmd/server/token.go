// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/homedash/internal/auth"
	"github.com/tomtom215/homedash/internal/config"
)

var errNoSecret = errors.New("AUTH_JWT_SECRET must be set to issue tokens")

// printToken writes a signed bearer token followed by a newline.
func printToken(w io.Writer, sec config.SecurityConfig, subject string, ttl time.Duration) error {
	if !sec.AuthEnabled() {
		return errNoSecret
	}
	manager, err := auth.NewJWTManager(sec)
	if err != nil {
		return err
	}
	token, err := manager.GenerateToken(subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
