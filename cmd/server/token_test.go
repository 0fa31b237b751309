// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/homedash/internal/auth"
	"github.com/tomtom215/homedash/internal/config"
)

func TestPrintToken(t *testing.T) {
	t.Parallel()

	sec := config.SecurityConfig{JWTSecret: strings.Repeat("k", auth.MinSecretLength)}
	var buf bytes.Buffer
	if err := printToken(&buf, sec, "kitchen-tablet", time.Hour); err != nil {
		t.Fatalf("printToken: %v", err)
	}

	manager, err := auth.NewJWTManager(sec)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	claims, err := manager.ValidateToken(strings.TrimSpace(buf.String()))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "kitchen-tablet" {
		t.Errorf("subject = %q", claims.Subject)
	}
}

func TestPrintToken_Errors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := printToken(&buf, config.SecurityConfig{}, "x", time.Hour); !errors.Is(err, errNoSecret) {
		t.Errorf("no secret: err = %v", err)
	}
	if err := printToken(&buf, config.SecurityConfig{JWTSecret: "short"}, "x", time.Hour); err == nil {
		t.Error("short secret: expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}
