// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/homedash/internal/config"
)

// Issuer is the iss claim of minted tokens.
const Issuer = "homedash"

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// DefaultTokenTTL is used when GenerateToken gets a non-positive ttl.
const DefaultTokenTTL = 30 * 24 * time.Hour

// ErrAuthDisabled is returned when no signing secret is configured.
var ErrAuthDisabled = errors.New("bearer authentication disabled")

// Claims are the token claims. Subject names the device or person.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager returns ErrAuthDisabled when the secret is empty and an
// error when it is shorter than MinSecretLength.
func NewJWTManager(cfg config.SecurityConfig) (*JWTManager, error) {
	if !cfg.AuthEnabled() {
		return nil, ErrAuthDisabled
	}
	if len(cfg.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters", MinSecretLength)
	}
	return &JWTManager{secret: []byte(cfg.JWTSecret), now: time.Now}, nil
}

// GenerateToken mints a token for subject valid for ttl.
func (m *JWTManager) GenerateToken(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm, issuer and time claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
