// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"errors"
	"fmt"
)

// Kind classifies adapter failures. The HTTP layer maps each kind to a
// status code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindConfiguration
	KindAuth
	KindModeViolation
	KindNotFound
	KindValidation
	KindUpstreamUnavailable
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuth:
		return "auth"
	case KindModeViolation:
		return "mode_violation"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstream:
		return "upstream"
	default:
		return "unexpected"
	}
}

// Error is the typed error returned by every adapter. Message is safe to
// show to clients; Err is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Service string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for any service.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Service == "" || t.Service == e.Service)
}

// Sentinels for errors.Is.
var (
	ErrConfiguration       = &Error{Kind: KindConfiguration, Message: "not configured"}
	ErrAuth                = &Error{Kind: KindAuth, Message: "authentication failed"}
	ErrModeViolation       = &Error{Kind: KindModeViolation, Message: "read-only mode"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Message: "service unavailable"}
	ErrUpstream            = &Error{Kind: KindUpstream, Message: "upstream error"}
)

// KindOf returns the kind of err, or KindUnexpected for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// NewConfigurationError reports missing credentials or addresses.
func NewConfigurationError(service, message string) *Error {
	return &Error{Kind: KindConfiguration, Service: service, Message: message}
}

// NewAuthError reports rejected or missing credentials.
func NewAuthError(service, message string, err error) *Error {
	return &Error{Kind: KindAuth, Service: service, Message: message, Err: err}
}

// NewNotFoundError reports an unknown resource.
func NewNotFoundError(service, message string) *Error {
	return &Error{Kind: KindNotFound, Service: service, Message: message}
}

// NewValidationError reports a request the vendor would reject.
func NewValidationError(service, message string) *Error {
	return &Error{Kind: KindValidation, Service: service, Message: message}
}

// NewUnavailableError reports a device or API that could not be reached.
func NewUnavailableError(service string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Service: service, Message: service + " is unavailable", Err: err}
}

// NewUpstreamError reports an error response from a vendor API.
func NewUpstreamError(service, message string, err error) *Error {
	return &Error{Kind: KindUpstream, Service: service, Message: message, Err: err}
}

// NewUnexpectedError wraps a failure with no better classification.
func NewUnexpectedError(service string, err error) *Error {
	return &Error{Kind: KindUnexpected, Service: service, Message: "Internal server error", Err: err}
}

// PublicMessage returns the client-safe message for err. Untyped errors
// never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
