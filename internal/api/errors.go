// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package api

import (
	"net/http"
	"reflect"

	"github.com/tomtom215/homedash/internal/adapters"
	"github.com/tomtom215/homedash/internal/logging"
	"github.com/tomtom215/homedash/internal/validation"
)

// Error codes returned in the envelope's code field.
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeConfiguration         = "CONFIGURATION_ERROR"
	CodeValidation            = "VALIDATION_ERROR"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeNotFound              = "NOT_FOUND"
	CodeRateLimited           = "RATE_LIMITED"
	CodeExternalServiceFailed = "EXTERNAL_SERVICE_FAILED"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// internalErrorMessage is the only text clients see for unexpected failures.
const internalErrorMessage = "Internal server error"

// notConfiguredMessages holds the text returned when a write targets an
// adapter without credentials.
var notConfiguredMessages = map[string]string{
	adapters.ServiceHue:     adapters.HueNotConfiguredMessage,
	adapters.ServiceSonos:   adapters.SonosNotConfiguredMessage,
	adapters.ServiceCTA:     adapters.CTANotConfiguredMessage,
	adapters.ServiceLyft:    adapters.LyftNotConfiguredMessage,
	adapters.ServiceSpotify: adapters.SpotifyNotConfiguredMessage,
	adapters.ServiceFitness: adapters.FitnessNotConfiguredMessage,
}

// statusForKind maps an adapter error kind to an HTTP status and code.
func statusForKind(kind adapters.Kind) (int, string) {
	switch kind {
	case adapters.KindConfiguration:
		return http.StatusBadRequest, CodeConfiguration
	case adapters.KindValidation:
		return http.StatusBadRequest, CodeValidation
	case adapters.KindAuth:
		return http.StatusUnauthorized, CodeUnauthorized
	case adapters.KindModeViolation:
		return http.StatusForbidden, CodeForbidden
	case adapters.KindNotFound:
		return http.StatusNotFound, CodeNotFound
	case adapters.KindUpstreamUnavailable, adapters.KindUpstream:
		return http.StatusBadGateway, CodeExternalServiceFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// respondAdapterError maps err to an error envelope.
func respondAdapterError(w http.ResponseWriter, r *http.Request, service string, err error) {
	kind := adapters.KindOf(err)
	status, code := statusForKind(kind)

	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError && kind != adapters.KindUpstreamUnavailable {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).
		Str("service", service).
		Str("kind", kind.String()).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Msg("Adapter call failed")

	message := adapters.PublicMessage(err)
	if status == http.StatusInternalServerError {
		message = internalErrorMessage
	}
	respondError(w, r, status, code, message)
}

// respondRead finishes a read route. An unreachable upstream on an adapter
// configured to degrade answers 200 with empty instead of an error.
func respondRead(w http.ResponseWriter, r *http.Request, svc adapters.Configurable, data interface{}, origin adapters.Origin, err error, empty interface{}) {
	if err == nil {
		if isNilSlice(data) {
			data = empty
		}
		respondData(w, r, data, origin)
		return
	}
	if adapters.KindOf(err) == adapters.KindUpstreamUnavailable {
		if d, ok := svc.(adapters.Degradable); ok && d.DegradeOnUnreachable() {
			logging.Ctx(r.Context()).Warn().Err(err).Str("service", svc.Name()).Msg("Upstream unreachable, serving empty result")
			respondOK(w, r, empty)
			return
		}
	}
	respondAdapterError(w, r, svc.Name(), err)
}

// requireConfigured answers 400 and returns false when svc has no
// credentials. It never touches the network.
func requireConfigured(w http.ResponseWriter, r *http.Request, svc adapters.Configurable) bool {
	if svc != nil && svc.IsConfigured() {
		return true
	}
	message := "Service not configured"
	if svc != nil {
		if m, ok := notConfiguredMessages[svc.Name()]; ok {
			message = m
		}
	}
	respondError(w, r, http.StatusBadRequest, CodeConfiguration, message)
	return false
}

// respondValidationError answers 400 with the first violation's message.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError) {
	message := verr.Error()
	if errs := verr.Errors(); len(errs) > 0 {
		message = errs[0].Error()
	}
	respondError(w, r, http.StatusBadRequest, CodeValidation, message)
}

// isNilSlice reports whether v is a nil slice, which would otherwise
// encode as null.
func isNilSlice(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.IsNil()
}
