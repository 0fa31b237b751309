// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// bearer turns an oauth2.TokenSource into Authorization headers and maps
// token endpoint failures into the adapter error taxonomy.
type bearer struct {
	service string
	message string
	source  oauth2.TokenSource
}

func (b bearer) header() (http.Header, error) {
	tok, err := b.source.Token()
	if err != nil {
		return nil, b.tokenError(err)
	}
	h := http.Header{}
	tok.SetAuthHeader(&http.Request{Header: h})
	return h, nil
}

// tokenError classifies a token fetch failure. A rejected grant is an auth
// problem; a token endpoint that cannot be reached is an outage.
func (b bearer) tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode >= http.StatusInternalServerError {
			return NewUnavailableError(b.service, err)
		}
		return NewAuthError(b.service, b.message, err)
	}
	return NewUnavailableError(b.service, err)
}

// tokenContext carries the HTTP client used for token requests.
func tokenContext(client *http.Client) context.Context {
	return context.WithValue(context.Background(), oauth2.HTTPClient, client)
}

// freshTokenSource fetches a new token on every call. It is always wrapped
// in a ReuseTokenSource.
type freshTokenSource struct {
	ctx   context.Context
	fetch func(context.Context) (*oauth2.Token, error)
}

func (s freshTokenSource) Token() (*oauth2.Token, error) {
	return s.fetch(s.ctx)
}
