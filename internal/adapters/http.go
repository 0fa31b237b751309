// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homedash/internal/metrics"
)

// maxErrorBodySize limits how much of a failed response is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// vendorHTTP performs JSON requests against one vendor API and classifies
// failures into the adapter error taxonomy.
type vendorHTTP struct {
	service string
	client  *http.Client
}

func newVendorHTTP(service string, client *http.Client, timeout time.Duration) vendorHTTP {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return vendorHTTP{service: service, client: client}
}

// do sends a request with an optional JSON body. The response body is
// returned for 2xx statuses; 204 yields a nil body. Other statuses are
// classified by statusError.
func (v vendorHTTP) do(ctx context.Context, method, reqURL string, body interface{}, header http.Header) ([]byte, int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, 0, NewUnexpectedError(v.service, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, NewUnexpectedError(v.service, fmt.Errorf("create request failed: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	start := time.Now()
	resp, err := v.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(v.service, "unavailable", time.Since(start))
		return nil, 0, NewUnavailableError(v.service, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := readBodyForError(resp.Body)
		classified := v.statusError(resp.StatusCode, errBody)
		outcome := "error"
		if KindOf(classified) == KindUpstreamUnavailable {
			outcome = "unavailable"
		}
		metrics.RecordUpstream(v.service, outcome, time.Since(start))
		return nil, resp.StatusCode, classified
	}

	metrics.RecordUpstream(v.service, "ok", time.Since(start))
	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.StatusCode, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, NewUnavailableError(v.service, fmt.Errorf("read response: %w", err))
	}
	return data, resp.StatusCode, nil
}

// getJSON issues a GET and decodes the JSON response into out.
func (v vendorHTTP) getJSON(ctx context.Context, reqURL string, header http.Header, out interface{}) error {
	data, _, err := v.do(ctx, http.MethodGet, reqURL, nil, header)
	if err != nil {
		return err
	}
	return v.decode(data, out)
}

func (v vendorHTTP) decode(data []byte, out interface{}) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewUpstreamError(v.service, v.service+" returned an invalid response", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (v vendorHTTP) statusError(status int, body []byte) *Error {
	cause := fmt.Errorf("request failed with status %d: %s", status, strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Service: v.service, Message: v.service + " resource not found", Err: cause}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewAuthError(v.service, v.service+" rejected the credentials", cause)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Service: v.service, Message: v.service + " rejected the request", Err: cause}
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return NewUnavailableError(v.service, cause)
	default:
		return NewUpstreamError(v.service, fmt.Sprintf("%s API error (status %d)", v.service, status), cause)
	}
}
