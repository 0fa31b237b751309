// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Hue v1 error types (https://developers.meethue.com/develop/hue-api/error-messages/).
const (
	hueErrUnauthorized = 1
	hueErrNotAvailable = 3
	hueErrInvalidValue = 7
)

// hueAPIError is one entry of a Hue error array.
type hueAPIError struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type hueResult struct {
	Success map[string]interface{} `json:"success,omitempty"`
	Error   *hueAPIError           `json:"error,omitempty"`
}

type hueGroupState struct {
	AllOn bool `json:"all_on"`
	AnyOn bool `json:"any_on"`
}

type hueGroupAction struct {
	On  bool `json:"on"`
	Bri int  `json:"bri"`
}

type hueStream struct {
	ProxyMode string  `json:"proxymode"`
	ProxyNode string  `json:"proxynode"`
	Active    bool    `json:"active"`
	Owner     *string `json:"owner"`
}

type hueGroup struct {
	Name   string         `json:"name"`
	Lights []string       `json:"lights"`
	Type   string         `json:"type"`
	Class  string         `json:"class"`
	State  hueGroupState  `json:"state"`
	Action hueGroupAction `json:"action"`
	Stream *hueStream     `json:"stream,omitempty"`
}

type hueLightState struct {
	On        bool `json:"on"`
	Bri       int  `json:"bri"`
	Reachable bool `json:"reachable"`
}

type hueLight struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	ModelID string        `json:"modelid"`
	State   hueLightState `json:"state"`
}

type hueScene struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Group  string   `json:"group"`
	Lights []string `json:"lights"`
}

// hueClient talks to one Hue bridge over the v1 REST API. Writes are
// throttled to the bridge's documented command rate.
type hueClient struct {
	http    vendorHTTP
	baseURL string
	breaker *Breaker
	limiter *rate.Limiter
}

func newHueClient(bridgeIP, username string, h vendorHTTP) *hueClient {
	return &hueClient{
		http:    h,
		baseURL: fmt.Sprintf("http://%s/api/%s", bridgeIP, url.PathEscape(username)),
		breaker: NewBreaker(ServiceHue, BreakerSettings{}),
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
}

// hueError converts a Hue error entry into the adapter taxonomy.
func hueError(e *hueAPIError) *Error {
	msg := "HUE API error: " + e.Description
	switch e.Type {
	case hueErrUnauthorized:
		return &Error{Kind: KindAuth, Service: ServiceHue, Message: msg}
	case hueErrNotAvailable:
		return &Error{Kind: KindNotFound, Service: ServiceHue, Message: msg}
	case hueErrInvalidValue:
		return &Error{Kind: KindValidation, Service: ServiceHue, Message: msg}
	default:
		return &Error{Kind: KindUpstream, Service: ServiceHue, Message: msg}
	}
}

// checkHueErrors inspects a body for the bridge's error array. The bridge
// reports most failures with status 200.
func checkHueErrors(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	var results []hueResult
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil
	}
	for _, r := range results {
		if r.Error != nil {
			return hueError(r.Error)
		}
	}
	return nil
}

// rewrapHue gives vendor error statuses the "HUE API error" prefix.
func rewrapHue(err error, status int) error {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindUpstream {
		return err
	}
	return &Error{Kind: KindUpstream, Service: ServiceHue, Message: fmt.Sprintf("HUE API error: status %d", status), Err: e.Err}
}

func (c *hueClient) get(ctx context.Context, path string, out interface{}) error {
	return run(c.breaker, func() error {
		body, status, err := c.http.do(ctx, http.MethodGet, c.baseURL+path, nil, nil)
		if err != nil {
			return rewrapHue(err, status)
		}
		if err := checkHueErrors(body); err != nil {
			return err
		}
		return c.http.decode(body, out)
	})
}

func (c *hueClient) put(ctx context.Context, path string, payload interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return NewUnavailableError(ServiceHue, fmt.Errorf("throttle: %w", err))
	}
	return run(c.breaker, func() error {
		body, status, err := c.http.do(ctx, http.MethodPut, c.baseURL+path, payload, nil)
		if err != nil {
			return rewrapHue(err, status)
		}
		return checkHueErrors(body)
	})
}

// probe checks the bridge without the breaker so an open circuit never
// hides a recovered bridge from mode detection.
func (c *hueClient) probe(ctx context.Context) error {
	body, _, err := c.http.do(ctx, http.MethodGet, c.baseURL+"/config", nil, nil)
	if err != nil {
		return err
	}
	return checkHueErrors(body)
}

func (c *hueClient) groups(ctx context.Context) (map[string]hueGroup, error) {
	var groups map[string]hueGroup
	return groups, c.get(ctx, "/groups", &groups)
}

func (c *hueClient) group(ctx context.Context, id string) (hueGroup, error) {
	var g hueGroup
	return g, c.get(ctx, "/groups/"+url.PathEscape(id), &g)
}

func (c *hueClient) lights(ctx context.Context) (map[string]hueLight, error) {
	var lights map[string]hueLight
	return lights, c.get(ctx, "/lights", &lights)
}

func (c *hueClient) light(ctx context.Context, id string) (hueLight, error) {
	var l hueLight
	return l, c.get(ctx, "/lights/"+url.PathEscape(id), &l)
}

func (c *hueClient) scenes(ctx context.Context) (map[string]hueScene, error) {
	var scenes map[string]hueScene
	return scenes, c.get(ctx, "/scenes", &scenes)
}

func (c *hueClient) setGroupAction(ctx context.Context, id string, action map[string]interface{}) error {
	return c.put(ctx, "/groups/"+url.PathEscape(id)+"/action", action)
}

func (c *hueClient) setLightState(ctx context.Context, id string, state map[string]interface{}) error {
	return c.put(ctx, "/lights/"+url.PathEscape(id)+"/state", state)
}

func (c *hueClient) setGroupAttributes(ctx context.Context, id string, attrs map[string]interface{}) error {
	return c.put(ctx, "/groups/"+url.PathEscape(id), attrs)
}
