// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
)

// LyftNotConfiguredMessage is returned when client credentials are missing.
const LyftNotConfiguredMessage = "Lyft API not configured"

const (
	lyftKeyRidePrefix = "lyft.ride."

	// Tokens are renewed this long before they expire.
	lyftTokenEarlyRefresh = time.Minute
)

type lyftLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

type lyftETA struct {
	RideType        string `json:"ride_type"`
	DisplayName     string `json:"display_name"`
	ETASeconds      int    `json:"eta_seconds"`
	IsValidEstimate bool   `json:"is_valid_estimate"`
}

type lyftRide struct {
	RideID      string        `json:"ride_id"`
	Status      string        `json:"status"`
	RideType    string        `json:"ride_type"`
	Origin      lyftLocation  `json:"origin"`
	Destination lyftLocation  `json:"destination"`
	Driver      *lyftDriver   `json:"driver,omitempty"`
	Vehicle     *lyftVehicle  `json:"vehicle,omitempty"`
	Pickup      *lyftPickupAt `json:"pickup,omitempty"`
}

type lyftDriver struct {
	FirstName string `json:"first_name"`
	Rating    string `json:"rating"`
}

type lyftVehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	LicensePlate string `json:"license_plate"`
}

type lyftPickupAt struct {
	ETASeconds int `json:"eta_seconds"`
}

type lyftRideRequest struct {
	RideType    string       `json:"ride_type"`
	Origin      lyftLocation `json:"origin"`
	Destination lyftLocation `json:"destination"`
}

// LyftAdapter requests rides and pickup estimates from the Lyft API.
type LyftAdapter struct {
	cfg       config.LyftConfig
	http      vendorHTTP
	breaker   *Breaker
	auth      bearer
	snapshots snapshots
}

// LyftOption configures a LyftAdapter.
type LyftOption func(*LyftAdapter)

func WithLyftHTTPClient(c *http.Client) LyftOption {
	return func(a *LyftAdapter) { a.http = newVendorHTTP(ServiceLyft, c, a.cfg.Timeout) }
}

func WithLyftSnapshots(store SnapshotStore, mode ModeReporter) LyftOption {
	return func(a *LyftAdapter) { a.snapshots = snapshots{store: store, mode: mode} }
}

// NewLyftAdapter creates a Lyft adapter using the client-credentials grant.
func NewLyftAdapter(cfg config.LyftConfig, opts ...LyftOption) *LyftAdapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	a := &LyftAdapter{
		cfg:     cfg,
		http:    newVendorHTTP(ServiceLyft, nil, cfg.Timeout),
		breaker: NewBreaker(ServiceLyft, BreakerSettings{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"public"},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	src := freshTokenSource{ctx: tokenContext(a.http.client), fetch: cc.Token}
	a.auth = bearer{
		service: ServiceLyft,
		message: "Lyft OAuth error",
		source:  oauth2.ReuseTokenSourceWithExpiry(nil, src, lyftTokenEarlyRefresh),
	}
	return a
}

func (a *LyftAdapter) Name() string { return ServiceLyft }

func (a *LyftAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *LyftAdapter) DegradeOnUnreachable() bool { return a.cfg.DegradeOnUnreachable }

func (a *LyftAdapter) notConfigured() error {
	return NewConfigurationError(ServiceLyft, LyftNotConfiguredMessage)
}

// ETA returns pickup estimates per ride type at a location.
func (a *LyftAdapter) ETA(ctx context.Context, lat, lng float64) ([]models.ETA, error) {
	if !a.IsConfigured() {
		return nil, a.notConfigured()
	}
	if err := checkCoordinates(lat, lng); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var resp struct {
		Estimates []lyftETA `json:"eta_estimates"`
	}
	if err := a.request(ctx, http.MethodGet, "/v1/eta?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	etas := make([]models.ETA, 0, len(resp.Estimates))
	for _, e := range resp.Estimates {
		etas = append(etas, models.ETA{
			RideType:        e.RideType,
			DisplayName:     e.DisplayName,
			ETASeconds:      e.ETASeconds,
			IsValidEstimate: e.IsValidEstimate,
		})
	}
	return etas, nil
}

// RequestRide books a ride.
func (a *LyftAdapter) RequestRide(ctx context.Context, req models.RideRequest) (models.Ride, error) {
	if !a.IsConfigured() {
		return models.Ride{}, a.notConfigured()
	}
	for _, loc := range []models.Location{req.Origin, req.Destination} {
		if err := checkCoordinates(loc.Lat, loc.Lng); err != nil {
			return models.Ride{}, err
		}
	}

	body := lyftRideRequest{
		RideType:    req.RideType,
		Origin:      lyftLocation(req.Origin),
		Destination: lyftLocation(req.Destination),
	}
	if body.RideType == "" {
		body.RideType = "lyft"
	}

	var ride lyftRide
	if err := a.request(ctx, http.MethodPost, "/v1/rides", body, &ride); err != nil {
		return models.Ride{}, err
	}
	out := rideFromLyft(ride)
	a.snapshots.save(lyftKeyRidePrefix+out.ID, out, false)
	return out, nil
}

// RideStatus returns the current state of a ride. When Lyft cannot be
// reached the last recorded state of that ride is served instead.
func (a *LyftAdapter) RideStatus(ctx context.Context, id string) (models.Ride, Origin, error) {
	if !a.IsConfigured() {
		return models.Ride{}, Origin{}, a.notConfigured()
	}
	return readCloud(ctx, a.snapshots, ServiceLyft, lyftKeyRidePrefix+id, func(ctx context.Context) (models.Ride, error) {
		var ride lyftRide
		if err := a.request(ctx, http.MethodGet, "/v1/rides/"+url.PathEscape(id), nil, &ride); err != nil {
			return models.Ride{}, err
		}
		return rideFromLyft(ride), nil
	})
}

// CancelRide cancels a pending or active ride.
func (a *LyftAdapter) CancelRide(ctx context.Context, id string) error {
	if !a.IsConfigured() {
		return a.notConfigured()
	}
	return a.request(ctx, http.MethodPost, "/v1/rides/"+url.PathEscape(id)+"/cancel", struct{}{}, nil)
}

func (a *LyftAdapter) request(ctx context.Context, method, path string, body, out interface{}) error {
	header, err := a.auth.header()
	if err != nil {
		return err
	}
	return run(a.breaker, func() error {
		data, _, err := a.http.do(ctx, method, a.cfg.BaseURL+path, body, header)
		if err != nil {
			return err
		}
		return a.http.decode(data, out)
	})
}

func rideFromLyft(r lyftRide) models.Ride {
	ride := models.Ride{
		ID:          r.RideID,
		Status:      r.Status,
		RideType:    r.RideType,
		Origin:      models.Location(r.Origin),
		Destination: models.Location(r.Destination),
	}
	if r.Driver != nil {
		ride.Driver = &models.Driver{FirstName: r.Driver.FirstName, Rating: r.Driver.Rating}
	}
	if r.Vehicle != nil {
		ride.Vehicle = &models.Vehicle{
			Make:         r.Vehicle.Make,
			Model:        r.Vehicle.Model,
			Color:        r.Vehicle.Color,
			LicensePlate: r.Vehicle.LicensePlate,
		}
	}
	if r.Pickup != nil {
		ride.ETASeconds = r.Pickup.ETASeconds
	}
	return ride
}

func checkCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return NewValidationError(ServiceLyft, "lat must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return NewValidationError(ServiceLyft, "lng must be between -180 and 180")
	}
	return nil
}
