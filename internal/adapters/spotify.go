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

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
)

// Messages returned for missing Spotify credentials.
const (
	SpotifyNotConfiguredMessage  = "Spotify not configured"
	SpotifyNoRefreshTokenMessage = "Spotify refresh token not configured"
)

const spotifyKeyPlayback = "spotify.playback"

type spotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent *int   `json:"volume_percent"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyItem struct {
	URI        string `json:"uri"`
	Name       string `json:"name"`
	DurationMs int    `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string         `json:"name"`
		Images []spotifyImage `json:"images"`
	} `json:"album"`
}

type spotifyPlayer struct {
	Device       *spotifyDevice `json:"device"`
	ShuffleState bool           `json:"shuffle_state"`
	RepeatState  string         `json:"repeat_state"`
	ProgressMs   int            `json:"progress_ms"`
	IsPlaying    bool           `json:"is_playing"`
	Item         *spotifyItem   `json:"item"`
}

// SpotifyAdapter controls playback through the Spotify Web API using a
// long-lived refresh token.
type SpotifyAdapter struct {
	cfg       config.SpotifyConfig
	http      vendorHTTP
	breaker   *Breaker
	auth      bearer
	snapshots snapshots
}

// SpotifyOption configures a SpotifyAdapter.
type SpotifyOption func(*SpotifyAdapter)

func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(a *SpotifyAdapter) { a.http = newVendorHTTP(ServiceSpotify, c, a.cfg.Timeout) }
}

func WithSpotifySnapshots(store SnapshotStore, mode ModeReporter) SpotifyOption {
	return func(a *SpotifyAdapter) { a.snapshots = snapshots{store: store, mode: mode} }
}

// NewSpotifyAdapter creates a Spotify adapter.
func NewSpotifyAdapter(cfg config.SpotifyConfig, opts ...SpotifyOption) *SpotifyAdapter {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	a := &SpotifyAdapter{
		cfg:     cfg,
		http:    newVendorHTTP(ServiceSpotify, nil, cfg.Timeout),
		breaker: NewBreaker(ServiceSpotify, BreakerSettings{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	oc := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	a.auth = bearer{
		service: ServiceSpotify,
		message: "Spotify rejected the refresh token",
		source:  oc.TokenSource(tokenContext(a.http.client), &oauth2.Token{RefreshToken: cfg.RefreshToken}),
	}
	return a
}

func (a *SpotifyAdapter) Name() string { return ServiceSpotify }

func (a *SpotifyAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *SpotifyAdapter) DegradeOnUnreachable() bool { return a.cfg.DegradeOnUnreachable }

// ready checks credentials before any network call.
func (a *SpotifyAdapter) ready() error {
	if !a.IsConfigured() {
		return NewConfigurationError(ServiceSpotify, SpotifyNotConfiguredMessage)
	}
	if a.cfg.RefreshToken == "" {
		return NewAuthError(ServiceSpotify, SpotifyNoRefreshTokenMessage, nil)
	}
	return nil
}

// Playback returns the current playback state, or nil when no device is
// active.
func (a *SpotifyAdapter) Playback(ctx context.Context) (*models.Playback, Origin, error) {
	return readCloud(ctx, a.snapshots, ServiceSpotify, spotifyKeyPlayback, a.fetchPlayback)
}

func (a *SpotifyAdapter) fetchPlayback(ctx context.Context) (*models.Playback, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	var player spotifyPlayer
	status, err := a.request(ctx, http.MethodGet, "/me/player", nil, nil, &player)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return playbackFromSpotify(player), nil
}

// Devices lists the user's Spotify Connect devices.
func (a *SpotifyAdapter) Devices(ctx context.Context) ([]models.Device, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	var resp struct {
		Devices []spotifyDevice `json:"devices"`
	}
	if _, err := a.request(ctx, http.MethodGet, "/me/player/devices", nil, nil, &resp); err != nil {
		return nil, err
	}
	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, deviceFromSpotify(d))
	}
	return devices, nil
}

// Play resumes playback, optionally on a specific device.
func (a *SpotifyAdapter) Play(ctx context.Context, deviceID string) error {
	return a.command(ctx, http.MethodPut, "/me/player/play", deviceID, nil)
}

// Pause pauses playback.
func (a *SpotifyAdapter) Pause(ctx context.Context, deviceID string) error {
	return a.command(ctx, http.MethodPut, "/me/player/pause", deviceID, nil)
}

// Next skips to the next track.
func (a *SpotifyAdapter) Next(ctx context.Context, deviceID string) error {
	return a.command(ctx, http.MethodPost, "/me/player/next", deviceID, nil)
}

// SetVolume sets the device volume (0..100).
func (a *SpotifyAdapter) SetVolume(ctx context.Context, volume int, deviceID string) error {
	if volume < 0 || volume > 100 {
		return NewValidationError(ServiceSpotify, "volume must be between 0 and 100")
	}
	q := url.Values{}
	q.Set("volume_percent", strconv.Itoa(volume))
	return a.command(ctx, http.MethodPut, "/me/player/volume", deviceID, q)
}

func (a *SpotifyAdapter) command(ctx context.Context, method, path, deviceID string, q url.Values) error {
	if err := a.ready(); err != nil {
		return err
	}
	if q == nil {
		q = url.Values{}
	}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	_, err := a.request(ctx, method, path, q, nil, nil)
	return err
}

func (a *SpotifyAdapter) request(ctx context.Context, method, path string, q url.Values, body, out interface{}) (int, error) {
	header, err := a.auth.header()
	if err != nil {
		return 0, err
	}
	reqURL := a.cfg.BaseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}
	return call(a.breaker, func() (int, error) {
		data, status, err := a.http.do(ctx, method, reqURL, body, header)
		if err != nil {
			return status, err
		}
		return status, a.http.decode(data, out)
	})
}

// Refresh records the current playback state.
func (a *SpotifyAdapter) Refresh(ctx context.Context, force bool) (models.SyncResult, error) {
	start := time.Now()
	result := models.SyncResult{Service: ServiceSpotify}
	playback, err := a.fetchPlayback(ctx)
	if err != nil {
		return result, err
	}
	written := 0
	if a.snapshots.save(spotifyKeyPlayback, playback, force) {
		written = 1
	}
	return finishSync(result, written, start), nil
}

func playbackFromSpotify(p spotifyPlayer) *models.Playback {
	pb := &models.Playback{
		IsPlaying:    p.IsPlaying,
		ProgressMs:   p.ProgressMs,
		ShuffleState: p.ShuffleState,
		RepeatState:  p.RepeatState,
	}
	if p.Device != nil {
		d := deviceFromSpotify(*p.Device)
		pb.Device = &d
	}
	if p.Item != nil {
		track := &models.SpotifyTrack{
			URI:        p.Item.URI,
			Name:       p.Item.Name,
			Album:      p.Item.Album.Name,
			DurationMs: p.Item.DurationMs,
			Artists:    make([]string, 0, len(p.Item.Artists)),
		}
		for _, artist := range p.Item.Artists {
			track.Artists = append(track.Artists, artist.Name)
		}
		if len(p.Item.Album.Images) > 0 {
			track.AlbumArt = p.Item.Album.Images[0].URL
		}
		pb.Track = track
	}
	return pb
}

func deviceFromSpotify(d spotifyDevice) models.Device {
	return models.Device{
		ID:            d.ID,
		Name:          d.Name,
		Type:          d.Type,
		IsActive:      d.IsActive,
		VolumePercent: d.VolumePercent,
	}
}
