// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/homedash/internal/config"
	"github.com/tomtom215/homedash/internal/models"
)

// SonosNotConfiguredMessage is returned when no API URL is set.
const SonosNotConfiguredMessage = "Sonos not configured"

const sonosKeyPlayers = "sonos.players"

type sonosTrack struct {
	Artist              string `json:"artist"`
	Title               string `json:"title"`
	Album               string `json:"album"`
	AlbumArtURI         string `json:"albumArtUri"`
	AbsoluteAlbumArtURI string `json:"absoluteAlbumArtUri"`
	Duration            int    `json:"duration"`
}

type sonosState struct {
	Volume        int        `json:"volume"`
	Mute          bool       `json:"mute"`
	CurrentTrack  sonosTrack `json:"currentTrack"`
	PlaybackState string     `json:"playbackState"`
}

type sonosMember struct {
	UUID     string     `json:"uuid"`
	RoomName string     `json:"roomName"`
	State    sonosState `json:"state"`
}

type sonosZone struct {
	UUID        string        `json:"uuid"`
	Coordinator sonosMember   `json:"coordinator"`
	Members     []sonosMember `json:"members"`
}

// SonosAdapter talks to a node-sonos-http-api bridge. Players are addressed
// by room name.
type SonosAdapter struct {
	cfg       config.SonosConfig
	http      vendorHTTP
	breaker   *Breaker
	snapshots snapshots
}

// SonosOption configures a SonosAdapter.
type SonosOption func(*SonosAdapter)

// WithSonosHTTPClient overrides the HTTP client.
func WithSonosHTTPClient(c *http.Client) SonosOption {
	return func(a *SonosAdapter) { a.http = newVendorHTTP(ServiceSonos, c, a.cfg.Timeout) }
}

// WithSonosSnapshots enables snapshot reads and write-through.
func WithSonosSnapshots(store SnapshotStore, mode ModeReporter) SonosOption {
	return func(a *SonosAdapter) { a.snapshots = snapshots{store: store, mode: mode} }
}

// NewSonosAdapter creates a Sonos adapter.
func NewSonosAdapter(cfg config.SonosConfig, opts ...SonosOption) *SonosAdapter {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	a := &SonosAdapter{
		cfg:     cfg,
		http:    newVendorHTTP(ServiceSonos, nil, cfg.Timeout),
		breaker: NewBreaker(ServiceSonos, BreakerSettings{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SonosAdapter) Name() string { return ServiceSonos }

func (a *SonosAdapter) IsConfigured() bool { return a.cfg.IsConfigured() }

func (a *SonosAdapter) DegradeOnUnreachable() bool { return a.cfg.DegradeOnUnreachable }

// Probe implements mode.Prober with GET /zones.
func (a *SonosAdapter) Probe(ctx context.Context) error {
	if !a.IsConfigured() {
		return errors.New(SonosNotConfiguredMessage)
	}
	_, _, err := a.http.do(ctx, http.MethodGet, a.cfg.URL+"/zones", nil, nil)
	return err
}

func (a *SonosAdapter) notConfigured() error {
	return NewConfigurationError(ServiceSonos, SonosNotConfiguredMessage)
}

// Players flattens every zone into its member players, sorted by room.
func (a *SonosAdapter) Players(ctx context.Context) ([]models.Player, Origin, error) {
	return readLocal(ctx, a.snapshots, ServiceSonos, sonosKeyPlayers, a.fetchPlayers)
}

func (a *SonosAdapter) fetchPlayers(ctx context.Context) ([]models.Player, error) {
	if !a.IsConfigured() {
		return nil, a.notConfigured()
	}
	zones, err := a.zones(ctx)
	if err != nil {
		return nil, err
	}
	return playersFromZones(zones), nil
}

func (a *SonosAdapter) zones(ctx context.Context) ([]sonosZone, error) {
	return call(a.breaker, func() ([]sonosZone, error) {
		var zones []sonosZone
		err := a.http.getJSON(ctx, a.cfg.URL+"/zones", nil, &zones)
		return zones, err
	})
}

// SetVolume sets a room's volume (0..100).
func (a *SonosAdapter) SetVolume(ctx context.Context, id string, volume int) (models.Player, error) {
	if volume < 0 || volume > 100 {
		return models.Player{}, NewValidationError(ServiceSonos, "volume must be between 0 and 100")
	}
	player, err := a.command(ctx, id, "volume/"+strconv.Itoa(volume))
	if err != nil {
		return models.Player{}, err
	}
	player.Volume = volume
	return player, nil
}

// Play resumes playback in a room.
func (a *SonosAdapter) Play(ctx context.Context, id string) (models.Player, error) {
	player, err := a.command(ctx, id, "play")
	if err != nil {
		return models.Player{}, err
	}
	player.PlaybackState = "PLAYING"
	return player, nil
}

// Pause pauses playback in a room.
func (a *SonosAdapter) Pause(ctx context.Context, id string) (models.Player, error) {
	player, err := a.command(ctx, id, "pause")
	if err != nil {
		return models.Player{}, err
	}
	player.PlaybackState = "PAUSED_PLAYBACK"
	return player, nil
}

// command resolves the player and sends GET /{room}/{action}.
func (a *SonosAdapter) command(ctx context.Context, id, action string) (models.Player, error) {
	if !a.IsConfigured() {
		return models.Player{}, a.notConfigured()
	}
	zones, err := a.zones(ctx)
	if err != nil {
		return models.Player{}, err
	}
	player, ok := findPlayer(playersFromZones(zones), id)
	if !ok {
		return models.Player{}, NewNotFoundError(ServiceSonos, "Sonos player "+id+" not found")
	}

	reqURL := a.cfg.URL + "/" + url.PathEscape(player.RoomName) + "/" + action
	err = run(a.breaker, func() error {
		_, _, err := a.http.do(ctx, http.MethodGet, reqURL, nil, nil)
		return err
	})
	if err != nil {
		return models.Player{}, err
	}
	return player, nil
}

// NowPlaying returns one entry per group coordinator.
func (a *SonosAdapter) NowPlaying(ctx context.Context) ([]models.NowPlaying, Origin, error) {
	players, origin, err := a.Players(ctx)
	if err != nil {
		return nil, origin, err
	}
	return nowPlaying(players), origin, nil
}

// Refresh records the current players.
func (a *SonosAdapter) Refresh(ctx context.Context, force bool) (models.SyncResult, error) {
	start := time.Now()
	result := models.SyncResult{Service: ServiceSonos}
	players, err := a.fetchPlayers(ctx)
	if err != nil {
		return result, err
	}
	written := 0
	if a.snapshots.save(sonosKeyPlayers, players, force) {
		written = len(players)
	}
	return finishSync(result, written, start), nil
}

func playersFromZones(zones []sonosZone) []models.Player {
	players := make([]models.Player, 0)
	for _, z := range zones {
		for _, m := range z.Members {
			p := models.Player{
				ID:            m.RoomName,
				UUID:          m.UUID,
				RoomName:      m.RoomName,
				Coordinator:   z.Coordinator.RoomName,
				IsCoordinator: m.UUID == z.Coordinator.UUID,
				Volume:        m.State.Volume,
				Mute:          m.State.Mute,
				PlaybackState: m.State.PlaybackState,
			}
			if t := m.State.CurrentTrack; t.Title != "" {
				artwork := t.AbsoluteAlbumArtURI
				if artwork == "" {
					artwork = t.AlbumArtURI
				}
				p.CurrentTrack = &models.Track{Title: t.Title, Artist: t.Artist, Album: t.Album, Artwork: artwork, Duration: t.Duration}
			}
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].RoomName < players[j].RoomName })
	return players
}

// findPlayer matches a room name (case-insensitive) or a UUID.
func findPlayer(players []models.Player, id string) (models.Player, bool) {
	for _, p := range players {
		if strings.EqualFold(p.RoomName, id) || p.UUID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func nowPlaying(players []models.Player) []models.NowPlaying {
	members := make(map[string][]string)
	for _, p := range players {
		members[p.Coordinator] = append(members[p.Coordinator], p.RoomName)
	}

	result := make([]models.NowPlaying, 0)
	for _, p := range players {
		if !p.IsCoordinator {
			continue
		}
		np := models.NowPlaying{RoomName: p.RoomName, Members: members[p.RoomName], PlaybackState: p.PlaybackState}
		if p.CurrentTrack != nil {
			np.Track = *p.CurrentTrack
		}
		result = append(result, np)
	}
	return result
}
