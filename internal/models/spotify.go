// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

// Playback is the current Spotify playback state.
type Playback struct {
	IsPlaying    bool          `json:"isPlaying"`
	ProgressMs   int           `json:"progressMs"`
	ShuffleState bool          `json:"shuffleState"`
	RepeatState  string        `json:"repeatState"`
	Device       *Device       `json:"device,omitempty"`
	Track        *SpotifyTrack `json:"track,omitempty"`
}

// SpotifyTrack is the item being played.
type SpotifyTrack struct {
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumArt   string   `json:"albumArt,omitempty"`
	DurationMs int      `json:"durationMs"`
}

// Device is a Spotify Connect device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"isActive"`
	VolumePercent *int   `json:"volumePercent,omitempty"`
}

// Fingerprint limits change detection to what a listener would notice.
// Progress and volume changes alone do not produce a new snapshot.
func (p *Playback) Fingerprint() interface{} {
	if p == nil {
		return nil
	}
	fp := struct {
		TrackURI  string `json:"trackUri"`
		IsPlaying bool   `json:"isPlaying"`
		DeviceID  string `json:"deviceId"`
		Shuffle   bool   `json:"shuffle"`
		Repeat    string `json:"repeat"`
	}{
		IsPlaying: p.IsPlaying,
		Shuffle:   p.ShuffleState,
		Repeat:    p.RepeatState,
	}
	if p.Track != nil {
		fp.TrackURI = p.Track.URI
	}
	if p.Device != nil {
		fp.DeviceID = p.Device.ID
	}
	return fp
}
