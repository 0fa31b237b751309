// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

// Player is one Sonos room. ID is the room name, which is what the
// node-sonos-http-api addresses players by.
type Player struct {
	ID            string `json:"id"`
	UUID          string `json:"uuid"`
	RoomName      string `json:"roomName"`
	Coordinator   string `json:"coordinator"`
	IsCoordinator bool   `json:"isCoordinator"`
	Volume        int    `json:"volume"`
	Mute          bool   `json:"mute"`
	PlaybackState string `json:"playbackState"`
	CurrentTrack  *Track `json:"currentTrack,omitempty"`
}

// Track is the item a player is currently playing.
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Artwork  string `json:"artwork,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// NowPlaying is a coordinator that is currently playing.
type NowPlaying struct {
	RoomName      string   `json:"roomName"`
	Members       []string `json:"members"`
	PlaybackState string   `json:"playbackState"`
	Track         Track    `json:"track"`
}
