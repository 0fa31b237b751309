// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

// Zone is a Hue group of type Room or Zone.
type Zone struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Class      string   `json:"class,omitempty"`
	Lights     []string `json:"lights"`
	AnyOn      bool     `json:"anyOn"`
	AllOn      bool     `json:"allOn"`
	Brightness int      `json:"brightness"`
}

// Light is a single Hue light.
type Light struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ModelID    string `json:"modelId,omitempty"`
	On         bool   `json:"on"`
	Brightness int    `json:"brightness"`
	Reachable  bool   `json:"reachable"`
}

// Scene is a stored Hue scene.
type Scene struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Group  string   `json:"group,omitempty"`
	Lights []string `json:"lights"`
}

// LightsStatus summarises every light on the bridge. AverageBrightness is
// averaged over lit lights only.
type LightsStatus struct {
	TotalLights       int  `json:"totalLights"`
	LightsOn          int  `json:"lightsOn"`
	AnyOn             bool `json:"anyOn"`
	AllOn             bool `json:"allOn"`
	AverageBrightness int  `json:"averageBrightness"`
}

// EntertainmentArea is a Hue group of type Entertainment.
type EntertainmentArea struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Class    string   `json:"class,omitempty"`
	Lights   []string `json:"lights"`
	Active   bool     `json:"active"`
	Owner    string   `json:"owner,omitempty"`
	ProxyMAC string   `json:"proxyNode,omitempty"`
}
