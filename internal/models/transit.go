// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

import "time"

// Transit modes.
const (
	TransitBus   = "bus"
	TransitTrain = "train"
)

// Arrival is a single predicted CTA arrival.
type Arrival struct {
	Route       string    `json:"route"`
	Stop        string    `json:"stop"`
	StopName    string    `json:"stopName,omitempty"`
	Direction   string    `json:"direction"`
	Destination string    `json:"destination,omitempty"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Minutes     int       `json:"minutes"`
	IsDelayed   bool      `json:"isDelayed"`
	IsApproach  bool      `json:"isApproaching"`
}

// RouteArrivals holds predictions for one configured route. A route that
// failed carries Error instead of arrivals.
type RouteArrivals struct {
	Mode      string    `json:"mode"`
	Route     string    `json:"route"`
	Stop      string    `json:"stop"`
	Direction string    `json:"direction"`
	Arrivals  []Arrival `json:"arrivals"`
	Error     string    `json:"error,omitempty"`
}

// Arrivals is the result of one CTA query across all configured routes.
type Arrivals struct {
	Bus       []RouteArrivals `json:"bus"`
	Train     []RouteArrivals `json:"train"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Fingerprint excludes the fetch time and countdowns, which change on every
// query even when the predicted arrivals do not.
func (a Arrivals) Fingerprint() interface{} {
	type key struct {
		Mode, Route, Stop, Error string
		Times                    []time.Time
	}
	keys := make([]key, 0, len(a.Bus)+len(a.Train))
	for _, group := range [][]RouteArrivals{a.Bus, a.Train} {
		for _, r := range group {
			k := key{Mode: r.Mode, Route: r.Route, Stop: r.Stop, Error: r.Error}
			for _, arr := range r.Arrivals {
				k.Times = append(k.Times, arr.ArrivalTime)
			}
			keys = append(keys, k)
		}
	}
	return keys
}
