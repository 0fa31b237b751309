// Homedash - Personal Smart-Home Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homedash

package models

// ETA is the pickup estimate for one Lyft ride type.
type ETA struct {
	RideType        string `json:"rideType"`
	DisplayName     string `json:"displayName"`
	ETASeconds      int    `json:"etaSeconds"`
	IsValidEstimate bool   `json:"isValidEstimate"`
}

// Location is a geographic point with an optional address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// RideRequest asks Lyft for a ride.
type RideRequest struct {
	RideType    string   `json:"rideType"`
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
}

// Ride is a requested or active Lyft ride.
type Ride struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	RideType    string   `json:"rideType"`
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
	Driver      *Driver  `json:"driver,omitempty"`
	Vehicle     *Vehicle `json:"vehicle,omitempty"`
	ETASeconds  int      `json:"etaSeconds,omitempty"`
}

// Driver is the assigned Lyft driver.
type Driver struct {
	FirstName string `json:"firstName"`
	Rating    string `json:"rating,omitempty"`
}

// Vehicle is the assigned Lyft vehicle.
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Color        string `json:"color,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
}
