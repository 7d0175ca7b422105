// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import "math"

// Response is the answer to a nearby locations request.
type Response struct {
	Count     int              `json:"count"`
	Locations []LocationResult `json:"locations"`
}

// LocationResult is one ranked location as presented to callers.
type LocationResult struct {
	ID          string      `json:"id"`
	Provider    string      `json:"provider"`
	ServiceType ServiceType `json:"serviceType"`
	DisplayName string      `json:"displayName"`
	Address     string      `json:"address"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	DistanceKm  float64     `json:"distanceKm"`
	Hours       string      `json:"hours,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Services    []string    `json:"services,omitempty"`
}

// Assemble shapes ranked results into a Response, keeping their order.
func Assemble(results []Ranked) *Response {
	resp := &Response{
		Count:     len(results),
		Locations: make([]LocationResult, 0, len(results)),
	}

	for _, r := range results {
		loc := r.Location
		resp.Locations = append(resp.Locations, LocationResult{
			ID:          loc.ID,
			Provider:    loc.Provider,
			ServiceType: loc.ServiceType,
			DisplayName: loc.DisplayName,
			Address:     loc.Address,
			Latitude:    loc.Point.Lat,
			Longitude:   loc.Point.Lng,
			DistanceKm:  roundKm(r.DistanceKm),
			Hours:       loc.Hours,
			Phone:       loc.Phone,
			Services:    loc.Services,
		})
	}

	return resp
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
