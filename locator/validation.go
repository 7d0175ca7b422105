// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"fmt"
	"math"

	"github.com/jcodagnone/cajero/spatial"
	"github.com/jcodagnone/cajero/utils/textutils"
)

const (
	// DefaultRadiusKm is used when a request has no radius.
	DefaultRadiusKm = 10.0
	// DefaultLimit is used when a request has no limit.
	DefaultLimit = 20
)

// NearbyRequest asks for the service points closest to a coordinate. Nil
// optional fields take their defaults.
type NearbyRequest struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusKm    *float64 `json:"radiusKm,omitempty"`
	ServiceType string   `json:"serviceType,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Limit       *int     `json:"limit,omitempty"`
}

// NewNearbyRequest returns a request for the given origin with default
// radius, limit and filters.
func NewNearbyRequest(lat, lng float64) NearbyRequest {
	return NearbyRequest{Latitude: &lat, Longitude: &lng}
}

// Query validates the request and applies defaults. Coordinates are never
// defaulted.
func (r NearbyRequest) Query() (Query, error) {
	if r.Latitude == nil {
		return Query{}, &ValidationError{Field: "latitude", Reason: "is required"}
	}

	if r.Longitude == nil {
		return Query{}, &ValidationError{Field: "longitude", Reason: "is required"}
	}

	lat, lng := *r.Latitude, *r.Longitude
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Query{}, &ValidationError{Field: "latitude", Reason: fmt.Sprintf("must be between -90 and 90 (got %v)", lat)}
	}

	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Query{}, &ValidationError{Field: "longitude", Reason: fmt.Sprintf("must be between -180 and 180 (got %v)", lng)}
	}

	q := Query{
		Origin:      spatial.Point{Lat: lat, Lng: lng},
		RadiusKm:    DefaultRadiusKm,
		ServiceType: r.ServiceType,
		Provider:    r.Provider,
		Limit:       DefaultLimit,
	}

	if r.RadiusKm != nil {
		if math.IsNaN(*r.RadiusKm) || math.IsInf(*r.RadiusKm, 0) {
			return Query{}, &ValidationError{Field: "radiusKm", Reason: "must be a finite number"}
		}

		q.RadiusKm = *r.RadiusKm
	}

	if r.Limit != nil {
		if *r.Limit < 1 {
			return Query{}, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be a positive integer (got %d)", *r.Limit)}
		}

		q.Limit = *r.Limit
	}

	return q, nil
}

// DecodeNearbyRequest reads a request from loosely typed fields, such as a
// decoded JSON body or query string values. Numbers may be given as strings.
// The legacy names "radius" and "type" are accepted.
func DecodeNearbyRequest(fields map[string]any) (NearbyRequest, error) {
	var (
		req NearbyRequest
		err error
	)

	if req.Latitude, err = optionalFloat(fields, "latitude"); err != nil {
		return req, err
	}

	if req.Longitude, err = optionalFloat(fields, "longitude"); err != nil {
		return req, err
	}

	if req.RadiusKm, err = optionalFloat(fields, "radiusKm", "radius"); err != nil {
		return req, err
	}

	if req.ServiceType, err = optionalString(fields, "serviceType", "type"); err != nil {
		return req, err
	}

	if req.Provider, err = optionalString(fields, "provider", "company"); err != nil {
		return req, err
	}

	limit, err := optionalFloat(fields, "limit")
	if err != nil {
		return req, err
	}

	if limit != nil {
		if *limit != math.Trunc(*limit) || math.Abs(*limit) > math.MaxInt32 {
			return req, &ValidationError{Field: "limit", Reason: "must be an integer"}
		}

		n := int(*limit)
		req.Limit = &n
	}

	return req, nil
}

// optionalFloat reads the first present key. Empty strings count as absent.
func optionalFloat(fields map[string]any, keys ...string) (*float64, error) {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}

		if s, ok := textutils.AnyToString(v); ok && s == "" {
			continue
		}

		f, ok := textutils.AnyToFloat(v)
		if !ok {
			return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("must be a number (got %v)", v)}
		}

		return &f, nil
	}

	return nil, nil
}

func optionalString(fields map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}

		s, ok := textutils.AnyToString(v)
		if !ok {
			return "", &ValidationError{Field: key, Reason: "must be a string"}
		}

		if s != "" {
			return s, nil
		}
	}

	return "", nil
}
