// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

// EarthRadiusKm is the mean Earth radius (IUGG) used by all distance computations.
const EarthRadiusKm = 6371.0088

// ErrInvalidCoordinate is wrapped by every coordinate validation failure.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lng lat)"
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// Validate checks latitude and longitude ranges. NaN and infinities are rejected.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return fmt.Errorf("%w: latitude is not a finite number", ErrInvalidCoordinate)
	}

	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: longitude is not a finite number", ErrInvalidCoordinate)
	}

	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinate, p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinate, p.Lng)
	}

	return nil
}

// centralAngle returns the great-circle angle between a and b, in radians.
func centralAngle(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// rounding can push h slightly outside [0, 1] near antipodes
	s := math.Sqrt(math.Max(0, h))

	return 2 * math.Asin(math.Min(1, s))
}

// DistanceKm returns the Haversine distance between a and b in kilometers.
func DistanceKm(a, b Point) float64 {
	return EarthRadiusKm * centralAngle(a, b)
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	return DistanceKm(*p, *other) * 1000
}

// Cell returns the H3 cell containing p at the given resolution.
func (p Point) Cell(res int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
	}

	return cell, nil
}

// Destination returns the point reached travelling distanceKm from p along the
// initial bearing (degrees clockwise from north).
func Destination(p Point, bearing, distanceKm float64) Point {
	lat1 := p.Lat * math.Pi / 180
	lng1 := p.Lng * math.Pi / 180
	theta := bearing * math.Pi / 180
	delta := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lng2 := lng1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	// normalize to [-180, 180)
	lng := math.Mod(lng2*180/math.Pi+540, 360) - 180

	return Point{Lat: lat2 * 180 / math.Pi, Lng: lng}
}
