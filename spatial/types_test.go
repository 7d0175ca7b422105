// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baku = Point{Lat: 40.3777, Lng: 49.8920}

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{"coincident", baku, baku, 0, 0},
		{"one degree of latitude", Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0}, 111.1951, 1e-3},
		{"quarter meridian", Point{Lat: 0, Lng: 0}, Point{Lat: 90, Lng: 0}, math.Pi / 2 * EarthRadiusKm, 1e-9},
		{"antipodal", Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180}, math.Pi * EarthRadiusKm, 1e-6},
		{"pole to pole", Point{Lat: 90, Lng: 0}, Point{Lat: -90, Lng: 0}, math.Pi * EarthRadiusKm, 1e-6},
		{"baku to ganja", baku, Point{Lat: 40.6828, Lng: 46.3606}, 300.5, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	points := []Point{
		baku,
		{Lat: 0, Lng: 0},
		{Lat: 90, Lng: 0},
		{Lat: -90, Lng: 45},
		{Lat: 0, Lng: 180},
		{Lat: 0, Lng: -180},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 40.3777 + 1e-9, Lng: 49.8920 - 1e-9},
	}

	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-6, "%v %v", a, b)
		}

		assert.Zero(t, DistanceKm(a, a))
	}
}

func TestHaversineDistance_Meters(t *testing.T) {
	a := Point{Lat: 40.3777, Lng: 49.8920}
	b := Destination(a, 90, 0.005)

	assert.InDelta(t, 5.0, a.HaversineDistance(&b), 1e-6)
}

func TestDestination_RoundTrip(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 135, 180, 270, 359} {
		for _, d := range []float64{0.001, 1.2, 4.9, 6.3, 500} {
			p := Destination(baku, bearing, d)
			require.NoError(t, p.Validate())
			assert.InDelta(t, d, DistanceKm(baku, p), 1e-9)
		}
	}
}

func TestPoint_Validate(t *testing.T) {
	tests := []struct {
		name  string
		point Point
		ok    bool
	}{
		{"origin", Point{}, true},
		{"limits", Point{Lat: -90, Lng: 180}, true},
		{"lat too big", Point{Lat: 90.0001, Lng: 0}, false},
		{"lng too small", Point{Lat: 0, Lng: -180.5}, false},
		{"nan", Point{Lat: math.NaN(), Lng: 0}, false},
		{"inf", Point{Lat: 0, Lng: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
			}
		})
	}
}

func TestPoint_Scan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan([]byte("POINT (49.892 40.3777)")))
	assert.Equal(t, Point{Lat: 40.3777, Lng: 49.892}, p)

	require.NoError(t, p.Scan(map[string]interface{}{"x": 1.5, "y": -2.5}))
	assert.Equal(t, Point{Lat: -2.5, Lng: 1.5}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	assert.Error(t, p.Scan(42))
}

func TestPoint_Cell(t *testing.T) {
	a, err := baku.Cell(11)
	require.NoError(t, err)

	b, err := Point{Lat: baku.Lat + 1e-7, Lng: baku.Lng}.Cell(11)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 11, a.Resolution())
}

func TestPointScan(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    Point
		wantErr bool
	}{
		{"duckdb struct", map[string]any{"x": 49.892, "y": 40.3777}, baku, false},
		{"wkt text", []byte("POINT (49.892 40.3777)"), baku, false},
		{"null", nil, Point{}, false},
		{"missing y", map[string]any{"x": 1.0}, Point{}, true},
		{"unsupported", 42, Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Point{Lat: 1, Lng: 1}

			err := p.Scan(tt.value)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, p.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, p.Lng, 1e-9)
		})
	}
}
