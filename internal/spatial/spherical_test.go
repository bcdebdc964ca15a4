package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	// EarthRadius is the approximate radius of Earth in meters
	EarthRadius = 6371000.0
	// Epsilon is the tolerance for floating point comparisons
	Epsilon = 0.001
)

func TestToLatLon(t *testing.T) {
	tests := []struct {
		name        string
		x, y, z     float64
		radius      float64
		expectedLat float64
		expectedLon float64
	}{
		{"Equator / Prime Meridian", EarthRadius, 0, 0, EarthRadius, 0, 0},
		{"North Pole", 0, 0, EarthRadius, EarthRadius, 90, 0},
		{"South Pole", 0, 0, -EarthRadius, EarthRadius, -90, 0},
		{"Equator / 90E", 0, EarthRadius, 0, EarthRadius, 0, 90},
		{"Equator / 180E", -EarthRadius, 0, 0, EarthRadius, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := ToLatLon(tt.x, tt.y, tt.z, tt.radius)
			assert.InDelta(t, tt.expectedLat, lat, Epsilon, "latitude mismatch")
			if math.Abs(tt.expectedLat) != 90 {
				assert.InDelta(t, tt.expectedLon, lon, Epsilon, "longitude mismatch")
			}
		})
	}
}

func TestToLatLon_ClampsFloatingPointDrift(t *testing.T) {
	// z slightly over radius, as can happen after several Vector3D
	// rotations, must not push asin's argument out of [-1, 1].
	lat, _ := ToLatLon(0, 0, 1.0000000001, 1)
	assert.InDelta(t, 90.0, lat, 1e-4)
}

func TestGreatCircleDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1       [2]float64 // lat, lon
		p2       [2]float64 // lat, lon
		radius   float64
		expected float64
	}{
		{
			name:     "Same Point",
			p1:       [2]float64{0, 0},
			p2:       [2]float64{0, 0},
			radius:   EarthRadius,
			expected: 0,
		},
		{
			name:     "Equator: 0 to 90E (1/4 circumference)",
			p1:       [2]float64{0, 0},
			p2:       [2]float64{0, 90},
			radius:   EarthRadius,
			expected: (2 * math.Pi * EarthRadius) / 4,
		},
		{
			name:     "North Pole to South Pole (1/2 circumference)",
			p1:       [2]float64{90, 0},
			p2:       [2]float64{-90, 0},
			radius:   EarthRadius,
			expected: (2 * math.Pi * EarthRadius) / 2,
		},
		{
			name:     "Antipodal Points (Equator)",
			p1:       [2]float64{0, 0},
			p2:       [2]float64{0, 180},
			radius:   EarthRadius,
			expected: (2 * math.Pi * EarthRadius) / 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist := GreatCircleDistance(tt.p1[0], tt.p1[1], tt.p2[0], tt.p2[1], tt.radius)
			assert.InDelta(t, tt.expected, dist, 1.0, "Distance mismatch (1m tolerance)")
		})
	}
}

func TestGreatCircleDistance_DegreesRadius(t *testing.T) {
	// Passing degPerRad as radius, as geoGrid.sample does, returns the
	// central angle directly in degrees.
	dist := GreatCircleDistance(0, 0, 0, 90, 180/math.Pi)
	assert.InDelta(t, 90.0, dist, 1e-9)
}
