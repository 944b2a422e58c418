package geo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceToSelfIsZero(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0},
		{Lat: -23.5505, Lon: -46.6333},
		{Lat: 89.9, Lon: 179.9},
		{Lat: -90, Lon: -180},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p, p), "distance of %v to itself", p)
	}
}

func TestDistanceIsSymmetric(t *testing.T) {
	pairs := [][2]Point{
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}},
		{{Lat: -15.78, Lon: -47.93}, {Lat: -22.90, Lon: -43.17}},
		{{Lat: 51.5, Lon: -0.12}, {Lat: 40.71, Lon: -74.0}},
	}
	for _, pair := range pairs {
		assert.InDelta(t, Distance(pair[0], pair[1]), Distance(pair[1], pair[0]), 1e-6)
	}
}

func TestDistanceAlongEquator(t *testing.T) {
	d := Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 0.01})
	assert.InDelta(t, 1111.95, d, 0.5)
	assert.Equal(t, "1.11 km", FormatDistance(d))
}

func TestDestinationRoundTrip(t *testing.T) {
	origin := Point{Lat: -23.55, Lon: -46.63}
	for _, bearing := range []float64{0, 45, 90, 135, 180, 270, 359} {
		for _, d := range []float64{1, 250, 1000, 25000} {
			t.Run(fmt.Sprintf("bearing %.0f distance %.0f", bearing, d), func(t *testing.T) {
				dest := Destination(origin, bearing, d)
				assert.InEpsilon(t, d, Distance(origin, dest), 1e-6)
			})
		}
	}
}

func TestDestinationNorth(t *testing.T) {
	dest := Destination(Point{Lat: 0, Lon: 0}, 0, 111195)
	assert.InDelta(t, 1.0, dest.Lat, 0.001)
	assert.InDelta(t, 0.0, dest.Lon, 1e-9)
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		compass  string
	}{
		{"north", Point{40, -122}, Point{41, -122}, 0, "N"},
		{"east", Point{40, -122}, Point{40, -121}, 89.7, "E"},
		{"south", Point{40, -122}, Point{39, -122}, 180, "S"},
		{"west", Point{40, -122}, Point{40, -123}, 270.3, "W"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1.0)
			assert.Equal(t, tt.compass, Compass(got))
		})
	}
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: 90, Lon: 180}.Valid())
	assert.False(t, Point{Lat: 90.1, Lon: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lon: -180.5}.Valid())
}
