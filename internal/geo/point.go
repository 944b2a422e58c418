// Package geo holds the spherical-earth helpers used to measure distances and
// to build the sector wedges drawn around each cell site.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius shared by Distance and
// Destination so that projecting and measuring back round-trips.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula.
func Distance(a, b Point) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	dPhi := toRadians(b.Lat - a.Lat)
	dLambda := toRadians(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Destination projects origin along the given bearing (degrees clockwise from
// north) for distance meters and returns the point reached.
func Destination(origin Point, bearing, distance float64) Point {
	delta := distance / EarthRadiusMeters
	theta := toRadians(bearing)
	phi1 := toRadians(origin.Lat)
	lambda1 := toRadians(origin.Lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return Point{Lat: toDegrees(phi2), Lon: toDegrees(lambda2)}
}

// Bearing calculates the initial bearing in degrees from a to b.
func Bearing(a, b Point) float64 {
	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	deltaLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(deltaLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLon)

	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

// Compass converts a bearing (0-360°) to an 8-point compass direction
func Compass(bearing float64) string {
	directions := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	index := int((bearing+22.5)/45.0) % 8
	return directions[index]
}

// Valid reports whether p lies within the latitude and longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}
