package geo

import "math"

// DefaultSectorPoints is the point-count hint used when callers have no
// preference.
const DefaultSectorPoints = 24

// SectorPolygon builds the closed ring approximating an antenna wedge centred
// on azimuth. The arc is sampled every max(1, floor(beamwidth/points)) degrees
// from azimuth-beamwidth/2 while the angle does not pass the far edge, the
// exact far edge is appended, and the ring starts and ends at origin.
//
// The step is derived from the beamwidth, not from the point count, so wide
// beams yield fewer vertices than requested. Azimuths are reduced modulo 360.
// A non-finite azimuth, beamwidth or radius yields nil.
func SectorPolygon(origin Point, azimuth, beamwidth, radius float64, points int) []Point {
	if !finite(azimuth) || !finite(beamwidth) || !finite(radius) {
		return nil
	}
	azimuth = math.Mod(azimuth, 360)

	half := beamwidth / 2
	start := azimuth - half
	end := azimuth + half
	step := math.Max(1, math.Floor(beamwidth/float64(max(1, points))))

	capacity := 4
	if end > start {
		capacity += int((end - start) / step)
	}

	ring := make([]Point, 0, capacity)
	ring = append(ring, origin)
	for i := 0; start+float64(i)*step <= end; i++ {
		ring = append(ring, Destination(origin, start+float64(i)*step, radius))
	}
	ring = append(ring, Destination(origin, end, radius))
	ring = append(ring, origin)

	return ring
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LatLonPairs flattens a ring into [lat, lon] pairs, the wire shape used by
// map clients.
func LatLonPairs(ring []Point) [][2]float64 {
	pairs := make([][2]float64, len(ring))
	for i, p := range ring {
		pairs[i] = [2]float64{p.Lat, p.Lon}
	}
	return pairs
}
