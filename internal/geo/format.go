package geo

import (
	"fmt"
	"math"
)

// FormatDistance renders whole meters below one kilometre and kilometres with
// two decimals above it.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int64(math.Round(meters)))
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// MetersToMiles converts a distance in meters to statute miles.
func MetersToMiles(meters float64) float64 {
	return meters / 1609.34
}
