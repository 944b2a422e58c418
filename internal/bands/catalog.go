// Package bands describes the LTE/NR frequency bands recognised by EARFCN and
// the default sector geometry and colours drawn for each of them.
package bands

import (
	"strconv"
	"strings"
)

const (
	// DefaultRadius is used when the EARFCN does not fall in a known band.
	DefaultRadius = 300
	// DefaultBeamwidth is used when neither the data nor the band provide one.
	DefaultBeamwidth = 65.0
	// UnknownKey is the band key used to colour cells outside every band.
	UnknownKey = "2600"
	// UnknownLabel is shown for cells outside every band.
	UnknownLabel = "Unknown"
	// FallbackKMLColor is used for band keys with no dedicated colour.
	FallbackKMLColor = "aa00ff00"
	// FallbackHexColor is returned when a KML colour cannot be converted.
	FallbackHexColor = "#888888"
)

// Range is one EARFCN/NR-ARFCN interval, inclusive at both ends.
type Range struct {
	Band    int
	Label   string
	Min     int
	Max     int
	FreqMHz int
	Key     string
}

// Ranges are checked in order; the first match wins.
var Ranges = []Range{
	{Band: 28, Label: "Band 28 (700MHz)", Min: 9210, Max: 9659, FreqMHz: 700, Key: "700"},
	{Band: 5, Label: "Band 5 (850MHz)", Min: 2410, Max: 2649, FreqMHz: 850, Key: "850"},
	{Band: 8, Label: "Band 8 (900MHz)", Min: 3450, Max: 3799, FreqMHz: 900, Key: "900"},
	{Band: 3, Label: "Band 3 (1800MHz)", Min: 1200, Max: 1949, FreqMHz: 1800, Key: "1800"},
	{Band: 1, Label: "Band 1 (2100MHz)", Min: 0, Max: 599, FreqMHz: 2100, Key: "2100"},
	{Band: 7, Label: "Band 7 (2600MHz)", Min: 2750, Max: 3449, FreqMHz: 2600, Key: "2600"},
	{Band: 38, Label: "Band 38 (2600MHz TDD)", Min: 37750, Max: 38249, FreqMHz: 2600, Key: "2600"},
	{Band: 40, Label: "Band 40 (2300MHz TDD)", Min: 38650, Max: 39649, FreqMHz: 2300, Key: "2300"},
	{Band: 41, Label: "Band 41 (2500MHz TDD)", Min: 39650, Max: 41589, FreqMHz: 2500, Key: "2500"},
	{Band: 42, Label: "Band 42 (3500MHz)", Min: 41590, Max: 43589, FreqMHz: 3500, Key: "3500"},
	{Band: 43, Label: "Band 43 (3700MHz)", Min: 43590, Max: 45589, FreqMHz: 3700, Key: "3700"},
	{Band: 78, Label: "Band 78 (3500MHz 5G NR)", Min: 620000, Max: 680000, FreqMHz: 3500, Key: "3500"},
}

var radiusByKey = map[string]int{
	"700":  500,
	"850":  700,
	"900":  650,
	"1800": 400,
	"2100": 350,
	"2300": 320,
	"2500": 310,
	"2600": 300,
	"3500": 220,
	"3700": 200,
}

var beamwidthByKey = map[string]float64{
	"700":  90,
	"850":  85,
	"900":  80,
	"1800": 65,
	"2100": 65,
	"2300": 60,
	"2500": 60,
	"2600": 55,
	"3500": 50,
	"3700": 45,
}

// KMLColors are AABBGGRR, the byte order KML expects.
var KMLColors = map[string]string{
	"700":  "aa0000ff",
	"850":  "aa0088ff",
	"900":  "aa00ccff",
	"1800": "aa00ff00",
	"2100": "aaff0000",
	"2600": "aaff00ff",
	"3500": "aaff00aa",
}

// ColoredKeys lists the keys of KMLColors in a stable order.
var ColoredKeys = []string{"700", "850", "900", "1800", "2100", "2600", "3500"}

// Lookup returns the range containing the integer EARFCN in value. Values
// that are empty or not integers belong to no band.
func Lookup(value string) (Range, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Range{}, false
	}
	for _, r := range Ranges {
		if r.Min <= n && n <= r.Max {
			return r, true
		}
	}
	return Range{}, false
}

// Label returns the band label for value, or UnknownLabel.
func Label(value string) string {
	if r, ok := Lookup(value); ok {
		return r.Label
	}
	return UnknownLabel
}

// DefaultRadiusFor returns the catalogue radius in meters for a band key.
func DefaultRadiusFor(key string) int {
	if r, ok := radiusByKey[key]; ok {
		return r
	}
	return DefaultRadius
}

// DefaultBeamwidthFor returns the catalogue beamwidth in degrees for a band key.
func DefaultBeamwidthFor(key string) float64 {
	if bw, ok := beamwidthByKey[key]; ok {
		return bw
	}
	return DefaultBeamwidth
}

// KMLColor returns the AABBGGRR colour of a band key.
func KMLColor(key string) string {
	if c, ok := KMLColors[key]; ok {
		return c
	}
	return FallbackKMLColor
}

// HexColor returns the #RRGGBB colour of a band key.
func HexColor(key string) string {
	return KMLToHex(KMLColor(key))
}

// KMLToHex converts AABBGGRR to #RRGGBB.
func KMLToHex(kml string) string {
	if len(kml) != 8 {
		return FallbackHexColor
	}
	return "#" + kml[6:8] + kml[4:6] + kml[2:4]
}

// HexToKML converts RRGGBB (with or without a leading '#') to AABBGGRR with
// the given alpha.
func HexToKML(hex, alpha string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) < 6 {
		hex += strings.Repeat("0", 6-len(hex))
	}
	return alpha + hex[4:6] + hex[2:4] + hex[0:2]
}
