package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mobkml.dev/cellmap/internal/geo"
)

func parsePoint(lat, lon string) (geo.Point, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q", lon)
	}
	p := geo.Point{Lat: la, Lon: lo}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("coordinates out of range: %s, %s", lat, lon)
	}
	return p, nil
}

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance LAT1 LON1 LAT2 LON2",
		Short: "Print the great-circle distance and bearing between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePoint(args[0], args[1])
			if err != nil {
				return err
			}
			to, err := parsePoint(args[2], args[3])
			if err != nil {
				return err
			}

			meters := geo.Distance(from, to)
			bearing := geo.Bearing(from, to)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, field("Distance", geo.FormatDistance(meters)))
			fmt.Fprintln(out, field("Miles", strconv.FormatFloat(geo.MetersToMiles(meters), 'f', 3, 64)))
			fmt.Fprintln(out, field("Bearing", fmt.Sprintf("%.1f° %s", bearing, geo.Compass(bearing))))
			return nil
		},
	}
}
