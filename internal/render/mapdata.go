package render

import (
	"errors"

	"github.com/twpayne/go-polyline"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// ErrMissingCoordinates is returned when latitude or longitude is unmapped.
var ErrMissingCoordinates = errors.New("mapping must include latitude and longitude")

// Options tune the map data feed.
type Options struct {
	// Polyline adds the ring as an encoded polyline next to the pairs.
	Polyline bool
}

// MapData renders every drawable row as a cell feature and collects one
// label per distinct site label and position.
func (r *Renderer) MapData(opts Options) (models.MapData, error) {
	if !r.config.Mapping.HasCoordinates() {
		return models.MapData{}, ErrMissingCoordinates
	}

	cells := r.Cells()
	out := models.MapData{
		Cells:       make([]models.CellFeature, 0, len(cells)),
		Sites:       []models.SiteLabel{},
		LabelConfig: r.LabelStyle(),
	}

	type siteKey struct {
		label    string
		lat, lon float64
	}
	seen := make(map[siteKey]bool)

	for _, c := range cells {
		feature := models.CellFeature{
			CellName:  r.CellName(c),
			SiteName:  r.SiteName(c),
			Lat:       c.Position.Lat,
			Lon:       c.Position.Lon,
			BandKey:   c.BandKey,
			BandLabel: c.BandLabel,
			Color:     bands.HexColor(c.BandKey),
			Polygon:   geo.LatLonPairs(c.Ring),
			Popup:     r.Popup(c),
			CellLabel: c.CellLabel,
		}
		if opts.Polyline {
			feature.Polyline = EncodeRing(c.Ring)
		}
		out.Cells = append(out.Cells, feature)

		if c.SiteLabel == "" {
			continue
		}
		k := siteKey{c.SiteLabel, c.Position.Lat, c.Position.Lon}
		if !seen[k] {
			seen[k] = true
			out.Sites = append(out.Sites, models.SiteLabel{Label: c.SiteLabel, Lat: c.Position.Lat, Lon: c.Position.Lon})
		}
	}
	return out, nil
}

// LabelStyle echoes the label configuration with a '#'-prefixed colour.
func (r *Renderer) LabelStyle() models.LabelStyle {
	l := r.config.LabelConfig
	return models.LabelStyle{
		ShowLabel: l.ShowLabel,
		TextScale: l.TextScale,
		TextColor: "#" + l.TextColor,
		Shadow:    l.Shadow,
		Position:  l.Position,
	}
}

// EncodeRing encodes a ring with the Google polyline algorithm.
func EncodeRing(ring []geo.Point) string {
	coords := make([][]float64, len(ring))
	for i, p := range ring {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
