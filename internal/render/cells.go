// Package render turns the active dataset and configuration into sector
// geometry, popups and labels, shared by the map data feed and exports.
package render

import (
	"html"
	"math"
	"strconv"
	"strings"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// Cell is one dataset row resolved into a drawable sector.
type Cell struct {
	Row       dataset.Row
	Position  geo.Point
	BandKey   string
	BandLabel string
	Banded    bool
	Azimuth   float64
	Beamwidth float64
	Radius    int
	Ring      []geo.Point
	SiteLabel string
	CellLabel string
}

// Field is one line of a cell description.
type Field struct {
	Name  string
	Value string
}

// Renderer resolves rows of one table under one configuration.
type Renderer struct {
	table  *dataset.Table
	config models.ActiveConfig
}

// New returns a Renderer for t under cfg.
func New(t *dataset.Table, cfg models.ActiveConfig) *Renderer {
	return &Renderer{table: t, config: cfg}
}

// Config returns the configuration the renderer was built with.
func (r *Renderer) Config() models.ActiveConfig {
	return r.config
}

func (r *Renderer) overrides() bands.Overrides {
	return bands.Overrides{
		Radius:    r.config.BandScaleOverrides,
		Beamwidth: r.config.BeamwidthOverrides,
	}
}

func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Cells resolves every row with numeric coordinates, in row order.
func (r *Renderer) Cells() []Cell {
	m := r.config.Mapping
	label := r.config.LabelConfig
	ov := r.overrides()

	siteField := label.SiteField
	if siteField == "" {
		siteField = m.SiteName
	}
	cellField := label.CellField
	if cellField == "" {
		cellField = m.CellName
	}
	if label.UseSiteForCell {
		cellField = m.SiteName
	}

	cells := make([]Cell, 0, r.table.Len())
	for _, row := range r.table.Rows {
		lat, okLat := parseNumber(r.table.Get(row, m.Latitude))
		lon, okLon := parseNumber(r.table.Get(row, m.Longitude))
		if !okLat || !okLon || !(geo.Point{Lat: lat, Lon: lon}).Valid() {
			continue
		}

		earfcn := r.table.Get(row, m.Earfcn)
		c := Cell{
			Row:       row,
			Position:  geo.Point{Lat: lat, Lon: lon},
			BandKey:   bands.UnknownKey,
			BandLabel: bands.UnknownLabel,
		}
		if band, ok := bands.Lookup(earfcn); ok {
			c.BandKey, c.BandLabel, c.Banded = band.Key, band.Label, true
		}

		if az, ok := parseNumber(r.table.Get(row, m.Azimuth)); ok {
			c.Azimuth = az
		}
		if bw, ok := parseNumber(r.table.Get(row, m.Beamwidth)); ok {
			c.Beamwidth = bw
		} else {
			c.Beamwidth = bands.Beamwidth(earfcn, ov)
		}
		c.Radius = bands.PetalRadius(earfcn, r.config.Scale, ov)
		c.Ring = geo.SectorPolygon(c.Position, c.Azimuth, c.Beamwidth, float64(c.Radius), geo.DefaultSectorPoints)

		c.SiteLabel = Label(r.table, row, siteField, label.Template)
		if !label.HideCellLabel {
			c.CellLabel = Label(r.table, row, cellField, "")
		}
		cells = append(cells, c)
	}
	return cells
}

// Description lists the standard fields of a cell followed by the configured
// extra fields, with raw cell text as values.
func (r *Renderer) Description(c Cell) []Field {
	m := r.config.Mapping
	get := func(col string) string { return r.table.Get(c.Row, col) }

	fields := []Field{
		{"Site", get(m.SiteName)},
		{"Sector", get(m.CellName)},
		{"Longitude", get(m.Longitude)},
		{"Latitude", get(m.Latitude)},
		{"Azimuth", get(m.Azimuth)},
		{"EARFCN", get(m.Earfcn)},
		{"Band", c.BandLabel},
	}
	for _, extra := range r.config.ExtraFields {
		fields = append(fields, Field{extra, get(extra)})
	}
	return fields
}

// Popup renders the description as HTML lines.
func (r *Renderer) Popup(c Cell) string {
	fields := r.Description(c)
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = "<b>" + html.EscapeString(f.Name) + ":</b> " + html.EscapeString(f.Value)
	}
	return strings.Join(lines, "<br/>")
}

// SiteName returns the mapped site column value of c.
func (r *Renderer) SiteName(c Cell) string {
	return r.table.Get(c.Row, r.config.Mapping.SiteName)
}

// CellName returns the mapped cell column value of c.
func (r *Renderer) CellName(c Cell) string {
	return r.table.Get(c.Row, r.config.Mapping.CellName)
}
