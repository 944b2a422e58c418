// Package search finds sites, cells and cities in the active dataset by
// free text, and sites around a point through a spatial index.
package search

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"mobkml.dev/cellmap/internal/colmap"
	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/models"
)

const (
	// MinQueryLength is the shortest trimmed query that is searched.
	MinQueryLength = 2
	// MaxResults caps every result list.
	MaxResults = 50
)

// Search modes.
const (
	ModeSite = "site"
	ModeCity = "city"
)

// Fields names the columns a search reads. Empty means unavailable.
type Fields struct {
	Latitude  string
	Longitude string
	Site      string
	Cell      string
	City      string
}

// ResolveFields picks the search columns from the active mapping, falling
// back to auto-mapping for anything unmapped. The city column comes from the
// detected facet columns.
func ResolveFields(t *dataset.Table, m models.Mapping, label models.LabelConfig, facets map[string]string) Fields {
	var auto *models.Mapping
	guess := func() models.Mapping {
		if auto == nil {
			a := colmap.AutoMap(t.Columns)
			auto = &a
		}
		return *auto
	}

	f := Fields{
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		Site:      label.SiteField,
		Cell:      m.CellName,
		City:      facets[dataset.FacetCity],
	}
	if f.Latitude == "" || f.Longitude == "" {
		a := guess()
		f.Latitude = firstNonEmpty(f.Latitude, a.Latitude)
		f.Longitude = firstNonEmpty(f.Longitude, a.Longitude)
	}
	if f.Site == "" {
		f.Site = m.SiteName
	}
	if f.Site == "" {
		a := guess()
		f.Site = a.SiteName
		f.Cell = firstNonEmpty(f.Cell, a.CellName)
	}
	if f.City == "" {
		f.City = dataset.DetectFilterColumns(t.Columns)[dataset.FacetCity]
	}
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Search runs a site or city search. Queries shorter than MinQueryLength
// after trimming, or a table without coordinates, give an empty list.
func Search(t *dataset.Table, f Fields, query, mode string) []models.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinQueryLength || f.Latitude == "" || f.Longitude == "" {
		return []models.SearchResult{}
	}
	if mode == ModeCity {
		return Cities(t, f, q)
	}
	return Sites(t, f, q)
}

// Sites matches q against "site cell" of every row with numeric
// coordinates, once per site and cell pair.
func Sites(t *dataset.Table, f Fields, q string) []models.SearchResult {
	results := []models.SearchResult{}
	if f.Site == "" || !t.Has(f.Site) {
		return results
	}

	seen := make(map[string]bool)
	for _, row := range t.Rows {
		site := strings.TrimSpace(t.Get(row, f.Site))
		cell := ""
		if f.Cell != "" {
			cell = strings.TrimSpace(t.Get(row, f.Cell))
		}
		if site == "" {
			continue
		}
		lat, okLat := parseFloat(t.Get(row, f.Latitude))
		lon, okLon := parseFloat(t.Get(row, f.Longitude))
		if !okLat || !okLon {
			continue
		}
		if !strings.Contains(strings.ToLower(site+" "+cell), q) {
			continue
		}

		key := site + ":" + cell
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, models.SearchResult{
			Kind:     models.KindSite,
			Lat:      lat,
			Lon:      lon,
			SiteName: site,
			CellName: cell,
		})
		if len(results) >= MaxResults {
			break
		}
	}
	return results
}

// Cities groups the rows whose city contains q and places each city at the
// mean of its coordinates. A city with any non-numeric coordinate is left
// out.
func Cities(t *dataset.Table, f Fields, q string) []models.SearchResult {
	results := []models.SearchResult{}
	if f.City == "" || !t.Has(f.City) {
		return results
	}

	type group struct {
		lats, lons []string
	}
	groups := make(map[string]*group)
	for _, row := range t.Rows {
		city := t.Get(row, f.City)
		if !strings.Contains(strings.ToLower(city), q) {
			continue
		}
		g, ok := groups[city]
		if !ok {
			g = &group{}
			groups[city] = g
		}
		g.lats = append(g.lats, t.Get(row, f.Latitude))
		g.lons = append(g.lons, t.Get(row, f.Longitude))
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := groups[name]
		lat, okLat := mean(g.lats)
		lon, okLon := mean(g.lons)
		if !okLat || !okLon {
			continue
		}
		results = append(results, models.SearchResult{
			Kind:  models.KindCity,
			Lat:   lat,
			Lon:   lon,
			Label: name,
			Count: len(g.lats),
		})
		if len(results) >= MaxResults {
			break
		}
	}
	return results
}

func mean(values []string) (float64, bool) {
	var sum float64
	for _, v := range values {
		f, ok := parseFloat(v)
		if !ok {
			return 0, false
		}
		sum += f
	}
	return sum / float64(len(values)), len(values) > 0
}

func parseFloat(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
