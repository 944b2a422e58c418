// Package colmap guesses which spreadsheet columns hold the semantic fields
// of a cell site and checks whether a mapping looks usable.
package colmap

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"mobkml.dev/cellmap/internal/dataset"
	"mobkml.dev/cellmap/internal/models"
)

// matchThreshold is the adjusted score a fuzzy match must exceed.
const matchThreshold = 60

// Keyword lists, most specific first. Earlier keywords earn a larger bonus.
var (
	latitudeKeywords  = []string{"latitude", "lat", "northing", "y"}
	longitudeKeywords = []string{"longitude", "long", "lon", "easting", "x"}
	siteKeywords      = []string{"siteid", "site_id", "site id", "site_name", "sitename", "site", "node", "bts"}
	nodeColumns       = []string{"enb", "gnb", "enodeb", "gnodeb", "enb_id", "gnb_id"}
	cellKeywords      = []string{"cellname", "cell_name", "cell", "sector", "sectorname", "celula", "eutrancell", "nrcell"}
	earfcnKeywords    = []string{"earfcndl", "dl_earfcn", "earfcn_dl", "earfcn", "arfcn", "nrarfcn", "frequency_dl", "freq"}
	azimuthKeywords   = []string{"azimuth", "azim", "bearing", "direction", "heading", "orientation"}
	beamwidthKeywords = []string{"beamwidth", "hbw", "horizontalbeamwidth", "beam_width", "h_beamwidth"}
)

// AutoMap guesses the mapping for columns. Fields are resolved in a fixed
// order and a column claimed by one field is not offered to later ones.
func AutoMap(columns []string) models.Mapping {
	used := make(map[string]bool)
	claim := func(col string) string {
		if col != "" {
			used[col] = true
		}
		return col
	}

	var m models.Mapping
	m.Latitude = claim(findBest(columns, latitudeKeywords, used))
	m.Longitude = claim(findBest(columns, longitudeKeywords, used))
	m.SiteName = claim(findSite(columns, used))
	m.CellName = claim(findBest(columns, cellKeywords, used))
	m.Earfcn = claim(findBest(columns, earfcnKeywords, used))
	m.Azimuth = claim(findBest(columns, azimuthKeywords, used))

	beamwidth := findBest(columns, beamwidthKeywords, used)
	if strings.Contains(strings.ToLower(beamwidth), "bandwidth") {
		beamwidth = ""
	}
	m.Beamwidth = beamwidth

	return m
}

// findSite prefers a SiteID column, then an eNB/gNB identifier, then the best
// fuzzy match. The first two steps look at every column, claimed or not.
func findSite(columns []string, used map[string]bool) string {
	for _, col := range columns {
		if dataset.NormalizeColumn(col) == "siteid" {
			return col
		}
	}
	for _, col := range columns {
		if slices.Contains(nodeColumns, strings.ToLower(col)) {
			return col
		}
	}
	return findBest(columns, siteKeywords, used)
}

// findBest returns the first column whose normalised name equals a normalised
// keyword. Failing that it returns the column with the best partial-match
// score plus a bonus for earlier keywords, if that beats matchThreshold.
func findBest(columns, keywords []string, exclude map[string]bool) string {
	normalizedKeywords := make([]string, len(keywords))
	for i, k := range keywords {
		normalizedKeywords[i] = dataset.NormalizeColumn(k)
	}

	best, bestScore := "", 0
	for _, col := range columns {
		if exclude[col] {
			continue
		}
		if slices.Contains(normalizedKeywords, dataset.NormalizeColumn(col)) {
			return col
		}
		for idx, k := range keywords {
			score := partialRatio(strings.ToLower(col), strings.ToLower(k)) + (len(keywords)-idx)*5
			if score > bestScore {
				best, bestScore = col, score
			}
		}
	}
	if bestScore > matchThreshold {
		return best
	}
	return ""
}

// partialRatio scores 0-100 how well the shorter string matches its best
// aligned window of the longer one.
func partialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	needle := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		window := string(long[i : i+len(short)])
		d := levenshtein.ComputeDistance(needle, window)
		r := 1 - float64(d)/float64(len(short))
		if r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return int(best*100 + 0.5)
}
