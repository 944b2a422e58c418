package models

import (
	"slices"

	"mobkml.dev/cellmap/internal/bands"
)

// UploadResult describes a freshly loaded dataset.
type UploadResult struct {
	Columns       []string            `json:"columns"`
	Preview       []map[string]string `json:"preview"`
	TotalRows     int                 `json:"total_rows"`
	Meta          DatasetMeta         `json:"meta"`
	SourceName    string              `json:"source_name"`
	FilterColumns map[string]string   `json:"filter_columns"`
}

// DatasetMeta mirrors how the file was parsed.
type DatasetMeta struct {
	Format    string `json:"format"`
	Delimiter string `json:"delimiter,omitempty"`
}

// AutoMapResult is the guessed mapping and what looks wrong with it.
type AutoMapResult struct {
	Mapping Mapping  `json:"mapping"`
	Issues  []string `json:"issues"`
}

// ValidateMappingRequest asks for the issues of a candidate mapping.
type ValidateMappingRequest struct {
	Mapping    Mapping `json:"mapping"`
	LabelField string  `json:"label_field"`
}

// IssuesResult lists human readable validation issues.
type IssuesResult struct {
	Issues []string `json:"issues"`
}

// AckResult acknowledges a state change.
type AckResult struct {
	OK bool `json:"ok"`
}

// FilterValuesRequest asks for the options of one facet column.
type FilterValuesRequest struct {
	Column  string              `json:"column"`
	Filters map[string][]string `json:"filters"`
}

// FilterValuesResult lists the options of one facet column.
type FilterValuesResult struct {
	Values []string `json:"values"`
}

// ApplyFiltersRequest narrows the active dataset.
type ApplyFiltersRequest struct {
	Filters map[string][]string `json:"filters"`
}

// ApplyFiltersResult describes the narrowed dataset.
type ApplyFiltersResult struct {
	TotalRows int                 `json:"total_rows"`
	Preview   []map[string]string `json:"preview"`
}

// Search result kinds.
const (
	KindSite = "site"
	KindCity = "city"
)

// SearchResult is one match of a site or city search. Site matches fill
// SiteName and CellName, city matches fill Label and Count.
type SearchResult struct {
	Kind     string  `json:"kind"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	SiteName string  `json:"site_name,omitempty"`
	CellName string  `json:"cell_name,omitempty"`
	Label    string  `json:"label,omitempty"`
	Count    int     `json:"count,omitempty"`
}

// NearbySite is a site found around a point, nearest first.
type NearbySite struct {
	SiteName string  `json:"site_name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Distance float64 `json:"distance_m"`
	Bearing  float64 `json:"bearing"`
	Cells    int     `json:"cells"`
}

// CellFeature is one rendered sector.
type CellFeature struct {
	CellName  string       `json:"cell_name"`
	SiteName  string       `json:"site_name"`
	Lat       float64      `json:"lat"`
	Lon       float64      `json:"lon"`
	BandKey   string       `json:"band_key"`
	BandLabel string       `json:"band_label"`
	Color     string       `json:"color"`
	Polygon   [][2]float64 `json:"polygon"`
	Polyline  string       `json:"polyline,omitempty"`
	Popup     string       `json:"popup"`
	CellLabel string       `json:"cell_label"`
}

// SiteLabel is a text anchor drawn once per labelled site position.
type SiteLabel struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// LabelStyle is the label configuration echoed to map clients.
type LabelStyle struct {
	ShowLabel bool    `json:"show_label"`
	TextScale float64 `json:"text_scale"`
	TextColor string  `json:"text_color"`
	Shadow    bool    `json:"shadow"`
	Position  string  `json:"position"`
}

// MapData is everything a client needs to draw the active dataset.
type MapData struct {
	Cells       []CellFeature `json:"cells"`
	Sites       []SiteLabel   `json:"sites"`
	LabelConfig LabelStyle    `json:"label_config"`
}

// Clone returns a deep copy of d.
func (d *MapData) Clone() *MapData {
	if d == nil {
		return nil
	}
	out := *d
	out.Sites = slices.Clone(d.Sites)
	if d.Cells != nil {
		out.Cells = make([]CellFeature, len(d.Cells))
		for i, c := range d.Cells {
			c.Polygon = slices.Clone(c.Polygon)
			out.Cells[i] = c
		}
	}
	return &out
}

// SectorRequest asks for one preview wedge.
type SectorRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Azimuth   float64 `json:"azimuth"`
	Beamwidth float64 `json:"beamwidth"`
	Radius    float64 `json:"radius"`
	Points    int     `json:"points"`
}

// SectorResult is one preview wedge as [lat, lon] pairs.
type SectorResult struct {
	Polygon [][2]float64 `json:"polygon"`
}

// DistanceRequest carries the two ends of a measurement. Pointers tell a
// missing coordinate apart from zero.
type DistanceRequest struct {
	Lat1 *float64 `json:"lat1"`
	Lon1 *float64 `json:"lon1"`
	Lat2 *float64 `json:"lat2"`
	Lon2 *float64 `json:"lon2"`
}

// DistanceResult is a measured great-circle distance.
type DistanceResult struct {
	DistanceM  float64 `json:"distance_m"`
	DistanceKm float64 `json:"distance_km"`
	DistanceMi float64 `json:"distance_mi"`
	Formatted  string  `json:"formatted"`
	Bearing    float64 `json:"bearing"`
	Compass    string  `json:"compass"`
}

// ProfileList names every saved profile.
type ProfileList struct {
	Profiles []string `json:"profiles"`
}

// SaveProfileRequest stores a configuration under a name.
type SaveProfileRequest struct {
	Name string       `json:"name"`
	Data ActiveConfig `json:"data"`
}

// LoadProfileRequest names the profile to load.
type LoadProfileRequest struct {
	Name string `json:"name"`
}

// ProfileData is a loaded profile.
type ProfileData struct {
	Data ActiveConfig `json:"data"`
}

// BandList is the published band catalogue.
type BandList struct {
	Bands []bands.Info `json:"bands"`
}
