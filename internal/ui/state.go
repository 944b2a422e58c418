// Package ui is the headless map controller. It owns the client-side state
// of a mapping session and turns user actions into backend calls and map
// view updates.
package ui

import (
	"maps"
	"slices"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// Mode is the current map interaction mode.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeMeasure
	ModeAddMarker
)

func (m Mode) String() string {
	switch m {
	case ModeMeasure:
		return "measure"
	case ModeAddMarker:
		return "add-marker"
	default:
		return "browse"
	}
}

// Measurement is the state of the measure tool. Start is set after the first
// click and End after the second.
type Measurement struct {
	Start     *geo.Point
	End       *geo.Point
	StartName string
	EndName   string
	Meters    float64
	Label     string
}

// AppState is everything the controller knows about the session. Facet
// options and selections are keyed by facet key ("uf", "cn", ...).
type AppState struct {
	SourceName    string
	Columns       []string
	TotalRows     int
	Preview       []map[string]string
	FilterColumns map[string]string
	FilterOptions map[string][]string
	Selections    map[string][]string
	Issues        []string
	Config        models.ActiveConfig
	Bands         []bands.Info
	Markers       []Marker
	Pending       *geo.Point
	PendingName   string
	Mode          Mode
	Measure       Measurement
	Drag          DragSession
	AutoRefresh   bool
	Layers        *models.MapData
	SearchResults []models.SearchResult
	PanelSize     int
	Status        string
}

func newAppState(panelSize int) AppState {
	return AppState{
		FilterColumns: map[string]string{},
		FilterOptions: map[string][]string{},
		Selections:    map[string][]string{},
		Config:        models.NewActiveConfig(),
		PanelSize:     panelSize,
	}
}

// clone returns a copy that shares no maps or slices with s, so callers can
// read it without the controller lock.
func (s AppState) clone() AppState {
	out := s
	out.Columns = slices.Clone(s.Columns)
	if s.Preview != nil {
		out.Preview = make([]map[string]string, len(s.Preview))
		for i, row := range s.Preview {
			out.Preview[i] = maps.Clone(row)
		}
	}
	out.Config = s.Config.Clone()
	out.FilterColumns = maps.Clone(s.FilterColumns)
	out.FilterOptions = cloneLists(s.FilterOptions)
	out.Selections = cloneLists(s.Selections)
	out.Issues = slices.Clone(s.Issues)
	out.Bands = slices.Clone(s.Bands)
	out.SearchResults = slices.Clone(s.SearchResults)
	out.Markers = make([]Marker, len(s.Markers))
	for i, m := range s.Markers {
		out.Markers[i] = m.clone()
	}
	if s.Measure.Start != nil {
		p := *s.Measure.Start
		out.Measure.Start = &p
	}
	if s.Measure.End != nil {
		p := *s.Measure.End
		out.Measure.End = &p
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	out.Layers = s.Layers.Clone()
	return out
}

func cloneLists(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

// filters converts the facet selections into the column keyed filters the
// backend expects. Empty selections are left out.
func (s *AppState) filters() map[string][]string {
	out := make(map[string][]string)
	for key, values := range s.Selections {
		col, ok := s.FilterColumns[key]
		if !ok || len(values) == 0 {
			continue
		}
		out[col] = slices.Clone(values)
	}
	return out
}

func (s *AppState) marker(id string) (int, bool) {
	for i, m := range s.Markers {
		if m.ID == id {
			return i, true
		}
	}
	return -1, false
}
