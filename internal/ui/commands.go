package ui

import (
	"io"

	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// CommandKind names a user action.
type CommandKind string

const (
	KindLoadBands     CommandKind = "load-bands"
	KindUpload        CommandKind = "upload"
	KindAutoMap       CommandKind = "auto-map"
	KindSetConfig     CommandKind = "set-config"
	KindAutoRefresh   CommandKind = "auto-refresh"
	KindRefreshMap    CommandKind = "refresh-map"
	KindChangeFacet   CommandKind = "change-facet"
	KindClearFacets   CommandKind = "clear-facets"
	KindApplyFilters  CommandKind = "apply-filters"
	KindSearchInput   CommandKind = "search-input"
	KindSelectResult  CommandKind = "select-result"
	KindToggleMeasure CommandKind = "toggle-measure"
	KindToggleMarker  CommandKind = "toggle-add-marker"
	KindMapClick      CommandKind = "map-click"
	KindCellClick     CommandKind = "cell-click"
	KindSaveMarker    CommandKind = "save-marker"
	KindDeleteMarker  CommandKind = "delete-marker"
	KindClearMarkers  CommandKind = "clear-markers"
	KindPointerDown   CommandKind = "pointer-down"
	KindPointerMove   CommandKind = "pointer-move"
	KindPointerUp     CommandKind = "pointer-up"
	KindPointerCancel CommandKind = "pointer-cancel"
	KindSaveProfile   CommandKind = "save-profile"
	KindLoadProfile   CommandKind = "load-profile"
)

// Command is a user action handed to Controller.Dispatch.
type Command interface {
	Kind() CommandKind
}

type LoadBands struct{}

type Upload struct {
	Filename string
	Body     io.Reader
}

type AutoMap struct{}

// SetConfig replaces the local configuration. The map is refreshed when
// auto-refresh is on.
type SetConfig struct {
	Config models.ActiveConfig
}

type SetAutoRefresh struct {
	On bool
}

type RefreshMap struct{}

// ChangeFacet replaces the selection of one facet.
type ChangeFacet struct {
	Key    string
	Values []string
}

type ClearFacets struct{}

type ApplyFilters struct{}

// SearchInput is the search box text after a keystroke.
type SearchInput struct {
	Query string
	Mode  string
}

// SelectResult focuses the map on one of the current search results.
type SelectResult struct {
	Index int
}

type ToggleMeasure struct{}

type ToggleAddMarker struct{}

// MapClick is a click on empty map.
type MapClick struct {
	At geo.Point
}

// CellClick is a click on a rendered cell, by index into the current layers.
type CellClick struct {
	Index int
}

// SaveMarker creates a marker, or replaces EditID when set.
type SaveMarker struct {
	EditID   string
	Name     string
	Type     MarkerType
	Position geo.Point
	Count    int
	Sectors  []SectorInput
}

type DeleteMarker struct {
	ID string
}

type ClearMarkers struct{}

// DragTarget is what a pointer-down grabbed: a marker, or the panel resize
// handle when MarkerID is empty.
type DragTarget struct {
	MarkerID string
}

// Pointer is a pointer position in map and screen coordinates.
type Pointer struct {
	At geo.Point
	X  int
}

type PointerDown struct {
	Target  DragTarget
	Pointer Pointer
}

type PointerMove struct {
	Pointer Pointer
}

type PointerUp struct{}

// PointerCancel covers pointer-cancel and the pointer leaving the map.
type PointerCancel struct{}

type SaveProfile struct {
	Name string
}

type LoadProfile struct {
	Name string
}

func (LoadBands) Kind() CommandKind       { return KindLoadBands }
func (Upload) Kind() CommandKind          { return KindUpload }
func (AutoMap) Kind() CommandKind         { return KindAutoMap }
func (SetConfig) Kind() CommandKind       { return KindSetConfig }
func (SetAutoRefresh) Kind() CommandKind  { return KindAutoRefresh }
func (RefreshMap) Kind() CommandKind      { return KindRefreshMap }
func (ChangeFacet) Kind() CommandKind     { return KindChangeFacet }
func (ClearFacets) Kind() CommandKind     { return KindClearFacets }
func (ApplyFilters) Kind() CommandKind    { return KindApplyFilters }
func (SearchInput) Kind() CommandKind     { return KindSearchInput }
func (SelectResult) Kind() CommandKind    { return KindSelectResult }
func (ToggleMeasure) Kind() CommandKind   { return KindToggleMeasure }
func (ToggleAddMarker) Kind() CommandKind { return KindToggleMarker }
func (MapClick) Kind() CommandKind        { return KindMapClick }
func (CellClick) Kind() CommandKind       { return KindCellClick }
func (SaveMarker) Kind() CommandKind      { return KindSaveMarker }
func (DeleteMarker) Kind() CommandKind    { return KindDeleteMarker }
func (ClearMarkers) Kind() CommandKind    { return KindClearMarkers }
func (PointerDown) Kind() CommandKind     { return KindPointerDown }
func (PointerMove) Kind() CommandKind     { return KindPointerMove }
func (PointerUp) Kind() CommandKind       { return KindPointerUp }
func (PointerCancel) Kind() CommandKind   { return KindPointerCancel }
func (SaveProfile) Kind() CommandKind     { return KindSaveProfile }
func (LoadProfile) Kind() CommandKind     { return KindLoadProfile }
