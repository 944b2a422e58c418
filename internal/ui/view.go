package ui

import (
	"context"
	"io"
	"slices"
	"sync"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/client"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/models"
)

// Backend is the part of the REST API the controller drives.
type Backend interface {
	Bands(ctx context.Context) ([]bands.Info, error)
	Upload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error)
	AutoMap(ctx context.Context) (models.AutoMapResult, error)
	SetConfig(ctx context.Context, cfg models.ActiveConfig) error
	FilterValues(ctx context.Context, column string, filters map[string][]string) ([]string, error)
	ApplyFilters(ctx context.Context, filters map[string][]string) (models.ApplyFiltersResult, error)
	Search(ctx context.Context, q, mode string) ([]models.SearchResult, error)
	MapData(ctx context.Context, polyline bool) (models.MapData, error)
	SaveProfile(ctx context.Context, name string, cfg models.ActiveConfig) error
	LoadProfile(ctx context.Context, name string) (models.ActiveConfig, error)
}

var _ Backend = (*client.Client)(nil)

// MapView draws what the controller decides. Calls are made with the
// controller lock held and must not call back into the controller.
type MapView interface {
	SetLayers(data models.MapData)
	SetPanning(enabled bool)
	DrawMeasureStart(p geo.Point)
	DrawMeasureLine(a, b geo.Point, label string)
	ClearMeasure()
	DrawMarker(m Marker)
	RemoveMarker(id string)
	OpenPopup(id string)
	FocusOn(p geo.Point)
	SetPanelSize(px int)
}

// MeasureLine is a drawn measurement.
type MeasureLine struct {
	From, To geo.Point
	Label    string
}

// ViewState is what a RecordingView has drawn so far.
type ViewState struct {
	Layers      *models.MapData
	LayerSets   int
	Panning     bool
	PanningLog  []bool
	MeasureFrom *geo.Point
	Line        *MeasureLine
	Markers     map[string]Marker
	Popups      []string
	Focus       *geo.Point
	PanelSize   int
}

// RecordingView is a MapView that keeps what was drawn in memory.
type RecordingView struct {
	mu    sync.Mutex
	state ViewState
}

// NewRecordingView returns an empty view with panning enabled.
func NewRecordingView() *RecordingView {
	return &RecordingView{state: ViewState{Panning: true, Markers: map[string]Marker{}}}
}

func (v *RecordingView) SetLayers(data models.MapData) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Layers = &data
	v.state.LayerSets++
}

func (v *RecordingView) SetPanning(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Panning = enabled
	v.state.PanningLog = append(v.state.PanningLog, enabled)
}

func (v *RecordingView) DrawMeasureStart(p geo.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.MeasureFrom = &p
	v.state.Line = nil
}

func (v *RecordingView) DrawMeasureLine(a, b geo.Point, label string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Line = &MeasureLine{From: a, To: b, Label: label}
}

func (v *RecordingView) ClearMeasure() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.MeasureFrom = nil
	v.state.Line = nil
}

func (v *RecordingView) DrawMarker(m Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Markers[m.ID] = m.clone()
}

func (v *RecordingView) RemoveMarker(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.state.Markers, id)
}

func (v *RecordingView) OpenPopup(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Popups = append(v.state.Popups, id)
}

func (v *RecordingView) FocusOn(p geo.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Focus = &p
}

func (v *RecordingView) SetPanelSize(px int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.PanelSize = px
}

// Snapshot returns a copy of what was drawn.
func (v *RecordingView) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.state
	out.PanningLog = slices.Clone(v.state.PanningLog)
	out.Popups = slices.Clone(v.state.Popups)
	out.Markers = make(map[string]Marker, len(v.state.Markers))
	for id, m := range v.state.Markers {
		out.Markers[id] = m.clone()
	}
	return out
}
