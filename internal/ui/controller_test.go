package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobkml.dev/cellmap/internal/bands"
	"mobkml.dev/cellmap/internal/client"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
)

// fakeBackend answers from canned values and records what it was asked.
type fakeBackend struct {
	mu sync.Mutex

	bands        []bands.Info
	upload       models.UploadResult
	uploadErr    error
	autoMap      models.AutoMapResult
	setConfigErr error
	mapData      models.MapData
	mapDataErr   error
	values       map[string][]string
	applied      models.ApplyFiltersResult
	search       func(q, mode string) ([]models.SearchResult, error)
	profiles     map[string]models.ActiveConfig

	calls        []string
	facetColumns []string
	facetFilters []map[string][]string
	configs      []models.ActiveConfig
	queries      []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		values:   map[string][]string{},
		profiles: map[string]models.ActiveConfig{},
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeBackend) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls, f.facetColumns, f.facetFilters, f.configs, f.queries = nil, nil, nil, nil, nil
}

func (f *fakeBackend) Bands(context.Context) ([]bands.Info, error) {
	f.record("bands")
	return f.bands, nil
}

func (f *fakeBackend) Upload(_ context.Context, filename string, r io.Reader) (models.UploadResult, error) {
	f.record("upload")
	if _, err := io.ReadAll(r); err != nil {
		return models.UploadResult{}, err
	}
	if f.uploadErr != nil {
		return models.UploadResult{}, f.uploadErr
	}
	res := f.upload
	res.SourceName = filename
	return res, nil
}

func (f *fakeBackend) AutoMap(context.Context) (models.AutoMapResult, error) {
	f.record("auto-map")
	return f.autoMap, nil
}

func (f *fakeBackend) SetConfig(_ context.Context, cfg models.ActiveConfig) error {
	f.record("set-config")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setConfigErr != nil {
		return f.setConfigErr
	}
	f.configs = append(f.configs, cfg)
	return nil
}

func (f *fakeBackend) FilterValues(_ context.Context, column string, filters map[string][]string) ([]string, error) {
	f.record("filter-values")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facetColumns = append(f.facetColumns, column)
	f.facetFilters = append(f.facetFilters, filters)
	return slices.Clone(f.values[column]), nil
}

func (f *fakeBackend) ApplyFilters(context.Context, map[string][]string) (models.ApplyFiltersResult, error) {
	f.record("apply-filters")
	return f.applied, nil
}

func (f *fakeBackend) Search(_ context.Context, q, mode string) ([]models.SearchResult, error) {
	f.record("search")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	search := f.search
	f.mu.Unlock()
	if search == nil {
		return nil, nil
	}
	return search(q, mode)
}

func (f *fakeBackend) MapData(context.Context, bool) (models.MapData, error) {
	f.record("map-data")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mapData, f.mapDataErr
}

func (f *fakeBackend) SaveProfile(_ context.Context, name string, cfg models.ActiveConfig) error {
	f.record("save-profile")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[name] = cfg
	return nil
}

func (f *fakeBackend) LoadProfile(_ context.Context, name string) (models.ActiveConfig, error) {
	f.record("load-profile")
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.profiles[name]
	if !ok {
		return models.ActiveConfig{}, &client.APIError{Status: 404, Text: "Profile not found"}
	}
	return cfg, nil
}

func newTestController(t *testing.T, backend Backend) (*Controller, *RecordingView) {
	t.Helper()
	view := NewRecordingView()
	c := New(Config{
		Backend:     backend,
		View:        view,
		Logger:      logging.NewStructuredLogger(io.Discard, slog.LevelError),
		SearchDelay: 10 * time.Millisecond,
	})
	return c, view
}

func dispatch(t *testing.T, c *Controller, cmd Command) {
	t.Helper()
	require.NoError(t, c.Dispatch(context.Background(), cmd))
}

var oneCell = models.MapData{
	Cells: []models.CellFeature{{
		CellName: "SPA01A",
		SiteName: "SPA01",
		Lat:      -23.55,
		Lon:      -46.63,
		BandKey:  "1800",
	}},
	Sites: []models.SiteLabel{},
}

func locatedMapping() models.Mapping {
	return models.Mapping{Latitude: "Lat", Longitude: "Lon", SiteName: "Site"}
}

type bogusCommand struct{}

func (bogusCommand) Kind() CommandKind { return "bogus" }

func TestDispatchUnknownCommand(t *testing.T) {
	c, _ := newTestController(t, newFakeBackend())
	err := c.Dispatch(context.Background(), bogusCommand{})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{Backend: newFakeBackend()})
	state := c.State()
	assert.Equal(t, DefaultPanelSize, state.PanelSize)
	assert.Equal(t, ModeBrowse, state.Mode)
	assert.Equal(t, models.InitialScale, state.Config.Scale)
	assert.False(t, state.AutoRefresh)
}

func TestUploadFailureShowsStatusOnly(t *testing.T) {
	backend := newFakeBackend()
	backend.uploadErr = &client.APIError{Status: 400, Text: "Unsupported file format"}
	c, _ := newTestController(t, backend)

	err := c.Dispatch(context.Background(), Upload{Filename: "notes.txt", Body: strings.NewReader("x")})
	require.Error(t, err)

	state := c.State()
	assert.Equal(t, "Upload error: Unsupported file format", state.Status)
	assert.Empty(t, state.Columns)
	assert.Empty(t, state.FilterColumns)
	assert.Equal(t, []string{"upload"}, backend.Calls())
}

func TestUploadThenAutoMapTurnsOnAutoRefresh(t *testing.T) {
	backend := newFakeBackend()
	backend.upload = models.UploadResult{
		Columns:       []string{"Site", "Lat", "Lon", "UF"},
		TotalRows:     1,
		FilterColumns: map[string]string{"uf": "UF"},
	}
	backend.values["UF"] = []string{"SP"}
	backend.autoMap = models.AutoMapResult{Mapping: locatedMapping(), Issues: []string{}}
	backend.mapData = oneCell
	c, view := newTestController(t, backend)

	dispatch(t, c, Upload{Filename: "sites.csv", Body: strings.NewReader("data")})
	state := c.State()
	assert.Equal(t, "Data loaded", state.Status)
	assert.Equal(t, "sites.csv", state.SourceName)
	assert.Equal(t, []string{"SP"}, state.FilterOptions["uf"])
	assert.False(t, state.AutoRefresh)

	dispatch(t, c, AutoMap{})
	state = c.State()
	assert.True(t, state.AutoRefresh)
	assert.Equal(t, locatedMapping(), state.Config.Mapping)
	require.NotNil(t, state.Layers)
	assert.Len(t, state.Layers.Cells, 1)
	assert.Equal(t, "Map updated: 1 cells", state.Status)

	drawn := view.Snapshot()
	assert.Equal(t, 1, drawn.LayerSets)
	require.Len(t, backend.configs, 1)
	assert.Equal(t, locatedMapping(), backend.configs[0].Mapping)
}

func TestAutoMapWithoutCoordinates(t *testing.T) {
	backend := newFakeBackend()
	backend.autoMap = models.AutoMapResult{
		Mapping: models.Mapping{SiteName: "Site"},
		Issues:  []string{"Latitude is not mapped"},
	}
	c, _ := newTestController(t, backend)

	dispatch(t, c, AutoMap{})
	state := c.State()
	assert.False(t, state.AutoRefresh)
	assert.Equal(t, []string{"Latitude is not mapped"}, state.Issues)
	assert.Equal(t, []string{"auto-map"}, backend.Calls())
}

func TestRefreshSkippedWithoutCoordinates(t *testing.T) {
	backend := newFakeBackend()
	c, view := newTestController(t, backend)

	dispatch(t, c, RefreshMap{})
	assert.Empty(t, backend.Calls())
	assert.Zero(t, view.Snapshot().LayerSets)
	assert.Empty(t, c.State().Status)
}

func TestRefreshFailureKeepsLayers(t *testing.T) {
	backend := newFakeBackend()
	backend.mapData = oneCell
	c, view := newTestController(t, backend)

	cfg := models.NewActiveConfig()
	cfg.Mapping = locatedMapping()
	dispatch(t, c, SetConfig{Config: cfg})
	dispatch(t, c, SetAutoRefresh{On: true})
	require.NotNil(t, c.State().Layers)

	backend.mu.Lock()
	backend.mapData = models.MapData{}
	backend.mapDataErr = &client.APIError{Status: 400, Text: "Mapping incomplete"}
	backend.mu.Unlock()

	err := c.Dispatch(context.Background(), RefreshMap{})
	require.Error(t, err)
	state := c.State()
	require.NotNil(t, state.Layers)
	assert.Len(t, state.Layers.Cells, 1)
	assert.Equal(t, "Error: map data not available: Mapping incomplete", state.Status)
	assert.Equal(t, 1, view.Snapshot().LayerSets)
}

func TestRefreshStopsWhenConfigIsRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.setConfigErr = errors.New("connection refused")
	c, _ := newTestController(t, backend)

	cfg := models.NewActiveConfig()
	cfg.Mapping = locatedMapping()
	dispatch(t, c, SetConfig{Config: cfg})

	err := c.Dispatch(context.Background(), RefreshMap{})
	require.Error(t, err)
	assert.Equal(t, []string{"set-config"}, backend.Calls())
	assert.Equal(t, "Error applying configuration: server unreachable", c.State().Status)
	assert.Nil(t, c.State().Layers)
}

func TestFacetChangeRefreshesOtherFacets(t *testing.T) {
	backend := newFakeBackend()
	backend.upload = models.UploadResult{
		Columns: []string{"UF", "CN", "Regional", "Municipio"},
		FilterColumns: map[string]string{
			"uf":        "UF",
			"cn":        "CN",
			"regional":  "Regional",
			"municipio": "Municipio",
		},
	}
	backend.values = map[string][]string{
		"UF":        {"RJ", "SP"},
		"CN":        {"11", "19", "21"},
		"Regional":  {"Leste", "Sul"},
		"Municipio": {"Campinas", "Rio de Janeiro", "Sao Paulo"},
	}
	c, _ := newTestController(t, backend)

	dispatch(t, c, Upload{Filename: "sites.csv", Body: strings.NewReader("data")})
	assert.ElementsMatch(t, []string{"UF", "CN", "Regional", "Municipio"}, backend.facetColumns)

	dispatch(t, c, ChangeFacet{Key: "municipio", Values: []string{"Campinas", "Rio de Janeiro"}})

	backend.reset()
	backend.mu.Lock()
	backend.values["Municipio"] = []string{"Campinas", "Sao Paulo"}
	backend.mu.Unlock()

	dispatch(t, c, ChangeFacet{Key: "uf", Values: []string{"SP"}})
	assert.ElementsMatch(t, []string{"CN", "Regional", "Municipio"}, backend.facetColumns)
	for _, filters := range backend.facetFilters {
		assert.Equal(t, map[string][]string{
			"UF":        {"SP"},
			"Municipio": {"Campinas", "Rio de Janeiro"},
		}, filters)
	}

	state := c.State()
	assert.Equal(t, []string{"Campinas", "Sao Paulo"}, state.FilterOptions["municipio"])
	assert.Equal(t, []string{"Campinas"}, state.Selections["municipio"])
	assert.Equal(t, []string{"SP"}, state.Selections["uf"])
	assert.Equal(t, []string{"RJ", "SP"}, state.FilterOptions["uf"])
}

func TestFacetErrors(t *testing.T) {
	c, _ := newTestController(t, newFakeBackend())
	err := c.Dispatch(context.Background(), ChangeFacet{Key: "uf", Values: []string{"SP"}})
	assert.ErrorIs(t, err, ErrUnknownFacet)
}

func TestClearFacets(t *testing.T) {
	backend := newFakeBackend()
	backend.upload = models.UploadResult{FilterColumns: map[string]string{"uf": "UF"}}
	backend.values["UF"] = []string{"SP"}
	c, _ := newTestController(t, backend)
	dispatch(t, c, Upload{Filename: "a.csv", Body: strings.NewReader("")})
	dispatch(t, c, ChangeFacet{Key: "uf", Values: []string{"SP"}})

	dispatch(t, c, ClearFacets{})
	assert.Empty(t, c.State().Selections)
}

func TestApplyFilters(t *testing.T) {
	backend := newFakeBackend()
	backend.applied = models.ApplyFiltersResult{TotalRows: 2, Preview: []map[string]string{{"Site": "SPA01"}}}
	backend.mapData = oneCell
	c, _ := newTestController(t, backend)

	dispatch(t, c, ApplyFilters{})
	state := c.State()
	assert.Equal(t, 2, state.TotalRows)
	assert.Equal(t, "Filters applied: 2 rows", state.Status)
	assert.Equal(t, []string{"apply-filters"}, backend.Calls(), "no mapping, no refresh")

	cfg := models.NewActiveConfig()
	cfg.Mapping = locatedMapping()
	dispatch(t, c, SetConfig{Config: cfg})
	dispatch(t, c, ApplyFilters{})
	assert.Equal(t, []string{"apply-filters", "apply-filters", "set-config", "map-data"}, backend.Calls())
}

func TestProfiles(t *testing.T) {
	backend := newFakeBackend()
	backend.mapData = oneCell
	c, _ := newTestController(t, backend)

	assert.ErrorIs(t, c.Dispatch(context.Background(), SaveProfile{Name: "  "}), ErrEmptyProfileName)
	assert.ErrorIs(t, c.Dispatch(context.Background(), LoadProfile{}), ErrEmptyProfileName)

	cfg := models.NewActiveConfig()
	cfg.Mapping = locatedMapping()
	cfg.Scale = 1.5
	dispatch(t, c, SetConfig{Config: cfg})
	dispatch(t, c, SaveProfile{Name: "north"})
	assert.Equal(t, "Profile saved: north", c.State().Status)
	assert.Equal(t, 1.5, backend.profiles["north"].Scale)

	dispatch(t, c, SetConfig{Config: models.NewActiveConfig()})
	dispatch(t, c, SetAutoRefresh{On: true})
	dispatch(t, c, LoadProfile{Name: "north"})
	state := c.State()
	assert.Equal(t, 1.5, state.Config.Scale)
	assert.Equal(t, locatedMapping(), state.Config.Mapping)
	require.NotNil(t, state.Layers, "auto-refresh redraws the loaded profile")

	err := c.Dispatch(context.Background(), LoadProfile{Name: "south"})
	require.Error(t, err)
	assert.Equal(t, "Could not load profile: Profile not found", c.State().Status)
	assert.Equal(t, 1.5, c.State().Config.Scale)
}

func TestLoadBands(t *testing.T) {
	backend := newFakeBackend()
	backend.bands = bands.Catalog()
	c, _ := newTestController(t, backend)

	dispatch(t, c, LoadBands{})
	assert.Equal(t, bands.Catalog(), c.State().Bands)
}

func TestSearchPublishesLatestQuery(t *testing.T) {
	backend := newFakeBackend()
	backend.search = func(q, mode string) ([]models.SearchResult, error) {
		return []models.SearchResult{{Kind: mode, SiteName: strings.ToUpper(q), Lat: 1, Lon: 2}}, nil
	}
	c, view := newTestController(t, backend)

	for _, q := range []string{"sp", "spa", "spa0"} {
		dispatch(t, c, SearchInput{Query: q, Mode: models.KindSite})
	}
	require.Eventually(t, func() bool {
		results := c.State().SearchResults
		return len(results) == 1 && results[0].SiteName == "SPA0"
	}, time.Second, 5*time.Millisecond)

	dispatch(t, c, SelectResult{Index: 0})
	assert.Equal(t, &geo.Point{Lat: 1, Lon: 2}, view.Snapshot().Focus)
	assert.ErrorIs(t, c.Dispatch(context.Background(), SelectResult{Index: 3}), ErrNoSuchResult)

	dispatch(t, c, SearchInput{Query: " s "})
	assert.Empty(t, c.State().SearchResults)
}

func TestSearchDropsStaleResponses(t *testing.T) {
	backend := newFakeBackend()
	backend.search = func(q, _ string) ([]models.SearchResult, error) {
		return []models.SearchResult{{SiteName: q}}, nil
	}
	c, _ := newTestController(t, backend)

	c.mu.Lock()
	c.searchGen = 4
	c.mu.Unlock()

	c.runSearch(context.Background(), 3, "old", "")
	assert.Empty(t, c.State().SearchResults)

	c.runSearch(context.Background(), 4, "new", "")
	assert.Equal(t, []models.SearchResult{{SiteName: "new"}}, c.State().SearchResults)
}

func TestSearchFailureSetsStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.search = func(string, string) ([]models.SearchResult, error) {
		return nil, context.DeadlineExceeded
	}
	c, _ := newTestController(t, backend)

	dispatch(t, c, SearchInput{Query: "spa"})
	require.Eventually(t, func() bool {
		return c.State().Status == "Search failed: request cancelled"
	}, time.Second, 5*time.Millisecond)
}

func TestStateIsACopy(t *testing.T) {
	backend := newFakeBackend()
	backend.upload = models.UploadResult{Columns: []string{"A"}, FilterColumns: map[string]string{}}
	c, _ := newTestController(t, backend)
	dispatch(t, c, Upload{Filename: "a.csv", Body: strings.NewReader("")})

	state := c.State()
	state.Columns[0] = "changed"
	state.FilterColumns["uf"] = "UF"
	assert.Equal(t, []string{"A"}, c.State().Columns)
	assert.Empty(t, c.State().FilterColumns)
}

func TestStateSharesNothingNested(t *testing.T) {
	backend := newFakeBackend()
	backend.upload = models.UploadResult{
		Columns:       []string{"Lat", "Lon"},
		Preview:       []map[string]string{{"Lat": "1"}},
		FilterColumns: map[string]string{},
	}
	backend.mapData = models.MapData{
		Cells: []models.CellFeature{{CellName: "A", Polygon: [][2]float64{{1, 1}, {2, 2}}}},
		Sites: []models.SiteLabel{{Label: "S"}},
	}
	c, _ := newTestController(t, backend)
	dispatch(t, c, Upload{Filename: "a.csv", Body: strings.NewReader("")})

	cfg := models.NewActiveConfig()
	cfg.Mapping = locatedMapping()
	cfg.BandScaleOverrides["1800"] = 700
	cfg.ExtraFields = []string{"Vendor"}
	dispatch(t, c, SetConfig{Config: cfg})
	dispatch(t, c, SetAutoRefresh{On: true})

	// the caller's config is not aliased either
	cfg.BandScaleOverrides["1800"] = 1
	cfg.ExtraFields[0] = "changed"

	state := c.State()
	require.NotNil(t, state.Layers)
	state.Config.BandScaleOverrides["2600"] = 9
	state.Config.BeamwidthOverrides["2600"] = 9
	state.Preview[0]["Lat"] = "changed"
	state.Layers.Cells[0].CellName = "changed"
	state.Layers.Cells[0].Polygon[0] = [2]float64{9, 9}
	state.Layers.Sites[0].Label = "changed"

	fresh := c.State()
	assert.Equal(t, map[string]float64{"1800": 700}, fresh.Config.BandScaleOverrides)
	assert.Empty(t, fresh.Config.BeamwidthOverrides)
	assert.Equal(t, []string{"Vendor"}, fresh.Config.ExtraFields)
	assert.Equal(t, "1", fresh.Preview[0]["Lat"])
	assert.Equal(t, "A", fresh.Layers.Cells[0].CellName)
	assert.Equal(t, [2]float64{1, 1}, fresh.Layers.Cells[0].Polygon[0])
	assert.Equal(t, "S", fresh.Layers.Sites[0].Label)
}

func TestMarkerIDsAreUUIDs(t *testing.T) {
	c, _ := newTestController(t, newFakeBackend())
	dispatch(t, c, SaveMarker{Type: MarkerPin, Position: geo.Point{Lat: 1, Lon: 1}})
	_, err := uuid.Parse(c.State().Markers[0].ID)
	assert.NoError(t, err)
}
