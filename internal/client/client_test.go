package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobkml.dev/cellmap/internal/app"
	"mobkml.dev/cellmap/internal/appconf"
	"mobkml.dev/cellmap/internal/export"
	"mobkml.dev/cellmap/internal/geo"
	"mobkml.dev/cellmap/internal/logging"
	"mobkml.dev/cellmap/internal/models"
	"mobkml.dev/cellmap/internal/profiles"
	"mobkml.dev/cellmap/internal/restapi"
	"mobkml.dev/cellmap/internal/workspace"
)

const sitesCSV = `Site,Cell,Latitude,Longitude,EARFCN,Azimuth,UF
SPA01,SPA01A,-23.55,-46.63,1300,0,SP
SPA01,SPA01B,-23.55,-46.63,9410,120,SP
RJO01,RJO01A,-22.90,-43.17,3050,90,RJ
`

func newTestServer(t *testing.T) *httptest.Server {
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)
	cfg := appconf.Config{
		Env:     appconf.Test,
		ApiKeys: []string{"secret"},
		DBType:  profiles.DriverSQLite,
		DBPath:  ":memory:",
	}
	store, err := profiles.Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	api := restapi.NewRestAPI(&app.Application{
		Config:    cfg,
		Logger:    logger,
		Workspace: workspace.New(),
		Profiles:  store,
	})
	t.Cleanup(api.Stop)

	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) *Client {
	server := newTestServer(t)
	return New(Config{
		BaseURL: server.URL + "/",
		APIKey:  "secret",
		Logger:  logging.NewStructuredLogger(io.Discard, slog.LevelError),
	})
}

func TestAPIErrors(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	anonymous := New(Config{BaseURL: server.URL})
	_, err := anonymous.Bands(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "permission denied", apiErr.Text)

	c := New(Config{BaseURL: server.URL, APIKey: "secret"})
	_, err = c.MapData(ctx, false)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "No data loaded. Upload a file first.", apiErr.Text)
	assert.Equal(t, "server returned 400: No data loaded. Upload a file first.", apiErr.Error())

	_, err = c.Nearby(ctx, geo.Point{Lat: 91, Lon: 0}, 0, 0)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "lat: latitude must be between -90 and 90", apiErr.Text)
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := New(Config{BaseURL: server.URL}).Bands(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Health(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkflow(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	catalogue, err := c.Bands(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, catalogue)

	upload, err := c.Upload(ctx, "sites.csv", strings.NewReader(sitesCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, upload.TotalRows)
	assert.Equal(t, "UF", upload.FilterColumns["uf"])

	auto, err := c.AutoMap(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Latitude", auto.Mapping.Latitude)
	assert.Equal(t, "Longitude", auto.Mapping.Longitude)

	issues, err := c.ValidateMapping(ctx, auto.Mapping, "")
	require.NoError(t, err)
	assert.NotNil(t, issues)

	cfg, err := c.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, auto.Mapping, cfg.Mapping)
	cfg.Scale = 1
	require.NoError(t, c.SetConfig(ctx, cfg))

	values, err := c.FilterValues(ctx, "UF", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"RJ", "SP"}, values)

	applied, err := c.ApplyFilters(ctx, map[string][]string{"UF": {"SP"}})
	require.NoError(t, err)
	assert.Equal(t, 2, applied.TotalRows)

	results, err := c.Search(ctx, "spa01b", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "SPA01B", results[0].CellName)

	nearby, err := c.Nearby(ctx, geo.Point{Lat: -23.55, Lon: -46.63}, 2000, 5)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, "SPA01", nearby[0].SiteName)

	data, err := c.MapData(ctx, true)
	require.NoError(t, err)
	require.Len(t, data.Cells, 2)
	assert.NotEmpty(t, data.Cells[0].Polyline)

	ring, err := c.SectorPreview(ctx, models.SectorRequest{Lat: 1, Lon: 1, Azimuth: 45, Beamwidth: 30, Radius: 100})
	require.NoError(t, err)
	assert.Equal(t, ring[0], ring[len(ring)-1])

	dist, err := c.CalculateDistance(ctx, geo.Point{}, geo.Point{Lon: 0.01})
	require.NoError(t, err)
	assert.Equal(t, "1.11 km", dist.Formatted)

	kml, err := c.GenerateKML(ctx)
	require.NoError(t, err)
	assert.Equal(t, export.KMLContentType, kml.ContentType)
	assert.True(t, strings.HasPrefix(kml.Filename, "cell_sites_"))
	assert.Contains(t, string(kml.Body), "<kml")

	kmz, err := c.GenerateKMZ(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(kmz.Filename, ".kmz"))
	assert.Equal(t, "PK", string(kmz.Body[:2]))

	report, err := c.ExportReport(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(report.Body), "Total rows: 2")
}

func TestProfiles(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	names, err := c.Profiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	cfg := models.NewActiveConfig()
	cfg.Mapping.Latitude = "lat"
	require.NoError(t, c.SaveProfile(ctx, "north region", cfg))

	names, err = c.Profiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"north region"}, names)

	loaded, err := c.LoadProfile(ctx, "north region")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	png, err := c.ProfileQR(ctx, "north region", 128)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	require.NoError(t, c.DeleteProfile(ctx, "north region"))
	_, err = c.LoadProfile(ctx, "north region")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
